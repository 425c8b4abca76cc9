package constraint

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

func TestMaxHoursPerWeekConstraint_Evaluate(t *testing.T) {
	c := NewMaxHoursPerWeekConstraint(40)

	// 一周内每天8小时，共6天 = 48小时
	var shifts []*model.CandidateShift
	for i := 11; i <= 16; i++ {
		date := time.Date(2026, 1, i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		shifts = append(shifts, createShift(date, "09:00", "17:00"))
	}

	ctx := createTestContext(shifts)
	valid, penalty, violations := c.Evaluate(ctx)

	if valid {
		t.Error("48小时超过40小时限制应该失败")
	}
	if penalty == 0 {
		t.Error("应该有惩罚值")
	}
	if len(violations) == 0 {
		t.Error("应该有违反详情")
	}
}

func TestMaxHoursPerWeekConstraint_EvaluateCandidate(t *testing.T) {
	c := NewMaxHoursPerWeekConstraint(40)

	// 已排 4 天各 8 小时 = 32 小时
	var shifts []*model.CandidateShift
	for i := 11; i <= 14; i++ {
		date := time.Date(2026, 1, i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		shifts = append(shifts, createShift(date, "09:00", "17:00"))
	}
	ctx := createTestContext(shifts)
	empID := ctx.Employees[0].ID

	// 新增8小时（总40）应该通过
	ok8 := createShift("2026-01-15", "09:00", "17:00")
	ok8.EmployeeID = empID
	if valid, _ := c.EvaluateCandidate(ctx, ok8); !valid {
		t.Error("40小时未超限应通过")
	}

	// 新增10小时（总42）应该失败
	over := createShift("2026-01-15", "09:00", "19:00")
	over.EmployeeID = empID
	if valid, penalty := c.EvaluateCandidate(ctx, over); valid || penalty == 0 {
		t.Errorf("42小时超限应失败，got valid=%v, penalty=%d", valid, penalty)
	}
}

func TestMinRestBetweenShiftsConstraint_EvaluateCandidate(t *testing.T) {
	c := NewMinRestBetweenShiftsConstraint(8)

	// 已有班次 2026-01-12 09:00-17:00
	ctx := createTestContext([]*model.CandidateShift{
		createShift("2026-01-12", "09:00", "17:00"),
	})
	empID := ctx.Employees[0].ID

	// 当晚 22:00 开始，仅休息 5 小时，应该失败
	tooSoon := createShift("2026-01-12", "22:00", "23:00")
	tooSoon.EmployeeID = empID
	if valid, _ := c.EvaluateCandidate(ctx, tooSoon); valid {
		t.Error("5小时休息少于8小时应该失败")
	}

	// 次日 09:00 开始，休息 16 小时，应该通过
	nextDay := createShift("2026-01-13", "09:00", "17:00")
	nextDay.EmployeeID = empID
	if valid, _ := c.EvaluateCandidate(ctx, nextDay); !valid {
		t.Error("16小时休息应该通过")
	}

	// 时间重叠应该失败
	overlap := createShift("2026-01-12", "12:00", "20:00")
	overlap.EmployeeID = empID
	if valid, _ := c.EvaluateCandidate(ctx, overlap); valid {
		t.Error("重叠班次应该失败")
	}
}

func TestMaxConsecutiveDaysConstraint_EvaluateCandidate(t *testing.T) {
	c := NewMaxConsecutiveDaysConstraint(3)

	// 已连续排班 3 天
	ctx := createTestContext([]*model.CandidateShift{
		createShift("2026-01-12", "09:00", "17:00"),
		createShift("2026-01-13", "09:00", "17:00"),
		createShift("2026-01-14", "09:00", "17:00"),
	})
	empID := ctx.Employees[0].ID

	// 第 4 个连续日应该失败
	fourth := createShift("2026-01-15", "09:00", "17:00")
	fourth.EmployeeID = empID
	if valid, _ := c.EvaluateCandidate(ctx, fourth); valid {
		t.Error("第4个连续工作日应该失败")
	}

	// 隔一天之后应该通过
	afterGap := createShift("2026-01-16", "09:00", "17:00")
	afterGap.EmployeeID = empID
	if valid, _ := c.EvaluateCandidate(ctx, afterGap); !valid {
		t.Error("间隔一天后应该通过")
	}
}

func TestShiftDurationConstraint_EvaluateCandidate(t *testing.T) {
	c := NewShiftDurationConstraint(4, 12)
	ctx := createTestContext(nil)

	tests := []struct {
		name      string
		start     string
		end       string
		wantValid bool
	}{
		{"8小时在范围内", "09:00", "17:00", true},
		{"2小时过短", "09:00", "11:00", false},
		{"14小时过长", "08:00", "22:00", false},
		{"4小时达到下限", "09:00", "13:00", true},
		{"12小时达到上限", "08:00", "20:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := createShift("2026-01-12", tt.start, tt.end)
			valid, _ := c.EvaluateCandidate(ctx, s)
			if valid != tt.wantValid {
				t.Errorf("EvaluateCandidate() valid = %v, want %v", valid, tt.wantValid)
			}
		})
	}
}

func TestAvailabilityConstraint_EvaluateCandidate(t *testing.T) {
	c := NewAvailabilityConstraint()

	ctx := createTestContext(nil)
	emp := ctx.Employees[0]
	// 周一全天不可用（2026-01-12 是周一）
	emp.Availability = []model.AvailabilitySlot{
		{DayOfWeek: 1, IsAvailable: false},
	}

	monday := createShift("2026-01-12", "09:00", "17:00")
	monday.EmployeeID = emp.ID
	if valid, _ := c.EvaluateCandidate(ctx, monday); valid {
		t.Error("周一不可用应该失败")
	}

	tuesday := createShift("2026-01-13", "09:00", "17:00")
	tuesday.EmployeeID = emp.ID
	if valid, _ := c.EvaluateCandidate(ctx, tuesday); !valid {
		t.Error("周二未声明不可用应该通过")
	}
}

func TestTimeOffConstraint_EvaluateCandidate(t *testing.T) {
	c := NewTimeOffConstraint()

	ctx := createTestContext(nil)
	emp := ctx.Employees[0]
	emp.TimeOff = []model.TimeOffRange{
		{StartDate: "2026-01-12", EndDate: "2026-01-14", Reason: "年假"},
	}

	during := createShift("2026-01-13", "09:00", "17:00")
	during.EmployeeID = emp.ID
	if valid, _ := c.EvaluateCandidate(ctx, during); valid {
		t.Error("休假期间排班应该失败")
	}

	after := createShift("2026-01-15", "09:00", "17:00")
	after.EmployeeID = emp.ID
	if valid, _ := c.EvaluateCandidate(ctx, after); !valid {
		t.Error("休假结束后排班应该通过")
	}
}

// 辅助函数

func createTestContext(shifts []*model.CandidateShift) *Context {
	tmpl := &model.ConstraintTemplate{Name: "测试模板"}
	tmpl.ApplyDefaults()
	ctx := NewContext(tmpl, "2026-01-11", "2026-01-24")

	// 创建测试员工
	empID := uuid.New()
	emp := &model.Employee{
		BaseModel: model.BaseModel{ID: empID},
		Name:      "测试员工",
		Status:    "active",
		Role:      "staff",
	}
	ctx.SetEmployees([]*model.Employee{emp})

	for _, s := range shifts {
		s.EmployeeID = empID
		ctx.AddCandidate(s)
	}
	return ctx
}

func createShift(date, start, end string) *model.CandidateShift {
	return &model.CandidateShift{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Date:      date,
		StartTime: start,
		EndTime:   end,
		State:     model.CandidateDraft,
	}
}

package generator

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

func TestGenerate_NoOperatingDays(t *testing.T) {
	tmpl := newTestTemplate()
	for i := range tmpl.OperatingWindows {
		tmpl.OperatingWindows[i].IsOpen = false
	}

	g := New()
	result, err := g.Generate(context.Background(), tmpl, newTestEmployees(3), testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(result.Shifts) != 0 {
		t.Errorf("无营业日应生成空列表，got %d", len(result.Shifts))
	}
}

func TestGenerate_NoEmployees(t *testing.T) {
	tmpl := newTestTemplate()

	g := New()
	result, err := g.Generate(context.Background(), tmpl, nil, testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// 无员工时所有槽位都是未分配占位班次
	for _, s := range result.Shifts {
		if s.IsAssigned() {
			t.Errorf("无员工时不应有已分配班次: %+v", s)
		}
	}
	if len(result.Shifts) == 0 {
		t.Error("营业日的槽位应输出占位班次")
	}
	if result.Statistics.AssignedShifts != 0 {
		t.Errorf("已分配数应为0，got %d", result.Statistics.AssignedShifts)
	}
}

func TestGenerate_FillsMinStaff(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 2

	g := New()
	result, err := g.Generate(context.Background(), tmpl, newTestEmployees(4), testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// 周一（2026-01-12）应至少有2个已分配班次
	assigned := 0
	for _, s := range result.Shifts {
		if s.Date == "2026-01-12" && s.IsAssigned() {
			assigned++
		}
	}
	if assigned < 2 {
		t.Errorf("周一应至少分配2人，got %d", assigned)
	}
}

func TestGenerate_PlaceholdersForUnstaffable(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 3

	// 仅1名员工，周一缺口2人
	g := New()
	result, err := g.Generate(context.Background(), tmpl, newTestEmployees(1), testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	placeholders := 0
	for _, s := range result.Shifts {
		if s.Date == "2026-01-12" && !s.IsAssigned() {
			placeholders++
			if s.EmployeeID != uuid.Nil {
				t.Error("占位班次的员工ID应为空")
			}
		}
	}
	if placeholders == 0 {
		t.Error("人手不足时应输出未分配占位班次")
	}
	if len(result.Unfilled) == 0 {
		t.Error("应记录未满足的槽位")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 2
	employees := newTestEmployees(4)

	g := New()
	first, err := g.Generate(context.Background(), tmpl, employees, testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := g.Generate(context.Background(), tmpl, employees, testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(first.Shifts) != len(second.Shifts) {
		t.Fatalf("两次生成班次数应一致: %d vs %d", len(first.Shifts), len(second.Shifts))
	}
	for i := range first.Shifts {
		a, b := first.Shifts[i], second.Shifts[i]
		if a.Date != b.Date || a.StartTime != b.StartTime || a.EmployeeID != b.EmployeeID {
			t.Errorf("第%d个班次不一致: %s/%s/%s vs %s/%s/%s",
				i, a.Date, a.StartTime, a.EmployeeID, b.Date, b.StartTime, b.EmployeeID)
		}
	}
}

func TestGenerate_RespectsTimeOff(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.EnforceTimeOff = true

	employees := newTestEmployees(2)
	employees[0].TimeOff = []model.TimeOffRange{
		{StartDate: "2026-01-12", EndDate: "2026-01-18", Reason: "年假"},
	}

	g := New()
	result, err := g.Generate(context.Background(), tmpl, employees, testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, s := range result.Shifts {
		if s.EmployeeID == employees[0].ID {
			t.Errorf("休假员工不应被排班: %s", s.Date)
		}
	}
}

func TestGenerate_AdministratorCoversManagerSlot(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.RequireManagerCoverage = true

	// 池中唯一的管理岗是 administrator，而非 manager
	employees := newTestEmployees(2)
	admin := &model.Employee{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Name:       "行政主管",
		Status:     "active",
		Role:       "administrator",
		Department: "Operations",
	}
	employees = append(employees, admin)

	g := New()
	result, err := g.Generate(context.Background(), tmpl, employees, testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	assignedDays := make(map[string]bool)
	for _, s := range result.Shifts {
		if s.EmployeeID == admin.ID {
			assignedDays[s.Date] = true
		}
	}
	if len(assignedDays) == 0 {
		t.Fatal("administrator 应可填补管理者覆盖槽位")
	}
	for _, u := range result.Unfilled {
		if u.Role == "manager" {
			t.Errorf("存在可用管理岗时不应有未满足的管理者槽位: %+v", u)
		}
	}
}

func TestGenerate_Cancellation(t *testing.T) {
	tmpl := newTestTemplate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := New()
	_, err := g.Generate(ctx, tmpl, newTestEmployees(3), testRange())
	if err == nil {
		t.Error("已取消的上下文应返回错误")
	}
}

func TestGenerate_SortedOutput(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 2

	g := New()
	result, err := g.Generate(context.Background(), tmpl, newTestEmployees(4), testRange())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for i := 1; i < len(result.Shifts); i++ {
		prev, cur := result.Shifts[i-1], result.Shifts[i]
		if prev.Date > cur.Date {
			t.Fatalf("输出应按日期排序: %s > %s", prev.Date, cur.Date)
		}
		if prev.Date == cur.Date && prev.StartTime > cur.StartTime {
			t.Fatalf("同日应按开始时间排序: %s > %s", prev.StartTime, cur.StartTime)
		}
	}
}

// 辅助函数

// newTestTemplate 周一至周五营业 09:00-17:00 的基础模板
func newTestTemplate() *model.ConstraintTemplate {
	tmpl := &model.ConstraintTemplate{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      "测试模板",
	}
	for day := 1; day <= 5; day++ {
		tmpl.OperatingWindows = append(tmpl.OperatingWindows, model.OperatingWindow{
			DayOfWeek: day,
			IsOpen:    true,
			OpenTime:  "09:00",
			CloseTime: "17:00",
			MinStaff:  1,
		})
	}
	tmpl.ApplyDefaults()
	return tmpl
}

func newTestEmployees(n int) []*model.Employee {
	employees := make([]*model.Employee, 0, n)
	for i := 0; i < n; i++ {
		employees = append(employees, &model.Employee{
			BaseModel:  model.BaseModel{ID: uuid.New()},
			Name:       "员工" + string(rune('A'+i)),
			Status:     "active",
			Role:       "staff",
			Department: "Operations",
		})
	}
	return employees
}

func testRange() model.DateRange {
	return model.DateRange{StartDate: "2026-01-12", EndDate: "2026-01-18"}
}

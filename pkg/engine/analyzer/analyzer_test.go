package analyzer

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

func TestAnalyze_NoOperatingDays(t *testing.T) {
	tmpl := newTestTemplate()
	for i := range tmpl.OperatingWindows {
		tmpl.OperatingWindows[i].IsOpen = false
	}
	tmpl.ShiftTemplates = nil

	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(3), testRange())

	if !hasConflict(result, ConflictNoOperatingDays) {
		t.Fatal("应检测到无营业日冲突")
	}
	if result.CanProceed {
		t.Error("无营业日时不应允许继续")
	}
	if !hasAutoFixableSuggestion(result, "enable_business_days") {
		t.Error("应产生可自动修复的启用营业日建议")
	}
}

func TestAnalyze_InsufficientStaff(t *testing.T) {
	// 周一要求3人，但只有2名可用员工
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 3

	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(2), testRange())

	staffing := 0
	for _, c := range result.Conflicts {
		if c.Type == ConflictInsufficientStaff {
			staffing++
			if c.Severity != SeverityCritical {
				t.Errorf("人员不足应为 critical，got %s", c.Severity)
			}
		}
	}
	if staffing != 1 {
		t.Fatalf("应检测到恰好1个人员不足冲突，got %d", staffing)
	}
	if result.CanProceed {
		t.Error("存在 critical 冲突时不应允许继续")
	}

	// 建议应携带当前值和建议值
	for _, s := range result.Suggestions {
		if s.Type == "reduce_min_staff" {
			if s.CurrentValue != 3 {
				t.Errorf("建议当前值应为3，got %v", s.CurrentValue)
			}
			if !s.AutoFixable {
				t.Error("降低最少人数建议应可自动修复")
			}
			return
		}
	}
	t.Error("应产生降低最少人数的建议")
}

func TestAnalyze_InvalidStaffRange(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 5
	tmpl.Window(1).MaxStaff = 2

	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(6), testRange())

	if !hasConflict(result, ConflictInvalidStaffRange) {
		t.Fatal("应检测到人员范围配置错误")
	}
	if !hasAutoFixableSuggestion(result, "fix_staff_range") {
		t.Error("应产生修正人员范围的建议")
	}
}

func TestAnalyze_ManagerCoverage(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.RequireManagerCoverage = true

	// 员工池中没有管理者
	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(3), testRange())

	if !hasConflict(result, ConflictNoManagerCoverage) {
		t.Fatal("无管理者时应检测到覆盖冲突")
	}

	// 加入一名管理者后冲突消失
	employees := newTestEmployees(3)
	manager := newTestEmployee("店长")
	manager.Role = "manager"
	employees = append(employees, manager)

	// 管理岗不在默认 roles 过滤内，模板不过滤角色
	result = a.Analyze(tmpl, employees, testRange())
	if hasConflict(result, ConflictNoManagerCoverage) {
		t.Error("存在可用管理者时不应报告覆盖冲突")
	}
}

func TestAnalyze_AllEmployeesUnavailable(t *testing.T) {
	tmpl := newTestTemplate()

	employees := newTestEmployees(2)
	for _, e := range employees {
		e.Availability = []model.AvailabilitySlot{
			{DayOfWeek: 1, IsAvailable: false},
			{DayOfWeek: 2, IsAvailable: false},
			{DayOfWeek: 3, IsAvailable: false},
			{DayOfWeek: 4, IsAvailable: false},
			{DayOfWeek: 5, IsAvailable: false},
		}
	}

	a := New(0)
	result := a.Analyze(tmpl, employees, testRange())

	found := false
	for _, c := range result.Conflicts {
		if c.Type == ConflictAvailability {
			found = true
			if c.Severity != SeverityCritical {
				t.Errorf("全员不可用应为 critical，got %s", c.Severity)
			}
		}
	}
	if !found {
		t.Fatal("应检测到可用性冲突")
	}
}

func TestAnalyze_LaborLimitTension(t *testing.T) {
	// 5个营业日 × 每班最少8小时 = 40小时 > 每周上限20小时
	tmpl := newTestTemplate()
	tmpl.MaxHoursPerWeek = 20
	tmpl.MinConsecutiveHoursPerShift = 8

	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(5), testRange())

	found := false
	for _, c := range result.Conflicts {
		if c.Type == ConflictLaborLimitTension {
			found = true
			if c.Severity != SeverityWarning {
				t.Errorf("劳动限制矛盾应为 warning，got %s", c.Severity)
			}
		}
	}
	if !found {
		t.Fatal("应检测到劳动限制矛盾")
	}
}

func TestAnalyze_ConsecutiveLimitTooLow(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.MaxConsecutiveDays = 1

	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(5), testRange())

	if !hasConflict(result, ConflictConsecutiveTooLow) {
		t.Fatal("连续天数限制过低应产生警告")
	}
	if !hasAutoFixableSuggestion(result, "increase_consecutive_limit") {
		t.Error("应产生提高连续天数限制的建议")
	}
	// 警告不阻塞
	if !result.CanProceed {
		t.Error("仅有警告时应允许继续")
	}
}

func TestAnalyze_BreakRequirement(t *testing.T) {
	// 8小时班次达到用餐休息的5小时阈值
	tmpl := newTestTemplate()
	tmpl.BreakRules = []model.BreakRule{
		{Type: "meal", DurationMinutes: 30, RequiredAfterHours: 5},
	}

	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(3), testRange())

	found := false
	for _, c := range result.Conflicts {
		if c.Type == ConflictBreakRequirement {
			found = true
			if c.Severity != SeverityInfo {
				t.Errorf("休息提示应为 info，got %s", c.Severity)
			}
		}
	}
	if !found {
		t.Fatal("班次超过休息阈值时应产生休息提示")
	}
	if !result.CanProceed {
		t.Error("休息提示不应阻塞排班")
	}

	// 阈值未达到时不提示
	tmpl.BreakRules[0].RequiredAfterHours = 10
	result = a.Analyze(tmpl, newTestEmployees(3), testRange())
	if hasConflict(result, ConflictBreakRequirement) {
		t.Error("班次未达到休息阈值时不应提示")
	}
}

func TestAnalyze_LongDateRange(t *testing.T) {
	tmpl := newTestTemplate()

	a := New(28)
	result := a.Analyze(tmpl, newTestEmployees(5), model.DateRange{
		StartDate: "2026-01-01",
		EndDate:   "2026-03-01",
	})

	found := false
	for _, c := range result.Conflicts {
		if c.Type == ConflictLongDateRange {
			found = true
			if c.Severity != SeverityInfo {
				t.Errorf("超长范围应为 info，got %s", c.Severity)
			}
		}
	}
	if !found {
		t.Fatal("超过28天的范围应产生提示")
	}
	if !result.CanProceed {
		t.Error("超长范围不应阻塞排班")
	}
}

func TestAnalyze_CleanTemplate(t *testing.T) {
	tmpl := newTestTemplate()

	a := New(0)
	result := a.Analyze(tmpl, newTestEmployees(5), testRange())

	if result.CriticalCount != 0 {
		t.Errorf("健康模板不应有 critical 冲突，got %d: %+v", result.CriticalCount, result.Conflicts)
	}
	if !result.CanProceed {
		t.Error("健康模板应允许继续")
	}
	if result.Summary.TotalEmployees != 5 {
		t.Errorf("摘要员工数应为5，got %d", result.Summary.TotalEmployees)
	}
	if result.Summary.OperatingDaysCount != 5 {
		t.Errorf("摘要营业日数应为5，got %d", result.Summary.OperatingDaysCount)
	}
}

func TestAnalyze_Reentrant(t *testing.T) {
	tmpl := newTestTemplate()
	tmpl.Window(1).MinStaff = 3
	employees := newTestEmployees(2)

	a := New(0)
	first := a.Analyze(tmpl, employees, testRange())
	second := a.Analyze(tmpl, employees, testRange())

	if first.ConflictCount != second.ConflictCount {
		t.Errorf("重复分析结果应一致: %d vs %d", first.ConflictCount, second.ConflictCount)
	}
	if first.CriticalCount != second.CriticalCount {
		t.Errorf("重复分析 critical 数应一致: %d vs %d", first.CriticalCount, second.CriticalCount)
	}
}

// 辅助函数

// newTestTemplate 周一至周五营业 09:00-17:00，每日最少1人
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
		employees = append(employees, newTestEmployee(fmt.Sprintf("员工%d", i+1)))
	}
	return employees
}

func newTestEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Name:       name,
		Status:     "active",
		Role:       "staff",
		Department: "Operations",
	}
}

func testRange() model.DateRange {
	return model.DateRange{StartDate: "2026-01-12", EndDate: "2026-01-18"}
}

func hasConflict(r *ConflictAnalysisResult, typ string) bool {
	for _, c := range r.Conflicts {
		if c.Type == typ {
			return true
		}
	}
	return false
}

func hasAutoFixableSuggestion(r *ConflictAnalysisResult, typ string) bool {
	for _, s := range r.Suggestions {
		if s.Type == typ && s.AutoFixable {
			return true
		}
	}
	return false
}

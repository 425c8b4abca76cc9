package stats

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

func TestFairnessAnalyzer_Empty(t *testing.T) {
	f := NewFairnessAnalyzer()
	metrics := f.Analyze(nil, nil)

	if metrics.OverallFairnessScore != 100 {
		t.Errorf("空输入评分应为100，got %.1f", metrics.OverallFairnessScore)
	}
}

func TestFairnessAnalyzer_PerfectlyBalanced(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("员工1"),
		newEmployee("员工2"),
	}
	shifts := []*model.CandidateShift{
		newShift("2026-01-12", "09:00", "17:00", employees[0].ID),
		newShift("2026-01-13", "09:00", "17:00", employees[1].ID),
	}

	f := NewFairnessAnalyzer()
	metrics := f.Analyze(shifts, employees)

	if metrics.WorkloadGini != 0 {
		t.Errorf("完全均衡时基尼系数应为0，got %.3f", metrics.WorkloadGini)
	}
	if metrics.HoursRange != 0 {
		t.Errorf("完全均衡时极差应为0，got %.1f", metrics.HoursRange)
	}
	if metrics.AvgHoursPerEmployee != 8 {
		t.Errorf("人均工时应为8，got %.1f", metrics.AvgHoursPerEmployee)
	}
}

func TestFairnessAnalyzer_Unbalanced(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("员工1"),
		newEmployee("员工2"),
	}
	// 员工1拿了3个班次，员工2只有1个
	shifts := []*model.CandidateShift{
		newShift("2026-01-12", "09:00", "17:00", employees[0].ID),
		newShift("2026-01-13", "09:00", "17:00", employees[0].ID),
		newShift("2026-01-14", "09:00", "17:00", employees[0].ID),
		newShift("2026-01-15", "09:00", "17:00", employees[1].ID),
	}

	f := NewFairnessAnalyzer()
	metrics := f.Analyze(shifts, employees)

	if metrics.WorkloadGini <= 0 {
		t.Errorf("不均衡排班的基尼系数应大于0，got %.3f", metrics.WorkloadGini)
	}
	if metrics.HoursRange != 16 {
		t.Errorf("极差应为16，got %.1f", metrics.HoursRange)
	}

	// 工时高的排在前
	if len(metrics.EmployeeStats) != 2 {
		t.Fatalf("员工统计应为2条，got %d", len(metrics.EmployeeStats))
	}
	if metrics.EmployeeStats[0].TotalHours != 24 {
		t.Errorf("第一名工时应为24，got %.1f", metrics.EmployeeStats[0].TotalHours)
	}
	if math.Abs(metrics.EmployeeStats[0].Deviation-50) > 0.01 {
		t.Errorf("第一名偏差应为+50%%，got %.1f", metrics.EmployeeStats[0].Deviation)
	}
}

func TestFairnessAnalyzer_WeekendShifts(t *testing.T) {
	employees := []*model.Employee{
		newEmployee("员工1"),
		newEmployee("员工2"),
	}
	// 2026-01-17 是周六，全部周末班给员工1
	shifts := []*model.CandidateShift{
		newShift("2026-01-17", "09:00", "17:00", employees[0].ID),
		newShift("2026-01-12", "09:00", "17:00", employees[1].ID),
	}

	f := NewFairnessAnalyzer()
	metrics := f.Analyze(shifts, employees)

	for _, stat := range metrics.EmployeeStats {
		if stat.EmployeeID == employees[0].ID && stat.WeekendShifts != 1 {
			t.Errorf("员工1周末班应为1，got %d", stat.WeekendShifts)
		}
		if stat.EmployeeID == employees[1].ID && stat.WeekendShifts != 0 {
			t.Errorf("员工2周末班应为0，got %d", stat.WeekendShifts)
		}
	}
	if metrics.WeekendShiftGini <= 0 {
		t.Errorf("周末班集中时基尼系数应大于0，got %.3f", metrics.WeekendShiftGini)
	}
}

func TestFairnessAnalyzer_IgnoresPlaceholders(t *testing.T) {
	employees := []*model.Employee{newEmployee("员工1")}
	shifts := []*model.CandidateShift{
		newShift("2026-01-12", "09:00", "17:00", employees[0].ID),
		newShift("2026-01-12", "09:00", "17:00", uuid.Nil),
	}

	f := NewFairnessAnalyzer()
	metrics := f.Analyze(shifts, employees)

	if len(metrics.EmployeeStats) != 1 {
		t.Fatalf("占位班次不应产生员工统计，got %d", len(metrics.EmployeeStats))
	}
	if metrics.EmployeeStats[0].TotalHours != 8 {
		t.Errorf("工时应为8，got %.1f", metrics.EmployeeStats[0].TotalHours)
	}
}

func newEmployee(name string) *model.Employee {
	return &model.Employee{
		BaseModel: model.BaseModel{ID: uuid.New()},
		Name:      name,
		Status:    "active",
	}
}

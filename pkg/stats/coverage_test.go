package stats

import (
	"testing"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

func TestCoverageAnalyzer_Empty(t *testing.T) {
	c := NewCoverageAnalyzer()
	metrics := c.Analyze(nil)

	if metrics.OverallCoverage != 100 {
		t.Errorf("空输入覆盖率应为100，got %.1f", metrics.OverallCoverage)
	}
	if metrics.TotalShifts != 0 {
		t.Errorf("空输入班次数应为0，got %d", metrics.TotalShifts)
	}
}

func TestCoverageAnalyzer_MixedAssignment(t *testing.T) {
	empID := uuid.New()
	shifts := []*model.CandidateShift{
		newShift("2026-01-12", "09:00", "17:00", empID),
		newShift("2026-01-12", "09:00", "17:00", uuid.Nil), // 占位
		newShift("2026-01-13", "09:00", "17:00", empID),
		newShift("2026-01-13", "09:00", "17:00", empID),
	}

	c := NewCoverageAnalyzer()
	metrics := c.Analyze(shifts)

	if metrics.TotalShifts != 4 {
		t.Errorf("总班次数应为4，got %d", metrics.TotalShifts)
	}
	if metrics.AssignedShifts != 3 {
		t.Errorf("已分配数应为3，got %d", metrics.AssignedShifts)
	}
	if metrics.OverallCoverage != 75 {
		t.Errorf("覆盖率应为75%%，got %.1f", metrics.OverallCoverage)
	}
	if len(metrics.UncoveredSlots) != 1 {
		t.Fatalf("未覆盖槽位应为1，got %d", len(metrics.UncoveredSlots))
	}
	if metrics.UncoveredSlots[0].Date != "2026-01-12" {
		t.Errorf("未覆盖槽位日期错误: %s", metrics.UncoveredSlots[0].Date)
	}

	day := metrics.DailyCoverage["2026-01-12"]
	if day.CoverageRate != 50 {
		t.Errorf("2026-01-12 覆盖率应为50%%，got %.1f", day.CoverageRate)
	}
	full := metrics.DailyCoverage["2026-01-13"]
	if full.CoverageRate != 100 {
		t.Errorf("2026-01-13 覆盖率应为100%%，got %.1f", full.CoverageRate)
	}
	if full.TotalHours != 16 {
		t.Errorf("2026-01-13 总工时应为16，got %.1f", full.TotalHours)
	}
}

func TestCoverageAnalyzer_RoleCoverage(t *testing.T) {
	empID := uuid.New()
	shifts := []*model.CandidateShift{
		withRole(newShift("2026-01-12", "09:00", "17:00", empID), "manager"),
		withRole(newShift("2026-01-12", "09:00", "17:00", uuid.Nil), "manager"),
		withRole(newShift("2026-01-12", "09:00", "17:00", empID), "staff"),
	}

	c := NewCoverageAnalyzer()
	metrics := c.Analyze(shifts)

	if metrics.RoleCoverage["manager"] != 50 {
		t.Errorf("manager 覆盖率应为50%%，got %.1f", metrics.RoleCoverage["manager"])
	}
	if metrics.RoleCoverage["staff"] != 100 {
		t.Errorf("staff 覆盖率应为100%%，got %.1f", metrics.RoleCoverage["staff"])
	}
}

// 辅助函数

func newShift(date, start, end string, empID uuid.UUID) *model.CandidateShift {
	return &model.CandidateShift{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		EmployeeID: empID,
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		State:      model.CandidateDraft,
	}
}

func withRole(s *model.CandidateShift, role string) *model.CandidateShift {
	s.Role = role
	return s
}

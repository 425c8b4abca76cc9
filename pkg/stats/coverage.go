// Package stats 提供排班统计分析功能
package stats

import (
	"github.com/nextera/workforce/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalShifts     int     `json:"total_shifts"`     // 总班次数
	AssignedShifts  int     `json:"assigned_shifts"`  // 已分配班次数
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按岗位统计
	RoleCoverage map[string]float64 `json:"role_coverage"`

	// 按时段统计 (0-23)
	HourlyCoverage map[int]float64 `json:"hourly_coverage"`

	// 未分配槽位
	UncoveredSlots []UncoveredSlot `json:"uncovered_slots"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalShifts  int     `json:"total_shifts"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	StaffCount   int     `json:"staff_count"`
	TotalHours   float64 `json:"total_hours"`
}

// UncoveredSlot 未分配槽位
type UncoveredSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Role      string `json:"role"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析候选排班的覆盖率
// 未分配占位班次计为未覆盖槽位。
func (c *CoverageAnalyzer) Analyze(shifts []*model.CandidateShift) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:  make(map[string]DayCoverage),
		RoleCoverage:   make(map[string]float64),
		HourlyCoverage: make(map[int]float64),
		UncoveredSlots: make([]UncoveredSlot, 0),
	}
	if len(shifts) == 0 {
		metrics.OverallCoverage = 100
		return metrics
	}

	dailyStats := make(map[string]*DayCoverage)
	roleTotals := make(map[string]int)
	roleAssigned := make(map[string]int)
	hourlyRequired := make(map[int]int)
	hourlyAssigned := make(map[int]int)

	for _, s := range shifts {
		metrics.TotalShifts++
		assigned := s.IsAssigned()
		if assigned {
			metrics.AssignedShifts++
		} else {
			metrics.UncoveredSlots = append(metrics.UncoveredSlots, UncoveredSlot{
				Date:      s.Date,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Role:      s.Role,
			})
		}

		day, exists := dailyStats[s.Date]
		if !exists {
			day = &DayCoverage{Date: s.Date}
			dailyStats[s.Date] = day
		}
		day.TotalShifts++
		if assigned {
			day.Assigned++
			day.StaffCount++
			day.TotalHours += s.WorkingHours()
		}

		if s.Role != "" {
			roleTotals[s.Role]++
			if assigned {
				roleAssigned[s.Role]++
			}
		}

		for _, hour := range shiftHours(s) {
			hourlyRequired[hour]++
			if assigned {
				hourlyAssigned[hour]++
			}
		}
	}

	if metrics.TotalShifts > 0 {
		metrics.OverallCoverage = float64(metrics.AssignedShifts) / float64(metrics.TotalShifts) * 100
	}

	for date, day := range dailyStats {
		if day.TotalShifts > 0 {
			day.CoverageRate = float64(day.Assigned) / float64(day.TotalShifts) * 100
		}
		metrics.DailyCoverage[date] = *day
	}

	for role, total := range roleTotals {
		if total > 0 {
			metrics.RoleCoverage[role] = float64(roleAssigned[role]) / float64(total) * 100
		}
	}

	for hour, required := range hourlyRequired {
		if required > 0 {
			metrics.HourlyCoverage[hour] = float64(hourlyAssigned[hour]) / float64(required) * 100
		}
	}

	return metrics
}

// shiftHours 返回班次覆盖的小时序号，跨日班次自动回绕
func shiftHours(s *model.CandidateShift) []int {
	start := hourOf(s.StartTime)
	end := hourOf(s.EndTime)
	if end <= start {
		end += 24
	}

	hours := make([]int, 0, end-start)
	for h := start; h < end; h++ {
		hours = append(hours, h%24)
	}
	return hours
}

// hourOf 解析 HH:MM 的小时部分
func hourOf(timeStr string) int {
	if len(timeStr) < 2 {
		return 0
	}
	return int(timeStr[0]-'0')*10 + int(timeStr[1]-'0')
}

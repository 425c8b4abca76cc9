// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	WorkloadGini        float64 `json:"workload_gini"`          // 工时基尼系数 (0=完全公平)
	WorkloadVariance    float64 `json:"workload_variance"`      // 工时方差
	WorkloadStdDev      float64 `json:"workload_std_dev"`       // 工时标准差
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"` // 人均工时
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`
	HoursRange          float64 `json:"hours_range"` // 工时极差

	WeekendShiftGini float64 `json:"weekend_shift_gini"` // 周末班分配基尼系数

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// 综合公平性评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// EmployeeStat 员工统计
type EmployeeStat struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	EmployeeName  string    `json:"employee_name"`
	TotalHours    float64   `json:"total_hours"`
	ShiftCount    int       `json:"shift_count"`
	WeekendShifts int       `json:"weekend_shifts"`
	Deviation     float64   `json:"deviation"` // 与人均工时的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析候选排班的公平性
// 未分配占位班次不参与统计。
func (f *FairnessAnalyzer) Analyze(shifts []*model.CandidateShift, employees []*model.Employee) *FairnessMetrics {
	metrics := &FairnessMetrics{
		EmployeeStats: make([]EmployeeStat, 0),
	}
	if len(shifts) == 0 || len(employees) == 0 {
		metrics.OverallFairnessScore = 100
		return metrics
	}

	nameMap := make(map[uuid.UUID]string, len(employees))
	for _, e := range employees {
		nameMap[e.ID] = e.Name
	}

	statMap := make(map[uuid.UUID]*EmployeeStat)
	for _, s := range shifts {
		if !s.IsAssigned() {
			continue
		}

		stat, exists := statMap[s.EmployeeID]
		if !exists {
			stat = &EmployeeStat{
				EmployeeID:   s.EmployeeID,
				EmployeeName: nameMap[s.EmployeeID],
			}
			statMap[s.EmployeeID] = stat
		}

		stat.TotalHours += s.WorkingHours()
		stat.ShiftCount++
		if isWeekend(s.Date) {
			stat.WeekendShifts++
		}
	}

	if len(statMap) == 0 {
		metrics.OverallFairnessScore = 100
		return metrics
	}

	hours := make([]float64, 0, len(statMap))
	weekendShifts := make([]float64, 0, len(statMap))
	for _, stat := range statMap {
		hours = append(hours, stat.TotalHours)
		weekendShifts = append(weekendShifts, float64(stat.WeekendShifts))
	}

	avg := mean(hours)
	variance := varianceOf(hours, avg)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := minMax(hours)

	for _, stat := range statMap {
		if avg > 0 {
			stat.Deviation = (stat.TotalHours - avg) / avg * 100
		}
		metrics.EmployeeStats = append(metrics.EmployeeStats, *stat)
	}

	// 工时高的在前
	sort.Slice(metrics.EmployeeStats, func(i, j int) bool {
		a, b := metrics.EmployeeStats[i], metrics.EmployeeStats[j]
		if a.TotalHours != b.TotalHours {
			return a.TotalHours > b.TotalHours
		}
		return a.EmployeeID.String() < b.EmployeeID.String()
	})

	metrics.WorkloadGini = gini(hours)
	metrics.WorkloadVariance = variance
	metrics.WorkloadStdDev = stdDev
	metrics.AvgHoursPerEmployee = avg
	metrics.MaxHours = maxHours
	metrics.MinHours = minHours
	metrics.HoursRange = maxHours - minHours
	metrics.WeekendShiftGini = gini(weekendShifts)
	metrics.OverallFairnessScore = overallScore(metrics.WorkloadGini, metrics.WeekendShiftGini, stdDev, avg)

	return metrics
}

// isWeekend 判断日期是否为周末
func isWeekend(date string) bool {
	dow := model.DayOfWeek(date)
	return dow == 0 || dow == 6
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// varianceOf 计算方差
func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// minMax 计算极值
func minMax(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 计算综合公平性评分
func overallScore(workloadGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.5
		weekendWeight  = 0.3
		stdDevWeight   = 0.2
	)

	workloadScore := (1 - workloadGini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore + weekendWeight*weekendScore + stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

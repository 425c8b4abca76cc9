// Package autofix 对模板应用可自动修复的冲突建议
package autofix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nextera/workforce/pkg/engine/analyzer"
	"github.com/nextera/workforce/pkg/logger"
	"github.com/nextera/workforce/pkg/model"
)

// AppliedFix 已应用的修复记录
type AppliedFix struct {
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Day         string      `json:"day,omitempty"`
	OldValue    interface{} `json:"old_value,omitempty"`
	NewValue    interface{} `json:"new_value,omitempty"`
	Priority    string      `json:"priority"`
}

// Result 自动修复结果
type Result struct {
	Template     *model.ConstraintTemplate `json:"template"`
	AppliedFixes []AppliedFix              `json:"applied_fixes"`
	FixCount     int                       `json:"fix_count"`
	Skipped      int                       `json:"skipped"`
}

// Engine 自动修复引擎
// 只改写数值和开关，从不增减范围列表。输入模板不被修改，所有改写发生在深拷贝上。
type Engine struct {
	logger *logger.EngineLogger
}

// New 创建自动修复引擎
func New() *Engine {
	return &Engine{logger: logger.NewEngineLogger()}
}

// priorityRank 建议优先级排序权重
var priorityRank = map[string]int{
	analyzer.PriorityCritical: 0,
	analyzer.PriorityHigh:     1,
	analyzer.PriorityMedium:   2,
	analyzer.PriorityLow:      3,
}

// Apply 将可自动修复的建议应用到模板副本
// 目标值与当前值相同的建议跳过（幂等）；字段已被其他修改改变的过期建议同样跳过，不报错。
func (e *Engine) Apply(tmpl *model.ConstraintTemplate, suggestions []analyzer.Suggestion) *Result {
	clone := tmpl.Clone()
	result := &Result{
		Template:     clone,
		AppliedFixes: make([]AppliedFix, 0),
	}

	fixable := make([]analyzer.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.AutoFixable && s.Category == analyzer.CategoryAutoFix {
			fixable = append(fixable, s)
		}
	}

	// 按优先级稳定排序，critical 优先
	sort.SliceStable(fixable, func(i, j int) bool {
		return rankOf(fixable[i].Priority) < rankOf(fixable[j].Priority)
	})

	for _, s := range fixable {
		if fix, ok := e.applyOne(clone, s); ok {
			result.AppliedFixes = append(result.AppliedFixes, fix)
		} else {
			result.Skipped++
		}
	}

	result.FixCount = len(result.AppliedFixes)
	e.logger.FixesApplied(tmpl.ID.String(), result.FixCount, result.Skipped)
	return result
}

// applyOne 应用单条建议，返回修复记录和是否实际生效
func (e *Engine) applyOne(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) (AppliedFix, bool) {
	switch s.Type {
	case "enable_business_days":
		return e.enableBusinessDays(tmpl, s)
	case "reduce_min_staff":
		return e.reduceMinStaff(tmpl, s)
	case "fix_staff_range":
		return e.fixStaffRange(tmpl, s)
	case "increase_consecutive_limit":
		return e.increaseConsecutiveLimit(tmpl, s)
	case "adjust_shift_duration":
		return e.adjustShiftDuration(tmpl, s)
	case "allow_overtime":
		return e.allowOvertime(tmpl, s)
	default:
		return AppliedFix{}, false
	}
}

// enableBusinessDays 启用建议的营业日
func (e *Engine) enableBusinessDays(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) (AppliedFix, bool) {
	days := toStringSlice(s.SuggestedValue)
	if len(days) == 0 {
		days = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}
	}

	enabled := make([]string, 0, len(days))
	for _, name := range days {
		dow, ok := dayIndex(name)
		if !ok {
			continue
		}
		w := tmpl.Window(dow)
		if w == nil || w.IsOpen {
			continue // 已开启视为无事可做
		}
		w.IsOpen = true
		if w.OpenTime == "" {
			w.OpenTime = "09:00"
		}
		if w.CloseTime == "" {
			w.CloseTime = "17:00"
		}
		if w.MinStaff < 1 {
			w.MinStaff = 1
		}
		enabled = append(enabled, model.DayName(dow))
	}

	if len(enabled) == 0 {
		return AppliedFix{}, false
	}
	return AppliedFix{
		Type:        s.Type,
		Description: fmt.Sprintf("已启用营业日: %s", strings.Join(enabled, ", ")),
		NewValue:    enabled,
		Priority:    s.Priority,
	}, true
}

// reduceMinStaff 降低某日的最少人数
func (e *Engine) reduceMinStaff(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) (AppliedFix, bool) {
	w := windowFor(tmpl, s)
	if w == nil {
		return AppliedFix{}, false
	}
	target, ok := toInt(s.SuggestedValue)
	if !ok || target < 1 {
		return AppliedFix{}, false
	}

	// 过期建议：字段在分析后已被改动
	if current, ok := toInt(s.CurrentValue); ok && current != w.MinStaff {
		return AppliedFix{}, false
	}
	if w.MinStaff == target {
		return AppliedFix{}, false
	}

	old := w.MinStaff
	w.MinStaff = target
	return AppliedFix{
		Type:        s.Type,
		Description: fmt.Sprintf("%s 最少人数 %d -> %d", model.DayName(w.DayOfWeek), old, target),
		Day:         model.DayName(w.DayOfWeek),
		OldValue:    old,
		NewValue:    target,
		Priority:    s.Priority,
	}, true
}

// fixStaffRange 修正某日的最多人数上限
func (e *Engine) fixStaffRange(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) (AppliedFix, bool) {
	w := windowFor(tmpl, s)
	if w == nil {
		return AppliedFix{}, false
	}
	target, ok := toInt(s.SuggestedValue)
	if !ok || target < w.MinStaff {
		return AppliedFix{}, false
	}

	if current, ok := toInt(s.CurrentValue); ok && current != w.MaxStaff {
		return AppliedFix{}, false
	}
	if w.MaxStaff == target {
		return AppliedFix{}, false
	}

	old := w.MaxStaff
	w.MaxStaff = target
	return AppliedFix{
		Type:        s.Type,
		Description: fmt.Sprintf("%s 最多人数 %d -> %d", model.DayName(w.DayOfWeek), old, target),
		Day:         model.DayName(w.DayOfWeek),
		OldValue:    old,
		NewValue:    target,
		Priority:    s.Priority,
	}, true
}

// increaseConsecutiveLimit 提高最大连续工作天数
func (e *Engine) increaseConsecutiveLimit(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) (AppliedFix, bool) {
	target, ok := toInt(s.SuggestedValue)
	if !ok || target < 1 {
		return AppliedFix{}, false
	}
	if current, ok := toInt(s.CurrentValue); ok && current != tmpl.MaxConsecutiveDays {
		return AppliedFix{}, false
	}
	if tmpl.MaxConsecutiveDays >= target {
		return AppliedFix{}, false
	}

	old := tmpl.MaxConsecutiveDays
	tmpl.MaxConsecutiveDays = target
	return AppliedFix{
		Type:        s.Type,
		Description: fmt.Sprintf("最大连续工作天数 %d -> %d", old, target),
		OldValue:    old,
		NewValue:    target,
		Priority:    s.Priority,
	}, true
}

// adjustShiftDuration 调整每班最少小时数
func (e *Engine) adjustShiftDuration(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) (AppliedFix, bool) {
	target, ok := toInt(s.SuggestedValue)
	if !ok || target < 1 {
		return AppliedFix{}, false
	}
	if current, ok := toInt(s.CurrentValue); ok && current != tmpl.MinConsecutiveHoursPerShift {
		return AppliedFix{}, false
	}
	if tmpl.MinConsecutiveHoursPerShift == target {
		return AppliedFix{}, false
	}

	old := tmpl.MinConsecutiveHoursPerShift
	tmpl.MinConsecutiveHoursPerShift = target
	return AppliedFix{
		Type:        s.Type,
		Description: fmt.Sprintf("每班最少小时数 %d -> %d", old, target),
		OldValue:    old,
		NewValue:    target,
		Priority:    s.Priority,
	}, true
}

// allowOvertime 开启允许加班
func (e *Engine) allowOvertime(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) (AppliedFix, bool) {
	if tmpl.AllowOvertime {
		return AppliedFix{}, false
	}
	tmpl.AllowOvertime = true
	return AppliedFix{
		Type:        s.Type,
		Description: "已开启允许加班",
		OldValue:    false,
		NewValue:    true,
		Priority:    s.Priority,
	}, true
}

// windowFor 根据建议的星期上下文定位营业窗口
func windowFor(tmpl *model.ConstraintTemplate, s analyzer.Suggestion) *model.OperatingWindow {
	if s.DayOfWeek != nil {
		return tmpl.Window(*s.DayOfWeek)
	}
	if s.Day != "" {
		if dow, ok := dayIndex(s.Day); ok {
			return tmpl.Window(dow)
		}
	}
	return nil
}

// dayIndex 星期名称转序号（0=周日）
func dayIndex(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "sunday":
		return 0, true
	case "monday":
		return 1, true
	case "tuesday":
		return 2, true
	case "wednesday":
		return 3, true
	case "thursday":
		return 4, true
	case "friday":
		return 5, true
	case "saturday":
		return 6, true
	}
	return 0, false
}

// rankOf 返回优先级权重，未知优先级排最后
func rankOf(priority string) int {
	if r, ok := priorityRank[priority]; ok {
		return r
	}
	return len(priorityRank)
}

// toInt 宽松转换为 int，兼容 JSON 反序列化出的 float64
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// toStringSlice 宽松转换为字符串切片
func toStringSlice(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		result := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

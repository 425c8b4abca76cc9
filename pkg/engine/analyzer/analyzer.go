// Package analyzer 实现排班前的约束冲突分析
package analyzer

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/logger"
	"github.com/nextera/workforce/pkg/model"
)

// Severity 冲突严重程度
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// 冲突类型
const (
	ConflictNoOperatingDays     = "no_operating_days"
	ConflictInsufficientStaff   = "insufficient_staff"
	ConflictInvalidStaffRange   = "invalid_staff_range"
	ConflictNoManagerCoverage   = "no_manager_coverage"
	ConflictSkillScarcity       = "skill_scarcity"
	ConflictAvailability        = "availability_conflicts"
	ConflictLaborLimitTension   = "labor_limit_tension"
	ConflictOvertimeRequired    = "overtime_required"
	ConflictRestSpacingTension  = "rest_spacing_tension"
	ConflictConsecutiveTooLow   = "unrealistic_consecutive_limit"
	ConflictBreakRequirement    = "break_requirement"
	ConflictLongDateRange       = "long_date_range"
)

// 建议分类
const (
	CategoryAutoFix = "auto_fix"
	CategoryManual  = "manual"
)

// 建议优先级
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Conflict 检测到的冲突
type Conflict struct {
	Type         string   `json:"type"`
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	DayOfWeek    *int     `json:"day_of_week,omitempty"`
	Day          string   `json:"day,omitempty"`
	AffectedArea string   `json:"affected_area,omitempty"`
	Impact       string   `json:"impact,omitempty"`
}

// Suggestion 修复建议
type Suggestion struct {
	Type           string      `json:"type"`
	Category       string      `json:"category"` // auto_fix/manual
	Message        string      `json:"message"`
	Action         string      `json:"action"`
	Priority       string      `json:"priority"` // critical/high/medium/low
	Impact         string      `json:"impact,omitempty"`
	Effort         string      `json:"effort,omitempty"` // low/medium/high
	AutoFixable    bool        `json:"auto_fixable"`
	DayOfWeek      *int        `json:"day_of_week,omitempty"`
	Day            string      `json:"day,omitempty"`
	CurrentValue   interface{} `json:"current_value,omitempty"`
	SuggestedValue interface{} `json:"suggested_value,omitempty"`
}

// Summary 分析摘要
type Summary struct {
	TotalEmployees            int      `json:"total_employees"`
	EmployeesWithAvailability int      `json:"employees_with_availability"`
	OperatingDaysCount        int      `json:"operating_days_count"`
	AvailableSkills           []string `json:"available_skills"`
	AvailableRoles            []string `json:"available_roles"`
	DateRangeDays             int      `json:"date_range_days"`
}

// ConflictAnalysisResult 冲突分析结果
type ConflictAnalysisResult struct {
	TemplateID           uuid.UUID    `json:"template_id"`
	StartDate            string       `json:"start_date"`
	EndDate              string       `json:"end_date"`
	Conflicts            []Conflict   `json:"conflicts"`
	Suggestions          []Suggestion `json:"suggestions"`
	ConflictCount        int          `json:"conflict_count"`
	CriticalCount        int          `json:"critical_count"`
	WarningCount         int          `json:"warning_count"`
	AutoFixableCount     int          `json:"auto_fixable_count"`
	HasCriticalConflicts bool         `json:"has_critical_conflicts"`
	CanProceed           bool         `json:"can_proceed"`
	Summary              Summary      `json:"summary"`
}

// Analyzer 冲突分析器
// 无状态，可并发复用。分析只读取输入，从不修改模板或员工数据。
type Analyzer struct {
	rangeCapDays int
	logger       *logger.EngineLogger
}

// DefaultRangeCapDays 默认排班范围上限（天）
const DefaultRangeCapDays = 28

// New 创建冲突分析器
func New(rangeCapDays int) *Analyzer {
	if rangeCapDays <= 0 {
		rangeCapDays = DefaultRangeCapDays
	}
	return &Analyzer{
		rangeCapDays: rangeCapDays,
		logger:       logger.NewEngineLogger(),
	}
}

// Analyze 对模板和员工池执行冲突分析
// 规则按固定顺序执行，结果确定性可复现。
func (a *Analyzer) Analyze(tmpl *model.ConstraintTemplate, employees []*model.Employee, dateRange model.DateRange) *ConflictAnalysisResult {
	result := &ConflictAnalysisResult{
		TemplateID:  tmpl.ID,
		StartDate:   dateRange.StartDate,
		EndDate:     dateRange.EndDate,
		Conflicts:   make([]Conflict, 0),
		Suggestions: make([]Suggestion, 0),
	}

	eligible := eligibleEmployees(tmpl, employees)
	openWindows := tmpl.OpenWindows()

	a.checkOperatingDays(tmpl, result)
	a.checkStaffingFeasibility(tmpl, eligible, openWindows, result)
	a.checkStaffRange(tmpl, len(eligible), openWindows, result)
	a.checkManagerCoverage(tmpl, eligible, openWindows, result)
	a.checkSkillScarcity(tmpl, eligible, result)
	a.checkAvailability(tmpl, eligible, openWindows, result)
	a.checkLaborLimitTension(tmpl, openWindows, result)
	a.checkSoftPolicy(tmpl, eligible, openWindows, result)
	a.checkDateRange(dateRange, result)

	result.Summary = buildSummary(eligible, openWindows, dateRange)
	result.finalize()

	a.logger.AnalysisComplete(tmpl.ID.String(), result.ConflictCount, result.CriticalCount, result.CanProceed)
	return result
}

// finalize 汇总计数并计算是否可继续
func (r *ConflictAnalysisResult) finalize() {
	r.ConflictCount = len(r.Conflicts)
	r.CriticalCount = 0
	r.WarningCount = 0
	for _, c := range r.Conflicts {
		switch c.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityWarning:
			r.WarningCount++
		}
	}
	r.AutoFixableCount = 0
	for _, s := range r.Suggestions {
		if s.AutoFixable {
			r.AutoFixableCount++
		}
	}
	r.HasCriticalConflicts = r.CriticalCount > 0
	r.CanProceed = r.CriticalCount == 0
}

// checkOperatingDays 规则1：模板没有任何营业日
func (a *Analyzer) checkOperatingDays(tmpl *model.ConstraintTemplate, result *ConflictAnalysisResult) {
	if len(tmpl.OpenWindows()) > 0 {
		return
	}

	result.Conflicts = append(result.Conflicts, Conflict{
		Type:         ConflictNoOperatingDays,
		Message:      "模板未配置任何营业日，无法生成排班",
		Severity:     SeverityCritical,
		AffectedArea: "operating_hours",
		Impact:       "排班生成将产生空结果",
	})
	result.Suggestions = append(result.Suggestions, Suggestion{
		Type:           "enable_business_days",
		Category:       CategoryAutoFix,
		Message:        "启用周一至周五作为营业日",
		Action:         "将周一至周五设置为营业日，营业时间 09:00-17:00",
		Priority:       PriorityCritical,
		Impact:         "解除排班生成阻塞",
		Effort:         "low",
		AutoFixable:    true,
		SuggestedValue: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
	})
}

// checkStaffingFeasibility 规则2：每个营业日的最少人数是否可满足
func (a *Analyzer) checkStaffingFeasibility(tmpl *model.ConstraintTemplate, eligible []*model.Employee, openWindows []model.OperatingWindow, result *ConflictAnalysisResult) {
	for _, w := range openWindows {
		pool := 0
		for _, e := range eligible {
			if e.AvailableOnDay(w.DayOfWeek) {
				pool++
			}
		}

		if w.MinStaff > pool {
			dow := w.DayOfWeek
			dayName := model.DayName(dow)
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:      ConflictInsufficientStaff,
				Message:   fmt.Sprintf("%s 要求最少 %d 人，但仅有 %d 名可用员工", dayName, w.MinStaff, pool),
				Severity:  SeverityCritical,
				DayOfWeek: &dow,
				Day:       dayName,
				Impact:    "该日无法达到最低人员配置",
			})

			suggested := pool
			if suggested > 1 {
				suggested--
			}
			if suggested < 1 {
				suggested = 1
			}
			result.Suggestions = append(result.Suggestions, Suggestion{
				Type:           "reduce_min_staff",
				Category:       CategoryAutoFix,
				Message:        fmt.Sprintf("将 %s 的最少人数从 %d 降低到 %d", dayName, w.MinStaff, suggested),
				Action:         "降低该日的最少人数要求",
				Priority:       PriorityCritical,
				Impact:         "使该日人员配置可行",
				Effort:         "low",
				AutoFixable:    true,
				DayOfWeek:      &dow,
				Day:            dayName,
				CurrentValue:   w.MinStaff,
				SuggestedValue: suggested,
			})
		}
	}
}

// checkStaffRange 规则3：最少人数大于最多人数
func (a *Analyzer) checkStaffRange(tmpl *model.ConstraintTemplate, totalEligible int, openWindows []model.OperatingWindow, result *ConflictAnalysisResult) {
	for _, w := range openWindows {
		if w.MaxStaff <= 0 || w.MinStaff <= w.MaxStaff {
			continue
		}

		dow := w.DayOfWeek
		dayName := model.DayName(dow)
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:      ConflictInvalidStaffRange,
			Message:   fmt.Sprintf("%s 的最少人数 %d 大于最多人数 %d", dayName, w.MinStaff, w.MaxStaff),
			Severity:  SeverityCritical,
			DayOfWeek: &dow,
			Day:       dayName,
			Impact:    "人员范围配置自相矛盾",
		})

		suggestedMax := w.MinStaff
		if totalEligible > suggestedMax {
			suggestedMax = totalEligible
		}
		result.Suggestions = append(result.Suggestions, Suggestion{
			Type:           "fix_staff_range",
			Category:       CategoryAutoFix,
			Message:        fmt.Sprintf("将 %s 的最多人数提高到 %d", dayName, suggestedMax),
			Action:         "提高该日的最多人数上限",
			Priority:       PriorityCritical,
			Impact:         "恢复人员范围的一致性",
			Effort:         "low",
			AutoFixable:    true,
			DayOfWeek:      &dow,
			Day:            dayName,
			CurrentValue:   w.MaxStaff,
			SuggestedValue: suggestedMax,
		})
	}
}

// checkManagerCoverage 规则4：要求管理者覆盖但无可用管理者
func (a *Analyzer) checkManagerCoverage(tmpl *model.ConstraintTemplate, eligible []*model.Employee, openWindows []model.OperatingWindow, result *ConflictAnalysisResult) {
	if !tmpl.RequireManagerCoverage {
		return
	}

	for _, w := range openWindows {
		covered := false
		for _, e := range eligible {
			if e.IsManager() && e.AvailableForWindow(w.DayOfWeek, w.OpenTime, w.CloseTime) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}

		dow := w.DayOfWeek
		dayName := model.DayName(dow)
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:      ConflictNoManagerCoverage,
			Message:   fmt.Sprintf("%s 的完整营业时段内没有可用的管理者", dayName),
			Severity:  SeverityCritical,
			DayOfWeek: &dow,
			Day:       dayName,
			Impact:    "无法满足管理者覆盖要求",
		})
		result.Suggestions = append(result.Suggestions, Suggestion{
			Type:        "add_manager_coverage",
			Category:    CategoryManual,
			Message:     fmt.Sprintf("为 %s 安排管理者，或关闭管理者覆盖要求", dayName),
			Action:      "调整管理者的可用时段，或修改模板策略",
			Priority:    PriorityHigh,
			Impact:      "恢复管理者覆盖",
			Effort:      "medium",
			AutoFixable: false,
			DayOfWeek:   &dow,
			Day:         dayName,
		})
	}
}

// checkSkillScarcity 规则5：强制技能要求的匹配员工不足
func (a *Analyzer) checkSkillScarcity(tmpl *model.ConstraintTemplate, eligible []*model.Employee, result *ConflictAnalysisResult) {
	for _, req := range tmpl.SkillRequirements {
		if !req.IsMandatory {
			continue
		}

		pool := 0
		for _, e := range eligible {
			if !e.HasAllSkills(req.RequiredSkills) {
				continue
			}
			if req.MinExperienceMonths > 0 && e.ExperienceMonths < req.MinExperienceMonths {
				continue
			}
			pool++
		}

		required := requiredRoleCount(tmpl, req.Role)
		if pool >= required {
			continue
		}

		result.Conflicts = append(result.Conflicts, Conflict{
			Type:         ConflictSkillScarcity,
			Message:      fmt.Sprintf("岗位 %s 需要 %d 名具备技能 %v 的员工，但仅有 %d 名", req.Role, required, req.RequiredSkills, pool),
			Severity:     SeverityCritical,
			AffectedArea: "skill_requirements",
			Impact:       "该岗位无法满足技能要求",
		})
		result.Suggestions = append(result.Suggestions, Suggestion{
			Type:        "resolve_skill_scarcity",
			Category:    CategoryManual,
			Message:     fmt.Sprintf("为更多员工补充技能 %v，或将该技能要求改为非强制", req.RequiredSkills),
			Action:      "调整员工技能档案或技能要求",
			Priority:    PriorityHigh,
			Impact:      "恢复岗位的可排性",
			Effort:      "high",
			AutoFixable: false,
		})
	}
}

// checkAvailability 规则6：营业日上完全不可用的员工
func (a *Analyzer) checkAvailability(tmpl *model.ConstraintTemplate, eligible []*model.Employee, openWindows []model.OperatingWindow, result *ConflictAnalysisResult) {
	if len(eligible) == 0 || len(openWindows) == 0 {
		return
	}

	var unavailable []string
	for _, e := range eligible {
		if e.AvailableDayCount(openWindows) == 0 {
			unavailable = append(unavailable, e.Name)
		}
	}
	if len(unavailable) == 0 {
		return
	}

	severity := SeverityWarning
	priority := PriorityMedium
	impact := "部分员工无法参与排班"
	if len(unavailable) == len(eligible) {
		severity = SeverityCritical
		priority = PriorityCritical
		impact = "所有员工在营业日均不可用，排班不可行"
	}

	result.Conflicts = append(result.Conflicts, Conflict{
		Type:         ConflictAvailability,
		Message:      fmt.Sprintf("%d 名员工在所有营业日均不可用: %s", len(unavailable), joinNames(unavailable, 5)),
		Severity:     severity,
		AffectedArea: "availability",
		Impact:       impact,
	})
	result.Suggestions = append(result.Suggestions, Suggestion{
		Type:        "review_availability",
		Category:    CategoryManual,
		Message:     "核对不可用员工的可用时段设置",
		Action:      "更新员工可用性，或调整营业日",
		Priority:    priority,
		Impact:      "扩大可排班员工池",
		Effort:      "medium",
		AutoFixable: false,
	})
}

// checkLaborLimitTension 规则7：营业日数与班次时长下限和周工时上限的矛盾
func (a *Analyzer) checkLaborLimitTension(tmpl *model.ConstraintTemplate, openWindows []model.OperatingWindow, result *ConflictAnalysisResult) {
	openDays := len(openWindows)
	if openDays == 0 {
		return
	}

	projected := float64(openDays * tmpl.MinConsecutiveHoursPerShift)
	if projected <= tmpl.MaxHoursPerWeek {
		return
	}

	suggested := int(tmpl.MaxHoursPerWeek) / openDays
	if suggested < 1 {
		suggested = 1
	}
	result.Conflicts = append(result.Conflicts, Conflict{
		Type:         ConflictLaborLimitTension,
		Message:      fmt.Sprintf("%d 个营业日 × 每班最少 %d 小时 = %.0f 小时，超过周工时上限 %.0f 小时", openDays, tmpl.MinConsecutiveHoursPerShift, projected, tmpl.MaxHoursPerWeek),
		Severity:     SeverityWarning,
		AffectedArea: "labor_limits",
		Impact:       "单个员工无法覆盖所有营业日",
	})
	result.Suggestions = append(result.Suggestions, Suggestion{
		Type:           "adjust_shift_duration",
		Category:       CategoryAutoFix,
		Message:        fmt.Sprintf("将每班最少小时数从 %d 降低到 %d", tmpl.MinConsecutiveHoursPerShift, suggested),
		Action:         "降低每班最少小时数",
		Priority:       PriorityMedium,
		Impact:         "缓解周工时上限压力",
		Effort:         "low",
		AutoFixable:    true,
		CurrentValue:   tmpl.MinConsecutiveHoursPerShift,
		SuggestedValue: suggested,
	})
}

// checkSoftPolicy 规则8：软策略检查，只产生警告或提示
func (a *Analyzer) checkSoftPolicy(tmpl *model.ConstraintTemplate, eligible []*model.Employee, openWindows []model.OperatingWindow, result *ConflictAnalysisResult) {
	// 8a: 禁止加班但预计需求超过员工总容量
	if !tmpl.AllowOvertime && len(eligible) > 0 {
		var demand float64
		for _, w := range openWindows {
			demand += model.TimeStringHours(w.OpenTime, w.CloseTime) * float64(w.MinStaff)
		}
		capacity := float64(len(eligible)) * tmpl.MaxHoursPerWeek
		if demand > capacity {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:         ConflictOvertimeRequired,
				Message:      fmt.Sprintf("每周预计需求 %.0f 小时超过员工总容量 %.0f 小时，且未允许加班", demand, capacity),
				Severity:     SeverityWarning,
				AffectedArea: "labor_limits",
				Impact:       "部分班次可能无人可排",
			})
			result.Suggestions = append(result.Suggestions, Suggestion{
				Type:           "allow_overtime",
				Category:       CategoryAutoFix,
				Message:        "允许加班以覆盖超出容量的需求",
				Action:         "开启允许加班策略",
				Priority:       PriorityMedium,
				Impact:         "扩大可排工时容量",
				Effort:         "low",
				AutoFixable:    true,
				CurrentValue:   false,
				SuggestedValue: true,
			})
		}
	}

	// 8b: 休息下限与单日班次安排矛盾
	if tmpl.MinRestHoursBetweenShifts > 24-tmpl.MaxConsecutiveHoursPerShift {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:         ConflictRestSpacingTension,
			Message:      fmt.Sprintf("班次间休息下限 %d 小时与每班最多 %d 小时冲突，连续日班次可能无法满足", tmpl.MinRestHoursBetweenShifts, tmpl.MaxConsecutiveHoursPerShift),
			Severity:     SeverityWarning,
			AffectedArea: "labor_limits",
			Impact:       "连续两天排班的组合受限",
		})
	}

	// 8c: 班次时长达到休息规则阈值时提示预留休息时间
	for _, st := range tmpl.ShiftTemplates {
		if !st.IsActive {
			continue
		}
		hours := st.Hours()
		for _, rule := range tmpl.BreakRules {
			if rule.RequiredAfterHours <= 0 || hours < rule.RequiredAfterHours {
				continue
			}
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:         ConflictBreakRequirement,
				Message:      fmt.Sprintf("班次 %q 时长 %.1f 小时，需安排 %d 分钟%s休息", st.Name, hours, rule.DurationMinutes, breakTypeName(rule.Type)),
				Severity:     SeverityInfo,
				AffectedArea: "break_rules",
				Impact:       "排班时需为该班次预留休息时间",
			})
		}
	}

	// 8d: 连续工作天数限制过低
	if tmpl.MaxConsecutiveDays < 2 {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:         ConflictConsecutiveTooLow,
			Message:      fmt.Sprintf("最大连续工作天数 %d 过低，排班几乎不可行", tmpl.MaxConsecutiveDays),
			Severity:     SeverityWarning,
			AffectedArea: "labor_limits",
			Impact:       "员工每工作一天都必须休息",
		})
		result.Suggestions = append(result.Suggestions, Suggestion{
			Type:           "increase_consecutive_limit",
			Category:       CategoryAutoFix,
			Message:        fmt.Sprintf("将最大连续工作天数从 %d 提高到 3", tmpl.MaxConsecutiveDays),
			Action:         "提高最大连续工作天数",
			Priority:       PriorityMedium,
			Impact:         "使常规排班模式可行",
			Effort:         "low",
			AutoFixable:    true,
			CurrentValue:   tmpl.MaxConsecutiveDays,
			SuggestedValue: 3,
		})
	}
}

// checkDateRange 规则9：排班范围超过上限，仅提示不阻塞
func (a *Analyzer) checkDateRange(dateRange model.DateRange, result *ConflictAnalysisResult) {
	days := dateRange.Days()
	if days <= a.rangeCapDays {
		return
	}

	result.Conflicts = append(result.Conflicts, Conflict{
		Type:         ConflictLongDateRange,
		Message:      fmt.Sprintf("排班范围 %d 天超过建议上限 %d 天", days, a.rangeCapDays),
		Severity:     SeverityInfo,
		AffectedArea: "date_range",
		Impact:       "长范围排班的预测准确性下降",
	})
}

// breakTypeName 休息类型的展示名
func breakTypeName(t string) string {
	switch t {
	case "meal":
		return "用餐"
	case "rest":
		return "工间"
	default:
		return t
	}
}

// eligibleEmployees 过滤出在职且符合模板范围的员工
func eligibleEmployees(tmpl *model.ConstraintTemplate, employees []*model.Employee) []*model.Employee {
	result := make([]*model.Employee, 0, len(employees))
	for _, e := range employees {
		if tmpl.MatchesScope(e) {
			result = append(result, e)
		}
	}
	return result
}

// requiredRoleCount 返回岗位在所有班次模板中的最大需求人数
func requiredRoleCount(tmpl *model.ConstraintTemplate, role string) int {
	required := 1
	for _, st := range tmpl.ShiftTemplates {
		if !st.IsActive {
			continue
		}
		if cnt, ok := st.RequiredRoles[role]; ok && cnt > required {
			required = cnt
		}
	}
	return required
}

// buildSummary 构建分析摘要
func buildSummary(eligible []*model.Employee, openWindows []model.OperatingWindow, dateRange model.DateRange) Summary {
	withAvailability := 0
	skillSet := make(map[string]bool)
	roleSet := make(map[string]bool)
	for _, e := range eligible {
		if len(e.Availability) > 0 {
			withAvailability++
		}
		for _, s := range e.Skills {
			skillSet[s] = true
		}
		if e.Role != "" {
			roleSet[e.Role] = true
		}
	}

	skills := make([]string, 0, len(skillSet))
	for s := range skillSet {
		skills = append(skills, s)
	}
	sort.Strings(skills)

	roles := make([]string, 0, len(roleSet))
	for r := range roleSet {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	return Summary{
		TotalEmployees:            len(eligible),
		EmployeesWithAvailability: withAvailability,
		OperatingDaysCount:        len(openWindows),
		AvailableSkills:           skills,
		AvailableRoles:            roles,
		DateRangeDays:             dateRange.Days(),
	}
}

// joinNames 拼接名字列表，超过上限时截断
func joinNames(names []string, limit int) string {
	if len(names) <= limit {
		result := ""
		for i, n := range names {
			if i > 0 {
				result += ", "
			}
			result += n
		}
		return result
	}
	return joinNames(names[:limit], limit) + fmt.Sprintf(" 等 %d 人", len(names))
}

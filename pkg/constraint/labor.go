// Package constraint 定义排班约束接口和评估上下文
package constraint

import (
	"fmt"
	"sort"
	"time"

	"github.com/nextera/workforce/pkg/model"
)

// BaseConstraint 约束基类
type BaseConstraint struct {
	name     string
	typ      Type
	category Category
	weight   int
}

// NewBaseConstraint 创建基础约束
func NewBaseConstraint(name string, typ Type, cat Category, weight int) *BaseConstraint {
	return &BaseConstraint{name: name, typ: typ, category: cat, weight: weight}
}

// Name 返回约束名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回约束类型
func (c *BaseConstraint) Type() Type { return c.typ }

// Category 返回约束类别
func (c *BaseConstraint) Category() Category { return c.category }

// Weight 返回约束权重
func (c *BaseConstraint) Weight() int { return c.weight }

// Evaluate 默认评估实现（子类需覆盖）
func (c *BaseConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	return true, 0, nil
}

// EvaluateCandidate 默认候选评估实现（子类需覆盖）
func (c *BaseConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	return true, 0
}

// FromTemplate 按模板的劳动限制和策略开关构建约束管理器
func FromTemplate(tmpl *model.ConstraintTemplate) *Manager {
	m := NewManager()
	m.Register(NewMaxHoursPerWeekConstraint(tmpl.MaxHoursPerWeek))
	m.Register(NewMinRestBetweenShiftsConstraint(tmpl.MinRestHoursBetweenShifts))
	m.Register(NewMaxConsecutiveDaysConstraint(tmpl.MaxConsecutiveDays))
	m.Register(NewShiftDurationConstraint(tmpl.MinConsecutiveHoursPerShift, tmpl.MaxConsecutiveHoursPerShift))
	if len(tmpl.SkillRequirements) > 0 {
		m.Register(NewSkillConstraint(tmpl.SkillRequirements))
	}
	if tmpl.EnforceAvailability {
		m.Register(NewAvailabilityConstraint())
	}
	if tmpl.EnforceTimeOff {
		m.Register(NewTimeOffConstraint())
	}
	return m
}

// MaxHoursPerWeekConstraint 每周最大工时约束
type MaxHoursPerWeekConstraint struct {
	*BaseConstraint
	maxHours float64
}

// NewMaxHoursPerWeekConstraint 创建每周最大工时约束
func NewMaxHoursPerWeekConstraint(maxHours float64) *MaxHoursPerWeekConstraint {
	return &MaxHoursPerWeekConstraint{
		BaseConstraint: NewBaseConstraint("每周最大工时", TypeMaxHoursPerWeek, CategoryHard, 100),
		maxHours:       maxHours,
	}
}

// Evaluate 评估整个候选方案 - 按周分割计算工时
func (c *MaxHoursPerWeekConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, emp := range ctx.Employees {
		hoursByWeek := make(map[string]float64)
		for _, s := range ctx.GetEmployeeCandidates(emp.ID) {
			hoursByWeek[weekStart(s.Date)] += s.WorkingHours()
		}

		weeks := make([]string, 0, len(hoursByWeek))
		for w := range hoursByWeek {
			weeks = append(weeks, w)
		}
		sort.Strings(weeks)

		for _, week := range weeks {
			hours := hoursByWeek[week]
			if hours > c.maxHours {
				isValid = false
				penalty := c.Weight() * int(hours-c.maxHours)
				totalPenalty += penalty

				violations = append(violations, ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					EmployeeID:     emp.ID,
					Date:           week,
					Message:        fmt.Sprintf("员工 %s 在周 %s 工作 %.1f 小时，超过限制 %.1f 小时", emp.Name, week, hours, c.maxHours),
					Severity:       "error",
					Penalty:        penalty,
				})
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估单个候选 - 计算该候选所在周的工时
func (c *MaxHoursPerWeekConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	ws := weekStart(s.Date)
	we := weekEnd(ws)

	totalHours := ctx.GetEmployeeHoursInRange(s.EmployeeID, ws, we) + s.WorkingHours()
	if totalHours > c.maxHours {
		return false, c.Weight() * int(totalHours-c.maxHours)
	}
	return true, 0
}

// weekStart 获取日期所在周的开始日期（周日）
func weekStart(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -int(t.Weekday())).Format("2006-01-02")
}

// weekEnd 获取周结束日期（周六）
func weekEnd(weekStartDate string) string {
	t, err := time.Parse("2006-01-02", weekStartDate)
	if err != nil {
		return weekStartDate
	}
	return t.AddDate(0, 0, 6).Format("2006-01-02")
}

// MinRestBetweenShiftsConstraint 班次间最小休息时间约束
type MinRestBetweenShiftsConstraint struct {
	*BaseConstraint
	minHours int
}

// NewMinRestBetweenShiftsConstraint 创建班次间最小休息约束
func NewMinRestBetweenShiftsConstraint(minHours int) *MinRestBetweenShiftsConstraint {
	return &MinRestBetweenShiftsConstraint{
		BaseConstraint: NewBaseConstraint("班次间最小休息", TypeMinRestBetweenShifts, CategoryHard, 100),
		minHours:       minHours,
	}
}

// Evaluate 评估整个候选方案
func (c *MinRestBetweenShiftsConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, emp := range ctx.Employees {
		shifts := ctx.GetEmployeeCandidates(emp.ID)
		if len(shifts) < 2 {
			continue
		}

		sorted := make([]*model.CandidateShift, len(shifts))
		copy(sorted, shifts)
		sort.Slice(sorted, func(i, j int) bool {
			return ShiftEnd(sorted[i]).Before(ShiftEnd(sorted[j]))
		})

		for i := 0; i < len(sorted)-1; i++ {
			restHours := ShiftStart(sorted[i+1]).Sub(ShiftEnd(sorted[i])).Hours()
			if restHours < float64(c.minHours) {
				isValid = false
				penalty := c.Weight() * int(float64(c.minHours)-restHours)
				totalPenalty += penalty

				violations = append(violations, ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					EmployeeID:     emp.ID,
					Date:           sorted[i+1].Date,
					Message: fmt.Sprintf("员工 %s 班次间隔仅 %.1f 小时，少于要求的 %d 小时",
						emp.Name, restHours, c.minHours),
					Severity: "error",
					Penalty:  penalty,
				})
			}
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估单个候选
func (c *MinRestBetweenShiftsConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	start := ShiftStart(s)
	end := ShiftEnd(s)

	for _, existing := range ctx.GetEmployeeCandidates(s.EmployeeID) {
		if existing.ID == s.ID {
			continue
		}

		exStart := ShiftStart(existing)
		exEnd := ShiftEnd(existing)

		var restHours float64
		if start.After(exEnd) || start.Equal(exEnd) {
			restHours = start.Sub(exEnd).Hours()
		} else if exStart.After(end) || exStart.Equal(end) {
			restHours = exStart.Sub(end).Hours()
		} else {
			// 班次重叠
			return false, c.Weight() * c.minHours
		}

		if restHours < float64(c.minHours) {
			return false, c.Weight() * int(float64(c.minHours)-restHours)
		}
	}

	return true, 0
}

// MaxConsecutiveDaysConstraint 最大连续工作天数约束
type MaxConsecutiveDaysConstraint struct {
	*BaseConstraint
	maxDays int
}

// NewMaxConsecutiveDaysConstraint 创建最大连续工作天数约束
func NewMaxConsecutiveDaysConstraint(maxDays int) *MaxConsecutiveDaysConstraint {
	return &MaxConsecutiveDaysConstraint{
		BaseConstraint: NewBaseConstraint("最大连续工作天数", TypeMaxConsecutiveDays, CategoryHard, 100),
		maxDays:        maxDays,
	}
}

// Evaluate 评估整个候选方案
func (c *MaxConsecutiveDaysConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, emp := range ctx.Employees {
		shifts := ctx.GetEmployeeCandidates(emp.ID)
		if len(shifts) == 0 {
			continue
		}

		workDates := make(map[string]bool)
		for _, s := range shifts {
			workDates[s.Date] = true
		}

		dates := make([]string, 0, len(workDates))
		for d := range workDates {
			dates = append(dates, d)
		}
		sort.Strings(dates)

		consecutive := 1
		maxConsecutive := 1
		for i := 1; i < len(dates); i++ {
			if nextDate(dates[i-1]) == dates[i] {
				consecutive++
				if consecutive > maxConsecutive {
					maxConsecutive = consecutive
				}
			} else {
				consecutive = 1
			}
		}

		if maxConsecutive > c.maxDays {
			isValid = false
			penalty := c.Weight() * (maxConsecutive - c.maxDays)
			totalPenalty += penalty

			violations = append(violations, ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				EmployeeID:     emp.ID,
				Message: fmt.Sprintf("员工 %s 连续工作 %d 天，超过限制 %d 天",
					emp.Name, maxConsecutive, c.maxDays),
				Severity: "error",
				Penalty:  penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估单个候选
func (c *MaxConsecutiveDaysConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	consecutiveDays := ctx.GetEmployeeConsecutiveDays(s.EmployeeID, s.Date) + 1
	if consecutiveDays > c.maxDays {
		return false, c.Weight() * (consecutiveDays - c.maxDays)
	}
	return true, 0
}

// ShiftDurationConstraint 单班次时长约束
type ShiftDurationConstraint struct {
	*BaseConstraint
	minHours int
	maxHours int
}

// NewShiftDurationConstraint 创建单班次时长约束
func NewShiftDurationConstraint(minHours, maxHours int) *ShiftDurationConstraint {
	return &ShiftDurationConstraint{
		BaseConstraint: NewBaseConstraint("班次时长限制", TypeShiftDuration, CategoryHard, 90),
		minHours:       minHours,
		maxHours:       maxHours,
	}
}

// Evaluate 评估整个候选方案
func (c *ShiftDurationConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, s := range ctx.Candidates {
		if valid, penalty := c.EvaluateCandidate(ctx, s); !valid {
			isValid = false
			totalPenalty += penalty

			violations = append(violations, ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				EmployeeID:     s.EmployeeID,
				Date:           s.Date,
				Message: fmt.Sprintf("班次时长 %.1f 小时，超出允许范围 %d-%d 小时",
					s.WorkingHours(), c.minHours, c.maxHours),
				Severity: "error",
				Penalty:  penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估单个候选
func (c *ShiftDurationConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	hours := s.WorkingHours()
	if hours < float64(c.minHours) || hours > float64(c.maxHours) {
		return false, c.Weight()
	}
	return true, 0
}

// SkillConstraint 岗位技能约束
type SkillConstraint struct {
	*BaseConstraint
	requirements []model.SkillRequirement
}

// NewSkillConstraint 创建岗位技能约束
func NewSkillConstraint(requirements []model.SkillRequirement) *SkillConstraint {
	return &SkillConstraint{
		BaseConstraint: NewBaseConstraint("岗位技能要求", TypeSkillRequired, CategoryHard, 95),
		requirements:   requirements,
	}
}

// Evaluate 评估整个候选方案
func (c *SkillConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, s := range ctx.Candidates {
		if !s.IsAssigned() {
			continue
		}
		if valid, penalty := c.EvaluateCandidate(ctx, s); !valid {
			emp := ctx.GetEmployee(s.EmployeeID)
			name := s.EmployeeID.String()
			if emp != nil {
				name = emp.Name
			}

			isValid = false
			totalPenalty += penalty
			violations = append(violations, ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				EmployeeID:     s.EmployeeID,
				Date:           s.Date,
				Message:        fmt.Sprintf("员工 %s 不满足岗位 %s 的技能要求", name, s.Role),
				Severity:       "error",
				Penalty:        penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估单个候选
func (c *SkillConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	emp := ctx.GetEmployee(s.EmployeeID)
	if emp == nil {
		return true, 0
	}

	for _, req := range c.requirements {
		if req.Role != s.Role || !req.IsMandatory {
			continue
		}
		if !emp.HasAllSkills(req.RequiredSkills) {
			return false, c.Weight()
		}
		if req.MinExperienceMonths > 0 && emp.ExperienceMonths < req.MinExperienceMonths {
			return false, c.Weight()
		}
	}
	return true, 0
}

// AvailabilityConstraint 员工可用性约束
type AvailabilityConstraint struct {
	*BaseConstraint
}

// NewAvailabilityConstraint 创建员工可用性约束
func NewAvailabilityConstraint() *AvailabilityConstraint {
	return &AvailabilityConstraint{
		BaseConstraint: NewBaseConstraint("员工可用性", TypeAvailability, CategoryHard, 90),
	}
}

// Evaluate 评估整个候选方案
func (c *AvailabilityConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, s := range ctx.Candidates {
		if !s.IsAssigned() {
			continue
		}
		if valid, penalty := c.EvaluateCandidate(ctx, s); !valid {
			emp := ctx.GetEmployee(s.EmployeeID)
			name := s.EmployeeID.String()
			if emp != nil {
				name = emp.Name
			}

			isValid = false
			totalPenalty += penalty
			violations = append(violations, ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				EmployeeID:     s.EmployeeID,
				Date:           s.Date,
				Message:        fmt.Sprintf("员工 %s 在 %s 不可排班", name, s.Date),
				Severity:       "error",
				Penalty:        penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估单个候选
func (c *AvailabilityConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	emp := ctx.GetEmployee(s.EmployeeID)
	if emp == nil {
		return true, 0
	}
	if !emp.AvailableForWindow(model.DayOfWeek(s.Date), s.StartTime, s.EndTime) {
		return false, c.Weight()
	}
	return true, 0
}

// TimeOffConstraint 已批准休假约束
type TimeOffConstraint struct {
	*BaseConstraint
}

// NewTimeOffConstraint 创建已批准休假约束
func NewTimeOffConstraint() *TimeOffConstraint {
	return &TimeOffConstraint{
		BaseConstraint: NewBaseConstraint("已批准休假", TypeTimeOff, CategoryHard, 100),
	}
}

// Evaluate 评估整个候选方案
func (c *TimeOffConstraint) Evaluate(ctx *Context) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, s := range ctx.Candidates {
		if !s.IsAssigned() {
			continue
		}
		if valid, penalty := c.EvaluateCandidate(ctx, s); !valid {
			emp := ctx.GetEmployee(s.EmployeeID)
			name := s.EmployeeID.String()
			if emp != nil {
				name = emp.Name
			}

			isValid = false
			totalPenalty += penalty
			violations = append(violations, ViolationDetail{
				ConstraintType: c.Type(),
				ConstraintName: c.Name(),
				EmployeeID:     s.EmployeeID,
				Date:           s.Date,
				Message:        fmt.Sprintf("员工 %s 在 %s 处于已批准休假", name, s.Date),
				Severity:       "error",
				Penalty:        penalty,
			})
		}
	}

	return isValid, totalPenalty, violations
}

// EvaluateCandidate 评估单个候选
func (c *TimeOffConstraint) EvaluateCandidate(ctx *Context, s *model.CandidateShift) (bool, int) {
	emp := ctx.GetEmployee(s.EmployeeID)
	if emp == nil {
		return true, 0
	}
	if emp.HasTimeOff(s.Date) {
		return false, c.Weight()
	}
	return true, 0
}

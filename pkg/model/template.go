// Package model 定义排班引擎的核心数据模型
package model

import "fmt"

// OptimizationPriority 排班优化目标
type OptimizationPriority string

const (
	PriorityBalanceStaffing  OptimizationPriority = "balance_staffing" // 均衡人员配置
	PriorityMinimizeCost     OptimizationPriority = "minimize_cost"    // 最小化成本
	PriorityMaximizeCoverage OptimizationPriority = "maximize_coverage" // 最大化覆盖
	PriorityFairness         OptimizationPriority = "fairness"         // 公平性
)

// OperatingWindow 每周某天的营业窗口
type OperatingWindow struct {
	DayOfWeek int    `json:"day_of_week" db:"day_of_week"` // 0=周日 ... 6=周六
	IsOpen    bool   `json:"is_open" db:"is_open"`
	OpenTime  string `json:"open_time" db:"open_time"`   // HH:MM
	CloseTime string `json:"close_time" db:"close_time"` // HH:MM
	MinStaff  int    `json:"min_staff" db:"min_staff"`
	MaxStaff  int    `json:"max_staff" db:"max_staff"` // 0 表示不限
}

// BreakRule 休息规则
type BreakRule struct {
	Type               string  `json:"type"`                 // meal/rest
	DurationMinutes    int     `json:"duration_minutes"`
	RequiredAfterHours float64 `json:"required_after_hours"` // 工作满多少小时后必须休息
	IsPaid             bool    `json:"is_paid"`
}

// SkillRequirement 岗位技能要求
type SkillRequirement struct {
	Role                string   `json:"role"`
	RequiredSkills      []string `json:"required_skills"`
	MinExperienceMonths int      `json:"min_experience_months"`
	IsMandatory         bool     `json:"is_mandatory"`
}

// ShiftTemplate 班次模板
type ShiftTemplate struct {
	Name               string         `json:"name"`
	StartTime          string         `json:"start_time"` // HH:MM
	EndTime            string         `json:"end_time"`   // HH:MM
	RequiredRoles      map[string]int `json:"required_roles"`
	PreferredLocations []string       `json:"preferred_locations,omitempty"`
	IsActive           bool           `json:"is_active"`
}

// Hours 返回班次时长（小时）
func (st *ShiftTemplate) Hours() float64 {
	return TimeStringHours(st.StartTime, st.EndTime)
}

// TotalRequired 返回班次需要的总人数
func (st *ShiftTemplate) TotalRequired() int {
	total := 0
	for _, n := range st.RequiredRoles {
		total += n
	}
	return total
}

// ConstraintTemplate 排班规则模板
// 模板在一次生成运行期间不可变；自动修复引擎只产生新的内存副本，
// 显式保存时才写回存储（带版本号乐观锁）。
type ConstraintTemplate struct {
	BaseModel
	Name     string `json:"name" db:"name"`
	Industry string `json:"industry,omitempty" db:"industry"`

	OperatingWindows  []OperatingWindow  `json:"operating_hours" db:"operating_hours"`
	BreakRules        []BreakRule        `json:"break_rules" db:"break_rules"`
	SkillRequirements []SkillRequirement `json:"skill_requirements" db:"skill_requirements"`
	ShiftTemplates    []ShiftTemplate    `json:"shift_templates" db:"shift_templates"`

	// 劳动限制
	MaxConsecutiveDays          int     `json:"max_consecutive_days" db:"max_consecutive_days"`
	MinRestHoursBetweenShifts   int     `json:"min_rest_hours_between_shifts" db:"min_rest_hours_between_shifts"`
	MaxHoursPerWeek             float64 `json:"max_hours_per_week" db:"max_hours_per_week"`
	MinConsecutiveHoursPerShift int     `json:"min_consecutive_hours_per_shift" db:"min_consecutive_hours_per_shift"`
	MaxConsecutiveHoursPerShift int     `json:"max_consecutive_hours_per_shift" db:"max_consecutive_hours_per_shift"`

	// 范围过滤
	Locations   []string `json:"locations" db:"locations"`
	Departments []string `json:"departments" db:"departments"`
	Roles       []string `json:"roles" db:"roles"`

	// 策略开关
	RequireManagerCoverage bool `json:"require_manager_coverage" db:"require_manager_coverage"`
	EnforceAvailability    bool `json:"enforce_availability" db:"enforce_availability"`
	EnforceTimeOff         bool `json:"enforce_time_off" db:"enforce_time_off"`
	AllowOvertime          bool `json:"allow_overtime" db:"allow_overtime"`

	OptimizationPriority OptimizationPriority `json:"optimization_priority" db:"optimization_priority"`

	// 乐观锁版本号，保存时比较并交换
	Version int `json:"version" db:"version"`
}

// FieldIssue 模板字段校验问题
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// dayNames 星期名称（0=周日）
var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName 返回星期序号对应的名称
func DayName(dayOfWeek int) string {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return "Unknown"
	}
	return dayNames[dayOfWeek]
}

// Validate 校验模板配置
// 规则：营业日必须 open < close 且 min_staff >= 1；设置 max_staff 时必须 >= min_staff。
func (t *ConstraintTemplate) Validate() []FieldIssue {
	var issues []FieldIssue

	if t.Name == "" {
		issues = append(issues, FieldIssue{Field: "name", Message: "模板名称不能为空"})
	}

	seen := make(map[int]bool)
	for _, ow := range t.OperatingWindows {
		if ow.DayOfWeek < 0 || ow.DayOfWeek > 6 {
			issues = append(issues, FieldIssue{
				Field:   "operating_hours.day_of_week",
				Message: fmt.Sprintf("无效的星期序号: %d", ow.DayOfWeek),
			})
			continue
		}
		if seen[ow.DayOfWeek] {
			issues = append(issues, FieldIssue{
				Field:   "operating_hours",
				Message: fmt.Sprintf("%s 配置重复", DayName(ow.DayOfWeek)),
			})
		}
		seen[ow.DayOfWeek] = true

		if !ow.IsOpen {
			continue
		}
		if ow.OpenTime >= ow.CloseTime {
			issues = append(issues, FieldIssue{
				Field:   "operating_hours.open_time",
				Message: fmt.Sprintf("%s 开门时间必须早于关门时间", DayName(ow.DayOfWeek)),
			})
		}
		if ow.MinStaff < 1 {
			issues = append(issues, FieldIssue{
				Field:   "operating_hours.min_staff",
				Message: fmt.Sprintf("%s 最小在岗人数必须 >= 1", DayName(ow.DayOfWeek)),
			})
		}
		if ow.MaxStaff > 0 && ow.MaxStaff < ow.MinStaff {
			issues = append(issues, FieldIssue{
				Field:   "operating_hours.max_staff",
				Message: fmt.Sprintf("%s 最大在岗人数不能小于最小在岗人数", DayName(ow.DayOfWeek)),
			})
		}
	}

	if t.MinConsecutiveHoursPerShift > 0 && t.MaxConsecutiveHoursPerShift > 0 &&
		t.MinConsecutiveHoursPerShift > t.MaxConsecutiveHoursPerShift {
		issues = append(issues, FieldIssue{
			Field:   "min_consecutive_hours_per_shift",
			Message: "班次最小时长不能大于最大时长",
		})
	}

	for i, st := range t.ShiftTemplates {
		if st.StartTime >= st.EndTime {
			issues = append(issues, FieldIssue{
				Field:   fmt.Sprintf("shift_templates[%d]", i),
				Message: fmt.Sprintf("班次 %q 开始时间必须早于结束时间", st.Name),
			})
		}
	}

	return issues
}

// ApplyDefaults 补齐缺省字段
// 未配置的星期按停业补齐；无班次模板时按营业时间派生；范围列表为空时填入默认值。
func (t *ConstraintTemplate) ApplyDefaults() {
	if t.MaxConsecutiveDays == 0 {
		t.MaxConsecutiveDays = 6
	}
	if t.MinRestHoursBetweenShifts == 0 {
		t.MinRestHoursBetweenShifts = 8
	}
	if t.MaxHoursPerWeek == 0 {
		t.MaxHoursPerWeek = 40
	}
	if t.MinConsecutiveHoursPerShift == 0 {
		t.MinConsecutiveHoursPerShift = 4
	}
	if t.MaxConsecutiveHoursPerShift == 0 {
		t.MaxConsecutiveHoursPerShift = 12
	}
	if t.OptimizationPriority == "" {
		t.OptimizationPriority = PriorityBalanceStaffing
	}

	// 补齐未配置的星期
	configured := make(map[int]bool)
	for _, ow := range t.OperatingWindows {
		configured[ow.DayOfWeek] = true
	}
	for day := 0; day <= 6; day++ {
		if !configured[day] {
			t.OperatingWindows = append(t.OperatingWindows, OperatingWindow{
				DayOfWeek: day,
				IsOpen:    false,
				OpenTime:  "09:00",
				CloseTime: "17:00",
				MinStaff:  1,
			})
		}
	}

	// 无班次模板时按第一个营业窗口派生一个标准班次
	if len(t.ShiftTemplates) == 0 {
		for _, ow := range t.OperatingWindows {
			if ow.IsOpen {
				t.ShiftTemplates = []ShiftTemplate{{
					Name:          fmt.Sprintf("Standard Shift (%s-%s)", ow.OpenTime, ow.CloseTime),
					StartTime:     ow.OpenTime,
					EndTime:       ow.CloseTime,
					RequiredRoles: map[string]int{"general": 1},
					IsActive:      true,
				}}
				break
			}
		}
	}

	if len(t.Locations) == 0 {
		t.Locations = []string{"Main Office"}
	}
	if len(t.Departments) == 0 {
		t.Departments = []string{"Operations"}
	}
}

// Window 返回某个星期的营业窗口
func (t *ConstraintTemplate) Window(dayOfWeek int) *OperatingWindow {
	for i := range t.OperatingWindows {
		if t.OperatingWindows[i].DayOfWeek == dayOfWeek {
			return &t.OperatingWindows[i]
		}
	}
	return nil
}

// OpenWindows 返回所有营业日窗口
func (t *ConstraintTemplate) OpenWindows() []OperatingWindow {
	var open []OperatingWindow
	for _, ow := range t.OperatingWindows {
		if ow.IsOpen {
			open = append(open, ow)
		}
	}
	return open
}

// MatchesScope 检查员工是否落在模板的范围过滤内
// 位置不参与过滤，员工保留自己的工作地点。
func (t *ConstraintTemplate) MatchesScope(e *Employee) bool {
	if !e.IsActive() {
		return false
	}
	if len(t.Roles) > 0 && !containsString(t.Roles, e.Role) {
		return false
	}
	if len(t.Departments) > 0 && !containsString(t.Departments, e.Department) {
		return false
	}
	if len(t.SkillRequirements) > 0 {
		meetsAny := false
		for _, sr := range t.SkillRequirements {
			if len(sr.RequiredSkills) == 0 || e.HasAllSkills(sr.RequiredSkills) {
				meetsAny = true
				break
			}
		}
		if !meetsAny {
			return false
		}
	}
	return true
}

// Clone 返回模板的深拷贝，供自动修复引擎在副本上改写
func (t *ConstraintTemplate) Clone() *ConstraintTemplate {
	c := *t

	c.OperatingWindows = append([]OperatingWindow(nil), t.OperatingWindows...)
	c.BreakRules = append([]BreakRule(nil), t.BreakRules...)

	c.SkillRequirements = make([]SkillRequirement, len(t.SkillRequirements))
	for i, sr := range t.SkillRequirements {
		sr.RequiredSkills = append([]string(nil), sr.RequiredSkills...)
		c.SkillRequirements[i] = sr
	}

	c.ShiftTemplates = make([]ShiftTemplate, len(t.ShiftTemplates))
	for i, st := range t.ShiftTemplates {
		roles := make(map[string]int, len(st.RequiredRoles))
		for k, v := range st.RequiredRoles {
			roles[k] = v
		}
		st.RequiredRoles = roles
		st.PreferredLocations = append([]string(nil), st.PreferredLocations...)
		c.ShiftTemplates[i] = st
	}

	c.Locations = append([]string(nil), t.Locations...)
	c.Departments = append([]string(nil), t.Departments...)
	c.Roles = append([]string(nil), t.Roles...)

	return &c
}

// containsString 检查字符串切片是否包含目标值
func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

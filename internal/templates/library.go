// Package templates 行业预设模板库
package templates

import (
	"sort"

	"github.com/nextera/workforce/pkg/model"
)

// Preset 行业预设
type Preset struct {
	Industry    string                    `json:"industry"`
	DisplayName string                    `json:"display_name"`
	Description string                    `json:"description"`
	Template    *model.ConstraintTemplate `json:"template"`
}

// LibraryResponse 预设库响应
type LibraryResponse struct {
	Presets []Preset `json:"presets"`
}

// GetPreset 获取指定行业的预设模板
// 返回的是深拷贝，调用方可以随意改写。
func GetPreset(industry string) (*Preset, bool) {
	for _, p := range library() {
		if p.Industry == industry {
			clone := p
			clone.Template = p.Template.Clone()
			return &clone, true
		}
	}
	return nil, false
}

// ListIndustries 返回全部支持的行业标识
func ListIndustries() []string {
	var industries []string
	for _, p := range library() {
		industries = append(industries, p.Industry)
	}
	sort.Strings(industries)
	return industries
}

// GetLibrary 获取完整的预设库
func GetLibrary() []Preset {
	presets := library()
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = p
		out[i].Template = p.Template.Clone()
	}
	return out
}

// library 预设定义
// 每个预设都经过 ApplyDefaults，保证字段完整。
func library() []Preset {
	presets := []Preset{
		{
			Industry:    "retail",
			DisplayName: "零售门店",
			Description: "周一至周六营业，高峰时段双人在岗，收银与理货岗位分工。",
			Template: &model.ConstraintTemplate{
				Name:     "Retail Store",
				Industry: "retail",
				OperatingWindows: []model.OperatingWindow{
					{DayOfWeek: 1, IsOpen: true, OpenTime: "09:00", CloseTime: "21:00", MinStaff: 2, MaxStaff: 6},
					{DayOfWeek: 2, IsOpen: true, OpenTime: "09:00", CloseTime: "21:00", MinStaff: 2, MaxStaff: 6},
					{DayOfWeek: 3, IsOpen: true, OpenTime: "09:00", CloseTime: "21:00", MinStaff: 2, MaxStaff: 6},
					{DayOfWeek: 4, IsOpen: true, OpenTime: "09:00", CloseTime: "21:00", MinStaff: 2, MaxStaff: 6},
					{DayOfWeek: 5, IsOpen: true, OpenTime: "09:00", CloseTime: "22:00", MinStaff: 3, MaxStaff: 8},
					{DayOfWeek: 6, IsOpen: true, OpenTime: "10:00", CloseTime: "22:00", MinStaff: 3, MaxStaff: 8},
				},
				ShiftTemplates: []model.ShiftTemplate{
					{Name: "Opening", StartTime: "09:00", EndTime: "15:00", RequiredRoles: map[string]int{"cashier": 1, "staff": 1}, IsActive: true},
					{Name: "Closing", StartTime: "15:00", EndTime: "21:00", RequiredRoles: map[string]int{"cashier": 1, "staff": 1}, IsActive: true},
				},
				SkillRequirements: []model.SkillRequirement{
					{Role: "cashier", RequiredSkills: []string{"pos"}, MinExperienceMonths: 1, IsMandatory: true},
				},
				MaxConsecutiveDays:        6,
				MinRestHoursBetweenShifts: 10,
				MaxHoursPerWeek:           40,
				Roles:                     []string{"cashier", "staff", "manager"},
				Departments:               []string{"Sales"},
				RequireManagerCoverage:    true,
				EnforceAvailability:       true,
				EnforceTimeOff:            true,
				OptimizationPriority:      model.PriorityBalanceStaffing,
			},
		},
		{
			Industry:    "healthcare",
			DisplayName: "护理机构",
			Description: "全周运转，严格的资质与休息要求，护理岗位必须持证。",
			Template: &model.ConstraintTemplate{
				Name:     "Care Facility",
				Industry: "healthcare",
				OperatingWindows: []model.OperatingWindow{
					{DayOfWeek: 0, IsOpen: true, OpenTime: "07:00", CloseTime: "23:00", MinStaff: 3},
					{DayOfWeek: 1, IsOpen: true, OpenTime: "07:00", CloseTime: "23:00", MinStaff: 3},
					{DayOfWeek: 2, IsOpen: true, OpenTime: "07:00", CloseTime: "23:00", MinStaff: 3},
					{DayOfWeek: 3, IsOpen: true, OpenTime: "07:00", CloseTime: "23:00", MinStaff: 3},
					{DayOfWeek: 4, IsOpen: true, OpenTime: "07:00", CloseTime: "23:00", MinStaff: 3},
					{DayOfWeek: 5, IsOpen: true, OpenTime: "07:00", CloseTime: "23:00", MinStaff: 3},
					{DayOfWeek: 6, IsOpen: true, OpenTime: "07:00", CloseTime: "23:00", MinStaff: 3},
				},
				ShiftTemplates: []model.ShiftTemplate{
					{Name: "Day", StartTime: "07:00", EndTime: "15:00", RequiredRoles: map[string]int{"nurse": 2, "staff": 1}, IsActive: true},
					{Name: "Evening", StartTime: "15:00", EndTime: "23:00", RequiredRoles: map[string]int{"nurse": 2, "staff": 1}, IsActive: true},
				},
				SkillRequirements: []model.SkillRequirement{
					{Role: "nurse", RequiredSkills: []string{"nursing_license"}, MinExperienceMonths: 6, IsMandatory: true},
				},
				BreakRules: []model.BreakRule{
					{Type: "meal", DurationMinutes: 30, RequiredAfterHours: 5, IsPaid: false},
				},
				MaxConsecutiveDays:        5,
				MinRestHoursBetweenShifts: 11,
				MaxHoursPerWeek:           38,
				Roles:                     []string{"nurse", "staff", "manager"},
				Departments:               []string{"Care"},
				RequireManagerCoverage:    true,
				EnforceAvailability:       true,
				EnforceTimeOff:            true,
				OptimizationPriority:      model.PriorityFairness,
			},
		},
		{
			Industry:    "hospitality",
			DisplayName: "餐饮酒店",
			Description: "午晚高峰双班制，允许加班应对旺季，周末全员覆盖。",
			Template: &model.ConstraintTemplate{
				Name:     "Restaurant",
				Industry: "hospitality",
				OperatingWindows: []model.OperatingWindow{
					{DayOfWeek: 0, IsOpen: true, OpenTime: "10:00", CloseTime: "22:00", MinStaff: 4, MaxStaff: 10},
					{DayOfWeek: 2, IsOpen: true, OpenTime: "11:00", CloseTime: "22:00", MinStaff: 3, MaxStaff: 8},
					{DayOfWeek: 3, IsOpen: true, OpenTime: "11:00", CloseTime: "22:00", MinStaff: 3, MaxStaff: 8},
					{DayOfWeek: 4, IsOpen: true, OpenTime: "11:00", CloseTime: "22:00", MinStaff: 3, MaxStaff: 8},
					{DayOfWeek: 5, IsOpen: true, OpenTime: "11:00", CloseTime: "23:00", MinStaff: 4, MaxStaff: 10},
					{DayOfWeek: 6, IsOpen: true, OpenTime: "10:00", CloseTime: "23:00", MinStaff: 4, MaxStaff: 10},
				},
				ShiftTemplates: []model.ShiftTemplate{
					{Name: "Lunch", StartTime: "10:00", EndTime: "16:00", RequiredRoles: map[string]int{"cook": 1, "server": 2}, IsActive: true},
					{Name: "Dinner", StartTime: "16:00", EndTime: "22:00", RequiredRoles: map[string]int{"cook": 1, "server": 2}, IsActive: true},
				},
				SkillRequirements: []model.SkillRequirement{
					{Role: "cook", RequiredSkills: []string{"food_safety"}, MinExperienceMonths: 3, IsMandatory: true},
				},
				MaxConsecutiveDays:        6,
				MinRestHoursBetweenShifts: 10,
				MaxHoursPerWeek:           44,
				Roles:                     []string{"cook", "server", "manager"},
				Departments:               []string{"Kitchen", "Front of House"},
				AllowOvertime:             true,
				EnforceAvailability:       true,
				EnforceTimeOff:            true,
				OptimizationPriority:      model.PriorityMaximizeCoverage,
			},
		},
		{
			Industry:    "general",
			DisplayName: "通用办公",
			Description: "标准工作日排班，单班次，适合作为自定义模板的起点。",
			Template: &model.ConstraintTemplate{
				Name:     "General Office",
				Industry: "general",
				OperatingWindows: []model.OperatingWindow{
					{DayOfWeek: 1, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00", MinStaff: 1},
					{DayOfWeek: 2, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00", MinStaff: 1},
					{DayOfWeek: 3, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00", MinStaff: 1},
					{DayOfWeek: 4, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00", MinStaff: 1},
					{DayOfWeek: 5, IsOpen: true, OpenTime: "09:00", CloseTime: "17:00", MinStaff: 1},
				},
				EnforceAvailability:  true,
				EnforceTimeOff:       true,
				OptimizationPriority: model.PriorityBalanceStaffing,
			},
		},
	}

	for i := range presets {
		presets[i].Template.ApplyDefaults()
	}
	return presets
}

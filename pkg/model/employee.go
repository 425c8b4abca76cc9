// Package model 定义排班引擎的核心数据模型
package model

// Employee 员工（来自员工目录的只读视图）
type Employee struct {
	BaseModel
	Name   string `json:"name" db:"name"`
	Code   string `json:"code" db:"code"`
	Status string `json:"status" db:"status"` // active/inactive/leave

	Role             string   `json:"role" db:"role"`
	Department       string   `json:"department" db:"department"`
	Location         string   `json:"location" db:"location"`
	Skills           []string `json:"skills" db:"skills"`
	HourlyRate       float64  `json:"hourly_rate" db:"hourly_rate"`
	ExperienceMonths int      `json:"experience_months" db:"experience_months"`

	// 每周可用性模式；为空表示随时可用
	Availability []AvailabilitySlot `json:"availability,omitempty" db:"availability"`

	// 已批准的休假区间
	TimeOff []TimeOffRange `json:"time_off,omitempty" db:"time_off"`
}

// AvailabilitySlot 每周某天的可用时段
type AvailabilitySlot struct {
	DayOfWeek   int    `json:"day_of_week"` // 0=周日 ... 6=周六
	IsAvailable bool   `json:"is_available"`
	StartTime   string `json:"start_time,omitempty"` // HH:MM，为空表示全天
	EndTime     string `json:"end_time,omitempty"`   // HH:MM
}

// TimeOffRange 已批准的休假区间
type TimeOffRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
	Reason    string `json:"reason,omitempty"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// IsManager 检查员工是否为管理岗
func (e *Employee) IsManager() bool {
	return e.Role == "manager" || e.Role == "administrator"
}

// HasSkill 检查员工是否具备某技能
func (e *Employee) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// HasAllSkills 检查员工是否具备全部技能
func (e *Employee) HasAllSkills(skills []string) bool {
	for _, s := range skills {
		if !e.HasSkill(s) {
			return false
		}
	}
	return true
}

// AvailableOnDay 检查员工在某个星期是否可排班
// 无可用性配置时视为随时可用；配置中未提到的星期同样视为可用。
func (e *Employee) AvailableOnDay(dayOfWeek int) bool {
	if len(e.Availability) == 0 {
		return true
	}
	for _, slot := range e.Availability {
		if slot.DayOfWeek == dayOfWeek {
			return slot.IsAvailable
		}
	}
	return true
}

// AvailableForWindow 检查员工在某个星期的时段内是否可排班
// 可用时段必须完整覆盖 [startTime, endTime)。
func (e *Employee) AvailableForWindow(dayOfWeek int, startTime, endTime string) bool {
	if len(e.Availability) == 0 {
		return true
	}
	for _, slot := range e.Availability {
		if slot.DayOfWeek != dayOfWeek {
			continue
		}
		if !slot.IsAvailable {
			return false
		}
		if slot.StartTime == "" || slot.EndTime == "" {
			return true // 全天可用
		}
		return slot.StartTime <= startTime && slot.EndTime >= endTime
	}
	return true
}

// HasTimeOff 检查某日期是否落在已批准的休假区间内
func (e *Employee) HasTimeOff(date string) bool {
	for _, r := range e.TimeOff {
		if r.StartDate <= date && date <= r.EndDate {
			return true
		}
	}
	return false
}

// AvailableDayCount 统计员工在给定营业窗口中可排班的天数
func (e *Employee) AvailableDayCount(windows []OperatingWindow) int {
	count := 0
	for _, ow := range windows {
		if ow.IsOpen && e.AvailableOnDay(ow.DayOfWeek) {
			count++
		}
	}
	return count
}

// Package constraint 定义排班约束接口和评估上下文
package constraint

import (
	"time"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeMaxHoursPerWeek      Type = "max_hours_per_week"
	TypeMinRestBetweenShifts Type = "min_rest_between_shifts"
	TypeMaxConsecutiveDays   Type = "max_consecutive_days"
	TypeShiftDuration        Type = "shift_duration"
	TypeSkillRequired        Type = "skill_required"
	TypeAvailability         Type = "availability"
	TypeTimeOff              Type = "time_off"

	// 软约束类型
	TypeWorkloadBalance  Type = "workload_balance"
	TypeMinimizeOvertime Type = "minimize_overtime"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)
	Weight() int

	// Evaluate 评估整个候选方案
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateCandidate 评估单个候选班次
	// 返回：是否满足、惩罚值
	EvaluateCandidate(ctx *Context, shift *model.CandidateShift) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	EmployeeID     uuid.UUID `json:"employee_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Penalty        int       `json:"penalty"`
}

// Context 约束评估上下文
// 持有模板、员工池与当前候选集，带索引缓存，只读并发安全（构建完成后不再修改时）。
type Context struct {
	Template  *model.ConstraintTemplate `json:"template"`
	StartDate string                    `json:"start_date"`
	EndDate   string                    `json:"end_date"`
	Employees []*model.Employee         `json:"employees"`

	// 当前候选结果
	Candidates []*model.CandidateShift `json:"candidates"`

	// 索引缓存
	employeeMap      map[uuid.UUID]*model.Employee
	candidatesByEmp  map[uuid.UUID][]*model.CandidateShift
	candidatesByDate map[string][]*model.CandidateShift
}

// NewContext 创建约束评估上下文
func NewContext(tmpl *model.ConstraintTemplate, startDate, endDate string) *Context {
	return &Context{
		Template:         tmpl,
		StartDate:        startDate,
		EndDate:          endDate,
		Employees:        make([]*model.Employee, 0),
		Candidates:       make([]*model.CandidateShift, 0),
		employeeMap:      make(map[uuid.UUID]*model.Employee),
		candidatesByEmp:  make(map[uuid.UUID][]*model.CandidateShift),
		candidatesByDate: make(map[string][]*model.CandidateShift),
	}
}

// SetEmployees 设置员工列表
func (c *Context) SetEmployees(employees []*model.Employee) {
	c.Employees = employees
	c.employeeMap = make(map[uuid.UUID]*model.Employee)
	for _, e := range employees {
		c.employeeMap[e.ID] = e
	}
}

// AddCandidate 添加候选班次
func (c *Context) AddCandidate(s *model.CandidateShift) {
	c.Candidates = append(c.Candidates, s)
	if s.EmployeeID != uuid.Nil {
		c.candidatesByEmp[s.EmployeeID] = append(c.candidatesByEmp[s.EmployeeID], s)
	}
	c.candidatesByDate[s.Date] = append(c.candidatesByDate[s.Date], s)
}

// GetEmployee 获取员工
func (c *Context) GetEmployee(id uuid.UUID) *model.Employee {
	return c.employeeMap[id]
}

// GetEmployeeCandidates 获取员工的所有候选班次
func (c *Context) GetEmployeeCandidates(empID uuid.UUID) []*model.CandidateShift {
	return c.candidatesByEmp[empID]
}

// GetDateCandidates 获取某日期的所有候选班次
func (c *Context) GetDateCandidates(date string) []*model.CandidateShift {
	return c.candidatesByDate[date]
}

// GetEmployeeHoursOnDate 获取员工某天的工作时长
func (c *Context) GetEmployeeHoursOnDate(empID uuid.UUID, date string) float64 {
	var hours float64
	for _, s := range c.candidatesByEmp[empID] {
		if s.Date == date {
			hours += s.WorkingHours()
		}
	}
	return hours
}

// GetEmployeeHoursInRange 获取员工在日期范围内的工作时长
func (c *Context) GetEmployeeHoursInRange(empID uuid.UUID, startDate, endDate string) float64 {
	var hours float64
	for _, s := range c.candidatesByEmp[empID] {
		if s.Date >= startDate && s.Date <= endDate {
			hours += s.WorkingHours()
		}
	}
	return hours
}

// GetEmployeeConsecutiveDays 获取员工在目标日期前后已排班的连续天数
// 返回前后相邻的连续天数之和，调用方 +1 得到分配目标日期后的总连续天数。
func (c *Context) GetEmployeeConsecutiveDays(empID uuid.UUID, targetDate string) int {
	dates := make(map[string]bool)
	for _, s := range c.candidatesByEmp[empID] {
		dates[s.Date] = true
	}

	countBefore := 0
	current := previousDate(targetDate)
	for dates[current] {
		countBefore++
		current = previousDate(current)
		if countBefore > 30 { // 防止无限循环
			break
		}
	}

	countAfter := 0
	current = nextDate(targetDate)
	for dates[current] {
		countAfter++
		current = nextDate(current)
		if countAfter > 30 {
			break
		}
	}

	return countBefore + countAfter
}

// ShiftStart 返回候选班次的开始时刻
func ShiftStart(s *model.CandidateShift) time.Time {
	return parseDateTime(s.Date, s.StartTime)
}

// ShiftEnd 返回候选班次的结束时刻（跨日自动加一天）
func ShiftEnd(s *model.CandidateShift) time.Time {
	start := parseDateTime(s.Date, s.StartTime)
	end := parseDateTime(s.Date, s.EndTime)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return end
}

// parseDateTime 组合日期和 HH:MM 时间
func parseDateTime(date, timeStr string) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return d
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location())
}

// previousDate 获取前一天日期
func previousDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
}

// nextDate 获取后一天日期
func nextDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算约束满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}

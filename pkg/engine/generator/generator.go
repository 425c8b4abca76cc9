// Package generator 生成候选排班
package generator

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/constraint"
	"github.com/nextera/workforce/pkg/logger"
	"github.com/nextera/workforce/pkg/model"
)

// UnfilledSlot 无法满足的排班槽位
type UnfilledSlot struct {
	Date      string `json:"date"`
	Role      string `json:"role"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Missing   int    `json:"missing"`
}

// Statistics 生成统计
type Statistics struct {
	TotalShifts         int     `json:"total_shifts"`
	AssignedShifts      int     `json:"assigned_shifts"`
	UnfilledCount       int     `json:"unfilled_count"`
	FillRate            float64 `json:"fill_rate"`
	TotalHours          float64 `json:"total_hours"`
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
}

// Result 生成结果
type Result struct {
	Shifts     []*model.CandidateShift `json:"shifts"`
	Unfilled   []UnfilledSlot          `json:"unfilled"`
	Statistics *Statistics             `json:"statistics"`
	Duration   time.Duration           `json:"duration"`
}

// Generator 候选排班生成器
// 相同输入产生相同输出；无法满足的槽位输出未分配占位班次而不是报错。
type Generator struct {
	logger *logger.EngineLogger
}

// New 创建生成器
func New() *Generator {
	return &Generator{logger: logger.NewEngineLogger()}
}

// tracker 员工分配跟踪，用于候选排序
type tracker struct {
	shiftCount    map[uuid.UUID]int
	hours         map[uuid.UUID]float64
	lastScheduled map[uuid.UUID]string
}

func newTracker() *tracker {
	return &tracker{
		shiftCount:    make(map[uuid.UUID]int),
		hours:         make(map[uuid.UUID]float64),
		lastScheduled: make(map[uuid.UUID]string),
	}
}

func (t *tracker) record(s *model.CandidateShift) {
	t.shiftCount[s.EmployeeID]++
	t.hours[s.EmployeeID] += s.WorkingHours()
	if s.Date > t.lastScheduled[s.EmployeeID] {
		t.lastScheduled[s.EmployeeID] = s.Date
	}
}

// Generate 为日期范围内的每个营业日生成候选班次
// 员工数为零或没有营业日时返回空结果，不报错。
func (g *Generator) Generate(ctx context.Context, tmpl *model.ConstraintTemplate, employees []*model.Employee, dateRange model.DateRange) (*Result, error) {
	startTime := time.Now()
	g.logger.StartGeneration(tmpl.ID.String(), len(employees), dateRange.Days())

	result := &Result{
		Shifts:     make([]*model.CandidateShift, 0),
		Unfilled:   make([]UnfilledSlot, 0),
		Statistics: &Statistics{},
	}

	manager := constraint.FromTemplate(tmpl)
	schedCtx := constraint.NewContext(tmpl, dateRange.StartDate, dateRange.EndDate)

	eligible := make([]*model.Employee, 0, len(employees))
	for _, e := range employees {
		if tmpl.MatchesScope(e) {
			eligible = append(eligible, e)
		}
	}
	// 按ID排序保证确定性
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].ID.String() < eligible[j].ID.String()
	})
	schedCtx.SetEmployees(eligible)

	track := newTracker()

	for _, date := range dateRange.Dates() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		window := tmpl.Window(model.DayOfWeek(date))
		if window == nil || !window.IsOpen {
			continue
		}

		g.generateDay(tmpl, schedCtx, manager, track, date, window, result)
	}

	g.finishStatistics(result, track)
	g.sortShifts(result.Shifts)

	result.Duration = time.Since(startTime)
	g.logger.GenerationComplete(tmpl.ID.String(), len(result.Shifts), len(result.Unfilled), result.Duration)
	return result, nil
}

// generateDay 为单个营业日生成班次
func (g *Generator) generateDay(tmpl *model.ConstraintTemplate, schedCtx *constraint.Context, manager *constraint.Manager, track *tracker, date string, window *model.OperatingWindow, result *Result) {
	assignedToday := 0
	maxToday := window.MaxStaff // 0 表示不限

	for _, st := range activeShiftTemplates(tmpl) {
		for _, role := range sortedRoles(st.RequiredRoles) {
			needed := st.RequiredRoles[role]

			for i := 0; i < needed; i++ {
				if maxToday > 0 && assignedToday >= maxToday {
					break
				}

				shift := g.assignOne(tmpl, schedCtx, manager, track, date, role, st)
				result.Shifts = append(result.Shifts, shift)
				if shift.IsAssigned() {
					assignedToday++
				} else {
					result.Unfilled = append(result.Unfilled, UnfilledSlot{
						Date:      date,
						Role:      role,
						StartTime: st.StartTime,
						EndTime:   st.EndTime,
						Missing:   1,
					})
				}
			}
		}
	}

	// 补足每日最少人数
	for assignedToday < window.MinStaff {
		if maxToday > 0 && assignedToday >= maxToday {
			break
		}
		st := fallbackShiftTemplate(tmpl, window)
		shift := g.assignOne(tmpl, schedCtx, manager, track, date, "general", st)
		result.Shifts = append(result.Shifts, shift)
		if shift.IsAssigned() {
			assignedToday++
			continue
		}
		result.Unfilled = append(result.Unfilled, UnfilledSlot{
			Date:      date,
			Role:      "general",
			StartTime: st.StartTime,
			EndTime:   st.EndTime,
			Missing:   window.MinStaff - assignedToday,
		})
		break // 没有更多可分配员工，避免空转
	}

	// 管理者覆盖：当日没有管理者时尝试补排一名
	if tmpl.RequireManagerCoverage && !g.hasManagerOnDate(schedCtx, date) {
		if maxToday == 0 || assignedToday < maxToday {
			st := fallbackShiftTemplate(tmpl, window)
			shift := g.assignOne(tmpl, schedCtx, manager, track, date, "manager", st)
			result.Shifts = append(result.Shifts, shift)
			if !shift.IsAssigned() {
				result.Unfilled = append(result.Unfilled, UnfilledSlot{
					Date:      date,
					Role:      "manager",
					StartTime: st.StartTime,
					EndTime:   st.EndTime,
					Missing:   1,
				})
			}
		}
	}
}

// assignOne 尝试为槽位分配一名员工，失败时返回未分配占位班次
func (g *Generator) assignOne(tmpl *model.ConstraintTemplate, schedCtx *constraint.Context, manager *constraint.Manager, track *tracker, date, role string, st model.ShiftTemplate) *model.CandidateShift {
	shift := &model.CandidateShift{
		BaseModel:  model.NewBaseModel(),
		TemplateID: tmpl.ID,
		Date:       date,
		StartTime:  st.StartTime,
		EndTime:    st.EndTime,
		Role:       role,
		Location:   shiftLocation(tmpl, st),
		State:      model.CandidateDraft,
	}

	candidates := g.rankCandidates(tmpl, schedCtx, track, date, role)
	for _, emp := range candidates {
		shift.EmployeeID = emp.ID
		shift.Department = emp.Department

		ok, reason := manager.CanAssign(schedCtx, shift)
		if !ok {
			g.logger.ConstraintViolation("候选分配", emp.Name+": "+reason)
			continue
		}

		schedCtx.AddCandidate(shift)
		track.record(shift)
		return shift
	}

	// 无可用员工，输出占位班次
	shift.EmployeeID = uuid.Nil
	shift.Department = defaultDepartment(tmpl)
	shift.Notes = "无可用员工"
	schedCtx.AddCandidate(shift)
	return shift
}

// rankCandidates 按优化目标对适用员工排序
func (g *Generator) rankCandidates(tmpl *model.ConstraintTemplate, schedCtx *constraint.Context, track *tracker, date, role string) []*model.Employee {
	dow := model.DayOfWeek(date)

	var candidates []*model.Employee
	for _, emp := range schedCtx.Employees {
		switch role {
		case "general":
			// 任意岗位可补位
		case "manager":
			// 管理者槽位接受所有管理岗，不限岗位名
			if !emp.IsManager() {
				continue
			}
		default:
			if emp.Role != role {
				continue
			}
		}
		// 日级可用性无条件过滤；时段可用性与休假检查
		// 由 EnforceAvailability/EnforceTimeOff 开关在约束层控制
		if !emp.AvailableOnDay(dow) {
			continue
		}
		candidates = append(candidates, emp)
	}

	less := g.orderFunc(tmpl, track)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if r := less(a, b); r != 0 {
			return r < 0
		}
		return a.ID.String() < b.ID.String() // 兜底用ID保证确定性
	})
	return candidates
}

// orderFunc 返回优化目标对应的比较函数，负值表示 a 优先
func (g *Generator) orderFunc(tmpl *model.ConstraintTemplate, track *tracker) func(a, b *model.Employee) int {
	switch tmpl.OptimizationPriority {
	case model.PriorityFairness:
		// 最久未排班优先，其次班次数少的优先
		return func(a, b *model.Employee) int {
			la, lb := track.lastScheduled[a.ID], track.lastScheduled[b.ID]
			if la != lb {
				if la < lb {
					return -1
				}
				return 1
			}
			return track.shiftCount[a.ID] - track.shiftCount[b.ID]
		}
	case model.PriorityMinimizeCost:
		return func(a, b *model.Employee) int {
			if a.HourlyRate < b.HourlyRate {
				return -1
			}
			if a.HourlyRate > b.HourlyRate {
				return 1
			}
			return 0
		}
	case model.PriorityMaximizeCoverage:
		// 技能和岗位覆盖面广的优先
		return func(a, b *model.Employee) int {
			return breadth(b) - breadth(a)
		}
	default: // balance_staffing
		return func(a, b *model.Employee) int {
			if d := track.shiftCount[a.ID] - track.shiftCount[b.ID]; d != 0 {
				return d
			}
			return availabilityBreadth(b, tmpl) - availabilityBreadth(a, tmpl)
		}
	}
}

// hasManagerOnDate 检查某日是否已排入管理者
func (g *Generator) hasManagerOnDate(schedCtx *constraint.Context, date string) bool {
	for _, s := range schedCtx.GetDateCandidates(date) {
		if !s.IsAssigned() {
			continue
		}
		if emp := schedCtx.GetEmployee(s.EmployeeID); emp != nil && emp.IsManager() {
			return true
		}
	}
	return false
}

// finishStatistics 汇总生成统计
func (g *Generator) finishStatistics(result *Result, track *tracker) {
	assigned := 0
	var totalHours float64
	for _, s := range result.Shifts {
		if s.IsAssigned() {
			assigned++
			totalHours += s.WorkingHours()
		}
	}

	result.Statistics.TotalShifts = len(result.Shifts)
	result.Statistics.AssignedShifts = assigned
	result.Statistics.UnfilledCount = len(result.Unfilled)
	result.Statistics.TotalHours = totalHours
	if len(result.Shifts) > 0 {
		result.Statistics.FillRate = float64(assigned) / float64(len(result.Shifts)) * 100
	}
	if len(track.hours) > 0 {
		result.Statistics.AvgHoursPerEmployee = totalHours / float64(len(track.hours))
	}
}

// sortShifts 按日期、开始、结束、员工排序输出
func (g *Generator) sortShifts(shifts []*model.CandidateShift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.EndTime != b.EndTime {
			return a.EndTime < b.EndTime
		}
		return a.EmployeeID.String() < b.EmployeeID.String()
	})
}

// activeShiftTemplates 返回启用的班次模板
func activeShiftTemplates(tmpl *model.ConstraintTemplate) []model.ShiftTemplate {
	var active []model.ShiftTemplate
	for _, st := range tmpl.ShiftTemplates {
		if st.IsActive {
			active = append(active, st)
		}
	}
	return active
}

// fallbackShiftTemplate 按营业窗口构造兜底班次
func fallbackShiftTemplate(tmpl *model.ConstraintTemplate, window *model.OperatingWindow) model.ShiftTemplate {
	for _, st := range tmpl.ShiftTemplates {
		if st.IsActive {
			return st
		}
	}
	return model.ShiftTemplate{
		Name:      "Standard Shift",
		StartTime: window.OpenTime,
		EndTime:   window.CloseTime,
		IsActive:  true,
	}
}

// sortedRoles 返回排序后的岗位名，保证遍历顺序确定
func sortedRoles(roles map[string]int) []string {
	keys := make([]string, 0, len(roles))
	for k := range roles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// shiftLocation 返回班次地点
func shiftLocation(tmpl *model.ConstraintTemplate, st model.ShiftTemplate) string {
	if len(st.PreferredLocations) > 0 {
		return st.PreferredLocations[0]
	}
	if len(tmpl.Locations) > 0 {
		return tmpl.Locations[0]
	}
	return ""
}

// defaultDepartment 返回默认部门
func defaultDepartment(tmpl *model.ConstraintTemplate) string {
	return firstOr(tmpl.Departments, "Operations")
}

// breadth 员工技能和岗位覆盖面
func breadth(e *model.Employee) int {
	n := len(e.Skills)
	if e.Role != "" {
		n++
	}
	return n
}

// availabilityBreadth 员工在模板营业日上的可用天数
func availabilityBreadth(e *model.Employee, tmpl *model.ConstraintTemplate) int {
	return e.AvailableDayCount(tmpl.OpenWindows())
}

// firstOr 返回切片首元素，空切片返回默认值
func firstOr(list []string, def string) string {
	if len(list) > 0 {
		return list[0]
	}
	return def
}

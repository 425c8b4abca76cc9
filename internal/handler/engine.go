package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nextera/workforce/internal/config"
	"github.com/nextera/workforce/internal/metrics"
	"github.com/nextera/workforce/internal/repository"
	"github.com/nextera/workforce/pkg/engine"
	"github.com/nextera/workforce/pkg/engine/analyzer"
	"github.com/nextera/workforce/pkg/engine/autofix"
	"github.com/nextera/workforce/pkg/engine/generator"
	"github.com/nextera/workforce/pkg/errors"
	"github.com/nextera/workforce/pkg/model"
	"github.com/nextera/workforce/pkg/stats"
)

// EngineHandler 排班流程处理器
// 串联冲突分析、自动修复、候选生成与发布。
type EngineHandler struct {
	templates  *repository.TemplateRepository
	employees  *repository.EmployeeRepository
	candidates *repository.CandidateRepository
	cfg        config.EngineConfig
}

// NewEngineHandler 创建排班流程处理器
func NewEngineHandler(
	templates *repository.TemplateRepository,
	employees *repository.EmployeeRepository,
	candidates *repository.CandidateRepository,
	cfg config.EngineConfig,
) *EngineHandler {
	return &EngineHandler{
		templates:  templates,
		employees:  employees,
		candidates: candidates,
		cfg:        cfg,
	}
}

// AnalyzeRequest 冲突分析请求
type AnalyzeRequest struct {
	TemplateID string `json:"template_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// AnalyzeConflicts 冲突分析
// POST /api/v1/schedules/analyze-conflicts
func (h *EngineHandler) AnalyzeConflicts(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	tmpl, employees, dateRange, err := h.loadInputs(r.Context(), req.TemplateID, req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, err)
		return
	}

	result := analyzer.New(h.cfg.RangeCapDays).Analyze(tmpl, employees, dateRange)
	metrics.RecordConflictAnalysis(result.CanProceed)

	respondJSON(w, http.StatusOK, result)
}

// ApplyFixesRequest 自动修复请求
type ApplyFixesRequest struct {
	TemplateID  string                `json:"template_id"`
	Suggestions []analyzer.Suggestion `json:"suggestions"`
	StartDate   string                `json:"start_date,omitempty"`
	EndDate     string                `json:"end_date,omitempty"`
	Save        bool                  `json:"save,omitempty"` // 是否将修复后的模板写回存储
}

// ApplyFixesResponse 自动修复响应
type ApplyFixesResponse struct {
	Template     *model.ConstraintTemplate        `json:"updated_template"`
	AppliedFixes []autofix.AppliedFix             `json:"applied_fixes"`
	FixCount     int                              `json:"fix_count"`
	Skipped      int                              `json:"skipped"`
	Reanalysis   *analyzer.ConflictAnalysisResult `json:"reanalysis,omitempty"`
}

// ApplyAutoFixes 应用自动修复建议
// POST /api/v1/schedules/apply-auto-fixes
// 修复发生在模板副本上；携带 save 时以版本号乐观锁写回。
func (h *EngineHandler) ApplyAutoFixes(w http.ResponseWriter, r *http.Request) {
	var req ApplyFixesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if len(req.Suggestions) == 0 {
		respondError(w, errors.InvalidInput("suggestions", "建议列表不能为空"))
		return
	}

	tmpl, err := h.loadTemplate(r.Context(), req.TemplateID)
	if err != nil {
		respondError(w, err)
		return
	}

	fixResult := autofix.New().Apply(tmpl, req.Suggestions)
	for _, fix := range fixResult.AppliedFixes {
		metrics.RecordAutoFix(fix.Type)
	}

	if req.Save && fixResult.FixCount > 0 {
		if err := h.templates.Update(r.Context(), fixResult.Template); err != nil {
			respondError(w, err)
			return
		}
	}

	resp := ApplyFixesResponse{
		Template:     fixResult.Template,
		AppliedFixes: fixResult.AppliedFixes,
		FixCount:     fixResult.FixCount,
		Skipped:      fixResult.Skipped,
	}

	// 携带日期范围时对修复后的模板复查一遍
	if req.StartDate != "" && req.EndDate != "" {
		dateRange := model.DateRange{StartDate: req.StartDate, EndDate: req.EndDate}
		if dateRange.Validate() {
			employees, listErr := h.employees.ListActive(r.Context())
			if listErr == nil {
				resp.Reanalysis = analyzer.New(h.cfg.RangeCapDays).Analyze(fixResult.Template, employees, dateRange)
			}
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// GenerateRequest 候选生成请求
type GenerateRequest struct {
	TemplateID string `json:"template_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	AutoFix    bool   `json:"auto_fix,omitempty"` // 分析到可修复冲突时自动修复后重试
	Stage      bool   `json:"stage,omitempty"`    // 是否将候选写入暂存区
}

// GenerateResponse 候选生成响应
type GenerateResponse struct {
	RunState     string                           `json:"run_state"`
	Shifts       []*model.CandidateShift          `json:"shifts"`
	Unfilled     []generator.UnfilledSlot         `json:"unfilled,omitempty"`
	Statistics   *generator.Statistics            `json:"statistics"`
	Analysis     *analyzer.ConflictAnalysisResult `json:"analysis"`
	FixRounds    int                              `json:"fix_rounds"`
	AppliedFixes []autofix.AppliedFix             `json:"applied_fixes,omitempty"`
	Coverage     *stats.CoverageMetrics           `json:"coverage,omitempty"`
	Fairness     *stats.FairnessMetrics           `json:"fairness,omitempty"`
	Duration     string                           `json:"duration"`
}

// Generate 生成候选排班
// POST /api/v1/schedules/generate
// 流程：分析 -> (可选)修复循环 -> 生成 -> 预览。critical 冲突阻断生成。
func (h *EngineHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	tmpl, employees, dateRange, err := h.loadInputs(r.Context(), req.TemplateID, req.StartDate, req.EndDate)
	if err != nil {
		respondError(w, err)
		return
	}

	startTime := time.Now()
	run := engine.NewRun(engine.WithMaxFixRounds(h.cfg.MaxFixRounds))
	conflictAnalyzer := analyzer.New(h.cfg.RangeCapDays)
	var appliedFixes []autofix.AppliedFix

	if err := run.StartAnalysis(); err != nil {
		respondError(w, err)
		return
	}

	analysis := conflictAnalyzer.Analyze(tmpl, employees, dateRange)
	if err := run.CompleteAnalysis(analysis); err != nil {
		respondError(w, err)
		return
	}
	metrics.RecordConflictAnalysis(analysis.CanProceed)

	// 修复循环：有可自动修复的冲突时在副本上修复并重新分析
	for req.AutoFix && run.State() == engine.StateConflicted && analysis.AutoFixableCount > 0 {
		if err := run.BeginFixing(); err != nil {
			// 轮数耗尽，带着剩余冲突进入后续判定
			break
		}

		fixResult := autofix.New().Apply(tmpl, analysis.Suggestions)
		for _, fix := range fixResult.AppliedFixes {
			metrics.RecordAutoFix(fix.Type)
		}
		appliedFixes = append(appliedFixes, fixResult.AppliedFixes...)
		tmpl = fixResult.Template

		if err := run.CompleteFixing(); err != nil {
			respondError(w, err)
			return
		}

		analysis = conflictAnalyzer.Analyze(tmpl, employees, dateRange)
		if err := run.CompleteAnalysis(analysis); err != nil {
			respondError(w, err)
			return
		}

		if fixResult.FixCount == 0 {
			// 没有任何建议实际生效，继续循环只会原地打转
			break
		}
	}

	if err := run.Proceed(); err != nil {
		resp := GenerateResponse{
			RunState:     string(run.State()),
			Shifts:       []*model.CandidateShift{},
			Analysis:     analysis,
			FixRounds:    run.FixRounds(),
			AppliedFixes: appliedFixes,
			Duration:     time.Since(startTime).String(),
		}
		respondJSON(w, errors.GetHTTPStatus(err), resp)
		return
	}

	genCtx, cancel := context.WithTimeout(r.Context(), h.cfg.GenerateTimeout)
	defer cancel()

	genResult, err := generator.New().Generate(genCtx, tmpl, employees, dateRange)
	if err != nil {
		metrics.RecordGeneration(string(tmpl.OptimizationPriority), false, time.Since(startTime))
		if genCtx.Err() == context.DeadlineExceeded {
			respondError(w, errors.New(errors.CodeTimeout, "候选生成超时，请缩短排班周期后重试"))
			return
		}
		respondError(w, errors.Wrap(err, errors.CodeInternal, "候选生成失败"))
		return
	}

	if err := run.CompleteGeneration(); err != nil {
		respondError(w, err)
		return
	}
	metrics.RecordGeneration(string(tmpl.OptimizationPriority), true, genResult.Duration)

	if req.Stage && len(genResult.Shifts) > 0 {
		if err := h.candidates.CreateBatch(r.Context(), genResult.Shifts); err != nil {
			respondError(w, err)
			return
		}
	}

	coverage := stats.NewCoverageAnalyzer().Analyze(genResult.Shifts)
	fairness := stats.NewFairnessAnalyzer().Analyze(genResult.Shifts, employees)
	metrics.SetCoverageRate(tmpl.ID.String(), coverage.OverallCoverage)
	metrics.SetFairnessGini(tmpl.ID.String(), "workload", fairness.WorkloadGini)

	respondJSON(w, http.StatusOK, GenerateResponse{
		RunState:     string(run.State()),
		Shifts:       genResult.Shifts,
		Unfilled:     genResult.Unfilled,
		Statistics:   genResult.Statistics,
		Analysis:     analysis,
		FixRounds:    run.FixRounds(),
		AppliedFixes: appliedFixes,
		Coverage:     coverage,
		Fairness:     fairness,
		Duration:     time.Since(startTime).String(),
	})
}

// PublishRequest 发布请求
type PublishRequest struct {
	ScheduleIDs []string `json:"schedule_ids"`
}

// PublishResponse 发布响应
type PublishResponse struct {
	PublishedCount int `json:"published_count"`
	RequestedCount int `json:"requested_count"`
}

// Publish 批量发布候选班次
// POST /api/v1/schedules/publish
func (h *EngineHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if len(req.ScheduleIDs) == 0 {
		respondError(w, errors.InvalidInput("schedule_ids", "班次ID列表不能为空"))
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ScheduleIDs))
	for _, raw := range req.ScheduleIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的班次ID格式: "+raw))
			return
		}
		ids = append(ids, id)
	}

	published, err := h.candidates.Publish(r.Context(), ids)
	if err != nil {
		metrics.RecordPublish(false, len(ids))
		respondError(w, err)
		return
	}
	metrics.RecordPublish(true, published)

	respondJSON(w, http.StatusOK, PublishResponse{
		PublishedCount: published,
		RequestedCount: len(ids),
	})
}

// DiscardRequest 放弃暂存请求
type DiscardRequest struct {
	TemplateID string `json:"template_id"`
}

// Discard 放弃模板下的暂存候选班次
// POST /api/v1/schedules/discard
func (h *EngineHandler) Discard(w http.ResponseWriter, r *http.Request) {
	var req DiscardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的模板ID格式"))
		return
	}

	deleted, err := h.candidates.DeleteDrafts(r.Context(), templateID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"discarded": deleted})
}

// ListCandidates 查询暂存候选班次
// GET /api/v1/schedules
func (h *EngineHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)
	q := r.URL.Query()

	if raw := q.Get("template_id"); raw != "" {
		templateID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的模板ID格式"))
			return
		}
		filter = filter.WithTemplateID(templateID)
	}
	if start, end := q.Get("start_date"), q.Get("end_date"); start != "" || end != "" {
		filter = filter.WithDateRange(start, end)
	}

	items, total, err := h.candidates.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, listResponse{
		Items:  items,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// loadTemplate 加载模板
func (h *EngineHandler) loadTemplate(ctx context.Context, rawID string) (*model.ConstraintTemplate, error) {
	if rawID == "" {
		return nil, errors.InvalidInput("template_id", "模板ID不能为空")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的模板ID格式")
	}

	tmpl, err := h.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, errors.NotFound("模板", rawID)
	}

	tmpl.ApplyDefaults()
	return tmpl, nil
}

// loadInputs 加载模板、员工池并校验日期范围
func (h *EngineHandler) loadInputs(ctx context.Context, rawID, startDate, endDate string) (*model.ConstraintTemplate, []*model.Employee, model.DateRange, error) {
	dateRange := model.DateRange{StartDate: startDate, EndDate: endDate}

	ve := &errors.ValidationErrors{}
	if startDate == "" {
		ve.Add("start_date", "开始日期不能为空")
	}
	if endDate == "" {
		ve.Add("end_date", "结束日期不能为空")
	}
	if startDate != "" && endDate != "" && !dateRange.Validate() {
		ve.Add("start_date", "日期范围无效，格式应为YYYY-MM-DD且开始不晚于结束")
	}
	if ve.HasErrors() {
		return nil, nil, dateRange, ve.ToAppError()
	}

	tmpl, err := h.loadTemplate(ctx, rawID)
	if err != nil {
		return nil, nil, dateRange, err
	}

	employees, err := h.employees.ListActive(ctx)
	if err != nil {
		return nil, nil, dateRange, err
	}

	return tmpl, employees, dateRange, nil
}

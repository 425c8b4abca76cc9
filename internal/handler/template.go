package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextera/workforce/internal/repository"
	"github.com/nextera/workforce/internal/templates"
	"github.com/nextera/workforce/pkg/errors"
	"github.com/nextera/workforce/pkg/model"
)

// TemplateHandler 排班规则模板处理器
type TemplateHandler struct {
	repo *repository.TemplateRepository
}

// NewTemplateHandler 创建模板处理器
func NewTemplateHandler(repo *repository.TemplateRepository) *TemplateHandler {
	return &TemplateHandler{repo: repo}
}

// Create 创建模板
// POST /api/v1/templates
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var tmpl model.ConstraintTemplate
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if err := validateTemplate(&tmpl); err != nil {
		respondError(w, err)
		return
	}
	tmpl.ApplyDefaults()

	if err := h.repo.Create(r.Context(), &tmpl); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, &tmpl)
}

// Get 获取模板
// GET /api/v1/templates/{id}
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	tmpl, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if tmpl == nil {
		respondError(w, errors.NotFound("模板", id.String()))
		return
	}

	respondJSON(w, http.StatusOK, tmpl)
}

// List 查询模板列表
// GET /api/v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)
	if industry := r.URL.Query().Get("industry"); industry != "" {
		filter.Extra = map[string]interface{}{"industry": industry}
	}

	items, total, err := h.repo.List(r.Context(), filter)
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

// Update 更新模板
// PUT /api/v1/templates/{id}
// 请求体必须携带当前版本号，版本不匹配返回409。
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var tmpl model.ConstraintTemplate
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	tmpl.ID = id

	if tmpl.Version <= 0 {
		respondError(w, errors.InvalidInput("version", "更新必须携带当前版本号"))
		return
	}

	if err := validateTemplate(&tmpl); err != nil {
		respondError(w, err)
		return
	}
	tmpl.ApplyDefaults()

	if err := h.repo.Update(r.Context(), &tmpl); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &tmpl)
}

// Delete 删除模板
// DELETE /api/v1/templates/{id}
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"deleted": true, "id": id.String()})
}

// Presets 获取行业预设模板
// GET /api/v1/templates/presets/{industry}
func (h *TemplateHandler) Presets(w http.ResponseWriter, r *http.Request) {
	industry := r.PathValue("industry")

	preset, ok := templates.GetPreset(industry)
	if !ok {
		respondError(w, errors.NotFound("行业预设", industry).
			WithField("supported", templates.ListIndustries()))
		return
	}

	respondJSON(w, http.StatusOK, preset)
}

// PresetLibrary 获取全部行业预设
// GET /api/v1/templates/presets
func (h *TemplateHandler) PresetLibrary(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, templates.LibraryResponse{Presets: templates.GetLibrary()})
}

// validateTemplate 校验模板请求
func validateTemplate(tmpl *model.ConstraintTemplate) error {
	ve := &errors.ValidationErrors{}

	for _, issue := range tmpl.Validate() {
		ve.Add(issue.Field, issue.Message)
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

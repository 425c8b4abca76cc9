package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextera/workforce/internal/repository"
	"github.com/nextera/workforce/pkg/errors"
	"github.com/nextera/workforce/pkg/model"
)

// EmployeeHandler 员工目录处理器
type EmployeeHandler struct {
	repo *repository.EmployeeRepository
}

// NewEmployeeHandler 创建员工处理器
func NewEmployeeHandler(repo *repository.EmployeeRepository) *EmployeeHandler {
	return &EmployeeHandler{repo: repo}
}

// Create 创建员工
// POST /api/v1/employees
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var emp model.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	if err := validateEmployee(&emp); err != nil {
		respondError(w, err)
		return
	}
	if emp.Status == "" {
		emp.Status = "active"
	}

	if err := h.repo.Create(r.Context(), &emp); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, &emp)
}

// Get 获取员工
// GET /api/v1/employees/{id}
func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	emp, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if emp == nil {
		respondError(w, errors.NotFound("员工", id.String()))
		return
	}

	respondJSON(w, http.StatusOK, emp)
}

// List 查询员工列表
// GET /api/v1/employees
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := listFilterFromQuery(r)

	extra := make(map[string]interface{})
	if role := r.URL.Query().Get("role"); role != "" {
		extra["role"] = role
	}
	if dept := r.URL.Query().Get("department"); dept != "" {
		extra["department"] = dept
	}
	if len(extra) > 0 {
		filter.Extra = extra
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

// Update 更新员工
// PUT /api/v1/employees/{id}
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var emp model.Employee
	if err := json.NewDecoder(r.Body).Decode(&emp); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	emp.ID = id

	if err := validateEmployee(&emp); err != nil {
		respondError(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), &emp); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &emp)
}

// Delete 删除员工
// DELETE /api/v1/employees/{id}
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

// validateEmployee 校验员工请求
func validateEmployee(emp *model.Employee) error {
	ve := &errors.ValidationErrors{}

	if emp.Name == "" {
		ve.Add("name", "员工姓名不能为空")
	}
	if emp.Role == "" {
		ve.Add("role", "岗位不能为空")
	}
	if emp.HourlyRate < 0 {
		ve.Add("hourly_rate", "时薪不能为负数")
	}
	if emp.ExperienceMonths < 0 {
		ve.Add("experience_months", "工作经验不能为负数")
	}
	for _, slot := range emp.Availability {
		if slot.DayOfWeek < 0 || slot.DayOfWeek > 6 {
			ve.Add("availability.day_of_week", "星期序号必须在0-6之间")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

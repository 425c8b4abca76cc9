package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/errors"
	"github.com/nextera/workforce/pkg/model"
)

// TemplateRepository 排班规则模板仓储
type TemplateRepository struct {
	db DB
}

// NewTemplateRepository 创建模板仓储
func NewTemplateRepository(db DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create 创建模板
// 同名模板（未删除）拒绝创建。
func (r *TemplateRepository) Create(ctx context.Context, tmpl *model.ConstraintTemplate) error {
	var count int
	dupQuery := `SELECT COUNT(*) FROM constraint_templates WHERE name = $1 AND deleted_at IS NULL`
	if err := r.db.QueryRowContext(ctx, dupQuery, tmpl.Name).Scan(&count); err != nil {
		return fmt.Errorf("查询模板名称失败: %w", err)
	}
	if count > 0 {
		return errors.New(errors.CodeAlreadyExists, fmt.Sprintf("模板 %q 已存在", tmpl.Name))
	}

	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	now := time.Now()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	if tmpl.Version == 0 {
		tmpl.Version = 1
	}

	operatingJSON, _ := json.Marshal(tmpl.OperatingWindows)
	breakJSON, _ := json.Marshal(tmpl.BreakRules)
	skillJSON, _ := json.Marshal(tmpl.SkillRequirements)
	shiftJSON, _ := json.Marshal(tmpl.ShiftTemplates)
	locationsJSON, _ := json.Marshal(tmpl.Locations)
	departmentsJSON, _ := json.Marshal(tmpl.Departments)
	rolesJSON, _ := json.Marshal(tmpl.Roles)

	query := `
		INSERT INTO constraint_templates (
			id, name, industry,
			operating_hours, break_rules, skill_requirements, shift_templates,
			max_consecutive_days, min_rest_hours_between_shifts, max_hours_per_week,
			min_consecutive_hours_per_shift, max_consecutive_hours_per_shift,
			locations, departments, roles,
			require_manager_coverage, enforce_availability, enforce_time_off, allow_overtime,
			optimization_priority, version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.Name, tmpl.Industry,
		operatingJSON, breakJSON, skillJSON, shiftJSON,
		tmpl.MaxConsecutiveDays, tmpl.MinRestHoursBetweenShifts, tmpl.MaxHoursPerWeek,
		tmpl.MinConsecutiveHoursPerShift, tmpl.MaxConsecutiveHoursPerShift,
		locationsJSON, departmentsJSON, rolesJSON,
		tmpl.RequireManagerCoverage, tmpl.EnforceAvailability, tmpl.EnforceTimeOff, tmpl.AllowOvertime,
		tmpl.OptimizationPriority, tmpl.Version, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建模板失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取模板
func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ConstraintTemplate, error) {
	query := templateSelectColumns + `
		FROM constraint_templates
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanTemplate(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新模板
// 版本号比较并交换：版本不匹配说明模板已被其他操作修改，返回过期错误。
func (r *TemplateRepository) Update(ctx context.Context, tmpl *model.ConstraintTemplate) error {
	tmpl.UpdatedAt = time.Now()

	operatingJSON, _ := json.Marshal(tmpl.OperatingWindows)
	breakJSON, _ := json.Marshal(tmpl.BreakRules)
	skillJSON, _ := json.Marshal(tmpl.SkillRequirements)
	shiftJSON, _ := json.Marshal(tmpl.ShiftTemplates)
	locationsJSON, _ := json.Marshal(tmpl.Locations)
	departmentsJSON, _ := json.Marshal(tmpl.Departments)
	rolesJSON, _ := json.Marshal(tmpl.Roles)

	query := `
		UPDATE constraint_templates SET
			name = $3, industry = $4,
			operating_hours = $5, break_rules = $6, skill_requirements = $7, shift_templates = $8,
			max_consecutive_days = $9, min_rest_hours_between_shifts = $10, max_hours_per_week = $11,
			min_consecutive_hours_per_shift = $12, max_consecutive_hours_per_shift = $13,
			locations = $14, departments = $15, roles = $16,
			require_manager_coverage = $17, enforce_availability = $18, enforce_time_off = $19, allow_overtime = $20,
			optimization_priority = $21, version = version + 1, updated_at = $22
		WHERE id = $1 AND version = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.Version,
		tmpl.Name, tmpl.Industry,
		operatingJSON, breakJSON, skillJSON, shiftJSON,
		tmpl.MaxConsecutiveDays, tmpl.MinRestHoursBetweenShifts, tmpl.MaxHoursPerWeek,
		tmpl.MinConsecutiveHoursPerShift, tmpl.MaxConsecutiveHoursPerShift,
		locationsJSON, departmentsJSON, rolesJSON,
		tmpl.RequireManagerCoverage, tmpl.EnforceAvailability, tmpl.EnforceTimeOff, tmpl.AllowOvertime,
		tmpl.OptimizationPriority, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// 区分模板不存在与版本过期
		existing, getErr := r.GetByID(ctx, tmpl.ID)
		if getErr != nil {
			return getErr
		}
		if existing == nil {
			return errors.NotFound("模板", tmpl.ID.String())
		}
		return errors.StaleTemplate(tmpl.ID.String(), tmpl.Version)
	}

	tmpl.Version++
	return nil
}

// Delete 软删除模板
// 仍有已发布班次引用的模板不允许删除。
func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var refs int
	refQuery := `SELECT COUNT(*) FROM candidate_shifts WHERE template_id = $1 AND state = 'confirmed'`
	if err := r.db.QueryRowContext(ctx, refQuery, id).Scan(&refs); err != nil {
		return fmt.Errorf("查询模板引用失败: %w", err)
	}
	if refs > 0 {
		return errors.New(errors.CodeScheduleConflict, "模板仍被已发布班次引用，不能删除").
			WithField("template_id", id.String()).
			WithField("confirmed_shifts", refs)
	}

	query := `UPDATE constraint_templates SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除模板失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("模板", id.String())
	}

	return nil
}

// List 查询模板列表
func (r *TemplateRepository) List(ctx context.Context, filter ListFilter) ([]*model.ConstraintTemplate, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	// 行业过滤
	if industry, ok := filter.Extra["industry"].(string); ok && industry != "" {
		conditions = append(conditions, fmt.Sprintf("industry = $%d", argIndex))
		args = append(args, industry)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM constraint_templates WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	orderBy := filter.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	orderDir := filter.OrderDir
	if orderDir == "" {
		orderDir = "desc"
	}

	query := fmt.Sprintf(`%s
		FROM constraint_templates
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, templateSelectColumns, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var templates []*model.ConstraintTemplate
	for rows.Next() {
		tmpl, err := r.scanTemplateRow(rows)
		if err != nil {
			return nil, 0, err
		}
		templates = append(templates, tmpl)
	}

	return templates, total, nil
}

const templateSelectColumns = `
		SELECT id, name, industry,
			operating_hours, break_rules, skill_requirements, shift_templates,
			max_consecutive_days, min_rest_hours_between_shifts, max_hours_per_week,
			min_consecutive_hours_per_shift, max_consecutive_hours_per_shift,
			locations, departments, roles,
			require_manager_coverage, enforce_availability, enforce_time_off, allow_overtime,
			optimization_priority, version, created_at, updated_at`

// scanTemplate 扫描单行模板数据
func (r *TemplateRepository) scanTemplate(row *sql.Row) (*model.ConstraintTemplate, error) {
	tmpl := &model.ConstraintTemplate{}
	var operatingJSON, breakJSON, skillJSON, shiftJSON []byte
	var locationsJSON, departmentsJSON, rolesJSON []byte

	err := row.Scan(
		&tmpl.ID, &tmpl.Name, &tmpl.Industry,
		&operatingJSON, &breakJSON, &skillJSON, &shiftJSON,
		&tmpl.MaxConsecutiveDays, &tmpl.MinRestHoursBetweenShifts, &tmpl.MaxHoursPerWeek,
		&tmpl.MinConsecutiveHoursPerShift, &tmpl.MaxConsecutiveHoursPerShift,
		&locationsJSON, &departmentsJSON, &rolesJSON,
		&tmpl.RequireManagerCoverage, &tmpl.EnforceAvailability, &tmpl.EnforceTimeOff, &tmpl.AllowOvertime,
		&tmpl.OptimizationPriority, &tmpl.Version, &tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描模板数据失败: %w", err)
	}

	json.Unmarshal(operatingJSON, &tmpl.OperatingWindows)
	json.Unmarshal(breakJSON, &tmpl.BreakRules)
	json.Unmarshal(skillJSON, &tmpl.SkillRequirements)
	json.Unmarshal(shiftJSON, &tmpl.ShiftTemplates)
	json.Unmarshal(locationsJSON, &tmpl.Locations)
	json.Unmarshal(departmentsJSON, &tmpl.Departments)
	json.Unmarshal(rolesJSON, &tmpl.Roles)

	return tmpl, nil
}

// scanTemplateRow 扫描Rows中的模板数据
func (r *TemplateRepository) scanTemplateRow(rows *sql.Rows) (*model.ConstraintTemplate, error) {
	tmpl := &model.ConstraintTemplate{}
	var operatingJSON, breakJSON, skillJSON, shiftJSON []byte
	var locationsJSON, departmentsJSON, rolesJSON []byte

	err := rows.Scan(
		&tmpl.ID, &tmpl.Name, &tmpl.Industry,
		&operatingJSON, &breakJSON, &skillJSON, &shiftJSON,
		&tmpl.MaxConsecutiveDays, &tmpl.MinRestHoursBetweenShifts, &tmpl.MaxHoursPerWeek,
		&tmpl.MinConsecutiveHoursPerShift, &tmpl.MaxConsecutiveHoursPerShift,
		&locationsJSON, &departmentsJSON, &rolesJSON,
		&tmpl.RequireManagerCoverage, &tmpl.EnforceAvailability, &tmpl.EnforceTimeOff, &tmpl.AllowOvertime,
		&tmpl.OptimizationPriority, &tmpl.Version, &tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描模板数据失败: %w", err)
	}

	json.Unmarshal(operatingJSON, &tmpl.OperatingWindows)
	json.Unmarshal(breakJSON, &tmpl.BreakRules)
	json.Unmarshal(skillJSON, &tmpl.SkillRequirements)
	json.Unmarshal(shiftJSON, &tmpl.ShiftTemplates)
	json.Unmarshal(locationsJSON, &tmpl.Locations)
	json.Unmarshal(departmentsJSON, &tmpl.Departments)
	json.Unmarshal(rolesJSON, &tmpl.Roles)

	return tmpl, nil
}

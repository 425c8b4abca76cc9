// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nextera/workforce/pkg/model"
)

// EmployeeRepository 员工目录仓储
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository 创建员工仓储
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create 创建员工
func (r *EmployeeRepository) Create(ctx context.Context, emp *model.Employee) error {
	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	now := time.Now()
	emp.CreatedAt = now
	emp.UpdatedAt = now

	skillsJSON, _ := json.Marshal(emp.Skills)
	availabilityJSON, _ := json.Marshal(emp.Availability)
	timeOffJSON, _ := json.Marshal(emp.TimeOff)

	query := `
		INSERT INTO employees (
			id, name, code, status, role, department, location,
			skills, hourly_rate, experience_months,
			availability, time_off, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Code, emp.Status, emp.Role, emp.Department, emp.Location,
		skillsJSON, emp.HourlyRate, emp.ExperienceMonths,
		availabilityJSON, timeOffJSON, emp.CreatedAt, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建员工失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取员工
func (r *EmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	query := `
		SELECT id, name, code, status, role, department, location,
			skills, hourly_rate, experience_months,
			availability, time_off, created_at, updated_at
		FROM employees
		WHERE id = $1 AND deleted_at IS NULL
	`

	return r.scanEmployee(r.db.QueryRowContext(ctx, query, id))
}

// Update 更新员工
func (r *EmployeeRepository) Update(ctx context.Context, emp *model.Employee) error {
	emp.UpdatedAt = time.Now()

	skillsJSON, _ := json.Marshal(emp.Skills)
	availabilityJSON, _ := json.Marshal(emp.Availability)
	timeOffJSON, _ := json.Marshal(emp.TimeOff)

	query := `
		UPDATE employees SET
			name = $2, code = $3, status = $4, role = $5, department = $6, location = $7,
			skills = $8, hourly_rate = $9, experience_months = $10,
			availability = $11, time_off = $12, updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Code, emp.Status, emp.Role, emp.Department, emp.Location,
		skillsJSON, emp.HourlyRate, emp.ExperienceMonths,
		availabilityJSON, timeOffJSON, emp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("更新员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}

	return nil
}

// Delete 软删除员工
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE employees SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("删除员工失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("员工不存在")
	}

	return nil
}

// List 查询员工列表
func (r *EmployeeRepository) List(ctx context.Context, filter ListFilter) ([]*model.Employee, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	// 岗位过滤
	if role, ok := filter.Extra["role"].(string); ok && role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, role)
		argIndex++
	}

	// 部门过滤
	if dept, ok := filter.Extra["department"].(string); ok && dept != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argIndex))
		args = append(args, dept)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
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

	query := fmt.Sprintf(`
		SELECT id, name, code, status, role, department, location,
			skills, hourly_rate, experience_months,
			availability, time_off, created_at, updated_at
		FROM employees
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, orderDir, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		emp, err := r.scanEmployeeRow(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, emp)
	}

	return employees, total, nil
}

// ListActive 获取所有在职员工
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]*model.Employee, error) {
	filter := DefaultListFilter().WithStatus("active").WithLimit(10000)
	employees, _, err := r.List(ctx, filter)
	return employees, err
}

// scanEmployee 扫描单行员工数据
func (r *EmployeeRepository) scanEmployee(row *sql.Row) (*model.Employee, error) {
	emp := &model.Employee{}
	var skillsJSON, availabilityJSON, timeOffJSON []byte

	err := row.Scan(
		&emp.ID, &emp.Name, &emp.Code, &emp.Status, &emp.Role, &emp.Department, &emp.Location,
		&skillsJSON, &emp.HourlyRate, &emp.ExperienceMonths,
		&availabilityJSON, &timeOffJSON, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}

	json.Unmarshal(skillsJSON, &emp.Skills)
	json.Unmarshal(availabilityJSON, &emp.Availability)
	json.Unmarshal(timeOffJSON, &emp.TimeOff)

	return emp, nil
}

// scanEmployeeRow 扫描Rows中的员工数据
func (r *EmployeeRepository) scanEmployeeRow(rows *sql.Rows) (*model.Employee, error) {
	emp := &model.Employee{}
	var skillsJSON, availabilityJSON, timeOffJSON []byte

	err := rows.Scan(
		&emp.ID, &emp.Name, &emp.Code, &emp.Status, &emp.Role, &emp.Department, &emp.Location,
		&skillsJSON, &emp.HourlyRate, &emp.ExperienceMonths,
		&availabilityJSON, &timeOffJSON, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描员工数据失败: %w", err)
	}

	json.Unmarshal(skillsJSON, &emp.Skills)
	json.Unmarshal(availabilityJSON, &emp.Availability)
	json.Unmarshal(timeOffJSON, &emp.TimeOff)

	return emp, nil
}

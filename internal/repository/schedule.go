package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nextera/workforce/internal/database"
	"github.com/nextera/workforce/pkg/errors"
	"github.com/nextera/workforce/pkg/logger"
	"github.com/nextera/workforce/pkg/model"
)

// CandidateRepository 候选班次暂存区仓储
// 发布使用数据库事务，整批要么全部确认要么全部回滚。
type CandidateRepository struct {
	db     *database.DB
	logger *logger.EngineLogger
}

// NewCandidateRepository 创建候选班次仓储
func NewCandidateRepository(db *database.DB) *CandidateRepository {
	return &CandidateRepository{
		db:     db,
		logger: logger.NewEngineLogger(),
	}
}

// CreateBatch 批量写入候选班次草稿
func (r *CandidateRepository) CreateBatch(ctx context.Context, shifts []*model.CandidateShift) error {
	if len(shifts) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO candidate_shifts (
				id, template_id, employee_id, date, start_time, end_time,
				location, role, department, state, notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("准备插入语句失败: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, shift := range shifts {
			if shift.ID == uuid.Nil {
				shift.ID = uuid.New()
			}
			if shift.State == "" {
				shift.State = model.CandidateDraft
			}
			shift.CreatedAt = now
			shift.UpdatedAt = now

			var employeeID interface{}
			if shift.EmployeeID != uuid.Nil {
				employeeID = shift.EmployeeID
			}

			_, err := stmt.ExecContext(ctx,
				shift.ID, shift.TemplateID, employeeID, shift.Date, shift.StartTime, shift.EndTime,
				shift.Location, shift.Role, shift.Department, shift.State, shift.Notes,
				shift.CreatedAt, shift.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("插入候选班次失败: %w", err)
			}
		}

		return nil
	})
}

// GetByID 根据ID获取候选班次
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CandidateShift, error) {
	query := `
		SELECT id, template_id, employee_id, date, start_time, end_time,
			location, role, department, state, notes, created_at, updated_at
		FROM candidate_shifts
		WHERE id = $1
	`

	return r.scanCandidate(r.db.QueryRowContext(ctx, query, id))
}

// List 查询候选班次列表
func (r *CandidateRepository) List(ctx context.Context, filter ListFilter) ([]*model.CandidateShift, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	conditions = append(conditions, "1=1")

	if filter.TemplateID != nil {
		conditions = append(conditions, fmt.Sprintf("template_id = $%d", argIndex))
		args = append(args, *filter.TemplateID)
		argIndex++
	}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argIndex))
		args = append(args, filter.StartDate)
		argIndex++
	}

	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", argIndex))
		args = append(args, filter.EndDate)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM candidate_shifts WHERE %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("查询总数失败: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, template_id, employee_id, date, start_time, end_time,
			location, role, department, state, notes, created_at, updated_at
		FROM candidate_shifts
		WHERE %s
		ORDER BY date ASC, start_time ASC
		LIMIT $%d OFFSET $%d
	`, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("查询列表失败: %w", err)
	}
	defer rows.Close()

	var shifts []*model.CandidateShift
	for rows.Next() {
		shift, err := r.scanCandidateRow(rows)
		if err != nil {
			return nil, 0, err
		}
		shifts = append(shifts, shift)
	}

	return shifts, total, nil
}

// DeleteDrafts 删除模板下的全部未发布候选班次
// 放弃预览时调用，已发布班次不受影响。
func (r *CandidateRepository) DeleteDrafts(ctx context.Context, templateID uuid.UUID) (int, error) {
	query := `DELETE FROM candidate_shifts WHERE template_id = $1 AND state != 'confirmed'`

	result, err := r.db.ExecContext(ctx, query, templateID)
	if err != nil {
		return 0, fmt.Errorf("删除候选班次失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	return int(rows), nil
}

// Publish 批量发布候选班次
// 单事务内锁定整批：任一班次不存在或状态不可发布则整批回滚；
// 已发布的班次视为无操作，不计入本次发布数。
// 返回本次实际转为已发布的班次数。
func (r *CandidateRepository) Publish(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	// 统一加锁顺序，并发发布批次不会互相死锁
	lockIDs := append([]uuid.UUID(nil), ids...)
	sort.Slice(lockIDs, func(i, j int) bool {
		return lockIDs[i].String() < lockIDs[j].String()
	})

	start := time.Now()
	published := 0
	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		placeholders := make([]string, len(lockIDs))
		args := make([]interface{}, len(lockIDs))
		for i, id := range lockIDs {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}

		lockQuery := fmt.Sprintf(`
			SELECT id, state FROM candidate_shifts
			WHERE id IN (%s)
			FOR UPDATE
		`, strings.Join(placeholders, ", "))

		rows, err := tx.QueryContext(ctx, lockQuery, args...)
		if err != nil {
			return fmt.Errorf("锁定候选班次失败: %w", err)
		}

		states := make(map[uuid.UUID]model.CandidateState, len(ids))
		for rows.Next() {
			var id uuid.UUID
			var state model.CandidateState
			if err := rows.Scan(&id, &state); err != nil {
				rows.Close()
				return fmt.Errorf("扫描班次状态失败: %w", err)
			}
			states[id] = state
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("读取班次状态失败: %w", err)
		}

		toPublish, offending := classifyPublish(ids, states)
		if len(offending) > 0 {
			return errors.PartialPublish(offending)
		}

		if len(toPublish) == 0 {
			return nil
		}

		updatePlaceholders := make([]string, len(toPublish))
		updateArgs := make([]interface{}, 0, len(toPublish)+1)
		updateArgs = append(updateArgs, time.Now())
		for i, id := range toPublish {
			updatePlaceholders[i] = fmt.Sprintf("$%d", i+2)
			updateArgs = append(updateArgs, id)
		}

		updateQuery := fmt.Sprintf(`
			UPDATE candidate_shifts SET state = 'confirmed', updated_at = $1
			WHERE id IN (%s)
		`, strings.Join(updatePlaceholders, ", "))

		result, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("发布候选班次失败: %w", err)
		}

		affected, _ := result.RowsAffected()
		published = int(affected)
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.PublishComplete(published, time.Since(start))
	return published, nil
}

// classifyPublish 划分待发布与违规班次
// 草稿和就绪进入待发布；已确认视为无操作；缺失或其他状态计入违规。
// 收集全部违规ID后一次性报告，不在第一个失败处停下。
func classifyPublish(ids []uuid.UUID, states map[uuid.UUID]model.CandidateState) (toPublish []uuid.UUID, offending []string) {
	for _, id := range ids {
		state, ok := states[id]
		if !ok {
			offending = append(offending, id.String())
			continue
		}
		switch state {
		case model.CandidateDraft, model.CandidateReady:
			toPublish = append(toPublish, id)
		case model.CandidateConfirmed:
			// 重复发布视为无操作
		default:
			offending = append(offending, id.String())
		}
	}
	sort.Strings(offending)
	return toPublish, offending
}

// scanCandidate 扫描单行候选班次数据
func (r *CandidateRepository) scanCandidate(row *sql.Row) (*model.CandidateShift, error) {
	shift := &model.CandidateShift{}
	var employeeID uuid.NullUUID

	err := row.Scan(
		&shift.ID, &shift.TemplateID, &employeeID, &shift.Date, &shift.StartTime, &shift.EndTime,
		&shift.Location, &shift.Role, &shift.Department, &shift.State, &shift.Notes,
		&shift.CreatedAt, &shift.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("扫描候选班次失败: %w", err)
	}

	if employeeID.Valid {
		shift.EmployeeID = employeeID.UUID
	}

	return shift, nil
}

// scanCandidateRow 扫描Rows中的候选班次数据
func (r *CandidateRepository) scanCandidateRow(rows *sql.Rows) (*model.CandidateShift, error) {
	shift := &model.CandidateShift{}
	var employeeID uuid.NullUUID

	err := rows.Scan(
		&shift.ID, &shift.TemplateID, &employeeID, &shift.Date, &shift.StartTime, &shift.EndTime,
		&shift.Location, &shift.Role, &shift.Department, &shift.State, &shift.Notes,
		&shift.CreatedAt, &shift.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("扫描候选班次失败: %w", err)
	}

	if employeeID.Valid {
		shift.EmployeeID = employeeID.UUID
	}

	return shift, nil
}

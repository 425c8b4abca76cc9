// Package model 定义排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// CandidateState 候选班次生命周期状态
type CandidateState string

const (
	CandidateDraft      CandidateState = "draft"      // 草稿
	CandidateConflicted CandidateState = "conflicted" // 存在冲突
	CandidateReady      CandidateState = "ready"      // 可发布
	CandidateConfirmed  CandidateState = "confirmed"  // 已发布，员工可见
)

// CandidateShift 候选班次分配
// 仅由候选生成器创建；发布前只存在于暂存区，放弃预览时丢弃。
// 员工ID为空（uuid.Nil）表示无人可排的占位行，用于向操作员暴露缺口。
type CandidateShift struct {
	BaseModel
	TemplateID uuid.UUID      `json:"template_id" db:"template_id"`
	EmployeeID uuid.UUID      `json:"employee_id" db:"employee_id"`
	Date       string         `json:"date" db:"date"`             // YYYY-MM-DD
	StartTime  string         `json:"start_time" db:"start_time"` // HH:MM
	EndTime    string         `json:"end_time" db:"end_time"`     // HH:MM
	Location   string         `json:"location" db:"location"`
	Role       string         `json:"role" db:"role"`
	Department string         `json:"department" db:"department"`
	State      CandidateState `json:"state" db:"state"`
	Notes      string         `json:"notes,omitempty" db:"notes"`
}

// IsAssigned 检查班次是否已分配员工
func (c *CandidateShift) IsAssigned() bool {
	return c.EmployeeID != uuid.Nil
}

// WorkingHours 返回班次工作时长（小时）
func (c *CandidateShift) WorkingHours() float64 {
	return TimeStringHours(c.StartTime, c.EndTime)
}

// CanPublish 检查班次是否处于可发布状态
func (c *CandidateShift) CanPublish() bool {
	return c.State == CandidateDraft || c.State == CandidateReady
}

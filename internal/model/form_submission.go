package model

import (
	"time"
)

// SubmissionStatus 提交单状态
type SubmissionStatus string

const (
	SubmissionStatusDraft    SubmissionStatus = "draft"    // 草稿(可自动保存)
	SubmissionStatusPending  SubmissionStatus = "pending"  // 待审批
	SubmissionStatusApproved SubmissionStatus = "approved" // 已批准(终态)
	SubmissionStatusDenied   SubmissionStatus = "denied"   // 已拒绝(终态)
)

// IsTerminal 是否终态
func (s SubmissionStatus) IsTerminal() bool {
	return s == SubmissionStatusApproved || s == SubmissionStatusDenied
}

// FormSubmission 表单提交单
// Version 为乐观锁计数器：所有持久化写入(补丁/状态迁移)都以
// WHERE version = ? 方式提交，命中 0 行即为并发冲突
type FormSubmission struct {
	ID              string           `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TemplateID      string           `gorm:"type:varchar(64);not null;index" json:"template_id"`
	TemplateVersion int              `gorm:"not null" json:"template_version"`
	SubmittedBy     string           `gorm:"type:varchar(50);not null;index" json:"submitted_by"`
	SubmitterName   string           `gorm:"type:varchar(100)" json:"submitter_name"`
	Status          SubmissionStatus `gorm:"type:varchar(20);default:draft;index" json:"status"`
	Data            FieldValues      `gorm:"type:json;not null" json:"data"`
	Version         int              `gorm:"default:1" json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	Template  *FormTemplate      `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
	Decisions []ApprovalDecision `gorm:"foreignKey:SubmissionID" json:"decisions,omitempty"`
	Events    []SubmissionEvent  `gorm:"foreignKey:SubmissionID" json:"events,omitempty"`
}

// TableName 指定表名
func (FormSubmission) TableName() string {
	return "form_submissions"
}

// Decision 审批结论
type Decision string

const (
	DecisionApproved Decision = "approved" // 批准
	DecisionDenied   Decision = "denied"   // 拒绝
)

// ApprovalDecision 审批记录，只追加、不可修改
type ApprovalDecision struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID string    `gorm:"type:varchar(64);not null;index" json:"submission_id"`
	ApproverID   string    `gorm:"type:varchar(50);not null" json:"approver_id"`
	ApproverName string    `gorm:"type:varchar(100)" json:"approver_name"`
	Decision     Decision  `gorm:"type:varchar(20);not null" json:"decision"`
	Comment      string    `gorm:"type:text" json:"comment"`
	DecidedAt    time.Time `gorm:"autoCreateTime" json:"decided_at"`
}

// TableName 指定表名
func (ApprovalDecision) TableName() string {
	return "approval_decisions"
}

// SubmissionEvent 提交单状态迁移审计记录，每次成功迁移追加一条
type SubmissionEvent struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	SubmissionID string           `gorm:"type:varchar(64);not null;index" json:"submission_id"`
	UserID       string           `gorm:"type:varchar(50);not null" json:"user_id"`
	UserName     string           `gorm:"type:varchar(100)" json:"user_name"`
	Action       string           `gorm:"type:varchar(30);not null" json:"action"` // submit/approve/deny/withdraw
	FromStatus   SubmissionStatus `gorm:"type:varchar(20)" json:"from_status"`
	ToStatus     SubmissionStatus `gorm:"type:varchar(20)" json:"to_status"`
	Comment      string           `gorm:"type:text" json:"comment"`
	CreatedAt    time.Time        `json:"created_at"`
}

// TableName 指定表名
func (SubmissionEvent) TableName() string {
	return "submission_events"
}

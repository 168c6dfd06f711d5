package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

type FormSubmissionRepository struct {
	db *gorm.DB
}

func NewFormSubmissionRepository(db *gorm.DB) *FormSubmissionRepository {
	return &FormSubmissionRepository{db: db}
}

// Create 创建提交单（草稿）
func (r *FormSubmissionRepository) Create(submission *model.FormSubmission) error {
	if submission.ID == "" {
		submission.ID = uuid.New().String()
	}
	if submission.Status == "" {
		submission.Status = model.SubmissionStatusDraft
	}
	if submission.Data == nil {
		submission.Data = model.FieldValues{}
	}
	if submission.Version == 0 {
		submission.Version = 1
	}
	return r.db.Create(submission).Error
}

// Get 获取提交单，带审批记录和审计事件
func (r *FormSubmissionRepository) Get(id string) (*model.FormSubmission, error) {
	var submission model.FormSubmission
	err := r.db.
		Preload("Decisions", func(db *gorm.DB) *gorm.DB { return db.Order("decided_at ASC") }).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&submission, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &submission, nil
}

// List 获取提交单列表
func (r *FormSubmissionRepository) List(submittedBy, templateID string, status model.SubmissionStatus, page, pageSize int) (total int64, submissions []model.FormSubmission, err error) {
	query := r.db.Model(&model.FormSubmission{})

	if submittedBy != "" {
		query = query.Where("submitted_by = ?", submittedBy)
	}
	if templateID != "" {
		query = query.Where("template_id = ?", templateID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	err = query.Count(&total).Error
	if err != nil {
		return
	}
	if total == 0 {
		return 0, []model.FormSubmission{}, nil
	}

	if pageSize > 0 && page > 0 {
		offset := (page - 1) * pageSize
		query = query.Offset(offset).Limit(pageSize)
	}

	err = query.Order("updated_at DESC").Find(&submissions).Error
	return
}

// PatchData 将局部数据按字段合并进提交单的 data（不整体替换）
// 乐观并发：expectedVersion 不匹配时返回 ErrConflict，调用方重读后重试
// 只有草稿可以打补丁，防止自动保存覆盖已提交的内容；非草稿返回 ErrNotDraft，不可重试
func (r *FormSubmissionRepository) PatchData(id string, expectedVersion int, partial model.FieldValues) (int, error) {
	var newVersion int

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var current model.FormSubmission
		if err := tx.First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("submission %s: %w", id, ErrNotFound)
			}
			return err
		}

		if current.Status != model.SubmissionStatusDraft {
			return fmt.Errorf("submission %s: %w", id, ErrNotDraft)
		}
		if current.Version != expectedVersion {
			return fmt.Errorf("submission %s: %w", id, ErrConflict)
		}

		merged := model.FieldValues{}
		for k, v := range current.Data {
			merged[k] = v
		}
		for k, v := range partial {
			merged[k] = v
		}

		result := tx.Model(&model.FormSubmission{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]interface{}{
				"data":       merged,
				"version":    expectedVersion + 1,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("submission %s: %w", id, ErrConflict)
		}

		newVersion = expectedVersion + 1
		return nil
	})
	return newVersion, err
}

// Transition 执行状态迁移并在同一事务内落审计记录
// 版本守卫保证两个并发审批人只有一个能成功，另一个收到 ErrConflict
func (r *FormSubmissionRepository) Transition(submission *model.FormSubmission, to model.SubmissionStatus, event model.SubmissionEvent, decision *model.ApprovalDecision) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.FormSubmission{}).
			Where("id = ? AND version = ? AND status = ?", submission.ID, submission.Version, submission.Status).
			Updates(map[string]interface{}{
				"status":     to,
				"version":    submission.Version + 1,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("submission %s: %w", submission.ID, ErrConflict)
		}

		event.SubmissionID = submission.ID
		event.FromStatus = submission.Status
		event.ToStatus = to
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		if decision != nil {
			decision.SubmissionID = submission.ID
			if err := tx.Create(decision).Error; err != nil {
				return err
			}
		}

		submission.Status = to
		submission.Version++
		return nil
	})
}

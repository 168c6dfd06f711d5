package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

type FormTemplateRepository struct {
	db *gorm.DB
}

func NewFormTemplateRepository(db *gorm.DB) *FormTemplateRepository {
	return &FormTemplateRepository{db: db}
}

// Create 创建模板
func (r *FormTemplateRepository) Create(template *model.FormTemplate) error {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	if template.Status == "" {
		template.Status = model.TemplateStatusDraft
	}
	if template.Version == 0 {
		template.Version = 1
	}
	return r.db.Create(template).Error
}

// Get 获取模板
func (r *FormTemplateRepository) Get(id string) (*model.FormTemplate, error) {
	var template model.FormTemplate
	if err := r.db.First(&template, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &template, nil
}

// List 获取模板列表
func (r *FormTemplateRepository) List(status, category string, page, pageSize int) (total int64, templates []model.FormTemplate, err error) {
	query := r.db.Model(&model.FormTemplate{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	err = query.Count(&total).Error
	if err != nil {
		return
	}
	if total == 0 {
		return 0, []model.FormTemplate{}, nil
	}

	if pageSize > 0 && page > 0 {
		offset := (page - 1) * pageSize
		query = query.Offset(offset).Limit(pageSize)
	}

	err = query.Order("created_at DESC").Find(&templates).Error
	return
}

// Save 保存模板变更
// 以 updated_at 作为乐观并发锚点：目标行已被并发修改时命中 0 行，返回 ErrConflict
func (r *FormTemplateRepository) Save(template *model.FormTemplate) error {
	anchor := template.UpdatedAt
	now := time.Now()

	result := r.db.Model(&model.FormTemplate{}).
		Where("id = ? AND updated_at = ?", template.ID, anchor).
		Updates(map[string]interface{}{
			"name":        template.Name,
			"category":    template.Category,
			"description": template.Description,
			"status":      template.Status,
			"fields":      template.Fields,
			"version":     template.Version,
			"updated_at":  now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("template %s: %w", template.ID, ErrConflict)
	}

	template.UpdatedAt = now
	return nil
}

// CountSubmissionsReferencingField 统计引用了指定字段且已进入审批流的提交单数量
// 用于发布后模板的破坏性变更检查
func (r *FormTemplateRepository) CountSubmissionsReferencingField(templateID, fieldID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.FormSubmission{}).
		Where("template_id = ? AND status IN ?", templateID,
			[]model.SubmissionStatus{model.SubmissionStatusPending, model.SubmissionStatusApproved}).
		Where(datatypes.JSONQuery("data").HasKey(fieldID)).
		Count(&count).Error
	return count, err
}

// CountSubmissions 统计引用模板的提交单总数，用于归档/删除守卫
func (r *FormTemplateRepository) CountSubmissions(templateID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.FormSubmission{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	return count, err
}

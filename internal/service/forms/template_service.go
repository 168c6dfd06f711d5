package forms

import (
	"errors"
	"fmt"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/repository"
)

var (
	// ErrBreakingChange 已发布模板上的破坏性变更（删除/改类型仍被在途提交单引用的字段）
	ErrBreakingChange = errors.New("破坏性变更：字段仍被审批中或已通过的提交单引用")
	// ErrInvalidState 模板状态不允许该操作
	ErrInvalidState = errors.New("模板状态不允许该操作")
)

// TemplateUpdate 模板更新补丁，nil 字段表示不变
type TemplateUpdate struct {
	Name        *string
	Category    *string
	Description *string
	Fields      *model.FieldList
}

// TemplateService 模板生命周期策略
// 仓储只管持久化和并发控制，发布规则和破坏性变更检查都在这里
type TemplateService struct {
	repo      *repository.FormTemplateRepository
	validator *form.Validator
}

// NewTemplateService 创建模板服务
func NewTemplateService(repo *repository.FormTemplateRepository, validator *form.Validator) *TemplateService {
	return &TemplateService{repo: repo, validator: validator}
}

// Create 创建模板（草稿态）
// 字段定义在发布前允许不完整，创建时只做排序归一化
func (s *TemplateService) Create(createdBy, name, category, description string, fields model.FieldList) (*model.FormTemplate, error) {
	template := &model.FormTemplate{
		Name:        name,
		Category:    category,
		Description: description,
		Status:      model.TemplateStatusDraft,
		Fields:      form.Reindex(fields),
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(template); err != nil {
		return nil, fmt.Errorf("创建模板失败: %w", err)
	}
	return template, nil
}

// Get 获取模板
func (s *TemplateService) Get(id string) (*model.FormTemplate, error) {
	return s.repo.Get(id)
}

// List 获取模板列表
func (s *TemplateService) List(status, category string, page, pageSize int) (int64, []model.FormTemplate, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(status, category, page, pageSize)
}

// Update 更新模板
// 草稿态自由编辑；已发布模板只接受追加式变更，删除或改类型
// 仍被在途提交单引用的字段会返回 ErrBreakingChange；归档模板拒绝编辑
func (s *TemplateService) Update(id string, patch TemplateUpdate) (*model.FormTemplate, error) {
	template, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if template.Status == model.TemplateStatusArchived {
		return nil, fmt.Errorf("%w: 已归档模板不允许编辑", ErrInvalidState)
	}

	if patch.Name != nil {
		template.Name = *patch.Name
	}
	if patch.Category != nil {
		template.Category = *patch.Category
	}
	if patch.Description != nil {
		template.Description = *patch.Description
	}

	if patch.Fields != nil {
		normalized := form.Reindex(*patch.Fields)

		if template.Status == model.TemplateStatusPublished {
			// 发布后的模板必须始终通过静态校验
			if err := s.validator.ValidateDefinitions(normalized); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
			}
			if err := s.checkBreakingChanges(template, normalized); err != nil {
				return nil, err
			}
			template.Version++
		}
		template.Fields = normalized
	}

	if err := s.repo.Save(template); err != nil {
		return nil, err
	}
	return template, nil
}

// checkBreakingChanges 对比新旧字段集
// 被删除或被改类型的字段若仍被 PENDING/APPROVED 提交单引用，属于破坏性变更
func (s *TemplateService) checkBreakingChanges(template *model.FormTemplate, updated model.FieldList) error {
	byID := make(map[string]model.FormField, len(updated))
	for _, f := range updated {
		byID[f.ID] = f
	}

	for _, old := range template.Fields {
		next, kept := byID[old.ID]
		if kept && next.Type == old.Type {
			continue
		}
		count, err := s.repo.CountSubmissionsReferencingField(template.ID, old.ID)
		if err != nil {
			return fmt.Errorf("检查字段引用失败: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: 字段 %s 被 %d 个提交单引用", ErrBreakingChange, old.ID, count)
		}
	}
	return nil
}

// Publish 发布模板
// 没有字段或任一字段未通过静态校验时拒绝发布
func (s *TemplateService) Publish(id string) (*model.FormTemplate, error) {
	template, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if template.Status != model.TemplateStatusDraft {
		return nil, fmt.Errorf("%w: 只有草稿态模板可以发布", ErrInvalidState)
	}
	if len(template.Fields) == 0 {
		return nil, fmt.Errorf("%w: 模板没有任何字段", ErrInvalidState)
	}
	if err := s.validator.ValidateDefinitions(template.Fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	template.Status = model.TemplateStatusPublished
	if err := s.repo.Save(template); err != nil {
		return nil, err
	}
	return template, nil
}

// Archive 归档模板（软删除，终态）
func (s *TemplateService) Archive(id string) (*model.FormTemplate, error) {
	template, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if template.Status == model.TemplateStatusArchived {
		return template, nil
	}

	template.Status = model.TemplateStatusArchived
	if err := s.repo.Save(template); err != nil {
		return nil, err
	}
	return template, nil
}

// ReorderField 移动字段到指定位置并重新编号
func (s *TemplateService) ReorderField(id, fieldID string, newIndex int) (*model.FormTemplate, error) {
	template, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if template.Status == model.TemplateStatusArchived {
		return nil, fmt.Errorf("%w: 已归档模板不允许编辑", ErrInvalidState)
	}

	moved, err := form.MoveField(template.Fields, fieldID, newIndex)
	if err != nil {
		return nil, err
	}

	template.Fields = moved
	if err := s.repo.Save(template); err != nil {
		return nil, err
	}
	return template, nil
}

package forms

import (
	"fmt"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/autosave"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/repository"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/workflow"
)

// SubmissionStore 提交单存取接口，由 submission repository 实现
type SubmissionStore interface {
	Create(submission *model.FormSubmission) error
	Get(id string) (*model.FormSubmission, error)
	List(submittedBy, templateID string, status model.SubmissionStatus, page, pageSize int) (int64, []model.FormSubmission, error)
}

// TemplateStore 模板读取接口，由 template repository 实现
type TemplateStore interface {
	Get(id string) (*model.FormTemplate, error)
}

// SubmissionService 提交单服务
// 草稿的创建和自动保存在这里，状态迁移委托给 workflow 状态机
type SubmissionService struct {
	submissions SubmissionStore
	templates   TemplateStore
	engine      *workflow.Engine
	coordinator *autosave.Coordinator
	validator   *form.Validator
}

// NewSubmissionService 创建提交单服务
func NewSubmissionService(
	submissions SubmissionStore,
	templates TemplateStore,
	engine *workflow.Engine,
	coordinator *autosave.Coordinator,
	validator *form.Validator,
) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		templates:   templates,
		engine:      engine,
		coordinator: coordinator,
		validator:   validator,
	}
}

// CreateDraft 基于已发布模板创建草稿
// 记录创建时刻的模板小版本号，后续模板追加字段不影响在途草稿的判定
func (s *SubmissionService) CreateDraft(actor workflow.Actor, templateID string, initial model.FieldValues) (*model.FormSubmission, error) {
	template, err := s.templates.Get(templateID)
	if err != nil {
		return nil, err
	}
	if template.Status != model.TemplateStatusPublished {
		return nil, fmt.Errorf("%w: 模板未发布，不能创建提交单", ErrInvalidState)
	}

	submission := &model.FormSubmission{
		TemplateID:      template.ID,
		TemplateVersion: template.Version,
		SubmittedBy:     actor.ID,
		SubmitterName:   actor.Name,
		Status:          model.SubmissionStatusDraft,
		Data:            initial,
	}
	if err := s.submissions.Create(submission); err != nil {
		return nil, fmt.Errorf("创建提交单失败: %w", err)
	}
	return submission, nil
}

// Get 获取提交单详情（含审批记录和审计事件）
func (s *SubmissionService) Get(id string) (*model.FormSubmission, error) {
	return s.submissions.Get(id)
}

// List 获取提交单列表
func (s *SubmissionService) List(submittedBy, templateID string, status model.SubmissionStatus, page, pageSize int) (int64, []model.FormSubmission, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.submissions.List(submittedBy, templateID, status, page, pageSize)
}

// Autosave 调度一次草稿自动保存
// clientVersion 非 0 且落后于服务端版本时返回 ErrConflict，客户端重读后重试；
// 返回的字段错误是编辑期的即时反馈，不阻塞保存
func (s *SubmissionService) Autosave(actor workflow.Actor, id string, partial model.FieldValues, clientVersion int) (int, []form.FieldError, error) {
	submission, err := s.ownedDraft(actor, id)
	if err != nil {
		return 0, nil, err
	}
	if clientVersion != 0 && clientVersion != submission.Version {
		return 0, nil, fmt.Errorf("submission %s: %w", id, repository.ErrConflict)
	}

	s.coordinator.ScheduleSave(id, partial)

	fieldErrors := s.advisoryErrors(submission, partial)
	return submission.Version, fieldErrors, nil
}

// FlushAutosave 立即落库（显式保存点）并返回新版本
func (s *SubmissionService) FlushAutosave(actor workflow.Actor, id string) (int, error) {
	if _, err := s.ownedDraft(actor, id); err != nil {
		return 0, err
	}
	return s.coordinator.FlushNow(id)
}

// CancelAutosave 丢弃未落库的草稿变更
func (s *SubmissionService) CancelAutosave(actor workflow.Actor, id string) error {
	if _, err := s.ownedDraft(actor, id); err != nil {
		return err
	}
	s.coordinator.CancelPending(id)
	return nil
}

// Submit 草稿提交进入审批
func (s *SubmissionService) Submit(actor workflow.Actor, id string) (*model.FormSubmission, []form.FieldError, error) {
	// 提交前把未落库的编辑先冲刷进去，避免丢掉最后几秒的输入
	if _, err := s.coordinator.FlushNow(id); err != nil {
		return nil, nil, err
	}
	return s.engine.Submit(id, actor)
}

// Approve 批准提交单
func (s *SubmissionService) Approve(actor workflow.Actor, id, comment string) (*model.FormSubmission, error) {
	return s.engine.Approve(id, actor, comment)
}

// Deny 拒绝提交单，必须附带理由
func (s *SubmissionService) Deny(actor workflow.Actor, id, comment string) (*model.FormSubmission, error) {
	return s.engine.Deny(id, actor, comment)
}

// Withdraw 提交人撤回待审批的提交单
func (s *SubmissionService) Withdraw(actor workflow.Actor, id string) (*model.FormSubmission, error) {
	return s.engine.Withdraw(id, actor)
}

// ownedDraft 读取提交单并校验归属和草稿态
// 提交单一旦离开草稿态，自动保存的调度、冲刷和取消都不再接受
func (s *SubmissionService) ownedDraft(actor workflow.Actor, id string) (*model.FormSubmission, error) {
	submission, err := s.submissions.Get(id)
	if err != nil {
		return nil, err
	}
	if submission.SubmittedBy != actor.ID {
		return nil, fmt.Errorf("user %s is not the submitter: %w", actor.ID, workflow.ErrUnauthorized)
	}
	if submission.Status != model.SubmissionStatusDraft {
		return nil, fmt.Errorf("%w: 提交单已不是草稿，不能自动保存", ErrInvalidState)
	}
	return submission, nil
}

// advisoryErrors 只对本次补丁涉及的字段做即时校验
func (s *SubmissionService) advisoryErrors(submission *model.FormSubmission, partial model.FieldValues) []form.FieldError {
	template, err := s.templates.Get(submission.TemplateID)
	if err != nil {
		return nil
	}

	all := s.validator.Validate(template, partial)
	touched := make([]form.FieldError, 0)
	for _, fe := range all {
		// 局部补丁天然缺字段，missing_required 留到提交时再报
		if fe.Kind == form.ErrorKindMissingRequired {
			continue
		}
		touched = append(touched, fe)
	}
	return touched
}

package workflow

import (
	"fmt"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/metrics"
)

// SubmissionStore 提交单存储，由 repository 实现
type SubmissionStore interface {
	Get(id string) (*model.FormSubmission, error)
	Transition(submission *model.FormSubmission, to model.SubmissionStatus, event model.SubmissionEvent, decision *model.ApprovalDecision) error
}

// TemplateStore 模板存储，由 repository 实现
type TemplateStore interface {
	Get(id string) (*model.FormTemplate, error)
}

// Guard 审批权限守卫
// 具体路由策略（谁是某模板/班组的审批人）由外部权限系统决定，
// 状态机只要求每次审批前完成一次检查
type Guard interface {
	CanApprove(userID, templateID string) (bool, error)
}

// Notifier 状态迁移通知，发送失败不影响迁移结果
type Notifier interface {
	NotifyTransition(submission *model.FormSubmission, from, to model.SubmissionStatus)
}

// Actor 执行事件的用户身份
type Actor struct {
	ID   string
	Name string
}

// Engine 提交单审批状态机
type Engine struct {
	submissions SubmissionStore
	templates   TemplateStore
	guard       Guard
	validator   *form.Validator
	notifier    Notifier
}

// NewEngine 创建状态机
func NewEngine(submissions SubmissionStore, templates TemplateStore, guard Guard, validator *form.Validator, notifier Notifier) *Engine {
	return &Engine{
		submissions: submissions,
		templates:   templates,
		guard:       guard,
		validator:   validator,
		notifier:    notifier,
	}
}

// Submit 草稿提交进入审批 (draft -> pending)
// 校验不通过时返回完整的字段错误列表和 ErrValidationFailed，不做迁移
func (e *Engine) Submit(submissionID string, actor Actor) (*model.FormSubmission, []form.FieldError, error) {
	submission, err := e.submissions.Get(submissionID)
	if err != nil {
		return nil, nil, err
	}

	if submission.SubmittedBy != actor.ID {
		metrics.SubmissionTransitionsTotal.WithLabelValues(string(ActionSubmit), "denied_guard").Inc()
		return nil, nil, fmt.Errorf("user %s is not the submitter: %w", actor.ID, ErrUnauthorized)
	}

	to, ok := Next(submission.Status, ActionSubmit)
	if !ok {
		metrics.SubmissionTransitionsTotal.WithLabelValues(string(ActionSubmit), "invalid").Inc()
		return nil, nil, fmt.Errorf("cannot submit from %s: %w", submission.Status, ErrInvalidTransition)
	}

	template, err := e.templates.Get(submission.TemplateID)
	if err != nil {
		return nil, nil, err
	}

	fieldErrors := e.validator.Validate(template, submission.Data)
	if len(fieldErrors) > 0 {
		for _, fe := range fieldErrors {
			metrics.ValidationErrorsTotal.WithLabelValues(string(fe.Kind)).Inc()
		}
		return nil, fieldErrors, ErrValidationFailed
	}

	return e.apply(submission, to, ActionSubmit, actor, "", nil)
}

// Approve 批准 (pending -> approved)
func (e *Engine) Approve(submissionID string, actor Actor, comment string) (*model.FormSubmission, error) {
	submission, _, err := e.decide(submissionID, actor, ActionApprove, model.DecisionApproved, comment)
	return submission, err
}

// Deny 拒绝 (pending -> denied)，拒绝必须附带理由
func (e *Engine) Deny(submissionID string, actor Actor, comment string) (*model.FormSubmission, error) {
	if comment == "" {
		return nil, fmt.Errorf("deny requires a comment: %w", ErrInvalidTransition)
	}
	submission, _, err := e.decide(submissionID, actor, ActionDeny, model.DecisionDenied, comment)
	return submission, err
}

// Withdraw 提交人撤回 (pending -> draft)，不发通知
func (e *Engine) Withdraw(submissionID string, actor Actor) (*model.FormSubmission, error) {
	submission, err := e.submissions.Get(submissionID)
	if err != nil {
		return nil, err
	}

	if submission.SubmittedBy != actor.ID {
		metrics.SubmissionTransitionsTotal.WithLabelValues(string(ActionWithdraw), "denied_guard").Inc()
		return nil, fmt.Errorf("user %s is not the submitter: %w", actor.ID, ErrUnauthorized)
	}

	to, ok := Next(submission.Status, ActionWithdraw)
	if !ok {
		metrics.SubmissionTransitionsTotal.WithLabelValues(string(ActionWithdraw), "invalid").Inc()
		return nil, fmt.Errorf("cannot withdraw from %s: %w", submission.Status, ErrInvalidTransition)
	}

	result, _, err := e.apply(submission, to, ActionWithdraw, actor, "", nil)
	return result, err
}

// decide 审批人批准/拒绝的公共路径
func (e *Engine) decide(submissionID string, actor Actor, action Action, decision model.Decision, comment string) (*model.FormSubmission, []form.FieldError, error) {
	submission, err := e.submissions.Get(submissionID)
	if err != nil {
		return nil, nil, err
	}

	to, ok := Next(submission.Status, action)
	if !ok {
		metrics.SubmissionTransitionsTotal.WithLabelValues(string(action), "invalid").Inc()
		return nil, nil, fmt.Errorf("cannot %s from %s: %w", action, submission.Status, ErrInvalidTransition)
	}

	allowed, err := e.guard.CanApprove(actor.ID, submission.TemplateID)
	if err != nil {
		return nil, nil, fmt.Errorf("authorization check failed: %w", err)
	}
	if !allowed {
		metrics.SubmissionTransitionsTotal.WithLabelValues(string(action), "denied_guard").Inc()
		return nil, nil, fmt.Errorf("user %s cannot approve template %s: %w", actor.ID, submission.TemplateID, ErrUnauthorized)
	}

	record := &model.ApprovalDecision{
		ApproverID:   actor.ID,
		ApproverName: actor.Name,
		Decision:     decision,
		Comment:      comment,
	}
	return e.apply(submission, to, action, actor, comment, record)
}

// apply 落库迁移 + 审计记录，成功后异步发通知
func (e *Engine) apply(submission *model.FormSubmission, to model.SubmissionStatus, action Action, actor Actor, comment string, decision *model.ApprovalDecision) (*model.FormSubmission, []form.FieldError, error) {
	from := submission.Status
	event := model.SubmissionEvent{
		UserID:   actor.ID,
		UserName: actor.Name,
		Action:   string(action),
		Comment:  comment,
	}

	if err := e.submissions.Transition(submission, to, event, decision); err != nil {
		metrics.SubmissionTransitionsTotal.WithLabelValues(string(action), "conflict").Inc()
		return nil, nil, err
	}

	metrics.SubmissionTransitionsTotal.WithLabelValues(string(action), "ok").Inc()
	logger.Infof("Submission %s: %s -> %s (%s by %s)", submission.ID, from, to, action, actor.ID)

	// 通知失败由通知组件自行重试，迁移不等待投递结果
	if e.notifier != nil && action != ActionWithdraw {
		go e.notifier.NotifyTransition(submission, from, to)
	}

	return submission, nil, nil
}

package workflow

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// fakeSubmissionStore 带版本守卫的内存存储，模拟 repository 的乐观并发语义
type fakeSubmissionStore struct {
	mu          sync.Mutex
	submissions map[string]*model.FormSubmission
	events      []model.SubmissionEvent
	decisions   []model.ApprovalDecision
}

var errConflict = errors.New("stale version")

func newFakeSubmissionStore(subs ...*model.FormSubmission) *fakeSubmissionStore {
	s := &fakeSubmissionStore{submissions: make(map[string]*model.FormSubmission)}
	for _, sub := range subs {
		s.submissions[sub.ID] = sub
	}
	return s
}

func (s *fakeSubmissionStore) Get(id string) (*model.FormSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s not found", id)
	}
	copied := *sub
	return &copied, nil
}

func (s *fakeSubmissionStore) Transition(submission *model.FormSubmission, to model.SubmissionStatus, event model.SubmissionEvent, decision *model.ApprovalDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.submissions[submission.ID]
	if !ok {
		return fmt.Errorf("submission %s not found", submission.ID)
	}
	if current.Version != submission.Version || current.Status != submission.Status {
		return errConflict
	}

	current.Status = to
	current.Version++

	event.SubmissionID = submission.ID
	event.FromStatus = submission.Status
	event.ToStatus = to
	s.events = append(s.events, event)

	if decision != nil {
		decision.SubmissionID = submission.ID
		s.decisions = append(s.decisions, *decision)
	}

	submission.Status = to
	submission.Version++
	return nil
}

type fakeTemplateStore struct {
	templates map[string]*model.FormTemplate
}

func (s *fakeTemplateStore) Get(id string) (*model.FormTemplate, error) {
	tpl, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("template %s not found", id)
	}
	return tpl, nil
}

// fakeGuard 记录是否被调用过，用于验证审批前必定经过一次权限检查
type fakeGuard struct {
	mu      sync.Mutex
	allow   map[string]bool
	checked int
}

func (g *fakeGuard) CanApprove(userID, templateID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checked++
	return g.allow[userID], nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) NotifyTransition(sub *model.FormSubmission, from, to model.SubmissionStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, fmt.Sprintf("%s:%s->%s", sub.ID, from, to))
}

func newTestEngine(sub *model.FormSubmission) (*Engine, *fakeSubmissionStore, *fakeGuard) {
	tpl := &model.FormTemplate{
		ID:     "tpl-1",
		Status: model.TemplateStatusPublished,
		Fields: model.FieldList{
			{ID: "f1", Label: "内容", Type: model.FieldTypeText, Required: true, Order: 0},
		},
	}
	store := newFakeSubmissionStore(sub)
	guard := &fakeGuard{allow: map[string]bool{"mgr-1": true}}
	engine := NewEngine(
		store,
		&fakeTemplateStore{templates: map[string]*model.FormTemplate{"tpl-1": tpl}},
		guard,
		form.NewValidator(form.Default()),
		&fakeNotifier{},
	)
	return engine, store, guard
}

func draftSubmission(data model.FieldValues) *model.FormSubmission {
	return &model.FormSubmission{
		ID:          "sub-1",
		TemplateID:  "tpl-1",
		SubmittedBy: "worker-1",
		Status:      model.SubmissionStatusDraft,
		Data:        data,
		Version:     1,
	}
}

func pendingSubmission() *model.FormSubmission {
	sub := draftSubmission(model.FieldValues{"f1": "ok"})
	sub.Status = model.SubmissionStatusPending
	return sub
}

// TestSubmitValidData 测试合法草稿提交进入待审批
func TestSubmitValidData(t *testing.T) {
	engine, store, _ := newTestEngine(draftSubmission(model.FieldValues{"f1": "巡检完成"}))

	sub, fieldErrors, err := engine.Submit("sub-1", Actor{ID: "worker-1", Name: "张三"})
	if err != nil {
		t.Fatalf("Submit() unexpected error: %v", err)
	}
	if len(fieldErrors) != 0 {
		t.Fatalf("Submit() unexpected field errors: %v", fieldErrors)
	}
	if sub.Status != model.SubmissionStatusPending {
		t.Errorf("Submit() status = %s, expected pending", sub.Status)
	}
	if len(store.events) != 1 || store.events[0].Action != "submit" {
		t.Errorf("Submit() expected one submit audit event, got %v", store.events)
	}
}

// TestSubmitInvalidData 测试校验失败的提交不发生迁移
func TestSubmitInvalidData(t *testing.T) {
	engine, store, _ := newTestEngine(draftSubmission(model.FieldValues{}))

	_, fieldErrors, err := engine.Submit("sub-1", Actor{ID: "worker-1"})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Submit() error = %v, expected ErrValidationFailed", err)
	}
	if len(fieldErrors) != 1 || fieldErrors[0].Kind != form.ErrorKindMissingRequired {
		t.Errorf("Submit() field errors = %v, expected one missing_required", fieldErrors)
	}

	current, _ := store.Get("sub-1")
	if current.Status != model.SubmissionStatusDraft {
		t.Errorf("Submit() status = %s, expected draft unchanged", current.Status)
	}
	if len(store.events) != 0 {
		t.Errorf("Submit() expected no audit events on validation failure, got %v", store.events)
	}
}

// TestSubmitByNonOwner 测试非提交人不能提交
func TestSubmitByNonOwner(t *testing.T) {
	engine, _, _ := newTestEngine(draftSubmission(model.FieldValues{"f1": "ok"}))

	_, _, err := engine.Submit("sub-1", Actor{ID: "intruder"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Submit() error = %v, expected ErrUnauthorized", err)
	}
}

// TestApprove 测试批准并落审批记录
func TestApprove(t *testing.T) {
	engine, store, guard := newTestEngine(pendingSubmission())

	sub, err := engine.Approve("sub-1", Actor{ID: "mgr-1", Name: "王经理"}, "没问题")
	if err != nil {
		t.Fatalf("Approve() unexpected error: %v", err)
	}
	if sub.Status != model.SubmissionStatusApproved {
		t.Errorf("Approve() status = %s, expected approved", sub.Status)
	}
	if guard.checked == 0 {
		t.Error("Approve() expected an authorization check")
	}
	if len(store.decisions) != 1 || store.decisions[0].Decision != model.DecisionApproved {
		t.Errorf("Approve() expected one approved decision, got %v", store.decisions)
	}
}

// TestDenyRequiresComment 测试拒绝必须附带理由
func TestDenyRequiresComment(t *testing.T) {
	engine, _, _ := newTestEngine(pendingSubmission())

	if _, err := engine.Deny("sub-1", Actor{ID: "mgr-1"}, ""); err == nil {
		t.Error("Deny() expected error for empty comment")
	}

	sub, err := engine.Deny("sub-1", Actor{ID: "mgr-1"}, "信息不完整")
	if err != nil {
		t.Fatalf("Deny() unexpected error: %v", err)
	}
	if sub.Status != model.SubmissionStatusDenied {
		t.Errorf("Deny() status = %s, expected denied", sub.Status)
	}
}

// TestApproveUnauthorized 测试无审批权限被拒
func TestApproveUnauthorized(t *testing.T) {
	engine, store, _ := newTestEngine(pendingSubmission())

	_, err := engine.Approve("sub-1", Actor{ID: "worker-2"}, "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Approve() error = %v, expected ErrUnauthorized", err)
	}

	current, _ := store.Get("sub-1")
	if current.Status != model.SubmissionStatusPending {
		t.Errorf("Approve() status = %s, expected pending unchanged", current.Status)
	}
}

// TestInvalidTransitions 测试非法迁移一律拒绝
func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		status model.SubmissionStatus
		run    func(e *Engine) error
	}{
		{"草稿不能直接批准", model.SubmissionStatusDraft, func(e *Engine) error {
			_, err := e.Approve("sub-1", Actor{ID: "mgr-1"}, "")
			return err
		}},
		{"草稿不能直接拒绝", model.SubmissionStatusDraft, func(e *Engine) error {
			_, err := e.Deny("sub-1", Actor{ID: "mgr-1"}, "理由")
			return err
		}},
		{"草稿不能撤回", model.SubmissionStatusDraft, func(e *Engine) error {
			_, err := e.Withdraw("sub-1", Actor{ID: "worker-1"})
			return err
		}},
		{"待审批不能重复提交", model.SubmissionStatusPending, func(e *Engine) error {
			_, _, err := e.Submit("sub-1", Actor{ID: "worker-1"})
			return err
		}},
		{"已批准是终态", model.SubmissionStatusApproved, func(e *Engine) error {
			_, err := e.Approve("sub-1", Actor{ID: "mgr-1"}, "")
			return err
		}},
		{"已拒绝不能撤回重开", model.SubmissionStatusDenied, func(e *Engine) error {
			_, err := e.Withdraw("sub-1", Actor{ID: "worker-1"})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := draftSubmission(model.FieldValues{"f1": "ok"})
			sub.Status = tt.status
			engine, _, _ := newTestEngine(sub)

			if err := tt.run(engine); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, expected ErrInvalidTransition", err)
			}
		})
	}
}

// TestWithdraw 测试提交人撤回回到草稿
func TestWithdraw(t *testing.T) {
	engine, _, _ := newTestEngine(pendingSubmission())

	sub, err := engine.Withdraw("sub-1", Actor{ID: "worker-1"})
	if err != nil {
		t.Fatalf("Withdraw() unexpected error: %v", err)
	}
	if sub.Status != model.SubmissionStatusDraft {
		t.Errorf("Withdraw() status = %s, expected draft", sub.Status)
	}

	if _, err := engine.Withdraw("sub-1", Actor{ID: "mgr-1"}); !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Withdraw() by non-submitter error = %v, expected rejection", err)
	}
}

// TestConcurrentApprove 测试并发批准只有一个成功
func TestConcurrentApprove(t *testing.T) {
	guardAll := &fakeGuard{allow: map[string]bool{"mgr-1": true, "mgr-2": true}}
	sub := pendingSubmission()
	store := newFakeSubmissionStore(sub)
	tpl := &model.FormTemplate{ID: "tpl-1", Fields: model.FieldList{{ID: "f1", Label: "内容", Type: model.FieldTypeText, Order: 0}}}
	engine := NewEngine(store, &fakeTemplateStore{templates: map[string]*model.FormTemplate{"tpl-1": tpl}}, guardAll, form.NewValidator(form.Default()), nil)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, approver := range []string{"mgr-1", "mgr-2"} {
		wg.Add(1)
		go func(i int, approver string) {
			defer wg.Done()
			_, results[i] = engine.Approve("sub-1", Actor{ID: approver}, "")
		}(i, approver)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errConflict), errors.Is(err, ErrInvalidTransition):
			conflicted++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != 1 {
		t.Errorf("concurrent approve: %d succeeded, %d conflicted; expected exactly one of each", succeeded, conflicted)
	}
	if len(store.decisions) != 1 {
		t.Errorf("concurrent approve: %d decisions recorded, expected 1", len(store.decisions))
	}
}

package forms

import (
	"errors"
	"sync"
	"testing"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/autosave"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/form"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/repository"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/workflow"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
)

// fakeSubmissionStore 内存提交单存储，同时实现自动保存的 DraftStore
type fakeSubmissionStore struct {
	mu          sync.Mutex
	submissions map[string]*model.FormSubmission
	patchCalls  int
}

func newFakeSubmissionStore() *fakeSubmissionStore {
	return &fakeSubmissionStore{submissions: map[string]*model.FormSubmission{}}
}

func (s *fakeSubmissionStore) Create(submission *model.FormSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission.ID == "" {
		submission.ID = "sub-1"
	}
	submission.Version = 1
	copied := *submission
	s.submissions[submission.ID] = &copied
	return nil
}

func (s *fakeSubmissionStore) Get(id string) (*model.FormSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submission, ok := s.submissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *submission
	return &copied, nil
}

func (s *fakeSubmissionStore) List(submittedBy, templateID string, status model.SubmissionStatus, page, pageSize int) (int64, []model.FormSubmission, error) {
	return 0, nil, nil
}

func (s *fakeSubmissionStore) PatchData(id string, expectedVersion int, partial model.FieldValues) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchCalls++
	submission, ok := s.submissions[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if submission.Status != model.SubmissionStatusDraft {
		return 0, repository.ErrNotDraft
	}
	if submission.Version != expectedVersion {
		return 0, repository.ErrConflict
	}
	if submission.Data == nil {
		submission.Data = model.FieldValues{}
	}
	for k, v := range partial {
		submission.Data[k] = v
	}
	submission.Version++
	return submission.Version, nil
}

func (s *fakeSubmissionStore) patchCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchCalls
}

// fakeTemplateStore 内存模板存储
type fakeTemplateStore struct {
	templates map[string]*model.FormTemplate
}

func (s *fakeTemplateStore) Get(id string) (*model.FormTemplate, error) {
	template, ok := s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return template, nil
}

func serviceTestTemplate() *model.FormTemplate {
	return &model.FormTemplate{
		ID:     "tpl-1",
		Name:   "每日工时单",
		Status: model.TemplateStatusPublished,
		Fields: model.FieldList{
			{ID: "f1", Label: "工作内容", Type: model.FieldTypeText, Required: true, Order: 0},
			{ID: "f2", Label: "工时", Type: model.FieldTypeNumber, Required: false, Order: 1},
		},
	}
}

func newTestSubmissionService(store *fakeSubmissionStore) *SubmissionService {
	templates := &fakeTemplateStore{templates: map[string]*model.FormTemplate{"tpl-1": serviceTestTemplate()}}
	coordinator := autosave.NewCoordinator(store, &config.AutosaveConfig{DebounceMs: 10, MaxRetries: 2, RetryBackoffMs: 1})
	validator := form.NewValidator(form.Default())
	return NewSubmissionService(store, templates, nil, coordinator, validator)
}

// TestAutosaveRejectsNonDraft 测试离开草稿态的提交单拒绝自动保存
func TestAutosaveRejectsNonDraft(t *testing.T) {
	cases := []struct {
		name   string
		status model.SubmissionStatus
	}{
		{"待审批", model.SubmissionStatusPending},
		{"已通过", model.SubmissionStatusApproved},
		{"已驳回", model.SubmissionStatusDenied},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeSubmissionStore()
			store.submissions["sub-1"] = &model.FormSubmission{
				ID: "sub-1", TemplateID: "tpl-1", SubmittedBy: "u1",
				Status: tc.status, Version: 3,
			}
			svc := newTestSubmissionService(store)
			actor := workflow.Actor{ID: "u1", Name: "张三"}

			_, _, err := svc.Autosave(actor, "sub-1", model.FieldValues{"f1": "迟到的编辑"}, 0)
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("Autosave() error = %v, expected ErrInvalidState", err)
			}

			if _, err := svc.FlushAutosave(actor, "sub-1"); !errors.Is(err, ErrInvalidState) {
				t.Errorf("FlushAutosave() error = %v, expected ErrInvalidState", err)
			}
			if err := svc.CancelAutosave(actor, "sub-1"); !errors.Is(err, ErrInvalidState) {
				t.Errorf("CancelAutosave() error = %v, expected ErrInvalidState", err)
			}

			// 拒绝发生在调度之前，任何落库尝试都不应出现
			if n := store.patchCallCount(); n != 0 {
				t.Errorf("PatchData calls = %d, expected 0", n)
			}
		})
	}
}

// TestAutosaveDraft 测试草稿态正常调度并返回即时校验反馈
func TestAutosaveDraft(t *testing.T) {
	store := newFakeSubmissionStore()
	store.submissions["sub-1"] = &model.FormSubmission{
		ID: "sub-1", TemplateID: "tpl-1", SubmittedBy: "u1",
		Status: model.SubmissionStatusDraft, Version: 1,
	}
	svc := newTestSubmissionService(store)
	actor := workflow.Actor{ID: "u1", Name: "张三"}

	version, fieldErrors, err := svc.Autosave(actor, "sub-1", model.FieldValues{"f2": "不是数字"}, 0)
	if err != nil {
		t.Fatalf("Autosave() unexpected error: %v", err)
	}
	if version != 1 {
		t.Errorf("Autosave() version = %d, expected 1", version)
	}
	if len(fieldErrors) != 1 || fieldErrors[0].FieldID != "f2" || fieldErrors[0].Kind != form.ErrorKindInvalidValue {
		t.Errorf("Autosave() advisory errors = %v, expected invalid_value on f2", fieldErrors)
	}

	newVersion, err := svc.FlushAutosave(actor, "sub-1")
	if err != nil {
		t.Fatalf("FlushAutosave() unexpected error: %v", err)
	}
	if newVersion != 2 {
		t.Errorf("FlushAutosave() version = %d, expected 2", newVersion)
	}
}

// TestAutosaveStaleClientVersion 测试客户端版本落后时返回冲突
func TestAutosaveStaleClientVersion(t *testing.T) {
	store := newFakeSubmissionStore()
	store.submissions["sub-1"] = &model.FormSubmission{
		ID: "sub-1", TemplateID: "tpl-1", SubmittedBy: "u1",
		Status: model.SubmissionStatusDraft, Version: 4,
	}
	svc := newTestSubmissionService(store)

	_, _, err := svc.Autosave(workflow.Actor{ID: "u1"}, "sub-1", model.FieldValues{"f1": "值"}, 2)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("Autosave() error = %v, expected ErrConflict", err)
	}
}

// TestAutosaveRejectsOtherUser 测试非提交人不能保存他人草稿
func TestAutosaveRejectsOtherUser(t *testing.T) {
	store := newFakeSubmissionStore()
	store.submissions["sub-1"] = &model.FormSubmission{
		ID: "sub-1", TemplateID: "tpl-1", SubmittedBy: "u1",
		Status: model.SubmissionStatusDraft, Version: 1,
	}
	svc := newTestSubmissionService(store)

	_, _, err := svc.Autosave(workflow.Actor{ID: "u2"}, "sub-1", model.FieldValues{"f1": "值"}, 0)
	if !errors.Is(err, workflow.ErrUnauthorized) {
		t.Fatalf("Autosave() error = %v, expected ErrUnauthorized", err)
	}
}

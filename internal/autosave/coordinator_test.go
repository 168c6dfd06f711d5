package autosave

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/repository"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
)

// fakeDraftStore 内存草稿存储，记录每次落库，可注入失败
type fakeDraftStore struct {
	mu         sync.Mutex
	data       model.FieldValues
	version    int
	status     model.SubmissionStatus
	writes     []model.FieldValues
	patchCalls int // PatchData 被调用的总次数，含失败
	failsLeft  int // 前 N 次 PatchData 直接失败
	alwaysFail bool
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{data: model.FieldValues{}, version: 1, status: model.SubmissionStatusDraft}
}

func (s *fakeDraftStore) Get(id string) (*model.FormSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := model.FieldValues{}
	for k, v := range s.data {
		copied[k] = v
	}
	return &model.FormSubmission{ID: id, Status: s.status, Data: copied, Version: s.version}, nil
}

func (s *fakeDraftStore) PatchData(id string, expectedVersion int, partial model.FieldValues) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patchCalls++

	if s.status != model.SubmissionStatusDraft {
		return 0, fmt.Errorf("submission %s: %w", id, repository.ErrNotDraft)
	}
	if s.alwaysFail {
		return 0, fmt.Errorf("storage unreachable")
	}
	if s.failsLeft > 0 {
		s.failsLeft--
		return 0, fmt.Errorf("storage unreachable")
	}
	if expectedVersion != s.version {
		return 0, fmt.Errorf("submission %s: %w", id, repository.ErrConflict)
	}

	for k, v := range partial {
		s.data[k] = v
	}
	s.version++

	recorded := model.FieldValues{}
	for k, v := range partial {
		recorded[k] = v
	}
	s.writes = append(s.writes, recorded)
	return s.version, nil
}

func (s *fakeDraftStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

func (s *fakeDraftStore) patchCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchCalls
}

func testConfig() *config.AutosaveConfig {
	return &config.AutosaveConfig{DebounceMs: 30, MaxRetries: 2, RetryBackoffMs: 1}
}

// TestScheduleSaveCoalesces 测试快速连续调度合并为一次落库，后者覆盖前者
func TestScheduleSaveCoalesces(t *testing.T) {
	store := newFakeDraftStore()
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "初稿"})
	c.ScheduleSave("sub-1", model.FieldValues{"f2": "补充"})
	c.ScheduleSave("sub-1", model.FieldValues{"f1": "终稿"})

	waitFor(t, func() bool { return store.writeCount() == 1 })

	expected := model.FieldValues{"f1": "终稿", "f2": "补充"}
	if diff := cmp.Diff(expected, store.writes[0]); diff != "" {
		t.Errorf("persisted data mismatch (-want +got):\n%s", diff)
	}

	// 确认没有第二次落库
	time.Sleep(80 * time.Millisecond)
	if n := store.writeCount(); n != 1 {
		t.Errorf("write count = %d, expected exactly 1", n)
	}
}

// TestScheduleSaveMergesIntoExistingData 测试补丁合并而非整体替换
func TestScheduleSaveMergesIntoExistingData(t *testing.T) {
	store := newFakeDraftStore()
	store.data = model.FieldValues{"f0": "既有字段"}
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "新字段"})
	waitFor(t, func() bool { return store.writeCount() == 1 })

	if store.data["f0"] != "既有字段" || store.data["f1"] != "新字段" {
		t.Errorf("merged data = %v, expected both fields present", store.data)
	}
}

// TestFlushNow 测试显式保存点立即落库并返回新版本
func TestFlushNow(t *testing.T) {
	store := newFakeDraftStore()
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "值"})
	version, err := c.FlushNow("sub-1")
	if err != nil {
		t.Fatalf("FlushNow() unexpected error: %v", err)
	}
	if version != 2 {
		t.Errorf("FlushNow() version = %d, expected 2", version)
	}
	if store.writeCount() != 1 {
		t.Errorf("write count = %d, expected 1", store.writeCount())
	}

	// 没有待保存数据时返回当前版本
	version, err = c.FlushNow("sub-1")
	if err != nil {
		t.Fatalf("FlushNow() on idle unexpected error: %v", err)
	}
	if version != 2 {
		t.Errorf("FlushNow() on idle version = %d, expected 2", version)
	}
}

// TestCancelPending 测试取消丢弃未落库数据，空闲时取消是空操作
func TestCancelPending(t *testing.T) {
	store := newFakeDraftStore()
	c := NewCoordinator(store, testConfig())

	// 空闲时取消不报错
	c.CancelPending("sub-1")

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "不要保存"})
	c.CancelPending("sub-1")

	time.Sleep(80 * time.Millisecond)
	if n := store.writeCount(); n != 0 {
		t.Errorf("write count = %d, expected 0 after cancel", n)
	}
}

// TestRetryThenSucceed 测试临时失败后重试成功
func TestRetryThenSucceed(t *testing.T) {
	store := newFakeDraftStore()
	store.failsLeft = 1
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "值"})
	version, err := c.FlushNow("sub-1")
	if err != nil {
		t.Fatalf("FlushNow() unexpected error: %v", err)
	}
	if version != 2 || store.writeCount() != 1 {
		t.Errorf("after retry: version=%d writes=%d, expected version=2 writes=1", version, store.writeCount())
	}
}

// TestRetryExhausted 测试重试耗尽后返回可恢复错误且服务端数据不变
func TestRetryExhausted(t *testing.T) {
	store := newFakeDraftStore()
	store.data = model.FieldValues{"f1": "最后一次成功的副本"}
	store.alwaysFail = true
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "保不下来"})
	_, err := c.FlushNow("sub-1")
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("FlushNow() error = %v, expected ErrRetryExhausted", err)
	}
	if store.data["f1"] != "最后一次成功的副本" {
		t.Errorf("server copy changed to %v, expected untouched", store.data["f1"])
	}
}

// TestNonDraftAbortsImmediately 测试提交单已离开草稿态时落库立即放弃，不消耗重试
func TestNonDraftAbortsImmediately(t *testing.T) {
	store := newFakeDraftStore()
	store.status = model.SubmissionStatusPending
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "迟到的编辑"})
	_, err := c.FlushNow("sub-1")
	if !errors.Is(err, repository.ErrNotDraft) {
		t.Fatalf("FlushNow() error = %v, expected ErrNotDraft", err)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Errorf("FlushNow() error = %v, terminal condition should not exhaust retries", err)
	}
	if n := store.patchCallCount(); n != 1 {
		t.Errorf("PatchData calls = %d, expected exactly 1 (no retry on terminal condition)", n)
	}
	if store.writeCount() != 0 {
		t.Errorf("write count = %d, expected 0", store.writeCount())
	}
}

// TestConflictRecovery 测试版本被他方推进后重读重试成功
func TestConflictRecovery(t *testing.T) {
	store := newFakeDraftStore()
	store.version = 5 // 服务端版本已前进
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "值"})
	version, err := c.FlushNow("sub-1")
	if err != nil {
		t.Fatalf("FlushNow() unexpected error: %v", err)
	}
	if version != 6 {
		t.Errorf("FlushNow() version = %d, expected 6", version)
	}
}

// TestIndependentSubmissions 测试不同提交单的定时器互不干扰
func TestIndependentSubmissions(t *testing.T) {
	store := newFakeDraftStore()
	c := NewCoordinator(store, testConfig())

	c.ScheduleSave("sub-1", model.FieldValues{"f1": "a"})
	c.ScheduleSave("sub-2", model.FieldValues{"f1": "b"})

	waitFor(t, func() bool { return store.writeCount() == 2 })
}

// waitFor 轮询等待条件成立，超时即失败
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

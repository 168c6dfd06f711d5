package autosave

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/repository"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/metrics"
)

// ErrRetryExhausted 重试次数用尽，服务器上保留最后一次成功保存的副本
var ErrRetryExhausted = errors.New("autosave retries exhausted")

// DraftStore 草稿持久化接口，由 submission repository 实现
type DraftStore interface {
	Get(id string) (*model.FormSubmission, error)
	PatchData(id string, expectedVersion int, partial model.FieldValues) (int, error)
}

// entry 单个提交单的自动保存状态
// 每个提交单最多一个挂起的定时器和一个在途落库；新的 ScheduleSave
// 重置定时器而不是排队第二个
type entry struct {
	timer   *time.Timer
	pending model.FieldValues // 待落库的合并数据
	saving  bool              // 是否有在途落库
}

// Coordinator 草稿自动保存协调器
// 防抖合并客户端的连续编辑，保证同一提交单同一时刻至多一个落库写入，
// 且最后一次调度的数据胜出
type Coordinator struct {
	store    DraftStore
	debounce time.Duration
	retries  int
	backoff  time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

// NewCoordinator 创建协调器
func NewCoordinator(store DraftStore, cfg *config.AutosaveConfig) *Coordinator {
	return &Coordinator{
		store:    store,
		debounce: time.Duration(cfg.DebounceMs) * time.Millisecond,
		retries:  cfg.MaxRetries,
		backoff:  time.Duration(cfg.RetryBackoffMs) * time.Millisecond,
		entries:  make(map[string]*entry),
	}
}

// ScheduleSave 调度一次防抖保存
// 同一提交单的未落库数据按 fieldID 合并，后来的调度覆盖先前未落库的同名字段；
// 已在途的写入不会被取消，它的结果会被下一次落库覆盖
func (c *Coordinator) ScheduleSave(submissionID string, partial model.FieldValues) {
	if len(partial) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[submissionID]
	if !ok {
		e = &entry{}
		c.entries[submissionID] = e
	}

	if e.pending == nil {
		e.pending = model.FieldValues{}
	}
	for k, v := range partial {
		e.pending[k] = v
	}

	if e.timer != nil {
		e.timer.Stop()
	} else {
		metrics.AutosavePendingTimers.Inc()
	}
	e.timer = time.AfterFunc(c.debounce, func() {
		if _, err := c.flush(submissionID); err != nil {
			logger.Warnf("Autosave flush failed for submission %s: %v", submissionID, err)
		}
	})
}

// FlushNow 立即落库（字段失焦、页面跳转等显式保存点）
// 没有待保存数据时直接返回当前版本
func (c *Coordinator) FlushNow(submissionID string) (int, error) {
	c.mu.Lock()
	if e, ok := c.entries[submissionID]; ok && e.timer != nil {
		e.timer.Stop()
		e.timer = nil
		metrics.AutosavePendingTimers.Dec()
	}
	c.mu.Unlock()

	return c.flush(submissionID)
}

// CancelPending 丢弃未落库的数据并停掉定时器（组件卸载/离开页面）
// 没有挂起任务时是安全的空操作
func (c *Coordinator) CancelPending(submissionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[submissionID]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		metrics.AutosavePendingTimers.Dec()
	}
	if !e.saving {
		delete(c.entries, submissionID)
	} else {
		e.timer = nil
		e.pending = nil
	}
}

// flush 取走待保存数据并落库；若已有在途写入则把数据留在队列里，
// 由在途写入完成后接力落库
func (c *Coordinator) flush(submissionID string) (int, error) {
	c.mu.Lock()
	e, ok := c.entries[submissionID]
	if !ok || len(e.pending) == 0 {
		c.mu.Unlock()
		return c.currentVersion(submissionID)
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
		metrics.AutosavePendingTimers.Dec()
	}
	if e.saving {
		// 在途写入完成后会发现还有 pending 数据并再次落库
		c.mu.Unlock()
		return c.currentVersion(submissionID)
	}
	data := e.pending
	e.pending = nil
	e.saving = true
	c.mu.Unlock()

	version, err := c.persist(submissionID, data)

	c.mu.Lock()
	e.saving = false
	hasMore := len(e.pending) > 0
	if !hasMore && e.timer == nil {
		delete(c.entries, submissionID)
	}
	c.mu.Unlock()

	if err != nil {
		return 0, err
	}

	// 落库期间又有新的调度进来，接力保存最新数据
	if hasMore {
		return c.flush(submissionID)
	}
	return version, nil
}

// persist 带重试的落库：版本冲突时重读最新版本再试，
// 其他错误按退避重试；重试耗尽返回 ErrRetryExhausted。
// ErrNotDraft 是终态条件（提交单已离开草稿态），重读版本也无法恢复，直接放弃
func (c *Coordinator) persist(submissionID string, data model.FieldValues) (int, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.AutosaveFlushesTotal.WithLabelValues("retry").Inc()
			time.Sleep(c.backoff * time.Duration(attempt))
		}

		current, err := c.store.Get(submissionID)
		if err != nil {
			lastErr = err
			continue
		}

		version, err := c.store.PatchData(submissionID, current.Version, data)
		if err == nil {
			metrics.AutosaveFlushesTotal.WithLabelValues("ok").Inc()
			return version, nil
		}
		if errors.Is(err, repository.ErrNotDraft) {
			metrics.AutosaveFlushesTotal.WithLabelValues("rejected").Inc()
			return 0, err
		}
		lastErr = err

		// 冲突说明服务端版本前进了，下一轮重读即可；其他错误同样重试
		if !errors.Is(err, repository.ErrConflict) {
			logger.Debugf("Autosave persist attempt %d failed for %s: %v", attempt+1, submissionID, err)
		}
	}

	metrics.AutosaveFlushesTotal.WithLabelValues("exhausted").Inc()
	return 0, fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

// currentVersion 返回提交单当前版本，供无待保存数据时的 flush 使用
func (c *Coordinator) currentVersion(submissionID string) (int, error) {
	current, err := c.store.Get(submissionID)
	if err != nil {
		return 0, err
	}
	return current.Version, nil
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Server Metrics

	// APIRequestsTotal API请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// APIRequestDuration API请求处理时长
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Form Engine Metrics

	// SubmissionTransitionsTotal 提交单状态迁移次数
	SubmissionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_transitions_total",
			Help: "Total number of submission state transitions",
		},
		[]string{"action", "result"}, // result: ok/conflict/invalid/denied_guard
	)

	// ValidationErrorsTotal 表单校验错误次数
	ValidationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_validation_errors_total",
			Help: "Total number of per-field validation errors",
		},
		[]string{"kind"},
	)

	// AutosaveFlushesTotal 草稿自动保存落库次数
	AutosaveFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autosave_flushes_total",
			Help: "Total number of autosave flushes",
		},
		[]string{"result"}, // result: ok/retry/exhausted
	)

	// AutosavePendingTimers 当前挂起的自动保存定时器数量
	AutosavePendingTimers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "autosave_pending_timers",
			Help: "Number of submissions with a pending autosave timer",
		},
	)

	// NotificationsSentTotal 迁移通知发送次数
	NotificationsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transition_notifications_total",
			Help: "Total number of transition notifications dispatched",
		},
		[]string{"platform", "result"},
	)
)

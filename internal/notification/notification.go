package notification

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/metrics"
)

// Notifier 通知渠道接口
type Notifier interface {
	Platform() string
	SendMessage(title, content string) error
}

// FeishuNotifier 飞书通知
type FeishuNotifier struct {
	WebhookURL string
	Secret     string
}

// DingTalkNotifier 钉钉通知
type DingTalkNotifier struct {
	WebhookURL string
	Secret     string
}

// WeChatNotifier 企业微信通知
type WeChatNotifier struct {
	WebhookURL string
}

// NewFeishuNotifier 创建飞书通知器
func NewFeishuNotifier(webhookURL, secret string) *FeishuNotifier {
	return &FeishuNotifier{
		WebhookURL: webhookURL,
		Secret:     secret,
	}
}

// NewDingTalkNotifier 创建钉钉通知器
func NewDingTalkNotifier(webhookURL, secret string) *DingTalkNotifier {
	return &DingTalkNotifier{
		WebhookURL: webhookURL,
		Secret:     secret,
	}
}

// NewWeChatNotifier 创建企业微信通知器
func NewWeChatNotifier(webhookURL string) *WeChatNotifier {
	return &WeChatNotifier{
		WebhookURL: webhookURL,
	}
}

// Platform 渠道名称
func (n *FeishuNotifier) Platform() string { return "feishu" }

// SendMessage 发送飞书卡片消息
func (n *FeishuNotifier) SendMessage(title, content string) error {
	timestamp := time.Now().Unix()
	sign := n.genSign(timestamp)

	message := map[string]interface{}{
		"timestamp": fmt.Sprintf("%d", timestamp),
		"sign":      sign,
		"msg_type":  "interactive",
		"card": map[string]interface{}{
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "blue",
			},
			"elements": []map[string]interface{}{
				{
					"tag": "div",
					"text": map[string]interface{}{
						"content": content,
						"tag":     "lark_md",
					},
				},
				{
					"tag": "hr",
				},
				{
					"tag": "note",
					"elements": []map[string]interface{}{
						{
							"tag":     "plain_text",
							"content": fmt.Sprintf("通知时间: %s", time.Now().Format("2006-01-02 15:04:05")),
						},
					},
				},
			},
		},
	}

	return n.sendRequest(message)
}

// genSign 生成飞书签名
func (n *FeishuNotifier) genSign(timestamp int64) string {
	if n.Secret == "" {
		return ""
	}

	stringToSign := fmt.Sprintf("%v", timestamp) + "\n" + n.Secret
	var data []byte
	h := hmac.New(sha256.New, []byte(stringToSign))
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// sendRequest 发送HTTP请求
func (n *FeishuNotifier) sendRequest(message map[string]interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message failed: %v", err)
	}

	resp, err := http.Post(n.WebhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("send request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		errorMsg := fmt.Sprintf("feishu returned non-200 status: %d", resp.StatusCode)
		if len(respBody) > 0 {
			errorMsg += fmt.Sprintf(", response: %s", string(respBody))
		}
		return fmt.Errorf(errorMsg)
	}

	// 飞书即使返回 200，响应体中也可能带错误码
	if len(respBody) > 0 {
		var feishuResp map[string]interface{}
		if err := json.Unmarshal(respBody, &feishuResp); err == nil {
			if code, ok := feishuResp["code"].(float64); ok {
				if code != 0 {
					msg := "unknown error"
					if msgVal, ok := feishuResp["msg"].(string); ok {
						msg = msgVal
					}
					return fmt.Errorf("feishu returned error code: %.0f, msg: %s", code, msg)
				}
			}
		}
	}

	return nil
}

// Platform 渠道名称
func (n *DingTalkNotifier) Platform() string { return "dingtalk" }

// SendMessage 发送钉钉Markdown消息
func (n *DingTalkNotifier) SendMessage(title, content string) error {
	timestamp := time.Now().UnixNano() / 1e6
	sign := n.genSign(timestamp)

	message := map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]interface{}{
			"title": title,
			"text":  fmt.Sprintf("## %s\n\n%s", title, content),
		},
		"at": map[string]interface{}{
			"isAtAll": false,
		},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message failed: %v", err)
	}

	url := n.WebhookURL
	if n.Secret != "" {
		url = fmt.Sprintf("%s&timestamp=%d&sign=%s", url, timestamp, sign)
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("send request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dingtalk returned non-200 status: %d", resp.StatusCode)
	}

	return nil
}

// genSign 生成钉钉签名
func (n *DingTalkNotifier) genSign(timestamp int64) string {
	if n.Secret == "" {
		return ""
	}

	stringToSign := fmt.Sprintf("%d\n%s", timestamp, n.Secret)
	h := hmac.New(sha256.New, []byte(n.Secret))
	h.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Platform 渠道名称
func (n *WeChatNotifier) Platform() string { return "wechat" }

// SendMessage 发送企业微信Markdown消息
func (n *WeChatNotifier) SendMessage(title, content string) error {
	message := map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]interface{}{
			"content": fmt.Sprintf("## %s\n\n%s", title, content),
		},
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message failed: %v", err)
	}

	resp, err := http.Post(n.WebhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("send request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wechat returned non-200 status: %d", resp.StatusCode)
	}

	return nil
}

// Manager 通知管理器
// 提交单状态变化后异步广播到所有已配置渠道，投递带小规模重试，
// 最终失败只记日志，不影响业务流程
type Manager struct {
	notifiers []Notifier
	enabled   bool
	attempts  int           // 每个渠道的最大投递次数
	backoff   time.Duration // 两次投递之间的间隔
	mu        sync.RWMutex
}

// NewManager 创建通知管理器
func NewManager() *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
		enabled:   true,
		attempts:  3,
		backoff:   2 * time.Second,
	}
}

// SetEnabled 设置是否启用通知
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// AddNotifier 添加通知器
func (m *Manager) AddNotifier(notifier Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifiers = append(m.notifiers, notifier)
}

// NotifiersCount 获取通知器数量
func (m *Manager) NotifiersCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notifiers)
}

// NotifyTransition 发送提交单状态变化通知
// 提交待审批时通知审批人，审批通过/驳回时通知提交人
func (m *Manager) NotifyTransition(submission *model.FormSubmission, from, to model.SubmissionStatus) {
	templateName := submission.TemplateID
	if submission.Template != nil {
		templateName = submission.Template.Name
	}
	submitter := submission.SubmitterName
	if submitter == "" {
		submitter = submission.SubmittedBy
	}

	var title, lead string
	switch to {
	case model.SubmissionStatusPending:
		title = "📝 表单待审批"
		lead = fmt.Sprintf("**%s** 提交了「%s」，请及时审批。", submitter, templateName)
	case model.SubmissionStatusApproved:
		title = "✅ 表单审批通过"
		lead = fmt.Sprintf("**%s** 提交的「%s」已审批通过。", submitter, templateName)
	case model.SubmissionStatusDenied:
		title = "❌ 表单已驳回"
		lead = fmt.Sprintf("**%s** 提交的「%s」被驳回，请修改后重新提交。", submitter, templateName)
	default:
		title = "ℹ️ 表单状态变更"
		lead = fmt.Sprintf("**%s** 提交的「%s」状态发生变化。", submitter, templateName)
	}

	content := fmt.Sprintf(`%s

**提交单号**: %s
**状态变化**: %s → %s
**时间**: %s`,
		lead,
		submission.ID,
		statusLabel(from),
		statusLabel(to),
		time.Now().Format("2006-01-02 15:04:05"),
	)

	m.Broadcast(title, content)
}

// Broadcast 向所有渠道异步发送通知，每个渠道独立重试
func (m *Manager) Broadcast(title, content string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.enabled || len(m.notifiers) == 0 {
		return
	}

	for _, notifier := range m.notifiers {
		go m.send(notifier, title, content)
	}
}

// send 向单个渠道投递，失败重试到次数用尽
func (m *Manager) send(n Notifier, title, content string) {
	var lastErr error
	for attempt := 0; attempt < m.attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(m.backoff)
		}
		if lastErr = n.SendMessage(title, content); lastErr == nil {
			metrics.NotificationsSentTotal.WithLabelValues(n.Platform(), "ok").Inc()
			return
		}
		logger.Debugf("Notification attempt %d via %s failed: %v", attempt+1, n.Platform(), lastErr)
	}
	metrics.NotificationsSentTotal.WithLabelValues(n.Platform(), "error").Inc()
	logger.Warnf("Failed to send %s notification after %d attempts: %v", n.Platform(), m.attempts, lastErr)
}

// statusLabel 状态的展示名称
func statusLabel(s model.SubmissionStatus) string {
	switch s {
	case model.SubmissionStatusDraft:
		return "草稿"
	case model.SubmissionStatusPending:
		return "待审批"
	case model.SubmissionStatusApproved:
		return "已通过"
	case model.SubmissionStatusDenied:
		return "已驳回"
	default:
		return string(s)
	}
}

package notification

import (
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
)

// InitFromConfig 根据配置文件初始化通知管理器
// 未配置任何渠道时管理器照常工作，通知只记日志不外发
func InitFromConfig(cfg *config.NotificationConfig) *Manager {
	m := NewManager()
	m.SetEnabled(cfg.Enabled)

	if !cfg.Enabled {
		logger.Infof("Notification system disabled by config")
		return m
	}

	for _, ch := range cfg.Channels {
		switch ch.Platform {
		case "feishu":
			m.AddNotifier(NewFeishuNotifier(ch.WebhookURL, ch.Secret))
		case "dingtalk":
			m.AddNotifier(NewDingTalkNotifier(ch.WebhookURL, ch.Secret))
		case "wechat":
			m.AddNotifier(NewWeChatNotifier(ch.WebhookURL))
		default:
			logger.Warnf("Unknown notification platform %q, channel skipped", ch.Platform)
			continue
		}
		logger.Infof("Notification channel enabled: %s (webhook: %s)", ch.Platform, truncateURL(ch.WebhookURL))
	}

	if n := m.NotifiersCount(); n > 0 {
		logger.Infof("Notification system enabled with %d channel(s)", n)
	} else {
		logger.Infof("Notification system enabled (no channels configured)")
	}
	return m
}

func truncateURL(url string) string {
	if len(url) > 50 {
		return url[:50] + "..."
	}
	return url
}

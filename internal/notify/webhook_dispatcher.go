package notify

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookDispatcher 通过 HTTP POST 将报警推送到推送网关
type WebhookDispatcher struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookDispatcher 创建 Webhook 投递器
func NewWebhookDispatcher(url string, logger *zap.Logger) *WebhookDispatcher {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(0) // 投递失败不重试（fire-and-forget）

	return &WebhookDispatcher{
		client: client,
		url:    url,
		logger: logger,
	}
}

// Send POST 报警消息到网关；失败只记日志
func (d *WebhookDispatcher) Send(title, body string) {
	resp, err := d.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(alertPayload{
			Title:  title,
			Body:   body,
			SentAt: time.Now(),
		}).
		Post(d.url)

	if err != nil {
		d.logger.Warn("Failed to post alert to webhook",
			zap.String("url", d.url),
			zap.Error(err),
		)
		return
	}

	if resp.StatusCode() >= 400 {
		d.logger.Warn("Webhook returned error status",
			zap.String("url", d.url),
			zap.Int("status", resp.StatusCode()),
		)
	}
}

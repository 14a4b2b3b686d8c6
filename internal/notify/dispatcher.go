package notify

import (
	"time"
)

// Dispatcher 报警投递接口（fire-and-forget：不返回错误，投递失败对调用方不可见）
type Dispatcher interface {
	Send(title, body string)
}

// alertPayload 推送消息体
type alertPayload struct {
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

// NopDispatcher 空实现（未配置任何推送通道时使用）
type NopDispatcher struct{}

func NewNopDispatcher() *NopDispatcher {
	return &NopDispatcher{}
}

func (d *NopDispatcher) Send(title, body string) {}

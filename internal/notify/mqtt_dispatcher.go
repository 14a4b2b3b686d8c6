package notify

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Publisher MQTT 发布接口（pkg/mqtt.Client 满足；测试中替换）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTDispatcher 通过 MQTT 主题向护理端推送报警
type MQTTDispatcher struct {
	publisher Publisher
	topic     string
	qos       byte
	logger    *zap.Logger
}

// NewMQTTDispatcher 创建 MQTT 投递器
func NewMQTTDispatcher(publisher Publisher, topic string, qos byte, logger *zap.Logger) *MQTTDispatcher {
	return &MQTTDispatcher{
		publisher: publisher,
		topic:     topic,
		qos:       qos,
		logger:    logger,
	}
}

// Send 发布报警消息；失败只记日志，不重试
func (d *MQTTDispatcher) Send(title, body string) {
	payload, err := json.Marshal(alertPayload{
		Title:  title,
		Body:   body,
		SentAt: time.Now(),
	})
	if err != nil {
		d.logger.Error("Failed to marshal alert payload",
			zap.Error(err),
		)
		return
	}

	if err := d.publisher.Publish(d.topic, d.qos, false, payload); err != nil {
		d.logger.Warn("Failed to publish alert",
			zap.String("topic", d.topic),
			zap.Error(err),
		)
	}
}

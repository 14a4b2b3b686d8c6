package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"caretrace-escalation/internal/config"
	"caretrace-escalation/internal/escalation"
	"caretrace-escalation/internal/models"
	"caretrace-escalation/internal/notify"
	"caretrace-escalation/internal/repository"
	"caretrace-escalation/pkg/redisutil"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubjectResolver subject 解析接口
type SubjectResolver interface {
	GetSubject(ctx context.Context, subjectID string) (*models.Subject, error)
}

// HistorySource 打卡历史来源（最新在前）
type HistorySource interface {
	FetchHistory(ctx context.Context, subjectID string, f repository.HistoryFilter) ([]models.CheckInRecord, error)
}

// ReasonDetector 升级规则评估接口
type ReasonDetector interface {
	Detect(latest models.CheckInRecord, recent []models.CheckInRecord, now time.Time) *escalation.Detection
}

// Notifier 报警节流接口
type Notifier interface {
	ShouldNotify(ctx context.Context, subjectID string, reason models.EscalationReason, now time.Time) (bool, error)
	MarkNotified(ctx context.Context, subjectID string, reason models.EscalationReason, now time.Time) error
}

// EventRecorder 升级报警事件留痕接口
type EventRecorder interface {
	CreateEvent(ctx context.Context, event *models.EscalationEvent) error
}

// CheckinConsumer 打卡事件消费者
// 消费打卡提交流程发布的事件流，驱动 检测 → 节流 → 推送 流水线；
// 在独立的消费 goroutine 中执行，绝不阻塞打卡提交路径
type CheckinConsumer struct {
	config      *config.Config
	redisClient *redis.Client
	subjects    SubjectResolver
	history     HistorySource
	detector    ReasonDetector
	throttle    Notifier
	events      EventRecorder
	dispatcher  notify.Dispatcher
	logger      *zap.Logger

	now func() time.Time // 测试注入
}

// NewCheckinConsumer 创建打卡事件消费者
func NewCheckinConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	subjects SubjectResolver,
	history HistorySource,
	detector ReasonDetector,
	throttle Notifier,
	events EventRecorder,
	dispatcher notify.Dispatcher,
	logger *zap.Logger,
) *CheckinConsumer {
	return &CheckinConsumer{
		config:      cfg,
		redisClient: redisClient,
		subjects:    subjects,
		history:     history,
		detector:    detector,
		throttle:    throttle,
		events:      events,
		dispatcher:  dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// Start 启动消费循环（阻塞直到 ctx 取消）
func (c *CheckinConsumer) Start(ctx context.Context) error {
	if err := redisutil.CreateConsumerGroup(ctx, c.redisClient, c.config.Consumer.Stream, c.config.Consumer.Group); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Check-in consumer started",
		zap.String("stream", c.config.Consumer.Stream),
		zap.String("group", c.config.Consumer.Group),
		zap.String("consumer", c.config.Consumer.Name),
	)

	block := time.Duration(c.config.Consumer.BlockSeconds) * time.Second

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Check-in consumer stopped")
			return nil
		default:
		}

		messages, err := redisutil.ReadFromStream(
			ctx,
			c.redisClient,
			c.config.Consumer.Stream,
			c.config.Consumer.Group,
			c.config.Consumer.Name,
			int64(c.config.Consumer.BatchSize),
			block,
		)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Check-in consumer stopped")
				return nil
			}
			c.logger.Error("Failed to read check-in stream",
				zap.Error(err),
			)
			time.Sleep(time.Second)
			continue
		}

		for _, msg := range messages {
			// 评估失败不重试：下一次打卡自然重新触发评估
			c.processMessage(ctx, msg)

			if err := redisutil.AckMessage(ctx, c.redisClient, c.config.Consumer.Stream, c.config.Consumer.Group, msg.ID); err != nil {
				c.logger.Error("Failed to ack message",
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
			}
		}
	}
}

// processMessage 处理一条打卡事件：检测 → 节流 → 留痕 → 推送 → 记录冷却
// 所有失败均为局部失败：记日志后放弃本次评估（fail-open，不报警、不崩溃）
func (c *CheckinConsumer) processMessage(ctx context.Context, msg redisutil.StreamMessage) {
	subjectID, _ := msg.Values["subject_id"].(string)
	if subjectID == "" {
		c.logger.Warn("Check-in event without subject_id",
			zap.String("message_id", msg.ID),
		)
		return
	}
	checkinID, _ := msg.Values["checkin_id"].(string)

	subject, err := c.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrSubjectNotFound) {
			c.logger.Warn("Subject not found, skipping evaluation",
				zap.String("subject_id", subjectID),
			)
		} else {
			c.logger.Error("Failed to resolve subject",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
		return
	}

	limit := c.config.Escalation.RecentHistoryLimit
	recent, err := c.history.FetchHistory(ctx, subjectID, repository.HistoryFilter{Limit: &limit})
	if err != nil {
		c.logger.Error("Failed to fetch recent history, skipping evaluation",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return
	}
	if len(recent) == 0 {
		return
	}

	latest := recent[0]
	now := c.now()

	detection := c.detector.Detect(latest, recent, now)
	if detection == nil {
		return
	}

	allowed, err := c.throttle.ShouldNotify(ctx, subjectID, detection.Reason, now)
	if err != nil {
		c.logger.Error("Failed to check cooldown, skipping notification",
			zap.String("subject_id", subjectID),
			zap.String("reason", string(detection.Reason)),
			zap.Error(err),
		)
		return
	}
	if !allowed {
		c.logger.Debug("Notification suppressed by cooldown",
			zap.String("subject_id", subjectID),
			zap.String("reason", string(detection.Reason)),
		)
		return
	}

	event := c.buildEvent(subjectID, checkinID, latest, detection, now)
	if err := c.events.CreateEvent(ctx, event); err != nil {
		// 留痕失败不阻断推送
		c.logger.Error("Failed to persist escalation event",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}

	title := detection.Reason.Title()
	body := alertBody(subject, latest, detection)
	c.dispatcher.Send(title, body)

	if err := c.throttle.MarkNotified(ctx, subjectID, detection.Reason, now); err != nil {
		c.logger.Error("Failed to mark cooldown",
			zap.String("subject_id", subjectID),
			zap.String("reason", string(detection.Reason)),
			zap.Error(err),
		)
	}

	c.logger.Info("Escalation alert dispatched",
		zap.String("event_id", event.EventID),
		zap.String("subject_id", subjectID),
		zap.String("reason", string(detection.Reason)),
	)
}

// buildEvent 构建升级报警事件
func (c *CheckinConsumer) buildEvent(subjectID, checkinID string, latest models.CheckInRecord, detection *escalation.Detection, now time.Time) *models.EscalationEvent {
	if checkinID == "" {
		checkinID = latest.ID
	}

	triggerJSON := "{}"
	if data, err := json.Marshal(detection.Trigger); err == nil {
		triggerJSON = string(data)
	}

	return &models.EscalationEvent{
		EventID:     uuid.New().String(),
		SubjectID:   subjectID,
		CheckinID:   checkinID,
		Reason:      detection.Reason,
		TriggerData: triggerJSON,
		TriggeredAt: now,
		CreatedAt:   now,
	}
}

// alertBody 报警正文（护理端展示）
func alertBody(subject *models.Subject, latest models.CheckInRecord, detection *escalation.Detection) string {
	switch detection.Reason {
	case models.ReasonHighPain:
		return fmt.Sprintf("%s reported pain %d/10 in the latest check-in", subject.FullName, latest.PainLevel)
	case models.ReasonLowMood:
		return fmt.Sprintf("%s reported a low mood in the latest check-in", subject.FullName)
	case models.ReasonRapidPainIncrease:
		if detection.Trigger.PainDelta != nil {
			return fmt.Sprintf("%s's pain rose by %d points over recent check-ins (now %d/10)", subject.FullName, *detection.Trigger.PainDelta, latest.PainLevel)
		}
		return fmt.Sprintf("%s's pain is rising quickly (now %d/10)", subject.FullName, latest.PainLevel)
	case models.ReasonRapidMoodDrop:
		return fmt.Sprintf("%s's mood has dropped over recent check-ins", subject.FullName)
	default:
		return fmt.Sprintf("%s's latest check-in needs review", subject.FullName)
	}
}

package escalation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"caretrace-escalation/internal/models"
	"caretrace-escalation/pkg/redisutil"

	"go.uber.org/zap"
)

// Throttle 报警节流器：按 (subject, reason) 记录最近一次通知时间
// 不含任何检测逻辑，对 reason 语义无感知；
// 冷却记录不设过期（无 TTL），跨进程重启持续有效
type Throttle struct {
	store     redisutil.KVStore
	keyPrefix string
	cooldown  time.Duration
	logger    *zap.Logger
}

// NewThrottle 创建节流器
func NewThrottle(store redisutil.KVStore, keyPrefix string, cooldownHours int, logger *zap.Logger) *Throttle {
	return &Throttle{
		store:     store,
		keyPrefix: keyPrefix,
		cooldown:  time.Duration(cooldownHours) * time.Hour,
		logger:    logger,
	}
}

func (t *Throttle) key(subjectID string, reason models.EscalationReason) string {
	return t.keyPrefix + subjectID + ":" + string(reason)
}

// ShouldNotify 判断 (subject, reason) 当前是否允许通知：
// 无冷却记录，或距上次通知已过冷却时间（含边界）
// 存储读取失败时返回 (false, err)：本次放弃通知，由调用方记录日志
func (t *Throttle) ShouldNotify(ctx context.Context, subjectID string, reason models.EscalationReason, now time.Time) (bool, error) {
	val, err := t.store.Get(ctx, t.key(subjectID, reason))
	if err != nil {
		if errors.Is(err, redisutil.ErrCacheMiss) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read cooldown record: %w", err)
	}

	lastNotified, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// 损坏的冷却记录按不存在处理（宁可多报一次，不漏报）
		t.logger.Warn("Corrupt cooldown record, treating as unarmed",
			zap.String("subject_id", subjectID),
			zap.String("reason", string(reason)),
			zap.String("value", val),
		)
		return true, nil
	}

	elapsed := now.Sub(time.Unix(lastNotified, 0))
	return elapsed >= t.cooldown, nil
}

// MarkNotified 记录本次通知时间（仅在实际发出报警后调用）
func (t *Throttle) MarkNotified(ctx context.Context, subjectID string, reason models.EscalationReason, now time.Time) error {
	value := strconv.FormatInt(now.Unix(), 10)
	if err := t.store.Set(ctx, t.key(subjectID, reason), value, 0); err != nil {
		return fmt.Errorf("failed to write cooldown record: %w", err)
	}

	t.logger.Debug("Cooldown record updated",
		zap.String("subject_id", subjectID),
		zap.String("reason", string(reason)),
	)

	return nil
}

package trend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"caretrace-escalation/internal/models"
	"caretrace-escalation/pkg/redisutil"

	"go.uber.org/zap"
)

// Cache 趋势结果缓存（读穿透，非权威数据源）
type Cache struct {
	kv     redisutil.KVStore
	prefix string
	suffix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache 创建趋势缓存
func NewCache(kv redisutil.KVStore, prefix, suffix string, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		kv:     kv,
		prefix: prefix,
		suffix: suffix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) key(subjectID string) string {
	return c.prefix + subjectID + c.suffix
}

// Get 读取缓存的趋势结果；不存在返回 redisutil.ErrCacheMiss
func (c *Cache) Get(ctx context.Context, subjectID string) (*models.TrendResult, error) {
	val, err := c.kv.Get(ctx, c.key(subjectID))
	if err != nil {
		return nil, err
	}

	var result models.TrendResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached trends: %w", err)
	}

	return &result, nil
}

// Put 写入趋势结果（带 TTL）
func (c *Cache) Put(ctx context.Context, subjectID string, result *models.TrendResult) error {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal trends: %w", err)
	}

	if err := c.kv.Set(ctx, c.key(subjectID), string(jsonData), c.ttl); err != nil {
		return fmt.Errorf("failed to set trend cache: %w", err)
	}

	c.logger.Debug("Updated trend cache",
		zap.String("subject_id", subjectID),
	)

	return nil
}

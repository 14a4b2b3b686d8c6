package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"caretrace-escalation/internal/models"
	"caretrace-escalation/pkg/redisutil"
)

// fakeCooldownStore 仅用于单元测试（内存 KV）
type fakeCooldownStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error // 非空时所有操作返回该错误
}

func newFakeCooldownStore() *fakeCooldownStore {
	return &fakeCooldownStore{data: make(map[string]string)}
}

func (f *fakeCooldownStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	val, ok := f.data[key]
	if !ok {
		return "", redisutil.ErrCacheMiss
	}
	return val, nil
}

func (f *fakeCooldownStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func newTestThrottle(store redisutil.KVStore) *Throttle {
	return NewThrottle(store, "caretrace:cooldown:", 12, zap.NewNop())
}

func TestShouldNotify_NoRecord(t *testing.T) {
	throttle := newTestThrottle(newFakeCooldownStore())

	ok, err := throttle.ShouldNotify(context.Background(), "subj-1", models.ReasonHighPain, time.Now())

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShouldNotify_Idempotent(t *testing.T) {
	store := newFakeCooldownStore()
	throttle := newTestThrottle(store)

	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, throttle.MarkNotified(ctx, "subj-1", models.ReasonHighPain, now))

	// 同一 now 下重复查询结果一致（无中间 MarkNotified）
	later := now.Add(time.Hour)
	first, err := throttle.ShouldNotify(ctx, "subj-1", models.ReasonHighPain, later)
	require.NoError(t, err)
	second, err := throttle.ShouldNotify(ctx, "subj-1", models.ReasonHighPain, later)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, first)
}

func TestShouldNotify_CooldownBoundary(t *testing.T) {
	store := newFakeCooldownStore()
	throttle := newTestThrottle(store)

	ctx := context.Background()
	notifiedAt := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, throttle.MarkNotified(ctx, "subj-1", models.ReasonHighPain, notifiedAt))

	// 11h59m：仍在冷却
	ok, err := throttle.ShouldNotify(ctx, "subj-1", models.ReasonHighPain, notifiedAt.Add(11*time.Hour+59*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	// 12h00m 整：边界含等于，允许
	ok, err = throttle.ShouldNotify(ctx, "subj-1", models.ReasonHighPain, notifiedAt.Add(12*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShouldNotify_PerReasonIsolation(t *testing.T) {
	store := newFakeCooldownStore()
	throttle := newTestThrottle(store)

	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, throttle.MarkNotified(ctx, "subj-1", models.ReasonHighPain, now))

	// 同 subject 不同 reason 互不影响
	ok, err := throttle.ShouldNotify(ctx, "subj-1", models.ReasonLowMood, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	// 不同 subject 同 reason 互不影响
	ok, err = throttle.ShouldNotify(ctx, "subj-2", models.ReasonHighPain, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestShouldNotify_StoreError(t *testing.T) {
	store := newFakeCooldownStore()
	store.err = errors.New("redis down")
	throttle := newTestThrottle(store)

	ok, err := throttle.ShouldNotify(context.Background(), "subj-1", models.ReasonHighPain, time.Now())

	// 存储故障：本次不通知，错误交由调用方记录
	require.Error(t, err)
	assert.False(t, ok)
}

func TestShouldNotify_CorruptRecordTreatedAsUnarmed(t *testing.T) {
	store := newFakeCooldownStore()
	store.data["caretrace:cooldown:subj-1:high_pain"] = "garbage"
	throttle := newTestThrottle(store)

	ok, err := throttle.ShouldNotify(context.Background(), "subj-1", models.ReasonHighPain, time.Now())

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMarkNotified_StoreError(t *testing.T) {
	store := newFakeCooldownStore()
	store.err = errors.New("redis down")
	throttle := newTestThrottle(store)

	err := throttle.MarkNotified(context.Background(), "subj-1", models.ReasonHighPain, time.Now())
	require.Error(t, err)
}

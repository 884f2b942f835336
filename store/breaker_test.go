package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
)

// downStore 模拟不可达的存储，统计实际到达后端的调用次数。
type downStore struct {
	*MemoryStore
	down  atomic.Bool
	calls atomic.Int32
}

func (d *downStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	d.calls.Add(1)
	if d.down.Load() {
		return 0, core.StoreUnavailable(errors.New("dial tcp: connection refused"))
	}
	return d.MemoryStore.ZIncrBy(ctx, key, member, delta)
}

func TestBreakerStore_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	backend := &downStore{MemoryStore: newMemory(t)}
	backend.down.Store(true)

	bs := NewBreakerStore(backend, BreakerConfig{
		Name:             "test-open",
		FailureThreshold: 3,
		OpenTimeout:      time.Hour,
	})

	for i := 0; i < 3; i++ {
		_, err := bs.ZIncrBy(ctx, "k", "m", 1)
		require.Error(t, err)
	}
	assert.Equal(t, "open", bs.State())
	assert.Equal(t, int32(3), backend.calls.Load())

	// 打开后快速失败，不再触达后端
	_, err := bs.ZIncrBy(ctx, "k", "m", 1)
	require.Error(t, err)
	assert.True(t, core.IsStoreUnavailable(err))
	assert.Equal(t, int32(3), backend.calls.Load())
}

func TestBreakerStore_NotFoundDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	bs := NewBreakerStore(newMemory(t), BreakerConfig{Name: "test-notfound", FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		_, err := bs.ZScore(ctx, "missing", "m")
		assert.True(t, core.IsStoreNotFound(err))
	}
	assert.Equal(t, "closed", bs.State())
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	ctx := context.Background()
	bs := NewBreakerStore(newMemory(t), BreakerConfig{Name: "test-pass"})

	require.NoError(t, bs.ZIncrBatch(ctx, []core.ZIncr{{Key: "k", Member: "a", Delta: 2}}))
	got, err := bs.ZRevRangeWithScores(ctx, "k", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []core.ScoredMember{{Member: "a", Score: 2}}, got)

	got, err = bs.ZRevRangeWithScores(ctx, "missing", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "memory", bs.Name())
}

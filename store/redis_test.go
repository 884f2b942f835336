package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs, err := NewRedisStoreWithOptions(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })
	return mr, rs
}

func TestRedisStore_SortedSetOps(t *testing.T) {
	ctx := context.Background()
	_, rs := newMiniRedis(t)

	require.NoError(t, rs.ZIncrBatch(ctx, []core.ZIncr{
		{Key: "a", Member: "x", Delta: 2},
		{Key: "a", Member: "y", Delta: 1},
		{Key: "b", Member: "x", Delta: 1},
	}))
	score, err := rs.ZIncrBy(ctx, "b", "z", 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, score)

	n, err := rs.ZUnionStore(ctx, "dest", []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, rs.ZRem(ctx, "dest", "y"))
	got, err := rs.ZRevRangeWithScores(ctx, "dest", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []core.ScoredMember{
		{Member: "z", Score: 4},
		{Member: "x", Score: 3},
	}, got)

	keys, err := rs.Keys(ctx, "*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "dest"}, keys)

	require.NoError(t, rs.Delete(ctx, "a", "b", "dest"))
	keys, err = rs.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisStore_NotFound(t *testing.T) {
	_, rs := newMiniRedis(t)

	_, err := rs.ZScore(context.Background(), "missing", "x")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestRedisStore_Expire(t *testing.T) {
	ctx := context.Background()
	mr, rs := newMiniRedis(t)

	_, err := rs.ZIncrBy(ctx, "tmp", "x", 1)
	require.NoError(t, err)
	require.NoError(t, rs.Expire(ctx, "tmp", 30*time.Second))
	mr.FastForward(31 * time.Second)

	assert.False(t, mr.Exists("tmp"))
}

func TestRedisStore_UnreachableIsUnavailable(t *testing.T) {
	mr, rs := newMiniRedis(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := rs.ZIncrBy(ctx, "k", "m", 1)
	require.Error(t, err)
	assert.True(t, core.IsStoreUnavailable(err))
	assert.True(t, core.IsUnavailable(err))
}

func TestNewRedisStore_DialFailure(t *testing.T) {
	_, err := NewRedisStoreWithOptions(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, core.IsStoreUnavailable(err))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.True(t, core.IsStoreNotFound(translate(redis.Nil)))
	assert.ErrorIs(t, translate(context.Canceled), context.Canceled)

	err := translate(context.DeadlineExceeded)
	assert.True(t, core.IsStoreUnavailable(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

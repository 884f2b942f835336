package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/shoprec/core"
)

// RedisStore 是 Redis 实现的 RankedStore。
// 生产环境常用；有序集合操作直接映射为 ZINCRBY / ZREVRANGE / ZUNIONSTORE / ZREM。
//
// 错误映射：
//   - redis.Nil → core.ErrStoreNotFound
//   - 服务端错误回复（WRONGTYPE 等）→ 原样返回
//   - 连接失败、超时、客户端已关闭 → core.ErrStoreUnavailable（保留原因）
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 连接 Redis 并 Ping 一次，连接失败返回 UNAVAILABLE。
func NewRedisStore(addr string, db int) (*RedisStore, error) {
	return NewRedisStoreWithOptions(&redis.Options{
		Addr: addr,
		DB:   db,
	})
}

// NewRedisStoreWithOptions 使用完整的 redis.Options 构造（超时、连接池等）。
func NewRedisStoreWithOptions(opts *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(opts)
	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.StoreUnavailable(err)
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient 使用已有的 *redis.Client（不做 Ping，生命周期由调用方管理）。
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetClient 返回底层客户端（高级用法）。
func (r *RedisStore) GetClient() *redis.Client { return r.client }

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return translate(r.client.Del(ctx, keys...).Err())
}

// Keys 使用 SCAN 遍历，避免 KEYS 阻塞服务端。
func (r *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	iter := r.client.Scan(ctx, 0, pattern, 256).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *RedisStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	score, err := r.client.ZIncrBy(ctx, key, delta, member).Result()
	return score, translate(err)
}

// ZIncrBatch 通过 pipeline 一次往返发送全部 ZINCRBY（非 MULTI 事务）。
func (r *RedisStore) ZIncrBatch(ctx context.Context, incrs []core.ZIncr) error {
	if len(incrs) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, in := range incrs {
		pipe.ZIncrBy(ctx, in.Key, in.Delta, in.Member)
	}
	_, err := pipe.Exec(ctx)
	return translate(err)
}

func (r *RedisStore) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]core.ScoredMember, error) {
	zs, err := r.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, translate(err)
	}
	out := make([]core.ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		out = append(out, core.ScoredMember{Member: member, Score: z.Score})
	}
	return out, nil
}

func (r *RedisStore) ZScore(ctx context.Context, key, member string) (float64, error) {
	score, err := r.client.ZScore(ctx, key, member).Result()
	return score, translate(err)
}

func (r *RedisStore) ZUnionStore(ctx context.Context, dest string, keys []string) (int64, error) {
	n, err := r.client.ZUnionStore(ctx, dest, &redis.ZStore{
		Keys:      keys,
		Aggregate: "SUM",
	}).Result()
	return n, translate(err)
}

func (r *RedisStore) ZRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return translate(r.client.ZRem(ctx, key, args...).Err())
}

func (r *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return translate(r.client.Expire(ctx, key, ttl).Err())
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// translate 将 go-redis 错误映射为领域错误。
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return core.ErrStoreNotFound
	}
	if errors.Is(err, context.Canceled) {
		// 调用方主动取消，不归为存储故障
		return err
	}
	var replyErr redis.Error
	if errors.As(err, &replyErr) {
		return err
	}
	return core.StoreUnavailable(err)
}

// 确保 RedisStore 实现了 core.RankedStore 接口
var _ core.RankedStore = (*RedisStore)(nil)

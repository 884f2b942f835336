package store

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// BreakerConfig 是熔断器配置。
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32        // 连续 UNAVAILABLE 次数达到阈值后打开，默认 5
	OpenTimeout      time.Duration // 打开状态持续时间，之后进入半开，默认 10s
	HalfOpenRequests uint32        // 半开状态允许的探测请求数，默认 1
	Interval         time.Duration // 关闭状态下计数清零周期，0 表示不清零
}

// BreakerStore 用熔断器包装一个 RankedStore。
// 存储不可达时快速失败，避免每个请求都等待超时；
// 只有 UNAVAILABLE 错误计入失败，NOT_FOUND 等业务结果不影响熔断。
type BreakerStore struct {
	next core.RankedStore
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerStore(next core.RankedStore, cfg BreakerConfig) *BreakerStore {
	if cfg.Name == "" {
		cfg.Name = next.Name()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 10 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !core.IsStoreUnavailable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.StoreBreakerState.WithLabelValues(name).Set(stateValue(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("store circuit breaker state changed")
		},
	}
	metrics.StoreBreakerState.WithLabelValues(cfg.Name).Set(0)

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State 返回熔断器当前状态（closed / half-open / open）。
func (b *BreakerStore) State() string { return b.cb.State().String() }

func execute[T any](b *BreakerStore, fn func() (T, error)) (T, error) {
	v, err := b.cb.Execute(func() (any, error) {
		r, err := fn()
		return r, err
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, core.StoreUnavailable(err)
		}
		return zero, err
	}
	return v.(T), nil
}

func run(b *BreakerStore, fn func() error) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

func (b *BreakerStore) Name() string { return b.next.Name() }

func (b *BreakerStore) Delete(ctx context.Context, keys ...string) error {
	return run(b, func() error { return b.next.Delete(ctx, keys...) })
}

func (b *BreakerStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return execute(b, func() ([]string, error) { return b.next.Keys(ctx, pattern) })
}

func (b *BreakerStore) ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error) {
	return execute(b, func() (float64, error) { return b.next.ZIncrBy(ctx, key, member, delta) })
}

func (b *BreakerStore) ZIncrBatch(ctx context.Context, incrs []core.ZIncr) error {
	return run(b, func() error { return b.next.ZIncrBatch(ctx, incrs) })
}

func (b *BreakerStore) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]core.ScoredMember, error) {
	return execute(b, func() ([]core.ScoredMember, error) {
		return b.next.ZRevRangeWithScores(ctx, key, start, stop)
	})
}

func (b *BreakerStore) ZScore(ctx context.Context, key, member string) (float64, error) {
	return execute(b, func() (float64, error) { return b.next.ZScore(ctx, key, member) })
}

func (b *BreakerStore) ZUnionStore(ctx context.Context, dest string, keys []string) (int64, error) {
	return execute(b, func() (int64, error) { return b.next.ZUnionStore(ctx, dest, keys) })
}

func (b *BreakerStore) ZRem(ctx context.Context, key string, members ...string) error {
	return run(b, func() error { return b.next.ZRem(ctx, key, members...) })
}

func (b *BreakerStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return run(b, func() error { return b.next.Expire(ctx, key, ttl) })
}

func (b *BreakerStore) Close() error { return b.next.Close() }

var _ core.RankedStore = (*BreakerStore)(nil)

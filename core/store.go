package core

import (
	"context"
	"time"
)

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 客户端句柄显式构造、显式 Close，不使用包级全局连接
//
// 实现：
//   - store.MemoryStore
//   - store.RedisStore
//   - store.BreakerStore（包装任意 RankedStore）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Delete 删除整个 key，不存在的 key 被忽略
	Delete(ctx context.Context, keys ...string) error

	// Keys 按 glob 模式列出 key（运维/测试用，生产环境慎用）
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Close 关闭连接/释放资源
	Close() error
}

// ScoredMember 是有序集合中的一个成员及其分数。
type ScoredMember struct {
	Member string
	Score  float64
}

// ZIncr 描述一次有序集合成员的原子增量。
type ZIncr struct {
	Key    string
	Member string
	Delta  float64
}

// RankedStore 是 Store 的扩展接口，提供有序集合（Sorted Set）操作。
//
// 共购推荐只依赖这些操作：
//   - 原子增量（ZIncrBy），并发写入无需外部加锁
//   - 按分数降序读取（带分数）
//   - 多个有序集合按分数求和合并到新 key（ZUnionStore）
//   - 删除成员 / 删除 key / 设置过期
type RankedStore interface {
	Store

	// ZIncrBy 原子地为 key 中的 member 增加 delta，返回新分数
	ZIncrBy(ctx context.Context, key, member string, delta float64) (float64, error)

	// ZIncrBatch 批量执行增量。每个增量各自原子，批次整体不是事务。
	ZIncrBatch(ctx context.Context, incrs []ZIncr) error

	// ZRevRangeWithScores 按分数降序读取 [start, stop] 区间（stop = -1 表示到末尾）
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)

	// ZScore 获取成员的分数，不存在时返回 NOT_FOUND
	ZScore(ctx context.Context, key, member string) (float64, error)

	// ZUnionStore 将 keys 按分数求和合并写入 dest，返回 dest 的成员数。
	// 不存在的 key 视为空集合。
	ZUnionStore(ctx context.Context, dest string, keys []string) (int64, error)

	// ZRem 从有序集合中移除成员
	ZRem(ctx context.Context, key string, members ...string) error

	// Expire 为 key 设置过期时间
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 或成员不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")

	// ErrStoreUnavailable 表示存储不可达（连接失败、超时、熔断打开）
	ErrStoreUnavailable = NewDomainError(ModuleStore, ErrorCodeUnavailable, "store: unavailable")
)

// StoreUnavailable 将底层错误包装为 UNAVAILABLE。
func StoreUnavailable(err error) error {
	return WrapDomainError(ModuleStore, ErrorCodeUnavailable, "store: unavailable", err)
}

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeNotFound
}

// IsStoreUnavailable 检查错误是否为存储不可用
func IsStoreUnavailable(err error) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == ModuleStore && domainErr.Code == ErrorCodeUnavailable
}

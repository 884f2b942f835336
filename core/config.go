package core

import "time"

// RecommendConfig 提供推荐相关的默认值。
type RecommendConfig interface {
	// DefaultMaxResults 返回未指定数量时的推荐条数
	DefaultMaxResults() int

	// DefaultTimeout 返回单次存储往返的超时时间
	DefaultTimeout() time.Duration

	// DefaultTempKeyTTL 返回临时合并 key 的兜底过期时间
	DefaultTempKeyTTL() time.Duration
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultMaxResults() int {
	return 6
}

func (c *DefaultRecommendConfig) DefaultTimeout() time.Duration {
	return 2 * time.Second
}

func (c *DefaultRecommendConfig) DefaultTempKeyTTL() time.Duration {
	return 30 * time.Second
}

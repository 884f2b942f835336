package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/rushteam/shoprec/events"
)

// Config 是进程配置，全部来自环境变量。
type Config struct {
	RedisAddr     string `env:"SHOPREC_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB       int    `env:"SHOPREC_REDIS_DB" envDefault:"0"`
	RedisPassword string `env:"SHOPREC_REDIS_PASSWORD"`

	Timeout    time.Duration `env:"SHOPREC_TIMEOUT" envDefault:"2s"`
	MaxResults int           `env:"SHOPREC_MAX_RESULTS" envDefault:"6"`
	KeyPrefix  string        `env:"SHOPREC_KEY_PREFIX" envDefault:"product"`

	BreakerFailures    uint32        `env:"SHOPREC_BREAKER_FAILURES" envDefault:"5"`
	BreakerOpenTimeout time.Duration `env:"SHOPREC_BREAKER_OPEN_TIMEOUT" envDefault:"10s"`

	// CatalogDSN 为空时不加载目录：suggest 只输出商品 ID，clear 按 key 扫描
	CatalogDSN string `env:"SHOPREC_CATALOG_DSN"`
	// Pipeline 是可选的推荐链路 YAML 文件，详情页与购物车共用
	Pipeline string `env:"SHOPREC_PIPELINE"`

	NATSURL     string `env:"SHOPREC_NATS_URL" envDefault:"nats://localhost:4222"`
	OrderTopic  string `env:"SHOPREC_ORDER_TOPIC" envDefault:"orders.completed"`
	MetricsAddr string `env:"SHOPREC_METRICS_ADDR" envDefault:":9108"`

	NATSStream     string        `env:"SHOPREC_NATS_STREAM" envDefault:"SHOPREC_ORDERS"`
	NATSNakDelay   time.Duration `env:"SHOPREC_NATS_NAK_DELAY" envDefault:"5s"`
	NATSMaxDeliver int           `env:"SHOPREC_NATS_MAX_DELIVER" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig 从环境变量加载配置。
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("SHOPREC_TIMEOUT must be positive, got %s", cfg.Timeout)
	}
	if cfg.MaxResults <= 0 {
		return Config{}, fmt.Errorf("SHOPREC_MAX_RESULTS must be positive, got %d", cfg.MaxResults)
	}
	return cfg, nil
}

// natsConfig 返回订单事件流的 JetStream 配置；queueGroup 同时作为持久化消费者名。
func (c Config) natsConfig(queueGroup string) events.NATSConfig {
	return events.NATSConfig{
		URL:         c.NATSURL,
		StreamName:  c.NATSStream,
		Subjects:    []string{c.OrderTopic},
		QueueGroup:  queueGroup,
		DurableName: queueGroup,
		NakDelay:    c.NATSNakDelay,
		MaxDeliver:  c.NATSMaxDeliver,
	}
}

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultStreamName 是订单事件所在的 JetStream 流
const DefaultStreamName = "SHOPREC_ORDERS"

// NATSConfig 配置 JetStream 订阅/发布。
// 订阅者使用持久化消费者（DurableName）并以队列组分摊消息，Nack 的消息在 NakDelay 后重投，
// 最多投递 MaxDeliver 次。
type NATSConfig struct {
	URL              string
	StreamName       string
	Subjects         []string
	StreamMaxAge     time.Duration
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	NakDelay         time.Duration
	MaxDeliver       int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

func (c NATSConfig) withDefaults() NATSConfig {
	if c.StreamName == "" {
		c.StreamName = DefaultStreamName
	}
	if len(c.Subjects) == 0 {
		c.Subjects = []string{DefaultTopic}
	}
	if c.StreamMaxAge <= 0 {
		c.StreamMaxAge = 7 * 24 * time.Hour
	}
	if c.QueueGroup == "" {
		c.QueueGroup = "shoprec"
	}
	if c.DurableName == "" {
		c.DurableName = c.QueueGroup
	}
	if c.SubscribersCount <= 0 {
		c.SubscribersCount = 1
	}
	if c.AckWaitTimeout <= 0 {
		c.AckWaitTimeout = 30 * time.Second
	}
	if c.NakDelay <= 0 {
		c.NakDelay = 5 * time.Second
	}
	if c.MaxDeliver == 0 {
		c.MaxDeliver = 10
	}
	if c.CloseTimeout <= 0 {
		c.CloseTimeout = 10 * time.Second
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = -1
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = 2 * time.Second
	}
	return c
}

func natsOptions(cfg NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// EnsureStream 创建或更新订单事件流，可重复调用。
// 流名不能包含 '.'，因此不能交给 watermill 按主题名自动创建。
func EnsureStream(ctx context.Context, cfg NATSConfig) error {
	cfg = cfg.withDefaults()
	nc, err := natsgo.Connect(cfg.URL)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  cfg.Subjects,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
		MaxAge:    cfg.StreamMaxAge,
		Discard:   jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", cfg.StreamName, err)
	}
	return nil
}

// NewNATSSubscriber 创建订单事件的持久化订阅者，先确保流存在。
func NewNATSSubscriber(ctx context.Context, cfg NATSConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	if logger == nil {
		logger = NewLogger()
	}
	cfg = cfg.withDefaults()
	if err := EnsureStream(ctx, cfg); err != nil {
		return nil, err
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOptions(cfg, logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		NakDelay:         wmNats.NewStaticDelay(cfg.NakDelay),
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: cfg.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(cfg.StreamName),
				natsgo.ManualAck(),
				natsgo.AckExplicit(),
				natsgo.AckWait(cfg.AckWaitTimeout),
				natsgo.MaxDeliver(cfg.MaxDeliver),
				natsgo.DeliverAll(),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return sub, nil
}

// NewNATSPublisher 创建订单事件发布者（供下单服务或命令行使用），先确保流存在。
func NewNATSPublisher(ctx context.Context, cfg NATSConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	if logger == nil {
		logger = NewLogger()
	}
	cfg = cfg.withDefaults()
	if err := EnsureStream(ctx, cfg); err != nil {
		return nil, err
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}
	return pub, nil
}

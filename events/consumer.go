// Package events 消费订单完成事件并记录共购。
//
// 消息语义：
//   - 记录成功：Ack
//   - 消息格式错误或商品为空：Ack 并丢弃（重投也不会成功）
//   - 存储失败：Nack，由消息系统重投
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/metrics"
)

// DefaultTopic 是订单完成事件的默认主题
const DefaultTopic = "orders.completed"

// 事件处理结果，同时是 shoprec_events_processed_total 的 result 标签
const (
	ResultRecorded = "recorded"
	ResultDropped  = "dropped"
	ResultFailed   = "failed"
)

// Recorder 是消费者依赖的推荐器能力，*copurchase.Recommender 实现了它。
type Recorder interface {
	RecordCoPurchases(ctx context.Context, productIDs []int64) error
}

// Consumer 从订阅者读取订单事件并记录共购。
type Consumer struct {
	subscriber message.Subscriber
	recorder   Recorder
	topic      string
	logger     watermill.LoggerAdapter
}

// NewConsumer 创建消费者。topic 为空时使用 DefaultTopic，logger 为空时使用 zerolog 适配器。
func NewConsumer(subscriber message.Subscriber, recorder Recorder, topic string, logger watermill.LoggerAdapter) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = NewLogger()
	}
	return &Consumer{
		subscriber: subscriber,
		recorder:   recorder,
		topic:      topic,
		logger:     logger.With(watermill.LogFields{"topic": topic}),
	}
}

// Run 持续消费直到 ctx 取消或订阅关闭。ctx 取消时返回 nil；
// ctx 仍有效而订阅被关闭时返回 UNAVAILABLE 错误，调用方据此退出或重连。
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return core.WrapDomainError(core.ModuleEvents, core.ErrorCodeUnavailable, fmt.Sprintf("events: subscribe %s", c.topic), err)
	}
	c.logger.Info("Consuming order events", nil)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return core.NewDomainError(core.ModuleEvents, core.ErrorCodeUnavailable, fmt.Sprintf("events: subscription to %s closed", c.topic))
			}
			c.Handle(msg)
		}
	}
}

// Handle 处理单条消息并 Ack/Nack，返回处理结果。
func (c *Consumer) Handle(msg *message.Message) string {
	result := c.process(msg)
	metrics.EventsProcessed.WithLabelValues(result).Inc()
	if result == ResultFailed {
		msg.Nack()
	} else {
		msg.Ack()
	}
	return result
}

func (c *Consumer) process(msg *message.Message) string {
	fields := watermill.LogFields{"message_uuid": msg.UUID}

	order, err := Unmarshal(msg.Payload)
	if err != nil {
		c.logger.Error("Dropping malformed order event", err, fields)
		return ResultDropped
	}
	fields["order_id"] = order.OrderID

	if err := c.recorder.RecordCoPurchases(msg.Context(), order.ProductIDs); err != nil {
		if core.IsInvalidInput(err) {
			c.logger.Error("Dropping invalid order", err, fields)
			return ResultDropped
		}
		c.logger.Error("Recording co-purchases failed, will be redelivered", err, fields)
		return ResultFailed
	}
	c.logger.Debug("Order recorded", fields.Add(watermill.LogFields{"products": len(order.ProductIDs)}))
	return ResultRecorded
}

// Publish 发布一条订单完成事件。
func Publish(publisher message.Publisher, topic string, order *OrderCompleted) error {
	if topic == "" {
		topic = DefaultTopic
	}
	payload, err := Marshal(order)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("order_id", order.OrderID)
	if err := publisher.Publish(topic, msg); err != nil {
		return core.WrapDomainError(core.ModuleEvents, core.ErrorCodeUnavailable, "events: publish", err)
	}
	return nil
}

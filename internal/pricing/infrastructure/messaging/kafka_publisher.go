package messaging

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/mq"
)

// messageSender 由 mq.KafkaProducer 实现
type messageSender interface {
	SendMessages(ctx context.Context, topic string, messages ...mq.Message) error
}

// KafkaEventPublisher 实现 EventPublisher 接口，事件以 JSON 写入 Kafka
type KafkaEventPublisher struct {
	sender messageSender
	topic  string
}

// NewKafkaEventPublisher 创建新的 KafkaEventPublisher 实例
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) *KafkaEventPublisher {
	return newKafkaEventPublisher(producer, topic)
}

func newKafkaEventPublisher(sender messageSender, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{sender: sender, topic: topic}
}

// PublishOptionPriced 发布期权定价完成事件，按标的分区
func (p *KafkaEventPublisher) PublishOptionPriced(ctx context.Context, event domain.OptionPricedEvent) error {
	return p.publishEvent(ctx, domain.OptionPricedEventType, event.Symbol, event)
}

// PublishBatchPricingCompleted 发布批量定价完成事件
func (p *KafkaEventPublisher) PublishBatchPricingCompleted(ctx context.Context, event domain.BatchPricingCompletedEvent) error {
	return p.publishEvent(ctx, domain.BatchPricingCompletedEventType, event.BatchID, event)
}

// publishEvent 通用事件发布方法
func (p *KafkaEventPublisher) publishEvent(ctx context.Context, eventType, key string, event any) error {
	return p.sender.SendMessages(ctx, p.topic, mq.Message{
		Key:     key,
		Value:   event,
		Headers: map[string]string{"event_type": eventType},
	})
}

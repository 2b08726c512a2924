// Package mq 提供 Kafka producer 封装，JSON 编码、按 key 分区、失败重试
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

// Message 待发送的消息
type Message struct {
	Key     string
	Value   any
	Headers map[string]string
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewProducer 创建 Kafka 生产者
func NewProducer(cfg config.KafkaConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll, // 等待所有副本确认
		MaxAttempts:            max(cfg.MaxRetries, 1),
		WriteBackoffMin:        time.Duration(cfg.RetryBackoff) * time.Millisecond,
		WriteBackoffMax:        time.Duration(cfg.RetryBackoff*10) * time.Millisecond,
	}

	logger.Info(context.Background(), "Kafka producer created successfully", "brokers", cfg.Brokers)
	return NewProducerWithWriter(writer), nil
}

// NewProducerWithWriter 使用已有 writer 创建生产者
func NewProducerWithWriter(writer *kafka.Writer) *KafkaProducer {
	return &KafkaProducer{writer: writer}
}

// SendMessages 批量发送消息，同一批次要么全部写入要么返回错误
func (kp *KafkaProducer) SendMessages(ctx context.Context, topic string, messages ...Message) error {
	kafkaMessages, err := encode(topic, messages)
	if err != nil {
		return err
	}
	if len(kafkaMessages) == 0 {
		return nil
	}

	if err := kp.writer.WriteMessages(ctx, kafkaMessages...); err != nil {
		logger.Error(ctx, "Failed to send Kafka messages",
			"topic", topic,
			"count", len(kafkaMessages),
			"error", err,
		)
		return err
	}

	logger.Debug(ctx, "Kafka messages sent",
		"topic", topic,
		"count", len(kafkaMessages),
	)
	return nil
}

// Close 关闭生产者
func (kp *KafkaProducer) Close() error {
	return kp.writer.Close()
}

func encode(topic string, messages []Message) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message: %w", err)
		}
		km := kafka.Message{
			Topic: topic,
			Key:   []byte(msg.Key),
			Value: data,
		}
		for k, v := range msg.Headers {
			km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		out = append(out, km)
	}
	return out, nil
}

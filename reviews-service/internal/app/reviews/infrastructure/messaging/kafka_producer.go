package messaging

import (
	"context"
	"fmt"
	"time"

	"tastyreply/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "reviews-service"

// KafkaProducer публикует события отзывов (REVIEW_SYNCED, REVIEW_REPLIED)
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishMessage - ключ по пользователю сохраняет порядок событий одного владельца
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer(serviceName, p.topic)

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NoopPublisher используется, когда Kafka не настроена
type NoopPublisher struct{}

func (NoopPublisher) PublishMessage(context.Context, string, []byte) error { return nil }

func (NoopPublisher) Close() error { return nil }

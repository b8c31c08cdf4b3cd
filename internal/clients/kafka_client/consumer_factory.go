package kafka_client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/tweetclassifier/config"
)

type ConsumerFunc func(ctx context.Context, consumer *kafka.Consumer)

// ConsumerFactory maps topics to the loops that consume them.
type ConsumerFactory struct {
	consumers map[string]ConsumerFunc
}

func NewConsumerFactory() *ConsumerFactory {
	return &ConsumerFactory{consumers: make(map[string]ConsumerFunc)}
}

func (f *ConsumerFactory) Register(topic string, fn ConsumerFunc) {
	f.consumers[topic] = fn
}

// Start subscribes to topic and runs its consumer until ctx is done.
func (f *ConsumerFactory) Start(ctx context.Context, cfg config.KafkaConfig, topic string) error {
	consumerFunc, exists := f.consumers[topic]
	if !exists {
		return fmt.Errorf("[ConsumerFactory] No consumer found for topic: %s", topic)
	}

	consumer, err := NewConsumer(cfg, topic)
	if err != nil {
		return fmt.Errorf("[ConsumerFactory] Failed to initialize Kafka consumer: %w", err)
	}
	defer consumer.Close()

	slog.Info("[ConsumerFactory] Starting consumer for topic...", slog.String("topic", topic))
	consumerFunc(ctx, consumer)

	return nil
}

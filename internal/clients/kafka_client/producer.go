package kafka_client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/tweetclassifier/config"
	"github.com/spacesedan/tweetclassifier/internal/clients/kafka_client/utils"
	"github.com/spacesedan/tweetclassifier/internal/models"
)

type Producer struct {
	producer *kafka.Producer
}

func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...", slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(producerConfigMap(cfg))
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &Producer{producer: p}, nil
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(5000); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// Publish produces one message and waits for its delivery report.
func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	deliveryChan := make(chan kafka.Event, 1)
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
	}

	var err error
	for i := 0; i < 3; i++ {
		err = p.producer.Produce(msg, deliveryChan)
		if err == nil {
			break
		}
		var kafkaErr kafka.Error
		if !errors.As(err, &kafkaErr) || kafkaErr.Code() != kafka.ErrQueueFull {
			return fmt.Errorf("[KafkaClient] produce to %s: %w", topic, err)
		}
		slog.Warn("[KafkaClient] Producer queue full, retrying...",
			slog.Int("attempt", i+1))
		p.producer.Flush(500)
	}
	if err != nil {
		return fmt.Errorf("[KafkaClient] produce to %s: %w", topic, err)
	}

	timer := time.NewTimer(DELIVERY_TIMEOUT)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("[KafkaClient] delivery to %s timed out", topic)
	case e := <-deliveryChan:
		delivered, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("[KafkaClient] unexpected delivery event %v", e)
		}
		if delivered.TopicPartition.Error != nil {
			return fmt.Errorf("[KafkaClient] delivery to %s failed: %w", topic, delivered.TopicPartition.Error)
		}
	}
	return nil
}

func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v any) error {
	data, err := utils.SerializeToJSON(v)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, key, data)
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

// PredictionPublisher emits one event per served prediction, keyed by its id.
type PredictionPublisher struct {
	publisher jsonPublisher
	topic     string
}

func NewPredictionPublisher(publisher jsonPublisher, topic string) *PredictionPublisher {
	if topic == "" {
		topic = KAFKA_TOPIC_PREDICTIONS
	}
	return &PredictionPublisher{publisher: publisher, topic: topic}
}

func (pp *PredictionPublisher) PublishPrediction(ctx context.Context, result models.PredictionResult) error {
	return pp.publisher.PublishJSON(ctx, pp.topic, result.ID, result)
}

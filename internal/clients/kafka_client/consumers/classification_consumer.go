package consumers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/tweetclassifier/internal/clients/kafka_client"
	"github.com/spacesedan/tweetclassifier/internal/clients/kafka_client/utils"
	"github.com/spacesedan/tweetclassifier/internal/models"
)

const PUBLISH_RETRIES = 3

type Classifier interface {
	Classify(ctx context.Context, modelID, raw string) (models.PredictionResult, error)
}

type ResultPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

type messageSource interface {
	Next() (*kafka.Message, error)
}

type messageCommitter interface {
	Commit(msg *kafka.Message) error
}

// ClassificationConsumer reads batches of classification requests, publishes
// one batch of responses per message, and commits the offset only once the
// responses are published.
type ClassificationConsumer struct {
	classifier  Classifier
	publisher   ResultPublisher
	resultTopic string
	retryDelay  time.Duration
}

func NewClassificationConsumer(classifier Classifier, publisher ResultPublisher, resultTopic string) *ClassificationConsumer {
	if resultTopic == "" {
		resultTopic = kafka_client.KAFKA_TOPIC_CLASSIFICATION_RESULTS
	}
	return &ClassificationConsumer{
		classifier:  classifier,
		publisher:   publisher,
		resultTopic: resultTopic,
		retryDelay:  kafka_client.RETRY_DELAY,
	}
}

// Run is registered with the consumer factory for the request topic.
func (cc *ClassificationConsumer) Run(ctx context.Context, consumer *kafka.Consumer) {
	iterator := kafka_client.NewKafkaMessageIterator(ctx, consumer)
	committer := kafka_client.NewCommitHandler(ctx, consumer)
	cc.consume(ctx, iterator, committer)
}

func (cc *ClassificationConsumer) consume(ctx context.Context, source messageSource, committer messageCommitter) {
	slog.Info("[ClassificationConsumer] Listening for messages...")

	for {
		select {
		case <-ctx.Done():
			slog.Warn("[ClassificationConsumer] Consumer shutting down...")
			return
		default:
		}

		msg, err := source.Next()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			utils.HandleConsumerError(err)
			continue
		}

		if err := cc.Handle(ctx, msg); err != nil {
			slog.Error("[ClassificationConsumer] Failed to handle message",
				slog.String("error", err.Error()))
			continue
		}

		if err := committer.Commit(msg); err != nil {
			slog.Warn("[ClassificationConsumer] Failed to commit offset",
				slog.String("error", err.Error()))
		}
	}
}

// Handle classifies every request in msg and publishes the responses. A
// message that does not decode is logged and skipped, so it returns nil.
func (cc *ClassificationConsumer) Handle(ctx context.Context, msg *kafka.Message) error {
	requests, err := utils.DeserializeFromJSON[[]models.ClassificationRequest](msg.Value)
	if err != nil {
		slog.Warn("[ClassificationConsumer] Skipping malformed request batch",
			slog.Int("bytes", len(msg.Value)))
		return nil
	}
	if len(requests) == 0 {
		return nil
	}

	start := time.Now()
	responses := make([]models.ClassificationResponse, 0, len(requests))
	for _, request := range requests {
		response := models.ClassificationResponse{RequestID: request.RequestID}
		result, err := cc.classifier.Classify(ctx, request.ModelID, request.Text)
		if err != nil {
			slog.Warn("[ClassificationConsumer] Classification failed",
				slog.String("request_id", request.RequestID),
				slog.String("model", request.ModelID),
				slog.String("error", err.Error()))
			response.Error = err.Error()
		} else {
			response.Result = &result
		}
		responses = append(responses, response)
	}

	key := string(msg.Key)
	if key == "" {
		key = requests[0].RequestID
	}
	if err := cc.publish(ctx, key, responses); err != nil {
		return err
	}

	slog.Info("[ClassificationConsumer] Batch classified",
		slog.Int("batch_size", len(requests)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (cc *ClassificationConsumer) publish(ctx context.Context, key string, responses []models.ClassificationResponse) error {
	var err error
	for i := 0; i < PUBLISH_RETRIES; i++ {
		err = cc.publisher.PublishJSON(ctx, cc.resultTopic, key, responses)
		if err == nil {
			return nil
		}
		slog.Warn("[ClassificationConsumer] Batch publishing failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cc.retryDelay):
		}
	}
	return fmt.Errorf("publish results after %d attempts: %w", PUBLISH_RETRIES, err)
}

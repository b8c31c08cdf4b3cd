package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/tweetclassifier/config"
	"github.com/spacesedan/tweetclassifier/internal/app"
	"github.com/spacesedan/tweetclassifier/internal/clients/kafka_client"
	"github.com/spacesedan/tweetclassifier/internal/clients/kafka_client/consumers"
	"github.com/spacesedan/tweetclassifier/internal/logging"
)

// consumerStarter blocks consuming topic until ctx ends or the consumer fails.
type consumerStarter interface {
	Start(ctx context.Context, cfg config.KafkaConfig, topic string) error
}

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.App.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("[Main] Worker stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run owns every resource it opens, so cleanup has finished by the time it
// returns and main can exit with a status.
func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !cfg.KafkaEnabled() {
		return errors.New("KAFKA_BROKER is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Sinks: true})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()
	if a.Producer == nil {
		return errors.New("kafka producer unavailable, results cannot be published")
	}
	a.Start(ctx)

	classification := consumers.NewClassificationConsumer(a.Service, a.Producer, cfg.Kafka.ResultTopic)

	factory := kafka_client.NewConsumerFactory()
	factory.Register(cfg.Kafka.RequestTopic, classification.Run)

	return consume(ctx, factory, cfg.Kafka)
}

func consume(ctx context.Context, starter consumerStarter, cfg config.KafkaConfig) error {
	if err := starter.Start(ctx, cfg, cfg.RequestTopic); err != nil {
		return fmt.Errorf("start consumer on %q: %w", cfg.RequestTopic, err)
	}
	slog.Info("[Main] Consumer stopped", slog.String("topic", cfg.RequestTopic))
	return nil
}

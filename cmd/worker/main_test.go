package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spacesedan/tweetclassifier/config"
)

type fakeStarter struct {
	err   error
	topic string
}

func (f *fakeStarter) Start(_ context.Context, _ config.KafkaConfig, topic string) error {
	f.topic = topic
	return f.err
}

func TestConsumeReportsStartFailure(t *testing.T) {
	brokerDown := errors.New("broker unreachable")
	starter := &fakeStarter{err: brokerDown}

	err := consume(context.Background(), starter, config.KafkaConfig{RequestTopic: "requests"})
	if !errors.Is(err, brokerDown) {
		t.Fatalf("expected start failure to surface, got %v", err)
	}
	if starter.topic != "requests" {
		t.Fatalf("started topic %q", starter.topic)
	}
}

func TestConsumeCleanStop(t *testing.T) {
	if err := consume(context.Background(), &fakeStarter{}, config.KafkaConfig{RequestTopic: "requests"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRequiresBroker(t *testing.T) {
	cfg := &config.Config{
		App:     config.AppConfig{ServerPort: "8080"},
		Dataset: config.DatasetConfig{PageSize: 10},
	}
	err := run(cfg)
	if err == nil || !strings.Contains(err.Error(), "KAFKA_BROKER") {
		t.Fatalf("expected missing broker error, got %v", err)
	}
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spacesedan/tweetclassifier/config"
	"github.com/spacesedan/tweetclassifier/internal/classifier"
	"github.com/spacesedan/tweetclassifier/internal/clients"
	"github.com/spacesedan/tweetclassifier/internal/clients/kafka_client"
	"github.com/spacesedan/tweetclassifier/internal/db"
	"github.com/spacesedan/tweetclassifier/internal/prediction"
	"github.com/spacesedan/tweetclassifier/internal/preprocessing"
)

// App holds the long lived collaborators shared by the binaries.
type App struct {
	Config     *config.Config
	Normalizer *preprocessing.Normalizer
	Registry   *classifier.Registry
	Service    *prediction.Service
	Producer   *kafka_client.Producer

	recorder *db.Recorder
	closers  []func()
	wg       sync.WaitGroup
}

type Options struct {
	// Sinks enables the cache, history and event stream when configured.
	Sinks bool
}

// New loads the language resources and models. Optional sinks that fail to
// connect are logged and left out; only the normalizer is required.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	normalizer, err := preprocessing.NewDefaultNormalizer(preprocessing.Settings{
		StopwordsFile:   cfg.Normalizer.StopwordsFile,
		DropShortTokens: cfg.Normalizer.DropShortTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("load normalizer: %w", err)
	}

	a := &App{
		Config:     cfg,
		Normalizer: normalizer,
		Registry:   classifier.NewDefaultRegistry(cfg),
	}
	a.closers = append(a.closers, func() {
		if err := a.Registry.Close(); err != nil {
			slog.Warn("[App] Failed to release models", slog.String("error", err.Error()))
		}
	})

	serviceOpts := prediction.Options{CacheTTL: cfg.Cache.TTL}
	if opts.Sinks {
		a.wireSinks(ctx, &serviceOpts)
	}
	if cfg.TwitterEnabled() {
		serviceOpts.Tweets = clients.NewTwitterClient(
			cfg.Twitter.ClientID, cfg.Twitter.ClientSecret, cfg.Twitter.TokenURL, cfg.Twitter.APIURL)
	}

	a.Service = prediction.NewService(normalizer, a.Registry, serviceOpts)
	return a, nil
}

func (a *App) wireSinks(ctx context.Context, opts *prediction.Options) {
	cfg := a.Config

	if cfg.CacheEnabled() {
		cache, err := clients.NewValkeyClient(clients.ValkeyOptions{
			Address:  cfg.Cache.Address,
			Password: cfg.Cache.Password,
			TLS:      cfg.Cache.TLS,
		})
		if err != nil {
			slog.Warn("[App] Prediction cache disabled", slog.String("error", err.Error()))
		} else {
			opts.Cache = cache
			a.closers = append(a.closers, cache.Close)
		}
	}

	if cfg.History.Enabled {
		awsCfg, err := clients.LoadAWSConfig(ctx, cfg.History.Region)
		if err != nil {
			slog.Warn("[App] Prediction history disabled", slog.String("error", err.Error()))
		} else {
			store := db.NewPredictionStore(
				clients.NewDynamoDBClient(awsCfg, cfg.History.Endpoint), cfg.History.Table, cfg.History.TTL)
			a.recorder = db.NewRecorder(store, cfg.History.FlushInterval)
			opts.Recorder = a.recorder
			opts.History = store
		}
	}

	if cfg.KafkaEnabled() {
		producer, err := kafka_client.NewProducer(cfg.Kafka)
		if err != nil {
			slog.Warn("[App] Prediction events disabled", slog.String("error", err.Error()))
		} else {
			a.Producer = producer
			opts.Publisher = kafka_client.NewPredictionPublisher(producer, cfg.Kafka.PredictionTopic)
			a.closers = append(a.closers, producer.Close)
		}
	}
}

// Start runs the background history writer until ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.recorder == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.recorder.Run(ctx)
	}()
}

// Close waits for background work started with Start, then releases
// resources in reverse order of acquisition.
func (a *App) Close() {
	a.wg.Wait()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

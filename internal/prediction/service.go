package prediction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spacesedan/tweetclassifier/internal/classifier"
	"github.com/spacesedan/tweetclassifier/internal/clients"
	"github.com/spacesedan/tweetclassifier/internal/models"
)

var (
	ErrEmptyText         = errors.New("text is empty")
	ErrHistoryDisabled   = errors.New("prediction history is not configured")
	ErrTweetLookupAbsent = errors.New("tweet lookup is not configured")
)

type Normalizer interface {
	Normalize(raw string) string
}

type ModelRegistry interface {
	Get(ctx context.Context, id string) (classifier.Predictor, error)
	List() []models.ModelInfo
}

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type HistoryRecorder interface {
	Record(result models.PredictionResult)
}

type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]models.PredictionResult, error)
}

type EventPublisher interface {
	PublishPrediction(ctx context.Context, result models.PredictionResult) error
}

type TweetFetcher interface {
	FetchTweet(ctx context.Context, ref string) (models.Tweet, error)
}

// Options carries the optional sinks. Nil fields are skipped.
type Options struct {
	Cache     Cache
	CacheTTL  time.Duration
	Recorder  HistoryRecorder
	History   HistoryReader
	Publisher EventPublisher
	Tweets    TweetFetcher
}

// Service turns raw tweets into stored, published predictions.
type Service struct {
	normalizer Normalizer
	registry   ModelRegistry
	opts       Options
	now        func() time.Time
}

func NewService(normalizer Normalizer, registry ModelRegistry, opts Options) *Service {
	return &Service{
		normalizer: normalizer,
		registry:   registry,
		opts:       opts,
		now:        time.Now,
	}
}

func (s *Service) Normalize(raw string) string {
	return s.normalizer.Normalize(raw)
}

func (s *Service) Models() []models.ModelInfo {
	return s.registry.List()
}

func (s *Service) Classify(ctx context.Context, modelID, raw string) (models.PredictionResult, error) {
	return s.classify(ctx, modelID, raw, "")
}

// ClassifyBatch classifies texts in order. Each item fails independently, so
// errs[i] is nil when results[i] is valid.
func (s *Service) ClassifyBatch(ctx context.Context, modelID string, texts []string) ([]models.PredictionResult, []error) {
	results := make([]models.PredictionResult, len(texts))
	errs := make([]error, len(texts))
	for i, raw := range texts {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		results[i], errs[i] = s.Classify(ctx, modelID, raw)
	}
	return results, errs
}

// FetchAndClassify looks up a tweet by id or status URL and classifies its text.
func (s *Service) FetchAndClassify(ctx context.Context, modelID, ref string) (models.PredictionResult, error) {
	if s.opts.Tweets == nil {
		return models.PredictionResult{}, ErrTweetLookupAbsent
	}
	tweet, err := s.opts.Tweets.FetchTweet(ctx, ref)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("fetch tweet: %w", err)
	}
	return s.classify(ctx, modelID, tweet.Text, tweet.ID)
}

func (s *Service) Recent(ctx context.Context, limit int) ([]models.PredictionResult, error) {
	if s.opts.History == nil {
		return nil, ErrHistoryDisabled
	}
	return s.opts.History.Recent(ctx, limit)
}

func (s *Service) HistoryEnabled() bool {
	return s.opts.History != nil
}

func (s *Service) TweetLookupEnabled() bool {
	return s.opts.Tweets != nil
}

func (s *Service) classify(ctx context.Context, modelID, raw, tweetID string) (models.PredictionResult, error) {
	if strings.TrimSpace(raw) == "" {
		return models.PredictionResult{}, ErrEmptyText
	}

	normalized := s.normalizer.Normalize(raw)
	key := CacheKey(modelID, raw)

	if result, ok := s.cached(ctx, key); ok {
		result = s.stamp(result, raw, tweetID)
		result.Cached = true
		s.emit(ctx, result)
		return result, nil
	}

	predictor, err := s.registry.Get(ctx, modelID)
	if err != nil {
		return models.PredictionResult{}, err
	}

	start := time.Now()
	classification, err := predictor.Predict(ctx, models.ClassificationInput{Raw: raw, Normalized: normalized})
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("model %s: %w", modelID, err)
	}

	result := s.stamp(models.PredictionResult{
		ModelID:     modelID,
		Normalized:  normalized,
		Label:       classification.Label,
		LabelName:   classification.Label.Name(),
		Description: classification.Label.Description(),
		Confidence:  classification.Confidence,
	}, raw, tweetID)

	slog.Debug("[PredictionService] Classified tweet",
		slog.String("model", modelID),
		slog.String("label", result.LabelName),
		slog.Duration("elapsed", time.Since(start)))

	s.store(ctx, key, result)
	s.emit(ctx, result)
	return result, nil
}

func (s *Service) stamp(result models.PredictionResult, raw, tweetID string) models.PredictionResult {
	result.ID = uuid.NewString()
	result.Raw = raw
	result.TweetID = tweetID
	result.CreatedAt = s.now().UTC()
	return result
}

func (s *Service) cached(ctx context.Context, key string) (models.PredictionResult, bool) {
	var result models.PredictionResult
	if s.opts.Cache == nil {
		return result, false
	}

	data, err := s.opts.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, clients.ErrCacheMiss) {
			slog.Warn("[PredictionService] Cache lookup failed", slog.String("error", err.Error()))
		}
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		slog.Warn("[PredictionService] Ignoring unreadable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return result, false
	}
	result.Description = result.Label.Description()
	return result, true
}

func (s *Service) store(ctx context.Context, key string, result models.PredictionResult) {
	if s.opts.Cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		slog.Warn("[PredictionService] Failed to encode cache entry", slog.String("error", err.Error()))
		return
	}
	if err := s.opts.Cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		slog.Warn("[PredictionService] Cache store failed", slog.String("error", err.Error()))
	}
}

// emit hands result to the history recorder and event stream. Failures are
// logged and never reach the caller.
func (s *Service) emit(ctx context.Context, result models.PredictionResult) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.Record(result)
	}
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.PublishPrediction(ctx, result); err != nil {
			slog.Warn("[PredictionService] Failed to publish prediction event",
				slog.String("id", result.ID),
				slog.String("error", err.Error()))
		}
	}
}

// CacheKey identifies a prediction by model and raw text. Several backends
// read the raw text, so inputs that normalize alike may still differ.
func CacheKey(modelID, raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return clients.VALKEY_PREDICTION_PREFIX + modelID + ":" + hex.EncodeToString(sum[:])
}

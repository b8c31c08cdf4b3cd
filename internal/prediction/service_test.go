package prediction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spacesedan/tweetclassifier/internal/classifier"
	"github.com/spacesedan/tweetclassifier/internal/clients"
	"github.com/spacesedan/tweetclassifier/internal/models"
)

type lowerNormalizer struct{}

func (lowerNormalizer) Normalize(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

type countingPredictor struct {
	mu    sync.Mutex
	calls int
	err   error
	seen  models.ClassificationInput
}

func (p *countingPredictor) Predict(_ context.Context, in models.ClassificationInput) (models.Classification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.seen = in
	if p.err != nil {
		return models.Classification{}, p.err
	}
	return models.Classification{Label: models.LabelNews, Confidence: 0.75}, nil
}

func newRegistry(p classifier.Predictor) *classifier.Registry {
	reg := classifier.NewRegistry()
	reg.Register(classifier.Entry{
		ID:        "test",
		Name:      "Test",
		Available: true,
		Load: func(context.Context) (classifier.Predictor, error) {
			return p, nil
		},
	})
	return reg
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	ttls   map[string]time.Duration
	err    error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	v, ok := c.values[key]
	if !ok {
		return nil, clients.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

type sliceRecorder struct {
	results []models.PredictionResult
}

func (r *sliceRecorder) Record(result models.PredictionResult) {
	r.results = append(r.results, result)
}

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) PublishPrediction(context.Context, models.PredictionResult) error {
	p.calls++
	return errors.New("broker down")
}

func TestClassifyFillsResult(t *testing.T) {
	pred := &countingPredictor{}
	svc := NewService(lowerNormalizer{}, newRegistry(pred), Options{})
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	got, err := svc.Classify(context.Background(), "test", "  Breaking  NEWS ")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Label != models.LabelNews || got.LabelName != "News" || got.Description != models.LabelNews.Description() {
		t.Fatalf("label fields = %+v", got)
	}
	if got.Normalized != "breaking news" || got.Raw != "  Breaking  NEWS " {
		t.Fatalf("text fields = %+v", got)
	}
	if got.ID == "" || !got.CreatedAt.Equal(fixed) || got.Cached {
		t.Fatalf("metadata = %+v", got)
	}
	if pred.seen.Normalized != "breaking news" || pred.seen.Raw != "  Breaking  NEWS " {
		t.Fatalf("predictor saw %+v", pred.seen)
	}
}

func TestClassifyUsesCache(t *testing.T) {
	pred := &countingPredictor{}
	cache := newMemoryCache()
	svc := NewService(lowerNormalizer{}, newRegistry(pred), Options{Cache: cache, CacheTTL: time.Minute})

	first, err := svc.Classify(context.Background(), "test", "Same Text")
	if err != nil {
		t.Fatalf("first Classify: %v", err)
	}
	second, err := svc.Classify(context.Background(), "test", "Same Text")
	if err != nil {
		t.Fatalf("second Classify: %v", err)
	}

	if pred.calls != 1 {
		t.Fatalf("predictor called %d times, want 1", pred.calls)
	}
	if !second.Cached || second.ID == first.ID {
		t.Fatalf("second result should be a fresh cached result: %+v", second)
	}
	if second.Raw != "Same Text" || second.Label != first.Label || second.Description == "" {
		t.Fatalf("cached result = %+v", second)
	}
	if ttl := cache.ttls[CacheKey("test", "Same Text")]; ttl != time.Minute {
		t.Fatalf("cache ttl = %v", ttl)
	}
}

// stopwordNormalizer drops negations the way the default stopword list does.
type stopwordNormalizer struct{}

func (stopwordNormalizer) Normalize(raw string) string {
	var kept []string
	for _, tok := range strings.Fields(strings.ToLower(raw)) {
		switch tok {
		case "this", "is", "not":
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// negationPredictor reads the raw text, like the lexicon and hosted models.
type negationPredictor struct {
	calls int
}

func (p *negationPredictor) Predict(_ context.Context, in models.ClassificationInput) (models.Classification, error) {
	p.calls++
	if strings.Contains(strings.ToLower(in.Raw), "not") {
		return models.Classification{Label: models.LabelAnti, Confidence: 0.9}, nil
	}
	return models.Classification{Label: models.LabelPro, Confidence: 0.9}, nil
}

func TestCacheSeparatesRawTextsWithSameNormalization(t *testing.T) {
	pred := &negationPredictor{}
	svc := NewService(stopwordNormalizer{}, newRegistry(pred), Options{Cache: newMemoryCache(), CacheTTL: time.Minute})

	positive, err := svc.Classify(context.Background(), "test", "This is good")
	if err != nil {
		t.Fatalf("Classify positive: %v", err)
	}
	negative, err := svc.Classify(context.Background(), "test", "This is not good")
	if err != nil {
		t.Fatalf("Classify negative: %v", err)
	}

	if positive.Normalized != negative.Normalized {
		t.Fatalf("normalizations should match: %q vs %q", positive.Normalized, negative.Normalized)
	}
	if negative.Cached || negative.Label != models.LabelAnti {
		t.Fatalf("negated text served from cache: %+v", negative)
	}
	if pred.calls != 2 {
		t.Fatalf("predictor called %d times, want 2", pred.calls)
	}
}

func TestClassifySwallowsSinkErrors(t *testing.T) {
	pred := &countingPredictor{}
	cache := newMemoryCache()
	cache.err = errors.New("connection refused")
	rec := &sliceRecorder{}
	pub := &failingPublisher{}
	svc := NewService(lowerNormalizer{}, newRegistry(pred), Options{Cache: cache, Recorder: rec, Publisher: pub})

	got, err := svc.Classify(context.Background(), "test", "hello")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(rec.results) != 1 || rec.results[0].ID != got.ID {
		t.Fatalf("recorder got %+v", rec.results)
	}
	if pub.calls != 1 {
		t.Fatalf("publisher called %d times", pub.calls)
	}
}

func TestClassifyErrors(t *testing.T) {
	boom := errors.New("model exploded")
	pred := &countingPredictor{err: boom}
	svc := NewService(lowerNormalizer{}, newRegistry(pred), Options{})

	if _, err := svc.Classify(context.Background(), "test", "   "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("empty text err = %v", err)
	}
	if _, err := svc.Classify(context.Background(), "missing", "text"); !errors.Is(err, classifier.ErrUnknownModel) {
		t.Fatalf("unknown model err = %v", err)
	}
	_, err := svc.Classify(context.Background(), "test", "text")
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "test") {
		t.Fatalf("predictor err = %v, want wrapped with model id", err)
	}
}

func TestClassifyBatch(t *testing.T) {
	svc := NewService(lowerNormalizer{}, newRegistry(&countingPredictor{}), Options{})
	results, errs := svc.ClassifyBatch(context.Background(), "test", []string{"one", "", "three"})
	if len(results) != 3 || len(errs) != 3 {
		t.Fatalf("got %d results and %d errors", len(results), len(errs))
	}
	if errs[0] != nil || errs[2] != nil || !errors.Is(errs[1], ErrEmptyText) {
		t.Fatalf("errs = %v", errs)
	}
	if results[2].Normalized != "three" {
		t.Fatalf("results keep input order: %+v", results[2])
	}
}

type stubTweets struct {
	tweet models.Tweet
	err   error
}

func (s stubTweets) FetchTweet(context.Context, string) (models.Tweet, error) {
	return s.tweet, s.err
}

func TestFetchAndClassify(t *testing.T) {
	svc := NewService(lowerNormalizer{}, newRegistry(&countingPredictor{}), Options{})
	if _, err := svc.FetchAndClassify(context.Background(), "test", "1"); !errors.Is(err, ErrTweetLookupAbsent) {
		t.Fatalf("err = %v", err)
	}

	svc = NewService(lowerNormalizer{}, newRegistry(&countingPredictor{}), Options{
		Tweets: stubTweets{tweet: models.Tweet{ID: "42", Text: "Fresh REPORT"}},
	})
	got, err := svc.FetchAndClassify(context.Background(), "test", "https://x.com/a/status/42")
	if err != nil {
		t.Fatalf("FetchAndClassify: %v", err)
	}
	if got.TweetID != "42" || got.Normalized != "fresh report" {
		t.Fatalf("result = %+v", got)
	}

	svc = NewService(lowerNormalizer{}, newRegistry(&countingPredictor{}), Options{
		Tweets: stubTweets{err: clients.ErrTweetNotFound},
	})
	if _, err := svc.FetchAndClassify(context.Background(), "test", "42"); !errors.Is(err, clients.ErrTweetNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestRecentRequiresHistory(t *testing.T) {
	svc := NewService(lowerNormalizer{}, newRegistry(&countingPredictor{}), Options{})
	if _, err := svc.Recent(context.Background(), 10); !errors.Is(err, ErrHistoryDisabled) {
		t.Fatalf("err = %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("vader", "climate change")
	if !strings.HasPrefix(a, "prediction:vader:") || len(a) != len("prediction:vader:")+64 {
		t.Fatalf("CacheKey = %q", a)
	}
	if a == CacheKey("naive_bayes", "climate change") {
		t.Fatal("keys must differ per model")
	}
	if a == CacheKey("vader", "Climate change!") {
		t.Fatal("keys must differ per raw text")
	}
}

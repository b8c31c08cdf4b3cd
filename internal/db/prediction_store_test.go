package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

type fakeDynamo struct {
	mu           sync.Mutex
	items        []map[string]types.AttributeValue
	batchSizes   []int
	unprocessOne bool
	writeErr     error
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}

	out := &dynamodb.BatchWriteItemOutput{}
	for table, reqs := range in.RequestItems {
		f.batchSizes = append(f.batchSizes, len(reqs))
		if f.unprocessOne && len(reqs) > 1 {
			f.unprocessOne = false
			out.UnprocessedItems = map[string][]types.WriteRequest{table: reqs[len(reqs)-1:]}
			reqs = reqs[:len(reqs)-1]
		}
		for _, r := range reqs {
			f.items = append(f.items, r.PutRequest.Item)
		}
	}
	return out, nil
}

func (f *fakeDynamo) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.ScanOutput{Items: append([]map[string]types.AttributeValue(nil), f.items...)}, nil
}

func prediction(id string, label models.SentimentLabel, at time.Time) models.PredictionResult {
	return models.PredictionResult{
		ID:         id,
		ModelID:    "vader",
		Raw:        "raw " + id,
		Normalized: "norm " + id,
		Label:      label,
		LabelName:  label.Name(),
		Confidence: 0.5,
		CreatedAt:  at,
	}
}

func TestStorePredictionsChunksAndRetries(t *testing.T) {
	fake := &fakeDynamo{unprocessOne: true}
	store := NewPredictionStore(fake, "", time.Hour)
	store.retryBackoff = time.Millisecond

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var results []models.PredictionResult
	for i := 0; i < 30; i++ {
		results = append(results, prediction(string(rune('a'+i)), models.LabelPro, base))
	}

	if err := store.StorePredictions(context.Background(), results); err != nil {
		t.Fatalf("StorePredictions: %v", err)
	}

	if len(fake.items) != 30 {
		t.Fatalf("stored %d items, want 30", len(fake.items))
	}
	want := []int{25, 1, 5}
	if len(fake.batchSizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", fake.batchSizes, want)
	}
	for i, n := range want {
		if fake.batchSizes[i] != n {
			t.Fatalf("batch sizes = %v, want %v", fake.batchSizes, want)
		}
	}

	var item struct {
		ID        string `dynamodbav:"id"`
		ExpiresAt int64  `dynamodbav:"expires_at"`
		Label     int    `dynamodbav:"label"`
	}
	if err := attributevalue.UnmarshalMap(fake.items[0], &item); err != nil {
		t.Fatalf("UnmarshalMap: %v", err)
	}
	if item.ExpiresAt != base.Add(time.Hour).Unix() {
		t.Errorf("expires_at = %d", item.ExpiresAt)
	}
	if item.Label != 1 {
		t.Errorf("label = %d, want 1", item.Label)
	}
}

func TestStorePredictionsWriteError(t *testing.T) {
	boom := errors.New("throttled")
	store := NewPredictionStore(&fakeDynamo{writeErr: boom}, "", 0)
	err := store.StorePredictions(context.Background(), []models.PredictionResult{prediction("a", models.LabelAnti, time.Now())})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewPredictionStore(fake, "", 0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	results := []models.PredictionResult{
		prediction("old", models.LabelAnti, base),
		prediction("new", models.LabelNews, base.Add(2*time.Minute)),
		prediction("mid", models.LabelNeutral, base.Add(time.Minute)),
	}
	if err := store.StorePredictions(context.Background(), results); err != nil {
		t.Fatalf("StorePredictions: %v", err)
	}

	got, err := store.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("Recent = %+v", got)
	}
	if got[0].Label != models.LabelNews || got[0].Description != models.LabelNews.Description() {
		t.Fatalf("Recent did not restore label fields: %+v", got[0])
	}
}

type memoryWriter struct {
	mu      sync.Mutex
	batches [][]models.PredictionResult
}

func (m *memoryWriter) StorePredictions(_ context.Context, results []models.PredictionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, results)
	return nil
}

func (m *memoryWriter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func TestRecorderFlushesOnShutdown(t *testing.T) {
	w := &memoryWriter{}
	rec := NewRecorder(w, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	rec.Record(prediction("a", models.LabelPro, time.Now()))
	rec.Record(prediction("b", models.LabelPro, time.Now()))
	cancel()
	<-done

	if w.count() != 2 {
		t.Fatalf("stored %d predictions, want 2", w.count())
	}
}

func TestRecorderFlushesWhenFull(t *testing.T) {
	w := &memoryWriter{}
	rec := NewRecorder(w, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx)

	for i := 0; i < MAX_BATCH_WRITE; i++ {
		rec.Record(prediction("x", models.LabelPro, time.Now()))
	}

	deadline := time.Now().Add(2 * time.Second)
	for w.count() < MAX_BATCH_WRITE {
		if time.Now().After(deadline) {
			t.Fatalf("full buffer was not flushed, stored %d", w.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

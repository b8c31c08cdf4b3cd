package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/spacesedan/tweetclassifier/internal/models"
	"github.com/spacesedan/tweetclassifier/internal/utils"
)

type predictionWriter interface {
	StorePredictions(ctx context.Context, results []models.PredictionResult) error
}

// Recorder buffers predictions and writes them in batches, either when the
// buffer fills or on every flush interval.
type Recorder struct {
	store    predictionWriter
	buffer   *utils.BatchBuffer[models.PredictionResult]
	interval time.Duration
	full     chan struct{}
}

func NewRecorder(store predictionWriter, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Recorder{
		store:    store,
		buffer:   utils.NewBatchBuffer[models.PredictionResult](MAX_BATCH_WRITE),
		interval: interval,
		full:     make(chan struct{}, 1),
	}
}

func (r *Recorder) Record(result models.PredictionResult) {
	if r.buffer.Add(result) {
		select {
		case r.full <- struct{}{}:
		default:
		}
	}
}

// Run flushes until ctx is done, then writes whatever is left.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			r.Flush(shutdownCtx)
			cancel()
			return
		case <-ticker.C:
			r.Flush(ctx)
		case <-r.full:
			r.Flush(ctx)
		}
	}
}

func (r *Recorder) Flush(ctx context.Context) {
	batch := r.buffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	slog.Debug("[Recorder] Flushing predictions", slog.Int("batch_size", len(batch)))
	if err := r.store.StorePredictions(ctx, batch); err != nil {
		slog.Warn("[Recorder] Failed to store predictions",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()))
	}
}

package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/spacesedan/tweetclassifier/internal/models"
)

var (
	ErrUnknownModel     = errors.New("unknown model")
	ErrModelUnavailable = errors.New("model not configured")
)

// Predictor classifies a single tweet. Implementations must be safe for
// concurrent use.
type Predictor interface {
	Predict(ctx context.Context, in models.ClassificationInput) (models.Classification, error)
}

type PredictorFunc func(ctx context.Context, in models.ClassificationInput) (models.Classification, error)

func (f PredictorFunc) Predict(ctx context.Context, in models.ClassificationInput) (models.Classification, error) {
	return f(ctx, in)
}

type Loader func(ctx context.Context) (Predictor, error)

// Entry pairs a model identifier with the loader that builds its predictor.
type Entry struct {
	ID          string
	Name        string
	Description string
	Available   bool
	Load        Loader
}

// Registry resolves model identifiers to predictors. Each predictor is loaded
// at most once; a failed load is retried on the next Get. Loads run outside
// the lock, so a slow model never blocks lookups of loaded ones.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]Entry
	loaded   map[string]Predictor
	inflight map[string]*loadCall
}

// loadCall is a load in progress; done closes once p and err are set.
type loadCall struct {
	done chan struct{}
	p    Predictor
	err  error
}

func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]Entry),
		loaded:   make(map[string]Predictor),
		inflight: make(map[string]*loadCall),
	}
}

func (r *Registry) Register(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	delete(r.loaded, entry.ID)
}

func (r *Registry) Get(ctx context.Context, id string) (Predictor, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	if !entry.Available || entry.Load == nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrModelUnavailable, id)
	}
	if p, ok := r.loaded[id]; ok {
		r.mu.Unlock()
		return p, nil
	}
	if call, ok := r.inflight[id]; ok {
		r.mu.Unlock()
		select {
		case <-call.done:
			return call.p, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &loadCall{done: make(chan struct{})}
	r.inflight[id] = call
	r.mu.Unlock()

	call.p, call.err = r.load(ctx, id, entry)

	r.mu.Lock()
	delete(r.inflight, id)
	if call.err == nil {
		r.loaded[id] = call.p
	}
	r.mu.Unlock()
	close(call.done)

	return call.p, call.err
}

func (r *Registry) load(ctx context.Context, id string, entry Entry) (Predictor, error) {
	start := time.Now()
	p, err := entry.Load(ctx)
	if err != nil {
		slog.Error("[ClassifierRegistry] Failed to load model",
			slog.String("model", id),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("load model %q: %w", id, err)
	}

	slog.Info("[ClassifierRegistry] Model loaded",
		slog.String("model", id),
		slog.Duration("elapsed", time.Since(start)))
	return p, nil
}

// List returns the registered models sorted by identifier.
func (r *Registry) List() []models.ModelInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.ModelInfo, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, models.ModelInfo{
			ID:          entry.ID,
			Name:        entry.Name,
			Description: entry.Description,
			Available:   entry.Available,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close releases loaded predictors that hold native resources.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for id, p := range r.loaded {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", id, err))
			}
		}
		delete(r.loaded, id)
	}
	return errors.Join(errs...)
}

// healthTimeout bounds remote health probes.
const healthTimeout = 5 * time.Second

type healthChecker interface {
	HealthCheck(ctx context.Context) bool
}

// CheckHealth probes predictors that expose a health endpoint. Models that
// are not loaded or have no probe report healthy.
func (r *Registry) CheckHealth(ctx context.Context) map[string]bool {
	r.mu.Lock()
	loaded := make(map[string]Predictor, len(r.loaded))
	for id, p := range r.loaded {
		loaded[id] = p
	}
	r.mu.Unlock()

	out := make(map[string]bool, len(loaded))
	for id, p := range loaded {
		hc, ok := p.(healthChecker)
		if !ok {
			out[id] = true
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		out[id] = hc.HealthCheck(probeCtx)
		cancel()
	}
	return out
}

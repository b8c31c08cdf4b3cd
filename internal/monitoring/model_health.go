package monitoring

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const HEALTHCHECK_TIMER = 15 * time.Second

type healthProber interface {
	CheckHealth(ctx context.Context) map[string]bool
}

// ModelHealth periodically probes the loaded models and keeps the latest
// result for the health endpoint.
type ModelHealth struct {
	prober   healthProber
	interval time.Duration

	mu     sync.RWMutex
	status map[string]bool
}

func NewModelHealth(prober healthProber, interval time.Duration) *ModelHealth {
	if interval <= 0 {
		interval = HEALTHCHECK_TIMER
	}
	return &ModelHealth{
		prober:   prober,
		interval: interval,
		status:   map[string]bool{},
	}
}

func (m *ModelHealth) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

func (m *ModelHealth) Probe(ctx context.Context) {
	status := m.prober.CheckHealth(ctx)
	for id, healthy := range status {
		if !healthy {
			slog.Warn("[HealthCheck] Model is unhealthy", slog.String("model", id))
		}
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

// Status returns a copy of the latest probe results.
func (m *ModelHealth) Status() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]bool, len(m.status))
	for id, healthy := range m.status {
		out[id] = healthy
	}
	return out
}

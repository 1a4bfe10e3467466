package stats

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adrian-moloca/clinicache/pkg/cachestore"
)

// Tracker maintains the shared hit/miss counters. Recording is strictly
// best-effort: a failed increment is logged at debug level and dropped,
// it never slows down or fails a read.
type Tracker struct {
	backend cachestore.Backend
	logger  zerolog.Logger
}

// NewTracker creates a tracker over the shared backend.
func NewTracker(backend cachestore.Backend, logger zerolog.Logger) *Tracker {
	return &Tracker{
		backend: backend,
		logger:  logger,
	}
}

// RecordHits adds n cache hits to the shared counter.
func (t *Tracker) RecordHits(ctx context.Context, n int) {
	t.record(ctx, KeyHits, n)
}

// RecordMisses adds n cache misses to the shared counter.
func (t *Tracker) RecordMisses(ctx context.Context, n int) {
	t.record(ctx, KeyMisses, n)
}

func (t *Tracker) record(ctx context.Context, key string, n int) {
	for i := 0; i < n; i++ {
		if _, err := t.backend.Incr(ctx, key); err != nil {
			t.logger.Debug().Err(err).Str("key", key).Msg("Stats increment dropped")
			return
		}
	}
}

// Snapshot reads the shared counters and evaluates health.
func (t *Tracker) Snapshot(ctx context.Context) (*CacheStats, error) {
	vals, err := t.backend.MGet(ctx, []string{KeyHits, KeyMisses})
	if err != nil {
		return nil, err
	}

	s := &CacheStats{
		Hits:       parseCounter(vals[0]),
		Misses:     parseCounter(vals[1]),
		LastUpdate: time.Now(),
	}
	s.UpdateHealth()
	return s, nil
}

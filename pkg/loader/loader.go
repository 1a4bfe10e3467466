// Package loader provides the request-scoped batch loader: individual
// lookups issued within a short coalescing window collapse into one bulk
// fetch per loader kind, preventing N+1 query patterns.
package loader

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adrian-moloca/clinicache/pkg/logging"
)

// BatchFunc fetches values for a batch of distinct keys in one call.
// Keys absent from the returned map resolve as "not found". A non-nil
// error alongside a non-empty map is treated as a partial result:
// returned keys resolve normally, absent keys resolve as "not found".
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Config holds loader tuning knobs.
type Config struct {
	// Delay is the coalescing window: a batch closes this long after
	// its first enqueue. Must be smaller than any caller's timeout
	// budget.
	Delay time.Duration

	// MaxBatchSize closes a batch early once this many distinct keys
	// are pending.
	MaxBatchSize int
}

// DefaultConfig returns the loader defaults.
func DefaultConfig() Config {
	return Config{
		Delay:        10 * time.Millisecond,
		MaxBatchSize: 100,
	}
}

// Result is one positional outcome of a LoadMany call.
type Result[V any] struct {
	Value V
	Found bool
}

// Loader coalesces Load calls for one loader kind. Construct one instance
// per inbound request and discard it with the request: no batch, dedup, or
// result state survives the request boundary.
type Loader[K comparable, V any] struct {
	kind   string
	fetch  BatchFunc[K, V]
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	pending *batch[K, V]
}

// batch accumulates distinct keys until the window closes or the batch
// fills, then resolves every waiter from one bulk fetch.
type batch[K comparable, V any] struct {
	ctx        context.Context // context of the first enqueuer
	keys       []K             // distinct, in submission order
	seen       map[K]struct{}
	timer      *time.Timer
	done       chan struct{}
	dispatched bool
	results    map[K]V
	err        error
}

// New creates a loader for one kind of lookup.
func New[K comparable, V any](kind string, fetch BatchFunc[K, V], cfg Config) *Loader[K, V] {
	if fetch == nil {
		panic("loader fetch func cannot be nil")
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultConfig().MaxBatchSize
	}
	return &Loader[K, V]{
		kind:   kind,
		fetch:  fetch,
		cfg:    cfg,
		logger: logging.NewLogger("loader").With().Str("kind", kind).Logger(),
	}
}

// Load enqueues key into the current batch and blocks until the batch
// resolves. Returns found=false for keys absent from the fetch result.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	var zero V

	b := l.enqueue(ctx, key)

	select {
	case <-b.done:
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}

	if b.err != nil {
		return zero, false, b.err
	}
	v, ok := b.results[key]
	if !ok {
		return zero, false, nil
	}
	return v, true, nil
}

// LoadMany enqueues all keys and blocks until every involved batch
// resolves. The returned slice is aligned with keys: same length, same
// order, with a not-found placeholder for absent keys. An empty key
// slice resolves immediately without a fetch.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]Result[V], error) {
	if len(keys) == 0 {
		return nil, nil
	}

	// Enqueue everything first so all keys can share one batch, then
	// wait. Duplicate keys join the batch they first landed in.
	batches := make([]*batch[K, V], len(keys))
	for i, k := range keys {
		batches[i] = l.enqueue(ctx, k)
	}

	out := make([]Result[V], len(keys))
	for i, k := range keys {
		b := batches[i]
		select {
		case <-b.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if b.err != nil {
			return nil, b.err
		}
		if v, ok := b.results[k]; ok {
			out[i] = Result[V]{Value: v, Found: true}
		}
	}
	return out, nil
}

// enqueue adds key to the pending batch, starting a new one if none is
// open or the previous one already dispatched.
func (l *Loader[K, V]) enqueue(ctx context.Context, key K) *batch[K, V] {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.pending
	if b == nil {
		b = &batch[K, V]{
			ctx:  ctx,
			seen: make(map[K]struct{}),
			done: make(chan struct{}),
		}
		l.pending = b
		b.timer = time.AfterFunc(l.cfg.Delay, func() {
			l.dispatch(b, "timer")
		})
	}

	if _, dup := b.seen[key]; !dup {
		b.seen[key] = struct{}{}
		b.keys = append(b.keys, key)
		// The window closes only after the delay elapses with no new
		// enqueues.
		b.timer.Reset(l.cfg.Delay)
	}

	if len(b.keys) >= l.cfg.MaxBatchSize {
		b.timer.Stop()
		l.pending = nil
		go l.dispatch(b, "size")
	}

	return b
}

// dispatch runs the bulk fetch for a closed batch and resolves every
// waiter. A failed fetch fails all waiters with the same error unless the
// fetch returned partial results, in which case returned keys resolve
// normally and the rest resolve as "not found".
func (l *Loader[K, V]) dispatch(b *batch[K, V], trigger string) {
	l.mu.Lock()
	if b.dispatched {
		// The timer and the size trigger can race; only one wins.
		l.mu.Unlock()
		return
	}
	b.dispatched = true
	if l.pending == b {
		l.pending = nil
	}
	l.mu.Unlock()

	defer close(b.done)

	start := time.Now()
	results, err := l.fetch(b.ctx, b.keys)

	batchSize.WithLabelValues(l.kind).Observe(float64(len(b.keys)))
	dispatches.WithLabelValues(l.kind, trigger).Inc()

	if err != nil {
		if len(results) > 0 {
			l.logger.Warn().
				Err(err).
				Int("batch_size", len(b.keys)).
				Int("resolved", len(results)).
				Msg("Partial batch result, unresolved keys treated as not found")
			b.results = results
			return
		}
		l.logger.Warn().
			Err(err).
			Int("batch_size", len(b.keys)).
			Msg("Batch fetch failed")
		batchErrors.WithLabelValues(l.kind).Inc()
		b.err = err
		return
	}

	l.logger.Debug().
		Int("batch_size", len(b.keys)).
		Int("resolved", len(results)).
		Str("trigger", trigger).
		Dur("duration", time.Since(start)).
		Msg("Batch dispatched")

	b.results = results
}

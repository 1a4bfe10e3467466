package readcache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/adrian-moloca/clinicache/pkg/cachestore"
	"github.com/adrian-moloca/clinicache/pkg/logging"
)

var (
	// ErrInvalidEntry indicates a cached value that could not be decoded.
	ErrInvalidEntry = errors.New("readcache: invalid cache entry")
)

// Category is a resource category with its own default TTL.
type Category string

const (
	// CategoryEntity covers single-entity keys.
	CategoryEntity Category = "entity"

	// CategoryList covers cached list pages.
	CategoryList Category = "list"

	// CategoryStats covers derived statistics.
	CategoryStats Category = "stats"
)

// healthCheckTimeout bounds the HealthCheck round-trip.
const healthCheckTimeout = 5 * time.Second

// TTLConfig holds the default TTL per resource category.
type TTLConfig struct {
	Entity  time.Duration
	List    time.Duration
	Stats   time.Duration
	Default time.Duration // for unknown categories
}

// DefaultTTLConfig returns the TTLs documented in the service runbook.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Entity:  5 * time.Minute,
		List:    30 * time.Second,
		Stats:   2 * time.Minute,
		Default: 60 * time.Second,
	}
}

// Health reports the outcome of a backend round-trip.
type Health struct {
	Status    string `json:"status"` // "healthy" or "degraded"
	LatencyMs int64  `json:"latency_ms"`
}

const (
	// StatusHealthy means the backend answered within the timeout.
	StatusHealthy = "healthy"

	// StatusDegraded means the backend timed out or errored. The cache
	// keeps operating as a pass-through in this state.
	StatusDegraded = "degraded"
)

// Cache is the read-through cache shared by the read services. Every
// backend failure is swallowed and logged: the cache is a latency
// optimization, never a correctness dependency.
type Cache struct {
	backend cachestore.Backend
	ttls    TTLConfig
	group   singleflight.Group
	logger  zerolog.Logger
}

// New creates a read-through cache over the given backend.
func New(backend cachestore.Backend, ttls TTLConfig) *Cache {
	if backend == nil {
		panic("cache backend cannot be nil")
	}
	return &Cache{
		backend: backend,
		ttls:    ttls,
		logger:  logging.NewLogger("readcache"),
	}
}

// TTLFor returns the configured TTL for a resource category, falling back
// to the default for unknown categories. It never fails.
func (c *Cache) TTLFor(category Category) time.Duration {
	switch category {
	case CategoryEntity:
		return c.ttls.Entity
	case CategoryList:
		return c.ttls.List
	case CategoryStats:
		return c.ttls.Stats
	default:
		return c.ttls.Default
	}
}

// Get returns the raw cached value for key. Backend errors degrade to a
// miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.backend.Get(ctx, key)
	if err == cachestore.ErrKeyNotFound {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache get error")
		return nil, false
	}
	return data, true
}

// Set stores value under key. Failures are logged, never raised: the next
// read simply misses.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.backend.Set(ctx, key, value, ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Dur("ttl", ttl).Msg("Cache set error")
	}
}

// MGet returns raw values aligned with keys; absent keys yield nil.
// A backend error degrades every key to a miss.
func (c *Cache) MGet(ctx context.Context, keys []string) [][]byte {
	if len(keys) == 0 {
		return nil
	}
	vals, err := c.backend.MGet(ctx, keys)
	if err != nil {
		c.logger.Warn().Err(err).Int("keys", len(keys)).Msg("Cache mget error")
		return make([][]byte, len(keys))
	}
	return vals
}

// MSet stores all entries. Failures are logged, never raised.
func (c *Cache) MSet(ctx context.Context, entries []cachestore.Entry) {
	if len(entries) == 0 {
		return
	}
	if err := c.backend.MSet(ctx, entries); err != nil {
		c.logger.Warn().Err(err).Int("entries", len(entries)).Msg("Cache mset error")
	}
}

// GetOrSet returns the cached value for key, or runs producer and caches
// its result. At most one producer runs per key within this process:
// concurrent callers for the same cold key wait on the in-flight fetch
// and share its result. Producer errors are not cached.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(ctx, key); ok {
		return data, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Re-check inside the flight: another caller may have populated
		// the key while this one waited for the lock.
		if data, ok := c.Get(ctx, key); ok {
			return data, nil
		}
		data, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, data, ttl)
		return data, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			sharedFlights.Inc()
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate removes one entity from the cache: the bare key plus every
// projected variant. Best-effort.
func (c *Cache) Invalidate(ctx context.Context, resource, id string) {
	key := EntityKey(resource, id, nil)
	if err := c.backend.Delete(ctx, key); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache invalidate error")
	}
	if _, err := c.backend.DeletePrefix(ctx, EntityPrefix(resource, id)); err != nil {
		c.logger.Warn().Err(err).Str("resource", resource).Str("id", id).Msg("Cache invalidate prefix error")
	}
	invalidations.WithLabelValues("entity").Inc()
}

// InvalidateList removes every cached list page of the resource type.
// Best-effort.
func (c *Cache) InvalidateList(ctx context.Context, resource string) {
	n, err := c.backend.DeletePrefix(ctx, ListPrefix(resource))
	if err != nil {
		c.logger.Warn().Err(err).Str("resource", resource).Msg("Cache list invalidate error")
		return
	}
	c.logger.Debug().Str("resource", resource).Int("deleted", n).Msg("List cache invalidated")
	invalidations.WithLabelValues("list").Inc()
}

// InvalidateRelated invalidates both sides of a join-like resource (e.g.
// an assignment linking a clinic to an organization) plus their list
// families.
func (c *Cache) InvalidateRelated(ctx context.Context, resourceA, idA, resourceB, idB string) {
	c.Invalidate(ctx, resourceA, idA)
	c.InvalidateList(ctx, resourceA)
	c.Invalidate(ctx, resourceB, idB)
	c.InvalidateList(ctx, resourceB)
}

// HealthCheck issues a bounded backend round-trip. Timeouts and errors
// degrade the status instead of propagating.
func (c *Cache) HealthCheck(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	latency, err := c.backend.Ping(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Cache backend health check failed")
		return Health{Status: StatusDegraded}
	}
	return Health{Status: StatusHealthy, LatencyMs: latency.Milliseconds()}
}

// GetTyped returns the decoded cached value for key. Decode failures
// degrade to a miss so a schema change never breaks reads.
func GetTyped[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	data, ok := c.Get(ctx, key)
	if !ok {
		return zero, false
	}
	v, err := Decode[T](data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache decode error")
		return zero, false
	}
	return v, true
}

// SetTyped encodes and stores a value. Encode failures are logged and
// dropped.
func SetTyped[T any](ctx context.Context, c *Cache, key string, v T, ttl time.Duration) {
	data, err := Encode(v)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache encode error")
		return
	}
	c.Set(ctx, key, data, ttl)
}

// GetOrSet is the typed single-flight read-through: at most one producer
// invocation per cold key, all concurrent callers share its result.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	var zero T
	data, err := c.GetOrSet(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		return Encode(v)
	})
	if err != nil {
		return zero, err
	}
	v, err := Decode[T](data)
	if err != nil {
		// A corrupted entry must not fail the read: drop it and fall
		// back to the producer directly.
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache decode error, bypassing cache")
		_ = c.backend.Delete(ctx, key)
		return producer(ctx)
	}
	return v, nil
}

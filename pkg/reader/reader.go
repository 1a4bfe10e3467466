// Package reader provides the per-resource read service: a facade that
// combines the read-through cache, the batch loader, and the pagination
// engine into the read path the API handlers call.
package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/adrian-moloca/clinicache/pkg/cachestore"
	"github.com/adrian-moloca/clinicache/pkg/loader"
	"github.com/adrian-moloca/clinicache/pkg/logging"
	"github.com/adrian-moloca/clinicache/pkg/pagination"
	"github.com/adrian-moloca/clinicache/pkg/readcache"
	"github.com/adrian-moloca/clinicache/pkg/stats"
	"github.com/adrian-moloca/clinicache/pkg/store"
)

// Prometheus metrics for read operations.
var (
	readsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clinicache_reads_total",
		Help: "Total read operations by resource, operation and outcome",
	}, []string{"resource", "op", "outcome"})

	readDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clinicache_read_duration_seconds",
		Help:    "Read operation duration in seconds by resource and operation",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"resource", "op"})
)

// Reader serves all reads for one resource kind. Writes go elsewhere; the
// write path only calls the Invalidate hooks after committing.
type Reader[T store.Record] struct {
	resource  string
	coll      store.Collection[T]
	cache     *readcache.Cache
	engine    *pagination.Engine[T]
	tracker   *stats.Tracker
	loaderCfg loader.Config
	logger    zerolog.Logger
}

// Config holds the reader collaborators and tuning.
type Config struct {
	// Cache is the shared read-through cache. Required.
	Cache *readcache.Cache

	// Tracker records fleet-wide hit/miss counters. Optional.
	Tracker *stats.Tracker

	// Pagination tunes the list engine.
	Pagination pagination.Config

	// Loader tunes the per-request batch loaders.
	Loader loader.Config
}

// New creates a reader for one resource kind.
func New[T store.Record](resource string, coll store.Collection[T], cfg Config) (*Reader[T], error) {
	if resource == "" {
		return nil, fmt.Errorf("resource name is required")
	}
	if coll == nil {
		return nil, fmt.Errorf("collection is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if cfg.Loader.Delay == 0 && cfg.Loader.MaxBatchSize == 0 {
		cfg.Loader = loader.DefaultConfig()
	}

	return &Reader[T]{
		resource:  resource,
		coll:      coll,
		cache:     cfg.Cache,
		engine:    pagination.NewEngine[T](coll, cfg.Pagination),
		tracker:   cfg.Tracker,
		loaderCfg: cfg.Loader,
		logger:    logging.NewLogger("reader").With().Str("resource", resource).Logger(),
	}, nil
}

// Get returns one entity by id, read-through cached. Misses are never
// cached: the next read for an absent id goes to the store again.
func (r *Reader[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T

	start := time.Now()
	defer func() {
		readDuration.WithLabelValues(r.resource, "get").Observe(time.Since(start).Seconds())
	}()

	key := readcache.EntityKey(r.resource, id, nil)
	missed := false

	v, err := readcache.GetOrSet(ctx, r.cache, key, r.cache.TTLFor(readcache.CategoryEntity), func(ctx context.Context) (T, error) {
		missed = true
		row, found, err := r.coll.FindByID(ctx, id)
		if err != nil {
			return row, err
		}
		if !found {
			return row, errNotFound
		}
		return row, nil
	})
	if err != nil {
		if errors.Is(err, errNotFound) {
			r.recordMisses(ctx, 1)
			readsTotal.WithLabelValues(r.resource, "get", "not_found").Inc()
			return zero, false, nil
		}
		readsTotal.WithLabelValues(r.resource, "get", "error").Inc()
		return zero, false, r.wrap("get", ErrorClassStore, err)
	}

	if missed {
		r.recordMisses(ctx, 1)
		readsTotal.WithLabelValues(r.resource, "get", "miss").Inc()
	} else {
		r.recordHits(ctx, 1)
		readsTotal.WithLabelValues(r.resource, "get", "hit").Inc()
	}
	return v, true, nil
}

// ListOffset serves one offset-mode page, read-through cached. Parameter
// validation runs before any cache traffic so bad requests cost nothing.
func (r *Reader[T]) ListOffset(ctx context.Context, filter store.Filter, limit, offset int, fields []string) (*pagination.OffsetPage[T], error) {
	start := time.Now()
	defer func() {
		readDuration.WithLabelValues(r.resource, "list_offset").Observe(time.Since(start).Seconds())
	}()

	limit, err := r.engine.ClampLimit(limit)
	if err != nil {
		readsTotal.WithLabelValues(r.resource, "list_offset", "invalid").Inc()
		return nil, r.wrap("list_offset", ErrorClassValidation, err)
	}
	if offset < 0 {
		readsTotal.WithLabelValues(r.resource, "list_offset", "invalid").Inc()
		return nil, r.wrap("list_offset", ErrorClassValidation,
			&pagination.ValidationError{Field: "offset", Message: fmt.Sprintf("must be >= 0 (got %d)", offset)})
	}

	// Page parameters ride inside the filter segment of the key, so every
	// (filter, limit, offset, fields) combination caches independently.
	key := readcache.ListKey(r.resource, pageFilterJSON(filter, map[string]any{
		"$limit":  limit,
		"$offset": offset,
	}), fields)

	missed := false
	page, err := readcache.GetOrSet(ctx, r.cache, key, r.cache.TTLFor(readcache.CategoryList), func(ctx context.Context) (*pagination.OffsetPage[T], error) {
		missed = true
		return r.engine.Offset(ctx, filter, limit, offset, fields)
	})
	if err != nil {
		readsTotal.WithLabelValues(r.resource, "list_offset", "error").Inc()
		return nil, r.wrap("list_offset", ErrorClassStore, err)
	}

	r.recordPageOutcome(ctx, "list_offset", missed)
	return page, nil
}

// ListCursor serves one cursor-mode page, read-through cached. The token
// is validated before any cache traffic.
func (r *Reader[T]) ListCursor(ctx context.Context, filter store.Filter, limit int, token string, fields []string) (*pagination.CursorPage[T], error) {
	start := time.Now()
	defer func() {
		readDuration.WithLabelValues(r.resource, "list_cursor").Observe(time.Since(start).Seconds())
	}()

	limit, err := r.engine.ClampLimit(limit)
	if err != nil {
		readsTotal.WithLabelValues(r.resource, "list_cursor", "invalid").Inc()
		return nil, r.wrap("list_cursor", ErrorClassValidation, err)
	}
	if err := pagination.ValidateCursor(token); err != nil {
		readsTotal.WithLabelValues(r.resource, "list_cursor", "invalid").Inc()
		return nil, r.wrap("list_cursor", ErrorClassValidation, err)
	}

	key := readcache.ListKey(r.resource, pageFilterJSON(filter, map[string]any{
		"$limit":  limit,
		"$cursor": token,
	}), fields)

	missed := false
	page, err := readcache.GetOrSet(ctx, r.cache, key, r.cache.TTLFor(readcache.CategoryList), func(ctx context.Context) (*pagination.CursorPage[T], error) {
		missed = true
		return r.engine.Cursor(ctx, filter, limit, token, fields)
	})
	if err != nil {
		readsTotal.WithLabelValues(r.resource, "list_cursor", "error").Inc()
		return nil, r.wrap("list_cursor", ErrorClassStore, err)
	}

	r.recordPageOutcome(ctx, "list_cursor", missed)
	return page, nil
}

// NewByIDLoader creates a request-scoped batch loader over this resource.
// Construct one per inbound request and discard it with the request.
func (r *Reader[T]) NewByIDLoader() *loader.Loader[string, T] {
	return loader.New(r.resource+"_by_id", r.batchFetch, r.loaderCfg)
}

// batchFetch resolves a batch of ids: cached entities first, one bulk
// store query for the rest, write-back for whatever the store returned.
func (r *Reader[T]) batchFetch(ctx context.Context, ids []string) (map[string]T, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = readcache.EntityKey(r.resource, id, nil)
	}

	out := make(map[string]T, len(ids))
	var missIDs []string
	for i, raw := range r.cache.MGet(ctx, keys) {
		if raw == nil {
			missIDs = append(missIDs, ids[i])
			continue
		}
		v, err := readcache.Decode[T](raw)
		if err != nil {
			missIDs = append(missIDs, ids[i])
			continue
		}
		out[ids[i]] = v
	}

	if hits := len(ids) - len(missIDs); hits > 0 {
		r.recordHits(ctx, hits)
	}
	if len(missIDs) == 0 {
		return out, nil
	}
	r.recordMisses(ctx, len(missIDs))

	rows, err := r.coll.FindManyByIDs(ctx, missIDs)
	if err != nil {
		// Cached entities still resolve; the loader treats this as a
		// partial result when out is non-empty.
		return out, r.wrap("batch_fetch", ErrorClassStore, err)
	}

	ttl := r.cache.TTLFor(readcache.CategoryEntity)
	entries := make([]cachestore.Entry, 0, len(rows))
	for _, row := range rows {
		out[row.RecordID()] = row
		data, err := readcache.Encode(row)
		if err != nil {
			r.logger.Warn().Err(err).Str("id", row.RecordID()).Msg("Entity encode failed, skipping write-back")
			continue
		}
		entries = append(entries, cachestore.Entry{
			Key:   readcache.EntityKey(r.resource, row.RecordID(), nil),
			Value: data,
			TTL:   ttl,
		})
	}
	r.cache.MSet(ctx, entries)

	r.logger.Debug().
		Int("batch_size", len(ids)).
		Int("cache_hits", len(ids)-len(missIDs)).
		Int("store_rows", len(rows)).
		Msg("Batch resolved")

	return out, nil
}

// InvalidateOnWrite drops the entity and every cached list page of this
// resource. The write path calls it after committing a create, update or
// delete.
func (r *Reader[T]) InvalidateOnWrite(ctx context.Context, id string) {
	r.cache.Invalidate(ctx, r.resource, id)
	r.cache.InvalidateList(ctx, r.resource)
}

// InvalidateRelatedOnWrite drops both sides of a relation change, e.g. an
// assignment linking a clinic to an organization.
func (r *Reader[T]) InvalidateRelatedOnWrite(ctx context.Context, id, relatedResource, relatedID string) {
	r.cache.InvalidateRelated(ctx, r.resource, id, relatedResource, relatedID)
}

// Health reports the cache backend health as seen by this reader.
func (r *Reader[T]) Health(ctx context.Context) readcache.Health {
	return r.cache.HealthCheck(ctx)
}

func (r *Reader[T]) recordPageOutcome(ctx context.Context, op string, missed bool) {
	if missed {
		r.recordMisses(ctx, 1)
		readsTotal.WithLabelValues(r.resource, op, "miss").Inc()
	} else {
		r.recordHits(ctx, 1)
		readsTotal.WithLabelValues(r.resource, op, "hit").Inc()
	}
}

func (r *Reader[T]) recordHits(ctx context.Context, n int) {
	if r.tracker != nil {
		r.tracker.RecordHits(ctx, n)
	}
}

func (r *Reader[T]) recordMisses(ctx context.Context, n int) {
	if r.tracker != nil {
		r.tracker.RecordMisses(ctx, n)
	}
}

func (r *Reader[T]) wrap(op string, class ErrorClass, err error) error {
	return &ReadError{Resource: r.resource, Op: op, Class: class, Err: err}
}

// pageFilterJSON merges page parameters into the filter and renders the
// canonical JSON used in list cache keys. Parameter names carry a "$"
// prefix so they can never collide with entity field names.
func pageFilterJSON(filter store.Filter, params map[string]any) string {
	merged := make(store.Filter, len(filter)+len(params))
	for k, v := range filter {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged.CanonicalJSON()
}

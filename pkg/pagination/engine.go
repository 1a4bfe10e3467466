package pagination

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/adrian-moloca/clinicache/pkg/logging"
	"github.com/adrian-moloca/clinicache/pkg/store"
)

// Config holds the engine tuning knobs.
type Config struct {
	// MaxLimit caps the page size. Limits above it are clamped down.
	MaxLimit int

	// CountEstimation enables the approximate count path for unfiltered
	// queries against large collections.
	CountEstimation bool

	// EstimateMinSize is the estimated collection size above which the
	// approximate count replaces the exact one.
	EstimateMinSize int64
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxLimit:        100,
		CountEstimation: true,
		EstimateMinSize: 100_000,
	}
}

// OffsetMeta is the metadata of an offset-mode page.
type OffsetMeta struct {
	Total           int64 `json:"total" msgpack:"total"`
	Page            int   `json:"page" msgpack:"page"`
	Limit           int   `json:"limit" msgpack:"limit"`
	TotalPages      int64 `json:"totalPages" msgpack:"total_pages"`
	HasNextPage     bool  `json:"hasNextPage" msgpack:"has_next_page"`
	HasPreviousPage bool  `json:"hasPreviousPage" msgpack:"has_previous_page"`
	IsEstimate      bool  `json:"isEstimate" msgpack:"is_estimate"`
}

// OffsetPage is one offset-mode page of results.
type OffsetPage[T any] struct {
	Data []T        `json:"data" msgpack:"data"`
	Meta OffsetMeta `json:"meta" msgpack:"meta"`
}

// CursorMeta is the metadata of a cursor-mode page. Cursor mode never
// reports an absolute total.
type CursorMeta struct {
	NextCursor string `json:"nextCursor" msgpack:"next_cursor"`
	HasMore    bool   `json:"hasMore" msgpack:"has_more"`
	Limit      int    `json:"limit" msgpack:"limit"`
}

// CursorPage is one cursor-mode page of results.
type CursorPage[T any] struct {
	Data []T        `json:"data" msgpack:"data"`
	Meta CursorMeta `json:"meta" msgpack:"meta"`
}

// Engine serves offset and cursor pages over one collection, in strictly
// descending (sortValue, id) order.
type Engine[T store.Record] struct {
	coll   store.Collection[T]
	cfg    Config
	logger zerolog.Logger
}

// NewEngine creates a pagination engine over a collection.
func NewEngine[T store.Record](coll store.Collection[T], cfg Config) *Engine[T] {
	if coll == nil {
		panic("pagination collection cannot be nil")
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultConfig().MaxLimit
	}
	return &Engine[T]{
		coll:   coll,
		cfg:    cfg,
		logger: logging.NewLogger("pagination"),
	}
}

// ClampLimit validates and clamps a requested page size to [1, MaxLimit].
// Non-positive limits are rejected rather than silently corrected.
func (e *Engine[T]) ClampLimit(limit int) (int, error) {
	if limit <= 0 {
		return 0, &ValidationError{Field: "limit", Message: fmt.Sprintf("must be >= 1 (got %d)", limit)}
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit, nil
	}
	return limit, nil
}

// Offset serves an offset-mode page: rows plus total/page bookkeeping.
func (e *Engine[T]) Offset(ctx context.Context, filter store.Filter, limit, offset int, fields []string) (*OffsetPage[T], error) {
	limit, err := e.ClampLimit(limit)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, &ValidationError{Field: "offset", Message: fmt.Sprintf("must be >= 0 (got %d)", offset)}
	}

	total, isEstimate, err := e.count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}

	rows, err := e.coll.FindMany(ctx, filter, store.FindOptions{
		Skip:   offset,
		Limit:  limit,
		Fields: fields,
	})
	if err != nil {
		return nil, fmt.Errorf("find rows: %w", err)
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	page := &OffsetPage[T]{
		Data: rows,
		Meta: OffsetMeta{
			Total:           total,
			Page:            offset/limit + 1,
			Limit:           limit,
			TotalPages:      totalPages,
			HasNextPage:     int64(offset+limit) < total,
			HasPreviousPage: offset > 0,
			IsEstimate:      isEstimate,
		},
	}

	e.logger.Debug().
		Int("limit", limit).
		Int("offset", offset).
		Int64("total", total).
		Bool("is_estimate", isEstimate).
		Msg("Offset page served")

	return page, nil
}

// Cursor serves a cursor-mode page. An empty token starts the scan from
// the newest row. limit+1 rows are fetched so hasMore needs no second
// count query; the extra row is dropped and its predecessor becomes the
// next cursor position.
func (e *Engine[T]) Cursor(ctx context.Context, filter store.Filter, limit int, token string, fields []string) (*CursorPage[T], error) {
	limit, err := e.ClampLimit(limit)
	if err != nil {
		return nil, err
	}

	var before *store.CursorClause
	if token != "" {
		before, err = decodeCursor(token)
		if err != nil {
			return nil, err
		}
	}

	rows, err := e.coll.FindMany(ctx, filter, store.FindOptions{
		Limit:  limit + 1,
		Fields: fields,
		Before: before,
	})
	if err != nil {
		return nil, fmt.Errorf("find rows: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	var nextCursor string
	if hasMore {
		last := rows[len(rows)-1]
		nextCursor = encodeCursor(last.RecordSortValue(), last.RecordID())
	}

	e.logger.Debug().
		Int("limit", limit).
		Int("rows", len(rows)).
		Bool("has_more", hasMore).
		Msg("Cursor page served")

	return &CursorPage[T]{
		Data: rows,
		Meta: CursorMeta{
			NextCursor: nextCursor,
			HasMore:    hasMore,
			Limit:      limit,
		},
	}, nil
}

// count picks between the exact and the estimated count. The estimate is
// used only when the filter selects the whole collection, estimation is
// enabled, and the collection is large enough that an exact count hurts;
// any filtered query always counts exactly.
func (e *Engine[T]) count(ctx context.Context, filter store.Filter) (int64, bool, error) {
	if e.cfg.CountEstimation && filter.IsEmpty() {
		est, err := e.coll.EstimatedCount(ctx)
		if err != nil {
			e.logger.Warn().Err(err).Msg("Count estimate failed, falling back to exact count")
		} else if est >= e.cfg.EstimateMinSize {
			countModes.WithLabelValues("estimate").Inc()
			return est, true, nil
		}
	}

	total, err := e.coll.Count(ctx, filter)
	if err != nil {
		return 0, false, err
	}
	countModes.WithLabelValues("exact").Inc()
	return total, false, nil
}

// Package store defines the primary-store collaborator contract. The core
// treats the store as an opaque collection supporting filtered find, count,
// and id-based lookup; query execution lives behind this boundary.
package store

import (
	"context"
	"encoding/json"
)

// Filter is a set of field conditions combined with AND semantics.
type Filter map[string]any

// CanonicalJSON renders the filter as deterministic JSON: object keys are
// emitted in sorted order regardless of insertion order, so two logically
// identical filters always produce the same string. Used for cache keys.
func (f Filter) CanonicalJSON() string {
	if len(f) == 0 {
		return "{}"
	}
	data, err := json.Marshal(f)
	if err != nil {
		// Filters are built from request parameters; a value json cannot
		// encode is a programming error.
		panic("store: filter is not JSON-encodable: " + err.Error())
	}
	return string(data)
}

// IsEmpty reports whether the filter selects the whole collection.
func (f Filter) IsEmpty() bool {
	return len(f) == 0
}

// CursorClause restricts a scan to rows strictly before a position in
// (sortValue desc, id desc) order: sortValue < SortValue OR
// (sortValue == SortValue AND id < ID).
type CursorClause struct {
	SortValue int64
	ID        string
}

// FindOptions shape a FindMany call. Rows are always returned in
// (sortValue desc, id desc) order.
type FindOptions struct {
	// Skip is the number of leading rows to drop (offset mode).
	Skip int

	// Limit caps the number of rows returned; zero means no cap.
	Limit int

	// Fields restricts the returned attributes. An empty selection
	// returns whole rows. Projection never affects ordering or counts.
	Fields []string

	// Before, when set, resumes a cursor scan strictly after the
	// encoded position.
	Before *CursorClause
}

// Record is what the pagination engine and loaders need from a stored row:
// a unique id and a monotonically comparable sort value (creation time in
// unix milliseconds for all practice-management resources).
type Record interface {
	RecordID() string
	RecordSortValue() int64
}

// Collection is the opaque primary-store contract for one resource kind.
type Collection[T Record] interface {
	// FindMany returns rows matching filter, shaped by opts, in
	// (sortValue desc, id desc) order.
	FindMany(ctx context.Context, filter Filter, opts FindOptions) ([]T, error)

	// FindByID returns the row with the given id, or found=false.
	FindByID(ctx context.Context, id string) (T, bool, error)

	// FindManyByIDs returns the rows for the given ids, in any order;
	// missing ids are simply absent from the result.
	FindManyByIDs(ctx context.Context, ids []string) ([]T, error)

	// Count returns the exact number of rows matching filter.
	Count(ctx context.Context, filter Filter) (int64, error)

	// EstimatedCount returns a fast approximate collection size, from
	// collection metadata rather than a scan.
	EstimatedCount(ctx context.Context) (int64, error)
}

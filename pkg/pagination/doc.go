// Package pagination provides the offset/cursor pagination and counting
// engine used by the list endpoints.
//
// Offset mode pairs a windowed find with a count and reports full page
// bookkeeping (total, page, totalPages, hasNextPage, hasPreviousPage).
// Cursor mode encodes the last-seen (sortValue, id) position into an
// opaque token and fetches limit+1 rows, so resuming a scan needs no
// count query and stays stable under concurrent inserts.
//
// Example usage:
//
//	engine := pagination.NewEngine[entity.Organization](orgs, pagination.DefaultConfig())
//
//	// offset mode
//	page, err := engine.Offset(ctx, filter, 20, 40, nil)
//
//	// cursor mode
//	first, err := engine.Cursor(ctx, filter, 20, "", nil)
//	next, err := engine.Cursor(ctx, filter, 20, first.Meta.NextCursor, nil)
//
// Ordering is always strictly descending (sortValue, id): the unique id
// tie-break guarantees no row is skipped or duplicated when several rows
// share the same sort value.
//
// For large unfiltered collections the exact count may be replaced by a
// collection-level estimate; such responses carry isEstimate=true and
// callers must treat the total as non-authoritative.
package pagination

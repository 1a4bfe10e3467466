// Package testutil provides testing utilities for the read-path middleware.
package testutil

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/adrian-moloca/clinicache/pkg/store"
)

// MemCollection is a configurable in-memory store.Collection for testing.
// It keeps rows in memory, answers queries in the contract's descending
// (sortValue, id) order, and tracks how often each store operation ran so
// tests can assert cache and loader effectiveness.
type MemCollection[T store.Record] struct {
	mu   sync.RWMutex
	rows []T

	// Tracking
	FindManyCalls      int
	FindByIDCalls      int
	FindManyByIDsCalls int
	CountCalls         int
	EstimatedCalls     int
	LastBatchIDs       []string

	// FailNext, when set, fails the next store call with this error and
	// clears itself.
	FailNext error

	// EstimatedSize overrides the value EstimatedCount returns. Zero
	// means "use the real row count".
	EstimatedSize int64

	// Delay is added to every store call, for timing-sensitive tests.
	Delay time.Duration
}

// NewMemCollection creates a collection pre-seeded with rows.
func NewMemCollection[T store.Record](rows ...T) *MemCollection[T] {
	return &MemCollection[T]{rows: rows}
}

// Insert adds rows to the collection.
func (c *MemCollection[T]) Insert(rows ...T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, rows...)
}

// Delete removes the row with the given id, if present.
func (c *MemCollection[T]) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, row := range c.rows {
		if row.RecordID() == id {
			c.rows = append(c.rows[:i], c.rows[i+1:]...)
			return
		}
	}
}

// Reset clears all tracking counters.
func (c *MemCollection[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FindManyCalls = 0
	c.FindByIDCalls = 0
	c.FindManyByIDsCalls = 0
	c.CountCalls = 0
	c.EstimatedCalls = 0
	c.LastBatchIDs = nil
	c.FailNext = nil
}

// StoreCalls returns the total number of store operations performed.
func (c *MemCollection[T]) StoreCalls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.FindManyCalls + c.FindByIDCalls + c.FindManyByIDsCalls + c.CountCalls + c.EstimatedCalls
}

// FindMany implements store.Collection.
func (c *MemCollection[T]) FindMany(ctx context.Context, filter store.Filter, opts store.FindOptions) ([]T, error) {
	c.mu.Lock()
	c.FindManyCalls++
	err := c.takeErr()
	matched := c.matchLocked(filter)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.sleep()

	sortDesc(matched)

	if opts.Before != nil {
		kept := matched[:0]
		for _, row := range matched {
			v, id := row.RecordSortValue(), row.RecordID()
			if v < opts.Before.SortValue || (v == opts.Before.SortValue && id < opts.Before.ID) {
				kept = append(kept, row)
			}
		}
		matched = kept
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(matched) {
			return nil, nil
		}
		matched = matched[opts.Skip:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// FindByID implements store.Collection.
func (c *MemCollection[T]) FindByID(ctx context.Context, id string) (T, bool, error) {
	var zero T
	c.mu.Lock()
	c.FindByIDCalls++
	err := c.takeErr()
	var found T
	var ok bool
	for _, row := range c.rows {
		if row.RecordID() == id {
			found, ok = row, true
			break
		}
	}
	c.mu.Unlock()
	if err != nil {
		return zero, false, err
	}
	c.sleep()
	return found, ok, nil
}

// FindManyByIDs implements store.Collection.
func (c *MemCollection[T]) FindManyByIDs(ctx context.Context, ids []string) ([]T, error) {
	c.mu.Lock()
	c.FindManyByIDsCalls++
	c.LastBatchIDs = append([]string(nil), ids...)
	err := c.takeErr()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []T
	for _, row := range c.rows {
		if _, ok := want[row.RecordID()]; ok {
			out = append(out, row)
		}
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c.sleep()
	return out, nil
}

// Count implements store.Collection.
func (c *MemCollection[T]) Count(ctx context.Context, filter store.Filter) (int64, error) {
	c.mu.Lock()
	c.CountCalls++
	err := c.takeErr()
	n := int64(len(c.matchLocked(filter)))
	c.mu.Unlock()
	if err != nil {
		return 0, err
	}
	c.sleep()
	return n, nil
}

// EstimatedCount implements store.Collection.
func (c *MemCollection[T]) EstimatedCount(ctx context.Context) (int64, error) {
	c.mu.Lock()
	c.EstimatedCalls++
	err := c.takeErr()
	n := c.EstimatedSize
	if n == 0 {
		n = int64(len(c.rows))
	}
	c.mu.Unlock()
	if err != nil {
		return 0, err
	}
	c.sleep()
	return n, nil
}

func (c *MemCollection[T]) takeErr() error {
	err := c.FailNext
	c.FailNext = nil
	return err
}

func (c *MemCollection[T]) sleep() {
	if c.Delay > 0 {
		time.Sleep(c.Delay)
	}
}

func (c *MemCollection[T]) matchLocked(filter store.Filter) []T {
	out := make([]T, 0, len(c.rows))
	for _, row := range c.rows {
		if matches(row, filter) {
			out = append(out, row)
		}
	}
	return out
}

// matches compares filter conditions against the row's JSON form, so tests
// can filter on any json-tagged field without per-type matcher code.
func matches[T any](row T, filter store.Filter) bool {
	if filter.IsEmpty() {
		return true
	}
	data, err := json.Marshal(row)
	if err != nil {
		return false
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	for k, want := range filter {
		got, ok := fields[k]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(jsonValue(want), got) {
			return false
		}
	}
	return true
}

// jsonValue normalizes a filter value through a JSON round-trip, so typed
// values (int, custom strings) compare equal to their decoded forms.
func jsonValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func sortDesc[T store.Record](rows []T) {
	sort.Slice(rows, func(i, j int) bool {
		vi, vj := rows[i].RecordSortValue(), rows[j].RecordSortValue()
		if vi != vj {
			return vi > vj
		}
		return rows[i].RecordID() > rows[j].RecordID()
	})
}

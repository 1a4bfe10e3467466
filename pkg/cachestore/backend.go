// Package cachestore wraps the external key-value service used by the
// read-through cache. It knows nothing about resource types or key schemes.
package cachestore

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

var (
	// ErrKeyNotFound indicates the requested key is absent from the backend.
	ErrKeyNotFound = errors.New("cachestore: key not found")
)

// Entry is a single key/value pair with its TTL, used by bulk writes.
type Entry struct {
	Key   string
	Value []byte
	TTL   time.Duration
}

// Backend is the opaque key-value collaborator contract. Implementations
// must be safe for concurrent use.
type Backend interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL. A zero TTL means
	// no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix removes every key starting with prefix and returns
	// the number of keys removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// MGet returns values aligned with keys; absent keys yield nil.
	MGet(ctx context.Context, keys []string) ([][]byte, error)

	// MSet stores all entries.
	MSet(ctx context.Context, entries []Entry) error

	// Incr atomically increments the integer stored at key and returns
	// the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// Ping issues a trivial round-trip and returns its latency.
	Ping(ctx context.Context) (time.Duration, error)

	// Close releases backend resources.
	Close() error
}

// Stats tracks basic hit/miss/error counters for one backend instance.
// Counters are updated atomically by the backend implementations.
type Stats struct {
	hits   atomic.Uint64
	misses atomic.Uint64
	errors atomic.Uint64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Errors uint64 `json:"errors"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Errors: s.errors.Load(),
	}
}

func (s *Stats) hit()  { s.hits.Add(1) }
func (s *Stats) miss() { s.misses.Add(1) }
func (s *Stats) fail() { s.errors.Add(1) }

package cachestore

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const memoryBackendName = "memory"

// memEntry stores the value with its absolute expiration deadline.
// A zero deadline means "no TTL".
type memEntry struct {
	value []byte
	exp   int64 // UnixNano
}

// memShard is one lock-striped partition of the in-memory backend.
type memShard struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

// MemoryBackend is an xxhash-sharded in-process Backend. It serves tests
// and single-node deployments where no external key-value service exists.
// Expired entries are dropped lazily on access.
type MemoryBackend struct {
	shards []*memShard
	stats  *Stats

	// now is swappable so tests can travel in time.
	now func() time.Time
}

// NewMemoryBackend creates an in-memory backend with the given shard count.
// A non-positive count defaults to 16.
func NewMemoryBackend(numShards int) *MemoryBackend {
	if numShards <= 0 {
		numShards = 16
	}
	shards := make([]*memShard, numShards)
	for i := range shards {
		shards[i] = &memShard{entries: make(map[string]memEntry)}
	}
	return &MemoryBackend{
		shards: shards,
		stats:  &Stats{},
		now:    time.Now,
	}
}

// Stats returns the hit/miss counters for this backend instance.
func (b *MemoryBackend) Stats() *Stats {
	return b.stats
}

// SetClock replaces the backend clock (for testing expiry).
func (b *MemoryBackend) SetClock(now func() time.Time) {
	b.now = now
}

func (b *MemoryBackend) shard(key string) *memShard {
	return b.shards[xxhash.Sum64String(key)%uint64(len(b.shards))]
}

func (b *MemoryBackend) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return b.now().Add(ttl).UnixNano()
}

func (e memEntry) expired(now time.Time) bool {
	return e.exp != 0 && now.UnixNano() > e.exp
}

// Get retrieves the raw value for key.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	s := b.shard(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || e.expired(b.now()) {
		if ok {
			s.mu.Lock()
			delete(s.entries, key)
			s.mu.Unlock()
		}
		b.stats.miss()
		BackendMisses.WithLabelValues(memoryBackendName).Inc()
		return nil, ErrKeyNotFound
	}

	b.stats.hit()
	BackendHits.WithLabelValues(memoryBackendName).Inc()

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores value under key with the given TTL.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s := b.shard(key)
	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	s.entries[key] = memEntry{value: v, exp: b.deadline(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes the given keys.
func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s := b.shard(key)
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
	}
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (b *MemoryBackend) DeletePrefix(_ context.Context, prefix string) (int, error) {
	var deleted int
	for _, s := range b.shards {
		s.mu.Lock()
		for k := range s.entries {
			if strings.HasPrefix(k, prefix) {
				delete(s.entries, k)
				deleted++
			}
		}
		s.mu.Unlock()
	}
	return deleted, nil
}

// MGet returns values aligned with keys; absent keys yield nil.
func (b *MemoryBackend) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, key := range keys {
		v, err := b.Get(ctx, key)
		if err == ErrKeyNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// MSet stores all entries.
func (b *MemoryBackend) MSet(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := b.Set(ctx, e.Key, e.Value, e.TTL); err != nil {
			return err
		}
	}
	return nil
}

// Incr atomically increments the integer stored at key. Non-numeric
// values reset to zero before incrementing, matching Redis semantics
// closely enough for counters.
func (b *MemoryBackend) Incr(_ context.Context, key string) (int64, error) {
	s := b.shard(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if e, ok := s.entries[key]; ok && !e.expired(b.now()) {
		if parsed, err := strconv.ParseInt(string(e.value), 10, 64); err == nil {
			n = parsed
		}
	}
	n++
	s.entries[key] = memEntry{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}

// Ping always succeeds for the in-memory backend.
func (b *MemoryBackend) Ping(_ context.Context) (time.Duration, error) {
	return 0, nil
}

// Close is a no-op for the in-memory backend.
func (b *MemoryBackend) Close() error {
	return nil
}

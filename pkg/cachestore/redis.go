package cachestore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisBackendName = "redis"

// RedisBackend implements Backend on top of a shared *redis.Client.
// The client's connection pool is shared across all requests.
type RedisBackend struct {
	rdb   *redis.Client
	stats *Stats
}

// NewRedisBackend creates a Redis-backed adapter.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	return &RedisBackend{rdb: rdb, stats: &Stats{}}
}

// Stats returns the hit/miss counters for this backend instance.
func (b *RedisBackend) Stats() *Stats {
	return b.stats
}

// Get retrieves the raw value for key.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := b.rdb.Get(ctx, key).Bytes()
	BackendOpDuration.WithLabelValues(redisBackendName, "get").Observe(time.Since(start).Seconds())

	if err == redis.Nil {
		b.stats.miss()
		BackendMisses.WithLabelValues(redisBackendName).Inc()
		return nil, ErrKeyNotFound
	}
	if err != nil {
		b.stats.fail()
		BackendErrors.WithLabelValues(redisBackendName, "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	b.stats.hit()
	BackendHits.WithLabelValues(redisBackendName).Inc()
	return data, nil
}

// Set stores value under key with the given TTL.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := b.rdb.Set(ctx, key, value, ttl).Err()
	BackendOpDuration.WithLabelValues(redisBackendName, "set").Observe(time.Since(start).Seconds())

	if err != nil {
		b.stats.fail()
		BackendErrors.WithLabelValues(redisBackendName, "set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the given keys.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := b.rdb.Del(ctx, keys...).Err(); err != nil {
		b.stats.fail()
		BackendErrors.WithLabelValues(redisBackendName, "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix using SCAN,
// so it never blocks the server the way KEYS would.
func (b *RedisBackend) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var deleted int
	iter := b.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()

	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := b.rdb.Del(ctx, batch...).Err(); err != nil {
				b.stats.fail()
				BackendErrors.WithLabelValues(redisBackendName, "delete").Inc()
				return deleted, fmt.Errorf("redis del: %w", err)
			}
			deleted += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		b.stats.fail()
		BackendErrors.WithLabelValues(redisBackendName, "delete").Inc()
		return deleted, fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := b.rdb.Del(ctx, batch...).Err(); err != nil {
			b.stats.fail()
			BackendErrors.WithLabelValues(redisBackendName, "delete").Inc()
			return deleted, fmt.Errorf("redis del: %w", err)
		}
		deleted += len(batch)
	}
	return deleted, nil
}

// MGet returns values aligned with keys; absent keys yield nil.
func (b *RedisBackend) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	start := time.Now()
	vals, err := b.rdb.MGet(ctx, keys...).Result()
	BackendOpDuration.WithLabelValues(redisBackendName, "mget").Observe(time.Since(start).Seconds())

	if err != nil {
		b.stats.fail()
		BackendErrors.WithLabelValues(redisBackendName, "mget").Inc()
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make([][]byte, len(keys))
	for i, v := range vals {
		if v == nil {
			b.stats.miss()
			BackendMisses.WithLabelValues(redisBackendName).Inc()
			continue
		}
		s, ok := v.(string)
		if !ok {
			b.stats.miss()
			BackendMisses.WithLabelValues(redisBackendName).Inc()
			continue
		}
		b.stats.hit()
		BackendHits.WithLabelValues(redisBackendName).Inc()
		out[i] = []byte(s)
	}
	return out, nil
}

// MSet stores all entries in one pipeline round-trip. MSET itself cannot
// carry per-key TTLs, so SET commands are pipelined instead.
func (b *RedisBackend) MSet(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	start := time.Now()
	pipe := b.rdb.Pipeline()
	for _, e := range entries {
		pipe.Set(ctx, e.Key, e.Value, e.TTL)
	}
	_, err := pipe.Exec(ctx)
	BackendOpDuration.WithLabelValues(redisBackendName, "mset").Observe(time.Since(start).Seconds())

	if err != nil {
		b.stats.fail()
		BackendErrors.WithLabelValues(redisBackendName, "mset").Inc()
		return fmt.Errorf("redis pipeline set: %w", err)
	}
	return nil
}

// Incr atomically increments the integer stored at key.
func (b *RedisBackend) Incr(ctx context.Context, key string) (int64, error) {
	n, err := b.rdb.Incr(ctx, key).Result()
	if err != nil {
		b.stats.fail()
		BackendErrors.WithLabelValues(redisBackendName, "incr").Inc()
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return n, nil
}

// Ping issues a PING round-trip and returns its latency.
func (b *RedisBackend) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("redis ping: %w", err)
	}
	return time.Since(start), nil
}

// Close closes the underlying Redis client.
func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}

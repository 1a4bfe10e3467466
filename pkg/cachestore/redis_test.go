package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client, skipping when no local Redis
// is available. Full coverage against a containerized Redis lives in
// tests/integration.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewRedisBackend_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisBackend should panic with nil client")
		}
	}()
	NewRedisBackend(nil)
}

func TestRedisBackend_SetGet(t *testing.T) {
	b := NewRedisBackend(setupTestRedis(t))
	ctx := context.Background()

	if err := b.Set(ctx, "clinic:1", []byte("hello"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := b.Get(ctx, "clinic:1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("Expected 'hello', got %q", got)
	}
}

func TestRedisBackend_GetMissing(t *testing.T) {
	b := NewRedisBackend(setupTestRedis(t))

	_, err := b.Get(context.Background(), "nope")
	if err != ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestRedisBackend_DeletePrefix(t *testing.T) {
	b := NewRedisBackend(setupTestRedis(t))
	ctx := context.Background()

	b.Set(ctx, "org:list:a", []byte("1"), time.Minute)
	b.Set(ctx, "org:list:b", []byte("2"), time.Minute)
	b.Set(ctx, "org:abc", []byte("3"), time.Minute)

	n, err := b.DeletePrefix(ctx, "org:list:")
	if err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 deletions, got %d", n)
	}
	if _, err := b.Get(ctx, "org:abc"); err != nil {
		t.Errorf("Unrelated key should survive, got %v", err)
	}
}

func TestRedisBackend_MGetMSet(t *testing.T) {
	b := NewRedisBackend(setupTestRedis(t))
	ctx := context.Background()

	err := b.MSet(ctx, []Entry{
		{Key: "a", Value: []byte("1"), TTL: time.Minute},
		{Key: "c", Value: []byte("3"), TTL: time.Minute},
	})
	if err != nil {
		t.Fatalf("MSet failed: %v", err)
	}

	vals, err := b.MGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("MGet failed: %v", err)
	}
	if string(vals[0]) != "1" || vals[1] != nil || string(vals[2]) != "3" {
		t.Errorf("Misaligned MGet result: %q %q %q", vals[0], vals[1], vals[2])
	}
}

func TestRedisBackend_Incr(t *testing.T) {
	b := NewRedisBackend(setupTestRedis(t))
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := b.Incr(ctx, "counter")
		if err != nil {
			t.Fatalf("Incr failed: %v", err)
		}
		if n != want {
			t.Errorf("Expected %d, got %d", want, n)
		}
	}
}

func TestRedisBackend_Ping(t *testing.T) {
	b := NewRedisBackend(setupTestRedis(t))

	latency, err := b.Ping(context.Background())
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if latency < 0 {
		t.Errorf("Expected non-negative latency, got %v", latency)
	}
}

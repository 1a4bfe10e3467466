package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PanicsOnNilFetch(t *testing.T) {
	assert.Panics(t, func() {
		New[string, string]("x", nil, DefaultConfig())
	})
}

func TestLoad_Single(t *testing.T) {
	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		out := make(map[string]string, len(keys))
		for _, k := range keys {
			out[k] = "v:" + k
		}
		return out, nil
	}, Config{Delay: time.Millisecond, MaxBatchSize: 10})

	v, found, err := l.Load(context.Background(), "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v:a", v)
}

func TestLoad_NotFound(t *testing.T) {
	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		return map[string]string{}, nil
	}, Config{Delay: time.Millisecond, MaxBatchSize: 10})

	_, found, err := l.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoad_CoalescesConcurrentLookups(t *testing.T) {
	var fetches atomic.Int32
	var batchSizes sync.Map

	l := New("test", func(ctx context.Context, keys []string) (map[string]int, error) {
		n := fetches.Add(1)
		batchSizes.Store(n, len(keys))
		out := make(map[string]int, len(keys))
		for i, k := range keys {
			out[k] = i
		}
		return out, nil
	}, Config{Delay: 20 * time.Millisecond, MaxBatchSize: 100})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("k%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, found, err := l.Load(context.Background(), key)
			assert.NoError(t, err)
			assert.True(t, found)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetches.Load(), "10 concurrent lookups should collapse into one fetch")
	size, _ := batchSizes.Load(int32(1))
	assert.Equal(t, 10, size)
}

func TestLoad_DeduplicatesKeys(t *testing.T) {
	var got [][]string
	var mu sync.Mutex

	l := New("test", func(ctx context.Context, keys []string) (map[string]bool, error) {
		mu.Lock()
		got = append(got, keys)
		mu.Unlock()
		out := make(map[string]bool, len(keys))
		for _, k := range keys {
			out[k] = true
		}
		return out, nil
	}, Config{Delay: 10 * time.Millisecond, MaxBatchSize: 100})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, found, err := l.Load(context.Background(), "same")
			assert.NoError(t, err)
			assert.True(t, found)
		}()
	}
	wg.Wait()

	require.Len(t, got, 1)
	assert.Equal(t, []string{"same"}, got[0], "duplicate keys must reach the fetch once")
}

func TestLoad_SizeTrigger(t *testing.T) {
	var fetches atomic.Int32

	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		fetches.Add(1)
		out := make(map[string]string, len(keys))
		for _, k := range keys {
			out[k] = k
		}
		return out, nil
	}, Config{Delay: time.Hour, MaxBatchSize: 3}) // the window alone never closes

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("k%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := l.Load(context.Background(), key)
			assert.NoError(t, err)
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Batch did not dispatch on reaching MaxBatchSize")
	}
	assert.Equal(t, int32(1), fetches.Load())
}

func TestLoad_NewBatchAfterDispatch(t *testing.T) {
	var fetches atomic.Int32

	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		fetches.Add(1)
		out := make(map[string]string, len(keys))
		for _, k := range keys {
			out[k] = k
		}
		return out, nil
	}, Config{Delay: time.Millisecond, MaxBatchSize: 100})

	_, _, err := l.Load(context.Background(), "first")
	require.NoError(t, err)

	_, _, err = l.Load(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, int32(2), fetches.Load(), "lookups after a dispatch start a fresh batch")
}

func TestLoad_FetchError(t *testing.T) {
	boom := errors.New("bulk query failed")
	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		return nil, boom
	}, Config{Delay: time.Millisecond, MaxBatchSize: 10})

	_, _, err := l.Load(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
}

func TestLoad_PartialResults(t *testing.T) {
	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		// Only the first key resolves; the fetch still reports an error.
		return map[string]string{keys[0]: "ok"}, errors.New("partial failure")
	}, Config{Delay: 10 * time.Millisecond, MaxBatchSize: 100})

	results, err := l.LoadMany(context.Background(), []string{"a", "b"})
	require.NoError(t, err, "partial results must not fail resolved keys")
	require.Len(t, results, 2)
	assert.True(t, results[0].Found)
	assert.Equal(t, "ok", results[0].Value)
	assert.False(t, results[1].Found, "unresolved keys read as not found")
}

func TestLoadMany_Alignment(t *testing.T) {
	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		out := make(map[string]string)
		for _, k := range keys {
			if k != "gone" {
				out[k] = "v:" + k
			}
		}
		return out, nil
	}, Config{Delay: time.Millisecond, MaxBatchSize: 100})

	results, err := l.LoadMany(context.Background(), []string{"x", "gone", "y", "x"})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, Result[string]{Value: "v:x", Found: true}, results[0])
	assert.False(t, results[1].Found)
	assert.Equal(t, Result[string]{Value: "v:y", Found: true}, results[2])
	assert.Equal(t, results[0], results[3], "duplicate positions resolve identically")
}

func TestLoadMany_Empty(t *testing.T) {
	var fetches atomic.Int32
	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		fetches.Add(1)
		return nil, nil
	}, Config{Delay: time.Millisecond, MaxBatchSize: 10})

	results, err := l.LoadMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, int32(0), fetches.Load(), "an empty key set must not fetch")
}

func TestLoad_ContextCancelled(t *testing.T) {
	l := New("test", func(ctx context.Context, keys []string) (map[string]string, error) {
		time.Sleep(100 * time.Millisecond)
		return map[string]string{}, nil
	}, Config{Delay: 50 * time.Millisecond, MaxBatchSize: 10})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, _, err := l.Load(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

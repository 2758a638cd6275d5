package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/redis"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (b *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	v, ok := b.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (b *memoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.data[key] = value
	return nil
}

func (b *memoryBackend) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			delete(b.data, k)
			n++
		}
	}
	return n, nil
}

type payload struct {
	IDs []int64 `json:"ids"`
}

func TestFetchHitAfterMiss(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	c := New(newMemoryBackend(), time.Minute, m)
	key := Key{Version: 1, Method: "vsm", Query: "kucing"}
	calls := 0
	compute := func(context.Context) (payload, error) {
		calls++
		return payload{IDs: []int64{1, 3}}, nil
	}

	v, hit, err := Fetch(context.Background(), c, key, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int64{1, 3}, v.IDs)

	v, hit, err = Fetch(context.Background(), c, key, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int64{1, 3}, v.IDs)
	assert.Equal(t, 1, calls)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
}

func TestFetchKeysByVersion(t *testing.T) {
	c := New(newMemoryBackend(), time.Minute, nil)
	calls := 0
	compute := func(context.Context) (payload, error) { calls++; return payload{}, nil }

	Fetch(context.Background(), c, Key{Version: 1, Method: "bim", Query: "ikan"}, compute)
	Fetch(context.Background(), c, Key{Version: 2, Method: "bim", Query: "ikan"}, compute)
	Fetch(context.Background(), c, Key{Version: 2, Method: "vsm", Query: "ikan"}, compute)
	assert.Equal(t, 3, calls)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := New(newMemoryBackend(), time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := Fetch(context.Background(), c, Key{Method: "boolean", Query: "AND"}, func(context.Context) (payload, error) {
		return payload{}, boom
	})
	assert.ErrorIs(t, err, boom)

	v, hit, err := Fetch(context.Background(), c, Key{Method: "boolean", Query: "AND"}, func(context.Context) (payload, error) {
		return payload{IDs: []int64{7}}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int64{7}, v.IDs)
}

func TestFetchWaiterSurvivesCancelledLeader(t *testing.T) {
	c := New(newMemoryBackend(), time.Minute, nil)
	key := Key{Version: 1, Method: "vsm", Query: "kucing"}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	entered := make(chan struct{})
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := Fetch(leaderCtx, c, key, func(ctx context.Context) (payload, error) {
			close(entered)
			<-ctx.Done()
			return payload{}, ctx.Err()
		})
		leaderErr <- err
	}()
	<-entered

	type outcome struct {
		v   payload
		err error
	}
	waiter := make(chan outcome, 1)
	var waiterCalls int
	go func() {
		v, _, err := Fetch(context.Background(), c, key, func(context.Context) (payload, error) {
			waiterCalls++
			return payload{IDs: []int64{2}}, nil
		})
		waiter <- outcome{v, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderErr, context.Canceled)
	got := <-waiter
	require.NoError(t, got.err)
	assert.Equal(t, []int64{2}, got.v.IDs)
	assert.Equal(t, 1, waiterCalls)

	v, hit, err := Fetch(context.Background(), c, key, func(context.Context) (payload, error) {
		return payload{}, errors.New("should be cached")
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int64{2}, v.IDs)
}

func TestBackendFailureFallsBackToCompute(t *testing.T) {
	backend := newMemoryBackend()
	backend.err = errors.New("connection refused")
	m := metrics.New(prometheus.NewRegistry())
	c := New(backend, time.Minute, m)

	for range 10 {
		v, hit, err := Fetch(context.Background(), c, Key{Method: "vsm", Query: "x"}, func(context.Context) (payload, error) {
			return payload{IDs: []int64{1}}, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, []int64{1}, v.IDs)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("redis-cache")))
}

func TestCancelledLookupsKeepCircuitClosed(t *testing.T) {
	backend := newMemoryBackend()
	backend.err = context.Canceled
	c := New(backend, time.Minute, nil)

	for range 10 {
		_, _, err := Fetch(context.Background(), c, Key{Method: "vsm", Query: "x"}, func(context.Context) (payload, error) {
			return payload{IDs: []int64{1}}, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, "closed", c.CircuitState())

	backend.mu.Lock()
	backend.err = errors.New("connection refused")
	backend.mu.Unlock()
	for range 5 {
		Fetch(context.Background(), c, Key{Method: "vsm", Query: "x"}, func(context.Context) (payload, error) {
			return payload{}, nil
		})
	}
	assert.Equal(t, "open", c.CircuitState())
}

func TestNilCacheComputes(t *testing.T) {
	var c *ResultCache
	v, hit, err := Fetch(context.Background(), c, Key{}, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, v)
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestInvalidate(t *testing.T) {
	backend := newMemoryBackend()
	backend.data["unrelated"] = []byte("1")
	c := New(backend, time.Minute, nil)
	Fetch(context.Background(), c, Key{Method: "vsm", Query: "a"}, func(context.Context) (int, error) { return 1, nil })
	require.Len(t, backend.data, 2)

	require.NoError(t, c.Invalidate(context.Background()))
	assert.Len(t, backend.data, 1)
	assert.Contains(t, backend.data, "unrelated")
}

func TestKeyIsStable(t *testing.T) {
	k := Key{Version: 3, Method: "regex", Query: "^An"}
	assert.Equal(t, k.String(), k.String())
	assert.NotEqual(t, k.String(), Key{Version: 3, Method: "regex", Query: "^an"}.String())
	assert.True(t, strings.HasPrefix(k.String(), keyPrefix))
}

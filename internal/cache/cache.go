// Package cache memoises search responses in Redis. Keys include the corpus
// version, so a write never serves stale results; entries of older versions
// simply age out through the TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/resilience"
)

const keyPrefix = "rl:search:"

// Backend is the storage the cache needs. *redis.Client satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// Key identifies one search against one corpus version. The query is kept
// verbatim because regex patterns are whitespace and case sensitive.
type Key struct {
	Version uint64
	Method  string
	Query   string
}

func (k Key) String() string {
	raw := fmt.Sprintf("v=%d|m=%s|q=%s", k.Version, k.Method, k.Query)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// ResultCache is safe for concurrent use. A nil *ResultCache is valid and
// always computes.
type ResultCache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New wraps backend. Backend failures count against a circuit breaker; while
// it is open the cache is bypassed and every search is computed.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *ResultCache {
	c := &ResultCache{
		backend: backend,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "result-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Second,
		Ignore:           isCancellation,
		OnStateChange: func(name string, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

func (c *ResultCache) get(ctx context.Context, key string) ([]byte, bool) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.backend.Get(ctx, key)
		if errors.Is(err, pkgredis.ErrMiss) {
			return nil
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, data != nil
}

func (c *ResultCache) set(ctx context.Context, key string, data []byte) {
	err := c.breaker.Execute(func() error {
		return c.backend.Set(ctx, key, data, c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *ResultCache) recordHit(hit bool) {
	if hit {
		c.hits.Add(1)
		if c.metrics != nil {
			c.metrics.CacheHitsTotal.Inc()
		}
		return
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// Fetch returns the cached value for key or computes, stores and returns it.
// Concurrent misses on one key share a single computation, run with the
// context of the caller that started it. A caller whose context is still live
// when that shared run was cancelled computes again with its own. Errors from
// compute are returned as-is and never cached.
func Fetch[T any](ctx context.Context, c *ResultCache, key Key, compute func(ctx context.Context) (T, error)) (T, bool, error) {
	if c == nil {
		v, err := compute(ctx)
		return v, false, err
	}
	k := key.String()
	if v, ok := lookup[T](ctx, c, k); ok {
		c.recordHit(true)
		return v, true, nil
	}
	c.recordHit(false)

	val, err, shared := c.group.Do(k, func() (any, error) {
		if v, ok := lookup[T](ctx, c, k); ok {
			return v, nil
		}
		return c.computeAndStore(ctx, k, func(ctx context.Context) (any, error) { return compute(ctx) })
	})
	if err != nil && shared && ctx.Err() == nil && isCancellation(err) {
		c.logger.Debug("shared computation cancelled, recomputing", "key", k)
		val, err = c.computeAndStore(ctx, k, func(ctx context.Context) (any, error) { return compute(ctx) })
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}

func (c *ResultCache) computeAndStore(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (any, error) {
	v, err := compute(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(v); err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
	} else {
		c.set(ctx, key, data)
	}
	return v, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func lookup[T any](ctx context.Context, c *ResultCache, key string) (T, bool) {
	var v T
	data, ok := c.get(ctx, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return v, false
	}
	return v, true
}

// Invalidate drops every cached search. The server calls it at start-up
// because corpus versions restart from zero with each process.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	deleted, err := c.backend.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// CircuitState reports the Redis circuit breaker state.
func (c *ResultCache) CircuitState() string {
	return c.breaker.GetState().String()
}

func (c *ResultCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowDrainsAndRefills(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Close()
	clock := time.Unix(1000, 0)
	l.now = func() time.Time { return clock }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "buckets are per key")

	clock = clock.Add(30 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestZeroLimitDisables(t *testing.T) {
	l := New(0, time.Minute)
	defer l.Close()
	for range 100 {
		assert.True(t, l.Allow("k"))
	}
	assert.Zero(t, l.RetryAfter())
}

func TestReset(t *testing.T) {
	l := New(1, time.Hour)
	defer l.Close()
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
	l.Reset("k")
	assert.True(t, l.Allow("k"))
	assert.Equal(t, time.Hour, l.RetryAfter())
}

package ratelimit_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryLimiter_ConcurrentChecksAdmitExactlyLimit(t *testing.T) {
	limiter, err := ratelimit.NewMemoryLimiter(time.Minute, 0)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	start := make(chan struct{})
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := limiter.Check(context.Background(), 5, "ip1")
			assert.NoError(t, err)
			if ok {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
}

func TestMemoryLimiter_WindowResetsAfterInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter, err := ratelimit.NewMemoryLimiter(time.Minute, 0, ratelimit.WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	for range 3 {
		ok, err := limiter.Check(ctx, 3, "ip1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _ := limiter.Check(ctx, 3, "ip1")
	assert.False(t, ok)

	clock.Advance(time.Minute)
	ok, _ = limiter.Check(ctx, 3, "ip1")
	assert.False(t, ok, "window lasts until more than the interval has passed")

	clock.Advance(time.Millisecond)
	ok, _ = limiter.Check(ctx, 3, "ip1")
	assert.True(t, ok)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter, err := ratelimit.NewMemoryLimiter(time.Minute, 0)
	require.NoError(t, err)
	ctx := context.Background()

	ok, _ := limiter.Check(ctx, 1, "ip1:payments")
	assert.True(t, ok)
	ok, _ = limiter.Check(ctx, 1, "ip1:payments")
	assert.False(t, ok)

	ok, _ = limiter.Check(ctx, 1, "ip1:gps")
	assert.True(t, ok)
	ok, _ = limiter.Check(ctx, 1, "ip2:payments")
	assert.True(t, ok)
}

func TestMemoryLimiter_NonPositiveLimitDenies(t *testing.T) {
	limiter, err := ratelimit.NewMemoryLimiter(time.Minute, 0)
	require.NoError(t, err)

	ok, err := limiter.Check(context.Background(), 0, "ip1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter_EvictedKeyStartsFresh(t *testing.T) {
	limiter, err := ratelimit.NewMemoryLimiter(time.Minute, 1)
	require.NoError(t, err)
	ctx := context.Background()

	ok, _ := limiter.Check(ctx, 1, "ip1")
	require.True(t, ok)

	// Enough distinct keys to push ip1 out of its one-entry shard.
	for i := range 256 {
		_, _ = limiter.Check(ctx, 1, fmt.Sprintf("other-%d", i))
	}

	ok, _ = limiter.Check(ctx, 1, "ip1")
	assert.True(t, ok)
}

func TestNewMemoryLimiter_RejectsNonPositiveInterval(t *testing.T) {
	_, err := ratelimit.NewMemoryLimiter(0, 0)
	require.Error(t, err)
}

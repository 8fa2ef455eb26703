package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheegull/deephand-forms/internal/logging"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type failingStore struct {
	getErr error
	putErr error
	puts   int
}

func (s *failingStore) Get(context.Context, string) (Counter, bool, error) {
	return Counter{}, false, s.getErr
}

func (s *failingStore) Put(context.Context, string, Counter, time.Duration) error {
	s.puts++
	return s.putErr
}

func newTestLimiter(store CounterStore, limit int, clock *fakeClock) *Limiter {
	return NewLimiter(store, limit, WithClock(clock.Now), WithLogger(logging.Discard()))
}

func TestWindowID(t *testing.T) {
	assert.Equal(t, int64(0), WindowID(time.UnixMilli(3_599_999)))
	assert.Equal(t, int64(1), WindowID(time.UnixMilli(3_600_000)))
	assert.Equal(t, int64(480_000), WindowID(time.UnixMilli(1_728_000_000_000)))
}

func TestAllowUpToLimit(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_728_000_000_000)}
	store := NewMemoryStoreWithClock(clock.Now)
	limiter := newTestLimiter(store, 10, clock)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		d := limiter.Allow(ctx, "203.0.113.7")
		require.True(t, d.Allowed, "request %d should be allowed", i)
		assert.Equal(t, 10-i, d.Remaining)
	}

	clock.Advance(15 * time.Minute)
	d := limiter.Allow(ctx, "203.0.113.7")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 45*time.Minute, d.RetryAfter)

	c, ok, err := store.Get(ctx, "rate_limit:203.0.113.7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Counter{Count: 10, Hour: 480_000}, c)
}

func TestAllowBlockedDoesNotIncrement(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_728_000_000_000)}
	store := NewMemoryStoreWithClock(clock.Now)
	limiter := newTestLimiter(store, 2, clock)
	ctx := context.Background()

	limiter.Allow(ctx, "a")
	limiter.Allow(ctx, "a")
	for range 3 {
		assert.False(t, limiter.Allow(ctx, "a").Allowed)
	}

	c, _, _ := store.Get(ctx, "rate_limit:a")
	assert.Equal(t, 2, c.Count)
}

func TestAllowResetsOnNewWindow(t *testing.T) {
	// Ten minutes before an hour boundary.
	clock := &fakeClock{t: time.UnixMilli(1_728_003_600_000 - 10*60*1000)}
	store := NewMemoryStoreWithClock(clock.Now)
	limiter := newTestLimiter(store, 1, clock)
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "a").Allowed)
	d := limiter.Allow(ctx, "a")
	require.False(t, d.Allowed)
	assert.Equal(t, 10*time.Minute, d.RetryAfter)

	clock.Advance(10 * time.Minute)
	d = limiter.Allow(ctx, "a")
	assert.True(t, d.Allowed)
	assert.Equal(t, WindowID(clock.Now()), d.Window)
}

func TestAllowStaleWindowInStore(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_728_000_000_000)}
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "rate_limit:a", Counter{Count: 99, Hour: 1}, time.Hour))

	d := newTestLimiter(store, 10, clock).Allow(ctx, "a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 9, d.Remaining)
}

func TestAllowSeparatesAddresses(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_728_000_000_000)}
	limiter := newTestLimiter(NewMemoryStoreWithClock(clock.Now), 1, clock)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "a").Allowed)
	assert.True(t, limiter.Allow(ctx, "b").Allowed)
	assert.False(t, limiter.Allow(ctx, "a").Allowed)
}

func TestAllowEmptyAddressUsesUnknownBucket(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_728_000_000_000)}
	store := NewMemoryStoreWithClock(clock.Now)
	limiter := newTestLimiter(store, 5, clock)
	ctx := context.Background()

	limiter.Allow(ctx, "")
	limiter.Allow(ctx, UnknownClient)

	c, ok, _ := store.Get(ctx, "rate_limit:unknown")
	require.True(t, ok)
	assert.Equal(t, 2, c.Count)
}

func TestAllowFailsOpen(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_728_000_000_000)}
	ctx := context.Background()

	t.Run("get error", func(t *testing.T) {
		store := &failingStore{getErr: errors.New("connection refused")}
		d := newTestLimiter(store, 1, clock).Allow(ctx, "a")
		assert.True(t, d.Allowed)
		assert.True(t, d.FailedOpen)
		assert.Zero(t, store.puts)
	})

	t.Run("put error", func(t *testing.T) {
		store := &failingStore{putErr: errors.New("read-only replica")}
		limiter := newTestLimiter(store, 1, clock)
		for range 3 {
			d := limiter.Allow(ctx, "a")
			assert.True(t, d.Allowed)
			assert.True(t, d.FailedOpen)
		}
	})
}

func TestNewLimiterDefaultsLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NewLimiter(NewMemoryStore(), 0).Limit())
	assert.Equal(t, 3, NewLimiter(NewMemoryStore(), 3).Limit())
}

func TestMemoryStoreExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", Counter{Count: 1}, time.Minute))
	require.NoError(t, store.Put(ctx, "b", Counter{Count: 1}, time.Hour))

	clock.Advance(2 * time.Minute)
	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 0, store.Sweep())
	assert.Equal(t, 1, store.Len())

	clock.Advance(time.Hour)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

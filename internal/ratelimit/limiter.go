// Package ratelimit implements a per-client fixed-window request counter kept
// in an external keyed store so that several instances share one budget.
package ratelimit

import (
	"context"
	"time"

	"github.com/sheegull/deephand-forms/internal/logging"
)

const (
	// DefaultLimit is the number of requests allowed per window.
	DefaultLimit = 10
	// Window is the length of one clock-aligned bucket.
	Window = time.Hour
	// UnknownClient is the shared bucket for callers without a proxy-supplied address.
	UnknownClient = "unknown"

	keyPrefix = "rate_limit:"
)

// Counter is the stored state of one client address.
type Counter struct {
	Count int   `json:"count"`
	Hour  int64 `json:"hour"`
}

// CounterStore persists counters. Implementations must be safe for concurrent use.
type CounterStore interface {
	// Get returns the counter stored under key; ok is false when there is none.
	Get(ctx context.Context, key string) (c Counter, ok bool, err error)
	// Put stores the counter under key for ttl.
	Put(ctx context.Context, key string, c Counter, ttl time.Duration) error
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Window     int64
	RetryAfter time.Duration
	// FailedOpen is set when the store could not be used and the request was let through.
	FailedOpen bool
}

// Limiter gates requests per client address within hourly windows.
type Limiter struct {
	store  CounterStore
	limit  int
	now    func() time.Time
	logger *logging.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// NewLimiter creates a limiter allowing limit requests per window. A non-positive
// limit falls back to DefaultLimit.
func NewLimiter(store CounterStore, limit int, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	l := &Limiter{
		store:  store,
		limit:  limit,
		now:    time.Now,
		logger: logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the configured ceiling.
func (l *Limiter) Limit() int {
	return l.limit
}

// WindowID returns the hour bucket of t: floor(unixMillis / 3600000).
func WindowID(t time.Time) int64 {
	return t.UnixMilli() / Window.Milliseconds()
}

// Allow records one request from address and decides whether it may proceed.
// Store failures never block the request.
func (l *Limiter) Allow(ctx context.Context, address string) Decision {
	if address == "" {
		address = UnknownClient
	}
	key := keyPrefix + address
	now := l.now()
	window := WindowID(now)

	decision := Decision{
		Allowed: true,
		Limit:   l.limit,
		Window:  window,
	}

	counter, ok, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Warn("Rate limiting failed, continuing: get %s: %v", key, err)
		decision.FailedOpen = true
		decision.Remaining = l.limit - 1
		return decision
	}
	if !ok || counter.Hour != window {
		counter = Counter{Count: 0, Hour: window}
	}

	if counter.Count >= l.limit {
		decision.Allowed = false
		decision.Remaining = 0
		decision.RetryAfter = time.Duration((window+1)*Window.Milliseconds()-now.UnixMilli()) * time.Millisecond
		return decision
	}

	counter.Count++
	decision.Remaining = l.limit - counter.Count
	if err := l.store.Put(ctx, key, counter, Window); err != nil {
		l.logger.Warn("Rate limiting failed, continuing: put %s: %v", key, err)
		decision.FailedOpen = true
	}
	return decision
}

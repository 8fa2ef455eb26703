package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder counts named analytics events.
type MetricsRecorder interface {
	Record(ctx context.Context, event string) error
}

// MetricsService counts events in Redis hashes and on an OpenTelemetry counter.
// Without a Redis client only the OpenTelemetry counter is updated.
type MetricsService struct {
	rdb     redis.Cmdable
	prefix  string
	ttl     time.Duration
	now     func() time.Time
	meters  metric.MeterProvider
	counter metric.Int64Counter
}

// MetricsOption configures a MetricsService.
type MetricsOption func(*MetricsService)

// WithMetricsPrefix sets the key prefix of the Redis hashes.
func WithMetricsPrefix(prefix string) MetricsOption {
	return func(s *MetricsService) { s.prefix = strings.Trim(prefix, ":") }
}

// WithMetricsTTL sets how long daily buckets are kept.
func WithMetricsTTL(d time.Duration) MetricsOption {
	return func(s *MetricsService) { s.ttl = d }
}

// WithMetricsClock overrides the clock used to pick the daily bucket.
func WithMetricsClock(now func() time.Time) MetricsOption {
	return func(s *MetricsService) { s.now = now }
}

// WithMeterProvider exports the event counter through mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) MetricsOption {
	return func(s *MetricsService) { s.meters = mp }
}

// NewMetricsService creates a recorder. rdb may be nil.
func NewMetricsService(rdb redis.Cmdable, opts ...MetricsOption) (*MetricsService, error) {
	s := &MetricsService{
		rdb:    rdb,
		prefix: "metrics",
		ttl:    90 * 24 * time.Hour,
		now:    time.Now,
		meters: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := s.meters.Meter("github.com/sheegull/deephand-forms").Int64Counter(
		"forms.events",
		metric.WithDescription("Accepted form submissions and navigation events"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event counter: %w", err)
	}
	s.counter = counter
	return s, nil
}

// Record increments the cumulative and the daily count of event.
func (s *MetricsService) Record(ctx context.Context, event string) error {
	s.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))

	if s.rdb == nil {
		return nil
	}

	totalKey := s.prefix + ":total"
	dayKey := fmt.Sprintf("%s:day:%s", s.prefix, s.now().UTC().Format("20060102"))

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, totalKey, event, 1)
	pipe.HIncrBy(ctx, dayKey, event, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, dayKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record metric %s: %w", event, err)
	}
	return nil
}

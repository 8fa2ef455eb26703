package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/sheegull/deephand-forms/internal/api/sanitization"
	"github.com/sheegull/deephand-forms/internal/api/validation"
	"github.com/sheegull/deephand-forms/internal/i18n"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/models"
	"github.com/sheegull/deephand-forms/internal/storage"
)

// DefaultDownstreamTimeout bounds each side effect when none is configured.
const DefaultDownstreamTimeout = 10 * time.Second

// SubmissionNotifier delivers an operator notification for an accepted record.
type SubmissionNotifier interface {
	Notify(ctx context.Context, rec models.Record) error
}

// SubmissionArchive keeps an accepted submission in a queryable store.
type SubmissionArchive interface {
	Insert(ctx context.Context, form models.FormType, payload []byte, clientIP string, at time.Time) error
}

// SubmitRequest is one untrusted form body.
type SubmitRequest struct {
	Form     models.FormType
	Fields   map[string]any
	Locale   i18n.Locale
	ClientIP string
}

// SubmitResult describes an accepted submission.
type SubmitResult struct {
	Record models.Record
	Key    string
	// Failed names the side effects that did not complete. They are logged
	// and never reported to the client.
	Failed []string
}

// SubmissionService runs sanitize, validate and the delivery side effects.
type SubmissionService struct {
	validator *validation.Validator
	store     storage.ObjectStore
	notifier  SubmissionNotifier
	metrics   MetricsRecorder
	archive   SubmissionArchive
	timeout   time.Duration
	now       func() time.Time
	logger    *logging.Logger
	tracer    trace.Tracer

	keyMu   sync.Mutex
	lastKey map[models.FormType]int64
}

// SubmissionDeps are the collaborators of a SubmissionService. Archive may be nil.
type SubmissionDeps struct {
	Validator *validation.Validator
	Store     storage.ObjectStore
	Notifier  SubmissionNotifier
	Metrics   MetricsRecorder
	Archive   SubmissionArchive
	Timeout   time.Duration
	Clock     func() time.Time
	Logger    *logging.Logger
}

// NewSubmissionService creates the submission pipeline.
func NewSubmissionService(deps SubmissionDeps) *SubmissionService {
	s := &SubmissionService{
		validator: deps.Validator,
		store:     deps.Store,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		archive:   deps.Archive,
		timeout:   deps.Timeout,
		now:       deps.Clock,
		logger:    deps.Logger,
		tracer:    otel.Tracer("github.com/sheegull/deephand-forms/internal/service"),
		lastKey:   make(map[models.FormType]int64),
	}
	if s.validator == nil {
		s.validator = validation.New()
	}
	if s.timeout <= 0 {
		s.timeout = DefaultDownstreamTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logging.GetLogger()
	}
	return s
}

// Submit sanitizes and validates req. A *validation.ValidationError is
// returned for invalid input. Once valid, the record is persisted, notified,
// counted and archived concurrently; those failures are logged only.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit",
		trace.WithAttributes(attribute.String("form.type", req.Form.String())))
	defer span.End()

	if !req.Form.Valid() {
		err := fmt.Errorf("%w: %q", ErrUnknownForm, req.Form)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rec, err := s.validator.Validate(req.Form, sanitization.SanitizeFields(req.Fields), req.Locale)
	if err != nil {
		span.SetAttributes(attribute.Bool("form.valid", false))
		return nil, err
	}
	span.SetAttributes(attribute.Bool("form.valid", true))

	at := s.uniqueTime(req.Form)
	key := req.Form.ObjectKey(at)
	payload, err := envelope(rec, at)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &SubmitResult{Record: rec, Key: key}
	var mu sync.Mutex
	fail := func(name string, err error) {
		err = logging.WrapError(fmt.Errorf("%w: %w", logging.ErrDownstream, err), name+" "+key)
		s.logger.Error("Submission not fully delivered: %v", err)
		span.AddEvent(name+" failed", trace.WithAttributes(attribute.String("error", err.Error())))
		mu.Lock()
		result.Failed = append(result.Failed, name)
		mu.Unlock()
	}

	// The group context is not used: one failed side effect must not cancel the others.
	var g errgroup.Group
	run := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					fail(name, fmt.Errorf("panic: %v", r))
				}
			}()
			callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
			defer cancel()
			if err := fn(callCtx); err != nil {
				fail(name, err)
			}
			return nil
		})
	}

	run("persist", func(ctx context.Context) error {
		return s.store.Put(ctx, key, payload, "application/json")
	})
	run("notify", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, rec)
	})
	run("metric", func(ctx context.Context) error {
		return s.metrics.Record(ctx, req.Form.MetricName())
	})
	if s.archive != nil {
		run("archive", func(ctx context.Context) error {
			return s.archive.Insert(ctx, req.Form, payload, req.ClientIP, at)
		})
	}
	_ = g.Wait()

	if len(result.Failed) == 0 {
		s.logger.Info("Accepted %s submission %s", req.Form, key)
	}
	return result, nil
}

// uniqueTime returns the submission time, moved forward to the next free
// millisecond when this process already issued a key for form at that instant.
func (s *SubmissionService) uniqueTime(form models.FormType) time.Time {
	at := s.now()
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	ms := at.UnixMilli()
	if last := s.lastKey[form]; ms <= last {
		ms = last + 1
		at = time.UnixMilli(ms)
	}
	s.lastKey[form] = ms
	return at
}

// Track sanitizes and records a navigation event. Failures are logged only.
func (s *SubmissionService) Track(ctx context.Context, ev models.NavigationEvent) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ev.From = sanitization.SanitizeString(ev.From)
	ev.To = sanitization.SanitizeString(ev.To)
	ev.Element = sanitization.SanitizeString(ev.Element)
	s.logger.Debug("Navigation %s -> %s via %s at %d", ev.From, ev.To, ev.Element, ev.Timestamp)

	if err := s.metrics.Record(ctx, "navigation"); err != nil {
		s.logger.Warn("Failed to record navigation event: %v", err)
	}
}

// envelope is the stored object: the record plus timestamp and type.
func envelope(rec models.Record, at time.Time) ([]byte, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	doc["timestamp"] = at.UnixMilli()
	doc["type"] = rec.FormType().String()
	return json.Marshal(doc)
}

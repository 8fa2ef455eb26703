package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheegull/deephand-forms/internal/api/handlers"
	"github.com/sheegull/deephand-forms/internal/config"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/ratelimit"
	"github.com/sheegull/deephand-forms/internal/service"
)

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memObjects) Put(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = body
	return nil
}

func (m *memObjects) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type memSender struct {
	mu   sync.Mutex
	sent []service.SendEmailParams
}

func (m *memSender) SendEmail(_ context.Context, p service.SendEmailParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, p)
	return nil
}

type memMetrics struct {
	mu     sync.Mutex
	events []string
}

func (m *memMetrics) Record(_ context.Context, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

type downObjects struct{}

func (downObjects) Put(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}

type downSender struct{}

func (downSender) SendEmail(context.Context, service.SendEmailParams) error {
	return errors.New("mail provider unavailable")
}

type downMetrics struct{}

func (downMetrics) Record(context.Context, string) error {
	return errors.New("metrics unavailable")
}

type rejectingVerifier struct{}

func (rejectingVerifier) Enabled() bool { return true }

func (rejectingVerifier) VerifyToken(context.Context, string, string) error {
	return service.ErrRecaptchaFailed
}

type harness struct {
	router  http.Handler
	objects *memObjects
	sender  *memSender
	metrics *memMetrics
}

func testConfig() *config.Config {
	return &config.Config{
		Environment:        "production",
		AllowedOrigins:     []string{"https://deephand.pages.dev"},
		ContactEmail:       "contact@deephandai.com",
		MaxRequestsPerHour: 10,
		AnalyticsRPS:       1000,
		AnalyticsBurst:     1000,
		DownstreamTimeout:  time.Second,
	}
}

func newHarness(t *testing.T, cfg *config.Config, mutate func(*Dependencies)) *harness {
	t.Helper()

	now := time.Date(2025, 6, 1, 10, 15, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	h := &harness{
		objects: &memObjects{},
		sender:  &memSender{},
		metrics: &memMetrics{},
	}
	deps := Dependencies{
		CounterStore: ratelimit.NewMemoryStoreWithClock(clock),
		ObjectStore:  h.objects,
		EmailSender:  h.sender,
		Metrics:      h.metrics,
		Clock:        clock,
	}
	if mutate != nil {
		mutate(&deps)
	}
	h.router = NewRouter(cfg, logging.Discard(), deps)
	return h
}

func (h *harness) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const validContact = `{"name":"Taro","email":"taro@example.com","message":"Hello"}`

func TestContactAccepted(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	w := h.do(http.MethodPost, "/api/contact", validContact, map[string]string{
		"Origin":           "https://deephand.pages.dev",
		"CF-Connecting-IP": "203.0.113.7",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	assert.Equal(t, "https://deephand.pages.dev", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "10", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", w.Header().Get("X-RateLimit-Remaining"))
	reset := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC).Unix()
	assert.Equal(t, strconv.FormatInt(reset, 10), w.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, 1, h.objects.count())
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "contact@deephandai.com", h.sender.sent[0].SendTo)
	assert.Contains(t, h.metrics.events, "contact_form_submission")
}

func TestRequestDataAccepted(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	body := `{
		"name":"Hanako","email":"hanako@example.com","backgroundPurpose":"Training",
		"dataType":["image","other"],"dataDetails":"Drone footage",
		"dataVolume":"10k","deadline":"Q3","budget":"TBD"
	}`
	w := h.do(http.MethodPost, "/api/request-data", body, nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, h.metrics.events, "data_request_submission")
	require.Len(t, h.sender.sent, 1)
	assert.Contains(t, h.sender.sent[0].TextBody, "image, other")
}

func TestSubmissionSucceedsWhenDownstreamFails(t *testing.T) {
	h := newHarness(t, testConfig(), func(d *Dependencies) {
		d.ObjectStore = downObjects{}
		d.EmailSender = downSender{}
		d.Metrics = downMetrics{}
	})

	for _, tc := range []struct{ path, body string }{
		{"/api/contact", validContact},
		{"/api/request-data", `{
			"name":"Hanako","email":"hanako@example.com","backgroundPurpose":"Training",
			"dataType":["video"],"dataDetails":"Drone footage",
			"dataVolume":"10k","deadline":"Q3","budget":"TBD"
		}`},
	} {
		t.Run(tc.path, func(t *testing.T) {
			w := h.do(http.MethodPost, tc.path, tc.body, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.JSONEq(t, `{"success":true}`, w.Body.String())
		})
	}
}

func TestContactValidationFailure(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	w := h.do(http.MethodPost, "/api/contact", `{"name":"Taro","email":"nope","message":""}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Validation failed", out["error"])
	details, ok := out["details"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "message")
	assert.Zero(t, h.objects.count())
	assert.Empty(t, h.sender.sent)
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	for _, body := range []string{`{"name":`, `[1,2,3]`, `null`} {
		w := h.do(http.MethodPost, "/api/contact", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Invalid request body", decode(t, w)["error"], body)
	}
}

func TestRateLimitPerAddress(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	headers := map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"}

	for i := 0; i < 10; i++ {
		w := h.do(http.MethodPost, "/api/contact", validContact, headers)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := h.do(http.MethodPost, "/api/contact", validContact, headers)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Rate limit exceeded. Please try again in an hour.", out["error"])
	// The fixed clock sits 15 minutes into the hour.
	assert.EqualValues(t, 45*60*1000, out["remainingTime"])
	assert.Equal(t, "2700", w.Header().Get("Retry-After"))

	// The limit counts both forms together but not other addresses.
	w = h.do(http.MethodPost, "/api/request-data", `{}`, headers)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	w = h.do(http.MethodPost, "/api/contact", validContact, map[string]string{"X-Real-IP": "198.51.100.2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnsupportedMediaType(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewBufferString("name=Taro"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestMethodAndRouteErrors(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	w := h.do(http.MethodGet, "/api/contact", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = h.do(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	w := h.do(http.MethodOptions, "/api/contact", "", map[string]string{
		"Origin":                        "https://deephand.pages.dev",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://deephand.pages.dev", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Recaptcha-Token")

	w = h.do(http.MethodPost, "/api/contact", validContact, map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, h.objects.count())
}

func TestDevelopmentAcceptsAnyOrigin(t *testing.T) {
	cfg := testConfig()
	cfg.Environment = "development"
	h := newHarness(t, cfg, nil)

	w := h.do(http.MethodPost, "/api/contact", validContact, map[string]string{"Origin": "http://localhost:4321"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:4321", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecaptchaRejection(t *testing.T) {
	h := newHarness(t, testConfig(), func(d *Dependencies) {
		d.Recaptcha = rejectingVerifier{}
	})

	w := h.do(http.MethodPost, "/api/contact", validContact, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "reCAPTCHA verification failed", decode(t, w)["error"])
	assert.Zero(t, h.objects.count())
}

func TestAnalytics(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	w := h.do(http.MethodPost, "/api/analytics",
		`{"from":"/","to":"/contact","element":"nav-link","timestamp":1717236900000}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, h.metrics.events, "navigation")

	w = h.do(http.MethodPost, "/api/analytics", `{"from":"/"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.AnalyticsRPS = 0.001
	cfg.AnalyticsBurst = 1
	h := newHarness(t, cfg, nil)

	body := `{"from":"/","to":"/about","element":"footer","timestamp":1}`
	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/analytics", body, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/api/analytics", body, nil).Code)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	w := h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	h = newHarness(t, testConfig(), func(d *Dependencies) {
		d.HealthChecks = map[string]handlers.HealthCheck{
			"redis": func(context.Context) error { return errors.New("connection refused") },
		}
	})
	w = h.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	out := decode(t, w)
	assert.Equal(t, "degraded", out["status"])
	assert.Equal(t, map[string]any{"redis": "connection refused"}, out["checks"])
}

func TestRequestIDEchoed(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	w := h.do(http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = h.do(http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

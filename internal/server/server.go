package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sheegull/deephand-forms/internal/api/handlers"
	"github.com/sheegull/deephand-forms/internal/api/middleware"
	"github.com/sheegull/deephand-forms/internal/api/validation"
	"github.com/sheegull/deephand-forms/internal/config"
	"github.com/sheegull/deephand-forms/internal/db"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/ratelimit"
	"github.com/sheegull/deephand-forms/internal/repository"
	"github.com/sheegull/deephand-forms/internal/server/routes"
	"github.com/sheegull/deephand-forms/internal/service"
	"github.com/sheegull/deephand-forms/internal/storage"
	"github.com/sheegull/deephand-forms/internal/tasks"
	"github.com/sheegull/deephand-forms/internal/telemetry"
)

// MaxBodyBytes caps every JSON request body.
const MaxBodyBytes = 64 << 10

const shutdownTimeout = 10 * time.Second

// NewRouter builds the gin engine serving the form, analytics and health routes.
func NewRouter(cfg *config.Config, logger *logging.Logger, deps Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Disable Gin's default logger entirely because we're using our custom logger
	gin.DisableConsoleColor()
	gin.DefaultWriter = io.Discard

	router := gin.New()
	router.HandleMethodNotAllowed = true

	routes.SetupGlobalMiddleware(router, logger, routes.GlobalOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		Development:    !cfg.IsProduction(),
	})

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	var notifier service.SubmissionNotifier = service.NewNotifier(deps.EmailSender, cfg.ContactEmail)
	if deps.ChatAlerts != nil {
		notifier = service.MultiNotifier{notifier, deps.ChatAlerts}
	}

	validator := validation.New()
	submissions := service.NewSubmissionService(service.SubmissionDeps{
		Validator: validator,
		Store:     deps.ObjectStore,
		Notifier:  notifier,
		Metrics:   deps.Metrics,
		Archive:   deps.Archive,
		Timeout:   cfg.DownstreamTimeout,
		Clock:     clock,
		Logger:    logger,
	})

	limiter := ratelimit.NewLimiter(deps.CounterStore, cfg.MaxRequestsPerHour,
		ratelimit.WithClock(clock),
		ratelimit.WithLogger(logger),
	)

	h := &routes.Handlers{
		Submission: handlers.NewSubmissionHandler(submissions),
		Analytics:  handlers.NewAnalyticsHandler(submissions, validator),
		Health:     handlers.NewHealthHandler(deps.HealthChecks),
	}
	m := &routes.Middleware{
		SubmissionLimit: middleware.FixedWindowRateLimit(limiter),
		AnalyticsThrottle: middleware.RateLimitMiddleware(middleware.RateLimitConfig{
			RPS:   cfg.AnalyticsRPS,
			Burst: cfg.AnalyticsBurst,
		}),
		Recaptcha:    middleware.Recaptcha(deps.Recaptcha, logger),
		MaxBodyBytes: MaxBodyBytes,
	}
	routes.Setup(router, h, m)

	return router
}

// NewServer connects the backing services named by cfg and builds the router.
// Unset optional services fall back to in-process or local implementations.
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	deps, err := s.buildDependencies(ctx)
	if err != nil {
		s.close(ctx)
		return nil, err
	}

	s.router = NewRouter(cfg, logger, deps)
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) buildDependencies(ctx context.Context) (Dependencies, error) {
	cfg := s.cfg
	deps := Dependencies{HealthChecks: make(map[string]handlers.HealthCheck)}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return deps, err
	}
	s.closers = append(s.closers, shutdownTracing)

	var rdb redis.Cmdable
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return deps, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		s.closers = append(s.closers, func(context.Context) error { return client.Close() })
		rdb = client

		deps.CounterStore = ratelimit.NewRedisStore(client)
		deps.HealthChecks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		s.logger.Info("Using Redis for rate-limit counters and metrics")
	} else {
		store := ratelimit.NewMemoryStore()
		deps.CounterStore = store
		s.cleanup = tasks.NewCounterCleanup(store, 0)
		s.logger.Warn("REDIS_URL is not set, rate-limit counters are kept in memory")
	}

	metrics, err := service.NewMetricsService(rdb)
	if err != nil {
		return deps, err
	}
	deps.Metrics = metrics

	if cfg.StorageBucket != "" {
		objects, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:      cfg.StorageBucket,
			Region:      cfg.StorageRegion,
			Endpoint:    cfg.StorageEndpoint,
			AccessKeyID: cfg.StorageAccessKey,
			SecretKey:   cfg.StorageSecretKey,
		})
		if err != nil {
			return deps, err
		}
		deps.ObjectStore = objects
	} else {
		objects, err := storage.NewLocalStore(cfg.StorageLocalDir)
		if err != nil {
			return deps, err
		}
		deps.ObjectStore = objects
		s.logger.Warn("FORM_STORAGE_BUCKET is not set, submissions are written to %s", objects.Root())
	}

	if cfg.PostmarkServerToken != "" {
		sender, err := service.NewPostmarkSender(service.PostmarkConfig{
			ServerToken:  cfg.PostmarkServerToken,
			AccountToken: cfg.PostmarkAccountToken,
			SenderEmail:  cfg.SenderEmail,
		})
		if err != nil {
			return deps, err
		}
		deps.EmailSender = sender
	} else {
		deps.EmailSender = service.NewDevSender(cfg.MailDir)
		s.logger.Warn("POSTMARK_SERVER_TOKEN is not set, notifications are written to %s", cfg.MailDir)
	}

	if cfg.TelegramBotToken != "" || cfg.TelegramChatID != "" {
		alerts, err := service.NewTelegramNotifier(service.TelegramConfig{
			BotToken: cfg.TelegramBotToken,
			ChatID:   cfg.TelegramChatID,
		})
		if err != nil {
			return deps, err
		}
		deps.ChatAlerts = alerts
	}

	if cfg.DatabaseURL != "" {
		drv, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return deps, err
		}
		s.closers = append(s.closers, func(context.Context) error { return drv.Close() })
		deps.Archive = repository.NewSubmissionRepository(drv)
		deps.HealthChecks["database"] = func(ctx context.Context) error {
			return drv.DB().PingContext(ctx)
		}
	}

	recaptcha := service.NewRecaptchaService(cfg.RecaptchaSecretKey, cfg.RecaptchaMinScore)
	if recaptcha.Enabled() {
		deps.Recaptcha = recaptcha
	}

	return deps, nil
}

// Start serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	if s.cleanup != nil {
		s.cleanup.Start()
		s.logger.Info("Started rate-limit counter cleanup task")
	}
	defer s.close(context.Background())

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) close(ctx context.Context) {
	if s.cleanup != nil {
		s.cleanup.Stop()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.logger.Warn("Error during shutdown: %v", err)
		}
	}
	s.closers = nil
}

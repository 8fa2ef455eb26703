package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/handlers"
	"github.com/sheegull/deephand-forms/internal/api/middleware"
	"github.com/sheegull/deephand-forms/internal/config"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/ratelimit"
	"github.com/sheegull/deephand-forms/internal/service"
	"github.com/sheegull/deephand-forms/internal/storage"
	"github.com/sheegull/deephand-forms/internal/tasks"
)

// Dependencies are the backing services of the HTTP surface. ChatAlerts,
// Archive, Recaptcha and HealthChecks are optional.
type Dependencies struct {
	CounterStore ratelimit.CounterStore
	ObjectStore  storage.ObjectStore
	EmailSender  service.EmailSender
	ChatAlerts   service.SubmissionNotifier
	Metrics      service.MetricsRecorder
	Archive      service.SubmissionArchive
	Recaptcha    middleware.TokenVerifier
	HealthChecks map[string]handlers.HealthCheck
	Clock        func() time.Time
}

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	logger     *logging.Logger
	router     *gin.Engine
	httpServer *http.Server
	cleanup    *tasks.CounterCleanup
	closers    []func(context.Context) error
}

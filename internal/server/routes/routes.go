package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sheegull/deephand-forms/internal/api/dto/common"
	"github.com/sheegull/deephand-forms/internal/api/middleware"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/telemetry"
)

// GlobalOptions configures middleware applied to every route
type GlobalOptions struct {
	AllowedOrigins []string
	Development    bool
}

// Setup configures all route groups
func Setup(router *gin.Engine, h *Handlers, m *Middleware) {
	logger := logging.GetLogger()

	SetupHealthRoutes(router, h.Health)

	api := router.Group("/api")
	SetupFormRoutes(api, h.Submission, m)
	SetupAnalyticsRoutes(api, h.Analytics, m)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.NewErrorResponse(common.ErrCodeNotFound, "Not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, common.NewErrorResponse(common.ErrCodeMethodNotAllowed, "Method not allowed"))
	})

	logger.Debug("All routes have been set up successfully")
}

// SetupGlobalMiddleware configures middleware that applies to all routes
func SetupGlobalMiddleware(router *gin.Engine, logger *logging.Logger, opts GlobalOptions) {
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(telemetry.ServiceName))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: opts.AllowedOrigins,
		Development:    opts.Development,
	}))
	router.Use(middleware.Locale())
}

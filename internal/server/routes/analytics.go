package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/handlers"
	"github.com/sheegull/deephand-forms/internal/api/middleware"
)

// SetupAnalyticsRoutes configures the navigation analytics endpoint
func SetupAnalyticsRoutes(api *gin.RouterGroup, analytics *handlers.AnalyticsHandler, m *Middleware) {
	chain := []gin.HandlerFunc{
		middleware.RequireJSON(),
		middleware.BodyLimit(m.MaxBodyBytes),
	}
	if m.AnalyticsThrottle != nil {
		chain = append(chain, m.AnalyticsThrottle)
	}

	api.POST("/analytics", with(chain, analytics.Navigation)...)
	api.OPTIONS("/analytics", preflight)
}

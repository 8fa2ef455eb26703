package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/handlers"
	"github.com/sheegull/deephand-forms/internal/api/middleware"
)

// SetupFormRoutes configures the lead-capture form endpoints
func SetupFormRoutes(api *gin.RouterGroup, submission *handlers.SubmissionHandler, m *Middleware) {
	chain := []gin.HandlerFunc{
		middleware.RequireJSON(),
		middleware.BodyLimit(m.MaxBodyBytes),
	}
	if m.SubmissionLimit != nil {
		chain = append(chain, m.SubmissionLimit)
	}
	if m.Recaptcha != nil {
		chain = append(chain, m.Recaptcha)
	}

	api.POST("/contact", with(chain, submission.Contact)...)
	api.POST("/request-data", with(chain, submission.RequestData)...)

	// Preflight is answered by the CORS middleware; these keep the paths
	// from being reported as 405 for OPTIONS.
	api.OPTIONS("/contact", preflight)
	api.OPTIONS("/request-data", preflight)
}

func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// with returns a fresh chain ending in handler.
func with(chain []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, handler)
}

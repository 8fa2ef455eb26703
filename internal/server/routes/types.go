package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/handlers"
)

// Handlers contains all the route handlers
type Handlers struct {
	Submission *handlers.SubmissionHandler
	Analytics  *handlers.AnalyticsHandler
	Health     *handlers.HealthHandler
}

// Middleware contains the route-specific middleware
type Middleware struct {
	// SubmissionLimit is the hourly per-address ceiling on form submissions
	SubmissionLimit gin.HandlerFunc
	// AnalyticsThrottle is the process-wide token bucket for navigation events
	AnalyticsThrottle gin.HandlerFunc
	Recaptcha         gin.HandlerFunc
	// MaxBodyBytes caps JSON bodies on every POST route
	MaxBodyBytes int64
}

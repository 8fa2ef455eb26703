package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/constants"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// RequestLogger is a middleware that logs request information.
// It is a no-op unless the logger was configured with LOG_REQUESTS=true.
func RequestLogger(logger *logging.Logger) gin.HandlerFunc {
	if !logger.RequestsEnabled() {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		logger.LogHTTPRequest(
			method,
			path,
			utils.GetRealIP(c),
			c.Writer.Status(),
			c.Writer.Size(),
			fmt.Sprintf("%v %s", latency, c.GetString(constants.ContextKeyRequestID)),
		)
	}
}

package utils

import (
	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/dto/common"
	"github.com/sheegull/deephand-forms/internal/logging"
)

// HandleAPIError is a utility function for consistent error handling across the API
// Error details are only exposed outside release mode
func HandleAPIError(c *gin.Context, err error, status int, code common.ErrorCode, message string) {
	logger := logging.GetLogger()
	logger.LogHTTPError(
		c.Request.Method,
		c.Request.URL.Path,
		GetRealIP(c),
		status,
		message,
		err,
	)

	resp := common.NewErrorResponse(code, message)
	resp.Message = "An unexpected error occurred"
	if err != nil && gin.Mode() != gin.ReleaseMode {
		resp.Message = err.Error()
	}
	c.AbortWithStatusJSON(status, resp)
}

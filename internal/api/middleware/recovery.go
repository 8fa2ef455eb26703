package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/constants"
	"github.com/sheegull/deephand-forms/internal/api/dto/common"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// Recovery turns panics into the generic 500 response
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := fmt.Errorf("panic: %v", recovered)
		logger.Error("[PANIC] %s %s | %s | %s | %v\n%s",
			c.Request.Method,
			c.Request.URL.Path,
			utils.GetRealIP(c),
			c.GetString(constants.ContextKeyRequestID),
			recovered,
			debug.Stack(),
		)

		resp := common.NewErrorResponse(common.ErrCodeInternalServer, common.MsgInternalError)
		resp.Message = "An unexpected error occurred"
		if gin.Mode() != gin.ReleaseMode {
			resp.Message = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/dto/common"
)

// RequireJSON rejects bodies that are not declared as application/json
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != gin.MIMEJSON {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType,
				common.NewErrorResponse(common.ErrCodeUnsupportedMedia, "Content-Type must be application/json"))
			return
		}
		c.Next()
	}
}

// BodyLimit caps the request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				common.NewErrorResponse(common.ErrCodeBadRequest, "Request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

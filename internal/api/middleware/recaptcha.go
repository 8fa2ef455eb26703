package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheegull/deephand-forms/internal/api/constants"
	"github.com/sheegull/deephand-forms/internal/api/dto/common"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// TokenVerifier checks a bot-protection token
type TokenVerifier interface {
	Enabled() bool
	VerifyToken(ctx context.Context, token, remoteIP string) error
}

// Recaptcha requires a valid X-Recaptcha-Token when verification is enabled
func Recaptcha(verifier TokenVerifier, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil || !verifier.Enabled() {
			c.Next()
			return
		}

		token := c.GetHeader(constants.HeaderRecaptchaToken)
		if err := verifier.VerifyToken(c.Request.Context(), token, utils.ClientAddress(c.Request.Header)); err != nil {
			logger.Warn("reCAPTCHA rejected %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusBadRequest,
				common.NewErrorResponse(common.ErrCodeBadRequest, common.MsgRecaptchaFailed))
			return
		}

		c.Next()
	}
}

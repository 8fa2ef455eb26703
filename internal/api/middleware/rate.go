package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sheegull/deephand-forms/internal/api/constants"
	"github.com/sheegull/deephand-forms/internal/api/dto/common"
	"github.com/sheegull/deephand-forms/internal/ratelimit"
	"github.com/sheegull/deephand-forms/internal/utils"
)

// RateLimitConfig defines configuration for the process-wide token bucket
type RateLimitConfig struct {
	// Requests per second
	RPS float64
	// Burst size (number of requests that can be made in a single burst)
	Burst int
}

// RateLimitMiddleware throttles all requests passing through it with one token bucket
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(config.RPS), config.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header(constants.HeaderRetryAfter, "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.NewErrorResponse(common.ErrCodeTooManyRequests, common.MsgThrottled))
			return
		}

		c.Header(constants.HeaderRateLimit, strconv.FormatFloat(config.RPS, 'f', -1, 64))
		c.Header(constants.HeaderRateRemaining, strconv.Itoa(int(limiter.Tokens())))

		c.Next()
	}
}

// FixedWindowRateLimit enforces the hourly per-address submission ceiling
func FixedWindowRateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := utils.ClientAddress(c.Request.Header)
		d := limiter.Allow(c.Request.Context(), address)

		c.Header(constants.HeaderRateLimit, strconv.Itoa(d.Limit))
		c.Header(constants.HeaderRateRemaining, strconv.Itoa(d.Remaining))
		if !d.FailedOpen {
			reset := (d.Window + 1) * int64(ratelimit.Window/time.Second)
			c.Header(constants.HeaderRateReset, strconv.FormatInt(reset, 10))
		}

		if !d.Allowed {
			retryAfter := int((d.RetryAfter + time.Second - 1) / time.Second)
			c.Header(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))

			resp := common.NewErrorResponse(common.ErrCodeTooManyRequests, common.MsgRateLimited)
			resp.RemainingTime = d.RetryAfter.Milliseconds()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}

		c.Next()
	}
}

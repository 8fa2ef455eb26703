package constants

// Context keys set by middleware
const (
	ContextKeyRequestID = "RequestID"
	ContextKeyLocale    = "locale"
)

// Request and response headers
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderRecaptchaToken = "X-Recaptcha-Token"
	HeaderRetryAfter     = "Retry-After"
	HeaderRateLimit      = "X-RateLimit-Limit"
	HeaderRateRemaining  = "X-RateLimit-Remaining"
	HeaderRateReset      = "X-RateLimit-Reset"
)

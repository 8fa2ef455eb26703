package common

// SuccessResponse is returned for every accepted request
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is a standardized error response structure
type ErrorResponse struct {
	Error         string            `json:"error"`
	Code          string            `json:"code,omitempty"`
	Message       string            `json:"message,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	RemainingTime int64             `json:"remainingTime,omitempty"`
}

// HealthResponse reports service liveness and dependency checks
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Define type for error codes to enforce consistency
type ErrorCode string

// Standard error codes
const (
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeUnsupportedMedia ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
	ErrCodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeInternalServer   ErrorCode = "INTERNAL_SERVER_ERROR"
)

// Standard error messages
const (
	MsgValidationFailed = "Validation failed"
	MsgInternalError    = "Internal server error"
	MsgRateLimited      = "Rate limit exceeded. Please try again in an hour."
	MsgThrottled        = "Rate limit exceeded. Please try again later."
	MsgInvalidBody      = "Invalid request body"
	MsgRecaptchaFailed  = "reCAPTCHA verification failed"
)

// NewSuccessResponse creates a new successful API response
func NewSuccessResponse() SuccessResponse {
	return SuccessResponse{Success: true}
}

// NewErrorResponse creates a new error API response
func NewErrorResponse(code ErrorCode, message string) ErrorResponse {
	return ErrorResponse{
		Error: message,
		Code:  string(code),
	}
}

// NewValidationResponse creates the field-keyed validation failure response
func NewValidationResponse(details map[string]string) ErrorResponse {
	return ErrorResponse{
		Error:   MsgValidationFailed,
		Code:    string(ErrCodeValidation),
		Details: details,
	}
}

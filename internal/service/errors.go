package service

import "errors"

// Sentinel errors for service layer
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidEmail      = errors.New("invalid email parameters")
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrRecaptchaFailed   = errors.New("reCAPTCHA verification failed")
	ErrUnknownForm       = errors.New("unknown form type")
)

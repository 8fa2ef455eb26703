package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaService handles reCAPTCHA v3 verification
type RecaptchaService struct {
	secretKey string
	minScore  float64
	verifyURL string
	client    *http.Client
}

// RecaptchaOption configures a RecaptchaService.
type RecaptchaOption func(*RecaptchaService)

// WithVerifyURL points verification at another endpoint, e.g. a test server.
func WithVerifyURL(u string) RecaptchaOption {
	return func(s *RecaptchaService) { s.verifyURL = u }
}

// WithRecaptchaHTTPClient sets the HTTP client used for verification.
func WithRecaptchaHTTPClient(c *http.Client) RecaptchaOption {
	return func(s *RecaptchaService) { s.client = c }
}

// NewRecaptchaService creates a new reCAPTCHA service
func NewRecaptchaService(secretKey string, minScore float64, opts ...RecaptchaOption) *RecaptchaService {
	s := &RecaptchaService{
		secretKey: secretKey,
		minScore:  minScore,
		verifyURL: defaultVerifyURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a secret key is configured.
func (s *RecaptchaService) Enabled() bool {
	return s != nil && s.secretKey != ""
}

// recaptchaResponse represents the response from Google's reCAPTCHA API
type recaptchaResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// VerifyToken verifies a reCAPTCHA token. Every failure wraps ErrRecaptchaFailed.
func (s *RecaptchaService) VerifyToken(ctx context.Context, token, remoteIP string) error {
	if s.secretKey == "" {
		return fmt.Errorf("%w: secret key not configured", ErrRecaptchaFailed)
	}
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrRecaptchaFailed)
	}

	data := url.Values{}
	data.Set("secret", s.secretKey)
	data.Set("response", token)
	if remoteIP != "" {
		data.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.verifyURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecaptchaFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", ErrRecaptchaFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrRecaptchaFailed, resp.StatusCode)
	}

	var result recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrRecaptchaFailed, err)
	}

	if !result.Success {
		return fmt.Errorf("%w: %v", ErrRecaptchaFailed, result.ErrorCodes)
	}

	// Check score (for reCAPTCHA v3)
	if result.Score < s.minScore {
		return fmt.Errorf("%w: score too low: %.2f < %.2f", ErrRecaptchaFailed, result.Score, s.minScore)
	}

	return nil
}

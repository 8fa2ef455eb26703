package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientAddress returns the caller address supplied by a trusted proxy, or ""
// when no proxy header is present. CF-Connecting-IP wins over X-Real-IP, which
// wins over the first entry of X-Forwarded-For.
func ClientAddress(h http.Header) string {
	// Set by Cloudflare
	if ip := strings.TrimSpace(h.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	// Set by Caddy / nginx
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For can be a comma-separated list
	// Format: client, proxy1, proxy2, ...
	// We want the first (leftmost) IP which is the client
	if forwardedFor := h.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	return ""
}

// GetRealIP extracts the client IP for logging, falling back to the socket peer
func GetRealIP(c *gin.Context) string {
	if ip := ClientAddress(c.Request.Header); ip != "" {
		return ip
	}
	return c.ClientIP()
}

package sanitization

import (
	"html"
	"strings"
)

// SanitizeString trims surrounding whitespace and HTML-entity-encodes the input.
// Existing entities are decoded first so that sanitizing twice yields the same result.
func SanitizeString(input string) string {
	return html.EscapeString(strings.TrimSpace(html.UnescapeString(input)))
}

// SanitizeFields returns a copy of fields with every string value sanitized.
// Non-string values are copied through untouched; the input map is never modified.
func SanitizeFields(fields map[string]any) map[string]any {
	sanitized := make(map[string]any, len(fields))
	for key, value := range fields {
		if s, ok := value.(string); ok {
			sanitized[key] = SanitizeString(s)
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

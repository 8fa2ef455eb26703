package utils

import (
	"regexp"
	"strings"
)

// EmailRegex accepts local@domain where neither part contains whitespace or '@'
// and the domain contains at least one dot with non-empty labels around it.
var EmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(?:\.[^\s@.]+)+$`)

// IsValidEmailAddress checks if the provided string is a syntactically valid address
func IsValidEmailAddress(address string) bool {
	if len(address) > 254 || strings.TrimSpace(address) != address {
		return false
	}
	return EmailRegex.MatchString(address)
}

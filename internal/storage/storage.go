// Package storage persists accepted submissions as JSON objects.
package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")
	ErrInvalidKey    = errors.New("storage: invalid object key")
	ErrPutFailed     = errors.New("storage: put object failed")
)

// ObjectStore writes whole objects under a key.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// validateKey rejects keys that could escape the bucket prefix or a local root.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

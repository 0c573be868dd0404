// Package env reads loose process settings that sit outside pkg/config.
package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, trimmed.
func First(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}

// Or returns First(keys...) or fallback when every key is blank.
func Or(fallback string, keys ...string) string {
	if val := First(keys...); val != "" {
		return val
	}
	return fallback
}

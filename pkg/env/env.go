// Package env reads process environment values that are needed before
// config.Load runs, such as the log format.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if val = strings.TrimSpace(val); val == "" {
		return fallback
	}
	return val
}

// Package github is a small REST client for the part of the GitHub API the
// cals commands consume: organization repository listings. It
// authenticates with a token, follows Link-header pagination, revalidates
// cached responses with ETags and honours the rate limit headers.
package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, github.ErrNotFound) to check.
var (
	ErrUnauthorized = errors.New("github: unauthorized")
	ErrForbidden    = errors.New("github: forbidden")
	ErrNotFound     = errors.New("github: not found")
	ErrRateLimited  = errors.New("github: rate limited")
	ErrServerError  = errors.New("github: server error")
)

// APIError is a non-2xx response from the API. Err is the sentinel for
// errors.Is, nil for statuses without one.
type APIError struct {
	StatusCode       int
	Message          string
	DocumentationURL string
	Err              error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code and message to a sentinel error.
func classifyStatus(code int, message string) error {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusForbidden && isRateLimitMessage(message):
		return ErrRateLimited
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return nil
	}
}

// isRateLimitMessage tells a rate-limit 403 apart from a permission 403.
func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)

	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse detection")
}

// Package provider holds helpers shared by the protocol adapters.
package provider

import (
	"net/http"
	"strconv"
	"time"

	ai "github.com/spetersoncode/relay"
)

// WrapStatus categorizes an SDK error by its HTTP status code.
// It extracts Retry-After from resp for proper retry handling. msg should be
// a short prefix; the SDK error's own text is appended as the cause.
func WrapStatus(msg string, err error, code int, resp *http.Response) error {
	if retryAfter := ParseRetryAfter(resp); retryAfter > 0 {
		return ai.NewTransientErrorWithRetry(msg, code, retryAfter, err)
	}

	switch CategorizeStatusCode(code) {
	case ai.ErrorTransient:
		return ai.NewTransientError(msg, code, err)
	case ai.ErrorUserInput:
		return ai.NewUserInputError(msg, code, err)
	default:
		return ai.NewPermanentError(msg, code, err)
	}
}

// CategorizeStatusCode determines the error category from an HTTP status code.
func CategorizeStatusCode(code int) ai.ErrorCategory {
	switch {
	case code == http.StatusTooManyRequests:
		return ai.ErrorTransient
	case code >= 500 && code < 600:
		return ai.ErrorTransient
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ai.ErrorPermanent
	case code == http.StatusBadRequest || code == http.StatusNotFound || code == http.StatusUnprocessableEntity:
		return ai.ErrorUserInput
	default:
		return ai.ErrorPermanent
	}
}

// ParseRetryAfter extracts the Retry-After duration from an HTTP response.
// Returns 0 if the header is not present or cannot be parsed.
func ParseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}

	// HTTP-date form (RFC 7231)
	if t, err := http.ParseTime(header); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return 0
}

package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"

	ai "github.com/spetersoncode/relay"
)

// statusCoder matches errors exposing an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether err should be retried.
// Categorized relay errors decide for themselves. Anything else falls back to
// heuristics on status codes and network failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce ai.CategorizedError
	if errors.As(err, &ce) {
		return ce.Category() == ai.ErrorTransient
	}

	var sc statusCoder
	if errors.As(err, &sc) && isTransientStatusCode(sc.StatusCode()) {
		return true
	}

	return isTransientNetworkError(err)
}

// isTransientStatusCode covers rate limiting and server errors.
func isTransientStatusCode(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}

func isTransientNetworkError(err error) bool {
	// Cancellation is the caller's decision.
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"rate limit",
	"bad gateway",
	"gateway timeout",
}

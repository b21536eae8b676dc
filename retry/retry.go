package retry

import (
	"context"
	"time"

	ai "github.com/spetersoncode/relay"
)

// effectiveDelay honors the server's Retry-After when it exceeds the backoff.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := ai.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do executes fn, retrying transient failures with backoff.
// It respects context cancellation during backoff waits and returns the
// last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := effectiveDelay(cfg.Delay(attempt), err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// DoStream is like Do but for functions that return a channel.
// It retries establishing the stream, not individual events.
func DoStream[T any](ctx context.Context, cfg Config, fn func() (<-chan T, error)) (<-chan T, error) {
	return Do(ctx, cfg, fn)
}

// Package retry provides retry logic with exponential backoff for transient errors.
//
// The adapters never retry on their own. Callers opt in by wrapping a
// provider with middleware.Retry or by calling Do directly.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry configuration parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts.
	// The initial request counts as attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier is the exponential backoff multiplier.
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd (0.1 = 10%).
	Jitter float64

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig returns the default retry configuration:
// 5 attempts, 1s initial delay, 30s max delay, 2x multiplier, 10% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a configuration that makes a single attempt.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay calculates the delay for a given attempt number (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 ± jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}

package middleware

import (
	"context"
	"time"

	ai "github.com/spetersoncode/relay"
	"golang.org/x/time/rate"
)

// RateLimit waits on limiter before each call. Waiting honors the caller's
// context; a cancelled wait returns the context error without calling next.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next ai.ChatProvider) ai.ChatProvider {
		return Funcs{
			ChatFunc: func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
				if err := limiter.Wait(ctx); err != nil {
					return nil, err
				}
				return next.Chat(ctx, messages, opts...)
			},
			ChatStreamFunc: func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
				if err := limiter.Wait(ctx); err != nil {
					return nil, err
				}
				return next.ChatStream(ctx, messages, opts...)
			},
		}
	}
}

// PerMinute builds a limiter allowing n requests per minute with a burst of n.
func PerMinute(n int) *rate.Limiter {
	if n <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
}

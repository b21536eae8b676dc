// Package middleware decorates a relay.ChatProvider with cross-cutting behavior.
//
// Nothing here is applied by default. Callers choose middleware explicitly,
// for example through compat.WithMiddleware:
//
//	client, err := compat.New(compat.HunyuanOpenAI,
//	    compat.WithMiddleware(
//	        middleware.Logging(logger),
//	        middleware.Retry(retry.DefaultConfig()),
//	    ),
//	)
package middleware

import (
	"context"

	ai "github.com/spetersoncode/relay"
)

// Middleware wraps a provider and returns a provider.
type Middleware func(ai.ChatProvider) ai.ChatProvider

// Chain applies middleware to p. The first middleware is the outermost, so it
// sees each call first and its result last.
func Chain(p ai.ChatProvider, mws ...Middleware) ai.ChatProvider {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			p = mws[i](p)
		}
	}
	return p
}

// Funcs adapts a pair of functions to ai.ChatProvider.
type Funcs struct {
	ChatFunc       func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error)
	ChatStreamFunc func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error)
}

// Chat calls ChatFunc.
func (f Funcs) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return f.ChatFunc(ctx, messages, opts...)
}

// ChatStream calls ChatStreamFunc.
func (f Funcs) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	return f.ChatStreamFunc(ctx, messages, opts...)
}

var _ ai.ChatProvider = Funcs{}

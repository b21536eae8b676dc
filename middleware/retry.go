package middleware

import (
	"context"
	"log/slog"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/retry"
)

// Retry retries calls that fail with a transient error. Streams are retried
// until their first event arrives: an error reported as the first event of a
// stream is retried like a failed call, while anything after that is passed
// through untouched.
func Retry(cfg retry.Config) Middleware {
	return func(next ai.ChatProvider) ai.ChatProvider {
		return Funcs{
			ChatFunc: func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
				return retry.Do(ctx, cfg, func() (*ai.Response, error) {
					return next.Chat(ctx, messages, opts...)
				})
			},
			ChatStreamFunc: func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
				return retryStream(ctx, cfg, func() (<-chan ai.StreamEvent, error) {
					return next.ChatStream(ctx, messages, opts...)
				})
			},
		}
	}
}

// openedStream is a stream whose first event has already been read.
type openedStream struct {
	first ai.StreamEvent
	empty bool
	rest  <-chan ai.StreamEvent
}

func retryStream(ctx context.Context, cfg retry.Config, open func() (<-chan ai.StreamEvent, error)) (<-chan ai.StreamEvent, error) {
	var inStream bool
	s, err := retry.Do(ctx, cfg, func() (*openedStream, error) {
		inStream = false
		in, err := open()
		if err != nil {
			return nil, err
		}
		select {
		case ev, ok := <-in:
			if !ok {
				return &openedStream{empty: true}, nil
			}
			if ev.Err != nil {
				go drain(in)
				inStream = true
				return nil, ev.Err
			}
			return &openedStream{first: ev, rest: in}, nil
		case <-ctx.Done():
			go drain(in)
			return nil, ctx.Err()
		}
	})
	if err != nil {
		if !inStream || ctx.Err() != nil {
			return nil, err
		}
		// The final attempt failed inside its stream; report it there too.
		s = &openedStream{first: ai.StreamEvent{Err: err}}
	}

	out := make(chan ai.StreamEvent)
	go func() {
		defer close(out)
		if s.empty {
			return
		}
		if s.rest != nil {
			defer func() { go drain(s.rest) }()
		}
		select {
		case out <- s.first:
		case <-ctx.Done():
			return
		}
		if s.rest == nil {
			return
		}
		for ev := range s.rest {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func drain(ch <-chan ai.StreamEvent) {
	for range ch {
	}
}

// RetryWithLogger is Retry with each backoff logged at Warn.
func RetryWithLogger(cfg retry.Config, logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	onRetry := cfg.OnRetry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("retrying chat call",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
			"error", err,
		)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
	}
	return Retry(cfg)
}

package middleware

import (
	"context"
	"log/slog"
	"time"

	ai "github.com/spetersoncode/relay"
)

// Logging logs every chat call with its duration, token usage and outcome.
// A nil logger uses slog.Default.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ai.ChatProvider) ai.ChatProvider {
		return Funcs{
			ChatFunc: func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
				start := time.Now()
				resp, err := next.Chat(ctx, messages, opts...)
				logResult(ctx, logger, "chat", len(messages), start, resp, err)
				return resp, err
			},
			ChatStreamFunc: func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
				start := time.Now()
				in, err := next.ChatStream(ctx, messages, opts...)
				if err != nil {
					logResult(ctx, logger, "chat stream", len(messages), start, nil, err)
					return nil, err
				}

				out := make(chan ai.StreamEvent)
				go func() {
					defer close(out)
					for ev := range in {
						switch {
						case ev.Err != nil:
							logResult(ctx, logger, "chat stream", len(messages), start, nil, ev.Err)
						case ev.Done:
							logResult(ctx, logger, "chat stream", len(messages), start, ev.Response, nil)
						}
						select {
						case out <- ev:
						case <-ctx.Done():
							go drain(in)
							return
						}
					}
				}()
				return out, nil
			},
		}
	}
}

func logResult(ctx context.Context, logger *slog.Logger, op string, messages int, start time.Time, resp *ai.Response, err error) {
	attrs := []slog.Attr{
		slog.Int("messages", messages),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
		if code := ai.StatusCodeOf(err); code != 0 {
			attrs = append(attrs, slog.Int("status", code))
		}
		logger.LogAttrs(ctx, slog.LevelError, op+" failed", attrs...)
		return
	}
	if resp != nil {
		attrs = append(attrs,
			slog.String("model", resp.Model),
			slog.String("finish_reason", resp.FinishReason),
			slog.Int("input_tokens", resp.Usage.InputTokens),
			slog.Int("output_tokens", resp.Usage.OutputTokens),
			slog.Int("tool_calls", len(resp.ToolCalls)),
		)
	}
	logger.LogAttrs(ctx, slog.LevelInfo, op, attrs...)
}

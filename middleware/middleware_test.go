package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// stubProvider returns queued errors before succeeding. streamErrs are
// reported as the first event of a stream rather than from ChatStream.
type stubProvider struct {
	errs       []error
	streamErrs []error
	calls      int
}

func (s *stubProvider) nextErr() error {
	s.calls++
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func (s *stubProvider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if err := s.nextErr(); err != nil {
		return nil, err
	}
	return &ai.Response{Content: "ok", Model: "m", Usage: ai.Usage{InputTokens: 3, OutputTokens: 1}}, nil
}

func (s *stubProvider) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	if err := s.nextErr(); err != nil {
		return nil, err
	}
	ch := make(chan ai.StreamEvent, 2)
	if len(s.streamErrs) > 0 {
		ch <- ai.StreamEvent{Err: s.streamErrs[0]}
		s.streamErrs = s.streamErrs[1:]
		close(ch)
		return ch, nil
	}
	ch <- ai.StreamEvent{Delta: "ok"}
	ch <- ai.StreamEvent{Done: true, Response: &ai.Response{Content: "ok", Model: "m"}}
	close(ch)
	return ch, nil
}

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next ai.ChatProvider) ai.ChatProvider {
			return Funcs{
				ChatFunc: func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
					order = append(order, name+">")
					resp, err := next.Chat(ctx, messages, opts...)
					order = append(order, "<"+name)
					return resp, err
				},
				ChatStreamFunc: next.ChatStream,
			}
		}
	}

	p := Chain(&stubProvider{}, tag("outer"), nil, tag("inner"))
	_, err := p.Chat(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer>", "inner>", "<inner", "<outer"}, order)
}

func TestChainEmpty(t *testing.T) {
	stub := &stubProvider{}
	assert.Same(t, stub, Chain(stub).(*stubProvider))
}

func TestLogging(t *testing.T) {
	decode := func(t *testing.T, buf *bytes.Buffer) []map[string]any {
		t.Helper()
		var entries []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			var entry map[string]any
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
			entries = append(entries, entry)
		}
		return entries
	}

	t.Run("chat success", func(t *testing.T) {
		var buf bytes.Buffer
		p := Logging(slog.New(slog.NewJSONHandler(&buf, nil)))(&stubProvider{})

		_, err := p.Chat(context.Background(), []ai.Message{ai.NewUserMessage("hi")})
		require.NoError(t, err)

		entries := decode(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "chat", entries[0]["msg"])
		assert.Equal(t, "INFO", entries[0]["level"])
		assert.Equal(t, float64(3), entries[0]["input_tokens"])
		assert.Equal(t, float64(1), entries[0]["messages"])
	})

	t.Run("chat failure", func(t *testing.T) {
		var buf bytes.Buffer
		p := Logging(slog.New(slog.NewJSONHandler(&buf, nil)))(&stubProvider{
			errs: []error{ai.NewPermanentError("bad key", 401, nil)},
		})

		_, err := p.Chat(context.Background(), nil)
		require.Error(t, err)

		entries := decode(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "chat failed", entries[0]["msg"])
		assert.Equal(t, "ERROR", entries[0]["level"])
		assert.Equal(t, float64(401), entries[0]["status"])
	})

	t.Run("stream passes events through", func(t *testing.T) {
		var buf bytes.Buffer
		p := Logging(slog.New(slog.NewJSONHandler(&buf, nil)))(&stubProvider{})

		ch, err := p.ChatStream(context.Background(), nil)
		require.NoError(t, err)
		var events []ai.StreamEvent
		for ev := range ch {
			events = append(events, ev)
		}

		require.Len(t, events, 2)
		assert.True(t, events[1].Done)
		entries := decode(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "chat stream", entries[0]["msg"])
	})

	t.Run("stream stops forwarding once context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := Logging(slog.New(slog.NewJSONHandler(io.Discard, nil)))(&stubProvider{})

		ch, err := p.ChatStream(ctx, nil)
		require.NoError(t, err)
		assertClosedUndelivered(t, ch)
	})
}

// assertClosedUndelivered polls ch without ever blocking on it, so only a
// sender parked on the channel can hand over an event.
func assertClosedUndelivered(t *testing.T, ch <-chan ai.StreamEvent) {
	t.Helper()
	delivered := 0
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			if ok {
				delivered++
			}
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	assert.Zero(t, delivered)
}

func TestRetry(t *testing.T) {
	t.Run("retries transient chat errors", func(t *testing.T) {
		stub := &stubProvider{errs: []error{
			ai.NewTransientError("overloaded", 503, nil),
			ai.NewTransientError("overloaded", 503, nil),
		}}
		resp, err := Retry(fastRetry())(stub).Chat(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		assert.Equal(t, 3, stub.calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		stub := &stubProvider{errs: []error{ai.NewPermanentError("bad key", 401, nil)}}
		_, err := Retry(fastRetry())(stub).Chat(context.Background(), nil)
		assert.True(t, ai.IsPermanent(err))
		assert.Equal(t, 1, stub.calls)
	})

	t.Run("retries stream establishment", func(t *testing.T) {
		stub := &stubProvider{errs: []error{errors.New("connection reset by peer")}}
		ch, err := Retry(fastRetry())(stub).ChatStream(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", (<-ch).Delta)
		assert.Equal(t, 2, stub.calls)
	})

	t.Run("retries transient errors reported in stream", func(t *testing.T) {
		stub := &stubProvider{streamErrs: []error{
			ai.NewTransientError("overloaded", 503, nil),
			ai.NewTransientError("overloaded", 503, nil),
		}}
		ch, err := Retry(fastRetry())(stub).ChatStream(context.Background(), nil)
		require.NoError(t, err)

		var events []ai.StreamEvent
		for ev := range ch {
			events = append(events, ev)
		}
		require.Len(t, events, 2)
		assert.Equal(t, "ok", events[0].Delta)
		assert.True(t, events[1].Done)
		assert.Equal(t, 3, stub.calls)
	})

	t.Run("keeps permanent stream errors in stream", func(t *testing.T) {
		stub := &stubProvider{streamErrs: []error{ai.NewPermanentError("bad key", 401, nil)}}
		ch, err := Retry(fastRetry())(stub).ChatStream(context.Background(), nil)
		require.NoError(t, err)

		ev := <-ch
		assert.True(t, ai.IsPermanent(ev.Err))
		_, open := <-ch
		assert.False(t, open)
		assert.Equal(t, 1, stub.calls)
	})

	t.Run("reports exhausted stream retries in stream", func(t *testing.T) {
		overloaded := ai.NewTransientError("overloaded", 503, nil)
		stub := &stubProvider{streamErrs: []error{overloaded, overloaded, overloaded}}
		ch, err := Retry(fastRetry())(stub).ChatStream(context.Background(), nil)
		require.NoError(t, err)

		ev := <-ch
		assert.Equal(t, 503, ai.StatusCodeOf(ev.Err))
		assert.Equal(t, 3, stub.calls)
	})

	t.Run("logs each retry", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		stub := &stubProvider{errs: []error{ai.NewTransientError("rate limited", 429, nil)}}

		_, err := RetryWithLogger(fastRetry(), logger)(stub).Chat(context.Background(), nil)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "retrying chat call")
		assert.Contains(t, buf.String(), "attempt=1")
	})
}

func TestRateLimit(t *testing.T) {
	stub := &stubProvider{}
	p := RateLimit(rate.NewLimiter(rate.Every(time.Hour), 1))(stub)

	_, err := p.Chat(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.ChatStream(ctx, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestPerMinute(t *testing.T) {
	assert.Equal(t, rate.Inf, PerMinute(0).Limit())
	l := PerMinute(60)
	assert.Equal(t, 60, l.Burst())
	assert.InDelta(t, 1.0, float64(l.Limit()), 1e-9)
}

package tool

import (
	"context"

	ai "github.com/spetersoncode/relay"
)

// Handler executes a tool call and returns the result content.
// The context carries the per-call timeout set by the agent.
type Handler func(ctx context.Context, call ai.ToolCall) (string, error)

// TypedHandler executes a tool call with arguments decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)

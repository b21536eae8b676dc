package agent

import (
	"context"
	"errors"
	"fmt"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
)

// ToolArgs is the argument type of an agent exposed as a tool.
type ToolArgs struct {
	Query string `json:"query" desc:"The query or task for the agent" required:"true"`
}

// ToolOption configures an agent tool.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description   string
	maxIterations int
	agentOptions  []Option
}

// WithToolDescription sets the description the calling model sees.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) {
		c.description = desc
	}
}

// WithToolMaxIterations sets the sub-agent's tool-calling budget.
func WithToolMaxIterations(n int) ToolOption {
	return func(c *toolConfig) {
		c.maxIterations = n
	}
}

// WithToolAgentOptions passes options through to each sub-agent run.
func WithToolAgentOptions(opts ...Option) ToolOption {
	return func(c *toolConfig) {
		c.agentOptions = append(c.agentOptions, opts...)
	}
}

// AsTool wraps an agent as a tool so another agent can delegate to it.
// The tool takes a single query and returns the sub-agent's final answer.
func (a *Agent) AsTool(opts ...ToolOption) tool.Registration {
	cfg := &toolConfig{
		description:   fmt.Sprintf("Delegate a task to the %s agent", a.name),
		maxIterations: 5,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	agentOpts := append([]Option{WithMaxIterations(cfg.maxIterations)}, cfg.agentOptions...)

	return tool.Func(a.name, cfg.description, func(ctx context.Context, args ToolArgs) (string, error) {
		if args.Query == "" {
			return "", errors.New("query is required")
		}
		result, err := a.Run(ctx, []ai.Message{ai.NewUserMessage(args.Query)}, agentOpts...)
		if err != nil {
			return "", fmt.Errorf("agent %s: %w", a.name, err)
		}
		if result.Response == nil {
			return "", fmt.Errorf("agent %s returned no response", a.name)
		}
		return result.Response.Content, nil
	})
}

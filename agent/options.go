package agent

import (
	"context"
	"log/slog"
	"time"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/tool"
)

// Invocation controls how the agent executes tool calls requested by the model.
type Invocation struct {
	// Enabled turns automatic tool execution on. When false the model's tool
	// calls are returned in the response without being run.
	Enabled bool

	// MaxIterations bounds the number of model round trips that may request
	// tools. Once spent, one final call is made with tool use disabled.
	MaxIterations int

	// ParallelToolCalls runs multiple tool calls from one response concurrently.
	ParallelToolCalls bool

	// HandlerTimeout bounds each tool handler. Zero means no per-call limit.
	HandlerTimeout time.Duration

	// IncludeDetailedErrors sends handler error text back to the model.
	// Otherwise the model only learns that the call failed.
	IncludeDetailedErrors bool
}

// DefaultInvocation returns the default function-invocation policy:
// enabled, 10 iterations, parallel tool calls, 30s handler timeout.
func DefaultInvocation() Invocation {
	return Invocation{
		Enabled:           true,
		MaxIterations:     10,
		ParallelToolCalls: true,
		HandlerTimeout:    30 * time.Second,
	}
}

// ApproverFunc is called when a tool call requires approval.
// It returns true to approve the call, or false with a reason to reject it.
// The rejection reason is sent back to the model as an error result.
type ApproverFunc func(ctx context.Context, call ai.ToolCall) (approved bool, reason string)

// Options contains configuration for an agent.
type Options struct {
	Invocation Invocation

	// Tools is the registry the agent may call. Nil means no tools.
	Tools *tool.Registry

	// Timeout sets a deadline for an entire run. Zero defers to the context.
	Timeout time.Duration

	// Approver enables human-in-the-loop approval for tool calls.
	Approver ApproverFunc

	// ApprovalRequired limits approval to the named tools.
	// Empty with an Approver set means every tool requires approval.
	ApprovalRequired []string

	// ChatOptions are passed through to every chat call.
	ChatOptions []ai.Option

	Logger *slog.Logger
}

// Option is a functional option for configuring an agent.
type Option func(*Options)

// WithInvocation replaces the whole function-invocation policy.
func WithInvocation(inv Invocation) Option {
	return func(o *Options) {
		o.Invocation = inv
	}
}

// WithTools sets the tool registry.
func WithTools(registry *tool.Registry) Option {
	return func(o *Options) {
		o.Tools = registry
	}
}

// WithMaxIterations sets the tool-calling iteration budget.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		o.Invocation.MaxIterations = n
	}
}

// WithParallelToolCalls enables or disables concurrent tool execution.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) {
		o.Invocation.ParallelToolCalls = enabled
	}
}

// WithHandlerTimeout sets the timeout for each tool handler.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Invocation.HandlerTimeout = d
	}
}

// WithDetailedErrors controls whether handler error text reaches the model.
func WithDetailedErrors(enabled bool) Option {
	return func(o *Options) {
		o.Invocation.IncludeDetailedErrors = enabled
	}
}

// WithoutFunctionInvocation returns tool calls to the caller instead of running them.
func WithoutFunctionInvocation() Option {
	return func(o *Options) {
		o.Invocation.Enabled = false
	}
}

// WithTimeout sets a deadline for each run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithApprover sets the human-in-the-loop approval function.
func WithApprover(fn ApproverFunc) Option {
	return func(o *Options) {
		o.Approver = fn
	}
}

// WithApprovalRequired specifies which tools require approval.
func WithApprovalRequired(tools ...string) Option {
	return func(o *Options) {
		o.ApprovalRequired = tools
	}
}

// WithChatOptions passes options through to the chat provider.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithModel overrides the model for the agent's chat calls.
func WithModel(model string) Option {
	return WithChatOptions(ai.WithModel(model))
}

// WithMaxTokens sets max tokens for the agent's chat calls.
func WithMaxTokens(n int) Option {
	return WithChatOptions(ai.WithMaxTokens(n))
}

// WithTemperature sets temperature for the agent's chat calls.
func WithTemperature(t float64) Option {
	return WithChatOptions(ai.WithTemperature(t))
}

// WithLogger sets the logger for step and tool diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// ApplyOptions applies functional options over the defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		Invocation: DefaultInvocation(),
		Logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.normalize()
	return o
}

// normalize clamps values that options may leave unusable.
func (o *Options) normalize() {
	if o.Invocation.MaxIterations < 1 {
		o.Invocation.MaxIterations = 1
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	ai "github.com/spetersoncode/relay"
)

// Agent is a named conversation loop over a chat provider that executes the
// tools the model requests.
type Agent struct {
	id           string
	name         string
	instructions string
	provider     ai.ChatProvider
	options      *Options
}

// New creates an agent. Instructions, when non-empty, are sent as the
// leading system message of every run.
func New(provider ai.ChatProvider, name, instructions string, opts ...Option) *Agent {
	return &Agent{
		id:           "agent-" + uuid.NewString(),
		name:         name,
		instructions: instructions,
		provider:     provider,
		options:      ApplyOptions(opts...),
	}
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Instructions returns the agent's system instructions.
func (a *Agent) Instructions() string { return a.instructions }

// Invocation returns the agent's function-invocation policy.
func (a *Agent) Invocation() Invocation { return a.options.Invocation }

// Ask runs the agent on a single user prompt.
func (a *Agent) Ask(ctx context.Context, prompt string, opts ...Option) (*Result, error) {
	return a.Run(ctx, []ai.Message{ai.NewUserMessage(prompt)}, opts...)
}

// Run executes the agent loop and returns the final result.
// On failure the partial result is returned alongside the error.
func (a *Agent) Run(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	var result *Result
	var err error
	for ev := range a.RunStream(ctx, messages, opts...) {
		switch ev.Type {
		case EventAgentComplete:
			result = ev.Result
		case EventError:
			result, err = ev.Result, ev.Error
		}
	}
	return result, err
}

// RunStream executes the agent loop and returns a channel of events.
// The channel is closed after EventAgentComplete or EventError.
// Callers must drain the channel.
func (a *Agent) RunStream(ctx context.Context, messages []ai.Message, opts ...Option) <-chan Event {
	options := a.options
	if len(opts) > 0 {
		merged := *a.options
		merged.ChatOptions = slices.Clone(a.options.ChatOptions)
		for _, opt := range opts {
			opt(&merged)
		}
		merged.normalize()
		options = &merged
	}

	ch := make(chan Event, 16)
	r := &run{agent: a, options: options, events: ch}
	go r.loop(ctx, messages)
	return ch
}

// run holds the state of a single execution.
type run struct {
	agent   *Agent
	options *Options
	events  chan<- Event
	history []ai.Message
	result  Result
}

func (r *run) emit(ev Event) {
	r.events <- ev
}

func (r *run) logger() *slog.Logger {
	return r.options.Logger.With("agent", r.agent.name)
}

func (r *run) loop(ctx context.Context, messages []ai.Message) {
	defer close(r.events)

	if r.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.options.Timeout)
		defer cancel()
	}

	if r.agent.instructions != "" {
		r.history = append(r.history, ai.NewSystemMessage(r.agent.instructions))
	}
	r.history = append(r.history, messages...)

	inv := r.options.Invocation
	chatOpts := slices.Clone(r.options.ChatOptions)
	hasTools := r.options.Tools != nil && r.options.Tools.Len() > 0
	if hasTools {
		chatOpts = append([]ai.Option{ai.WithTools(r.options.Tools.Tools())}, chatOpts...)
	}

	for step := 1; ; step++ {
		final := hasTools && inv.Enabled && step > inv.MaxIterations
		opts := chatOpts
		if final {
			opts = append(slices.Clone(chatOpts), ai.WithToolChoice(ai.ToolChoiceNone))
		}

		if err := ctx.Err(); err != nil {
			r.fail(ctx, step-1, err)
			return
		}

		r.result.Steps = step
		r.emit(Event{Type: EventStepStart, Step: step})
		r.logger().Debug("agent step", "step", step, "final", final)

		resp, err := r.chatStep(ctx, step, opts)
		if err != nil {
			r.fail(ctx, step, err)
			return
		}
		r.result.Usage = r.result.Usage.Add(resp.Usage)
		r.history = append(r.history, resp.Message())
		r.emit(Event{Type: EventStepComplete, Step: step, Response: resp})

		switch {
		case final:
			r.complete(step, resp, TerminationMaxIterations)
			return
		case len(resp.ToolCalls) == 0:
			r.complete(step, resp, TerminationComplete)
			return
		case !inv.Enabled || !hasTools:
			r.complete(step, resp, TerminationToolCallsReturned)
			return
		}

		results, allRejected := r.processToolCalls(ctx, step, resp.ToolCalls)
		r.history = append(r.history, ai.NewToolResultMessage(results...))
		if allRejected {
			r.complete(step, resp, TerminationRejected)
			return
		}
	}
}

func (r *run) chatStep(ctx context.Context, step int, opts []ai.Option) (*ai.Response, error) {
	stream, err := r.agent.provider.ChatStream(ctx, r.history, opts...)
	if err != nil {
		return nil, err
	}

	var resp *ai.Response
	for ev := range stream {
		switch {
		case ev.Err != nil:
			return nil, ev.Err
		case ev.Done:
			resp = ev.Response
		case ev.Delta != "":
			r.emit(Event{Type: EventStreamDelta, Step: step, Delta: ev.Delta})
		}
	}

	if resp == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrIncompleteStream
	}
	return resp, nil
}

func (r *run) processToolCalls(ctx context.Context, step int, calls []ai.ToolCall) ([]ai.ToolResult, bool) {
	results := make([]ai.ToolResult, len(calls))
	var approved []int

	for i := range calls {
		tc := calls[i]
		r.emit(Event{Type: EventToolCallRequested, Step: step, ToolCall: &tc})

		if r.requiresApproval(tc.Name) {
			ok, reason := r.options.Approver(ctx, tc)
			if !ok {
				if reason == "" {
					reason = "Tool call rejected"
				}
				results[i] = ai.ToolResult{ToolCallID: tc.ID, Content: reason, IsError: true}
				r.emit(Event{Type: EventToolCallRejected, Step: step, ToolCall: &tc, Message: reason})
				continue
			}
		}
		approved = append(approved, i)
	}

	if len(approved) == 0 {
		return results, true
	}

	if r.options.Invocation.ParallelToolCalls && len(approved) > 1 {
		var wg sync.WaitGroup
		for _, i := range approved {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = r.executeToolCall(ctx, step, calls[i])
			}()
		}
		wg.Wait()
	} else {
		for _, i := range approved {
			results[i] = r.executeToolCall(ctx, step, calls[i])
		}
	}
	return results, false
}

func (r *run) executeToolCall(ctx context.Context, step int, tc ai.ToolCall) ai.ToolResult {
	inv := r.options.Invocation
	execCtx := ctx
	if inv.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, inv.HandlerTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := r.options.Tools.Execute(execCtx, tc)
	if err != nil {
		result = ai.ToolResult{ToolCallID: tc.ID, Content: err.Error(), IsError: true}
	}

	if result.IsError {
		r.logger().Warn("tool call failed", "tool", tc.Name, "call_id", tc.ID, "error", result.Content)
		if !inv.IncludeDetailedErrors {
			result.Content = fmt.Sprintf("Error: tool %q failed.", tc.Name)
		}
	} else {
		r.logger().Debug("tool call", "tool", tc.Name, "call_id", tc.ID, "duration", time.Since(start))
	}

	r.emit(Event{Type: EventToolResult, Step: step, ToolCall: &tc, ToolResult: &result})
	return result
}

func (r *run) requiresApproval(name string) bool {
	if r.options.Approver == nil {
		return false
	}
	if len(r.options.ApprovalRequired) == 0 {
		return true
	}
	return slices.Contains(r.options.ApprovalRequired, name)
}

func (r *run) snapshot(resp *ai.Response, reason TerminationReason) *Result {
	res := r.result
	res.Response = resp
	res.Messages = slices.Clone(r.history)
	res.Termination = reason
	return &res
}

func (r *run) complete(step int, resp *ai.Response, reason TerminationReason) {
	r.emit(Event{Type: EventAgentComplete, Step: step, Response: resp, Result: r.snapshot(resp, reason)})
}

func (r *run) fail(ctx context.Context, step int, err error) {
	reason := TerminationError
	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil:
		reason = TerminationTimeout
		err = fmt.Errorf("%w: %w", ErrAgentTimeout, err)
	case errors.Is(err, context.Canceled):
		reason = TerminationCancelled
	}
	r.logger().Error("agent run failed", "step", step, "error", err)
	r.emit(Event{Type: EventError, Step: step, Error: err, Result: r.snapshot(nil, reason)})
}

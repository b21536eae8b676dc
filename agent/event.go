package agent

import (
	ai "github.com/spetersoncode/relay"
)

// EventType identifies the kind of event occurring during agent execution.
type EventType string

const (
	// EventStepStart fires at the beginning of each model round trip.
	EventStepStart EventType = "step_start"

	// EventStreamDelta fires for each streamed text fragment.
	EventStreamDelta EventType = "stream_delta"

	// EventToolCallRequested fires when the model requests a tool call.
	EventToolCallRequested EventType = "tool_call_requested"

	// EventToolCallRejected fires when the approver rejects a tool call.
	EventToolCallRejected EventType = "tool_call_rejected"

	// EventToolResult fires after a tool handler completes.
	EventToolResult EventType = "tool_result"

	// EventStepComplete fires at the end of each round trip.
	EventStepComplete EventType = "step_complete"

	// EventAgentComplete fires once when the run finishes. Result is set.
	EventAgentComplete EventType = "agent_complete"

	// EventError fires when the run fails. Result is set.
	EventError EventType = "error"
)

// Event represents an observable occurrence during agent execution.
type Event struct {
	Type EventType

	// Step is the current round trip (1-indexed).
	Step int

	Delta      string
	ToolCall   *ai.ToolCall
	ToolResult *ai.ToolResult
	Response   *ai.Response
	Error      error

	// Message carries extra context such as a rejection reason.
	Message string

	// Result is set on EventAgentComplete and EventError.
	Result *Result
}

// TerminationReason indicates why the agent stopped.
type TerminationReason string

const (
	// TerminationComplete indicates the model answered without tool calls.
	TerminationComplete TerminationReason = "complete"

	// TerminationMaxIterations indicates the tool budget ran out and the
	// answer came from the final tool-free call.
	TerminationMaxIterations TerminationReason = "max_iterations"

	// TerminationToolCallsReturned indicates function invocation is disabled
	// and the model's tool calls were handed back unexecuted.
	TerminationToolCallsReturned TerminationReason = "tool_calls_returned"

	// TerminationRejected indicates every tool call was rejected.
	TerminationRejected TerminationReason = "rejected"

	// TerminationTimeout indicates the deadline was exceeded.
	TerminationTimeout TerminationReason = "timeout"

	// TerminationCancelled indicates context cancellation.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationError indicates an unrecoverable error.
	TerminationError TerminationReason = "error"
)

// Result represents the final outcome of an agent run.
type Result struct {
	// Response is the final model response.
	Response *ai.Response

	// Messages is the full conversation including instructions, tool calls
	// and tool results.
	Messages []ai.Message

	// Steps is the number of model round trips made.
	Steps int

	// Usage aggregates token usage across all steps.
	Usage ai.Usage

	Termination TerminationReason
}

// Content returns the final response text, or "" if there is none.
func (r *Result) Content() string {
	if r == nil || r.Response == nil {
		return ""
	}
	return r.Response.Content
}

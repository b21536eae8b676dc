package relay

import "github.com/google/uuid"

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	// ID is an optional unique identifier for the message.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// ToolCalls contains tool invocation requests from an assistant message.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolResults contains results from tool executions.
	// Only populated when Role is RoleTool.
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// NewUserMessage creates a user message with a fresh ID.
func NewUserMessage(content string) Message {
	return Message{ID: GenerateMessageID(), Role: RoleUser, Content: content}
}

// NewSystemMessage creates a system message with a fresh ID.
func NewSystemMessage(content string) Message {
	return Message{ID: GenerateMessageID(), Role: RoleSystem, Content: content}
}

// Response represents a complete response from a chat provider.
type Response struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	Model        string `json:"model,omitempty"`
	Usage        Usage  `json:"usage"`
	// ToolCalls contains any tool invocation requests from the model.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// Message converts the response into an assistant message suitable for
// appending to a conversation history.
func (r *Response) Message() Message {
	return Message{
		ID:        GenerateMessageID(),
		Role:      RoleAssistant,
		Content:   r.Content,
		ToolCalls: r.ToolCalls,
	}
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Add returns the sum of two usage records.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// StreamEvent represents a single event in a streaming response.
type StreamEvent struct {
	// Delta contains the incremental content for this event.
	Delta string
	// Done indicates if this is the final event in the stream.
	Done bool
	// Response contains the final response data when Done is true.
	Response *Response
	// Err contains any error that occurred during streaming.
	Err error
}

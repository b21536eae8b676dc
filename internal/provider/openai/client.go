// Package openai adapts an OpenAI chat completions SDK client to relay.ChatProvider.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/relay"
)

// Instruction roles accepted by WithInstructionRole.
const (
	InstructionRoleSystem    = "system"
	InstructionRoleDeveloper = "developer"
)

// Client wraps the OpenAI SDK to implement ai.ChatProvider.
type Client struct {
	client          *openai.Client
	model           string
	instructionRole string
}

// New binds an SDK client to a default model.
func New(client *openai.Client, model string, opts ...ClientOption) *Client {
	c := &Client{
		client:          client,
		model:           model,
		instructionRole: InstructionRoleSystem,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithInstructionRole sets the role used for system messages.
// Some OpenAI-compatible endpoints expect "developer" instead of "system".
func WithInstructionRole(role string) ClientOption {
	return func(c *Client) {
		if role != "" {
			c.instructionRole = role
		}
	}
}

// SDK returns the underlying SDK client.
func (c *Client) SDK() *openai.Client { return c.client }

// Model returns the default model for requests.
func (c *Client) Model() string { return c.model }

func (c *Client) buildParams(messages []ai.Message, options *ai.Options) openai.ChatCompletionNewParams {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages, c.instructionRole),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}
	if options.ResponseFormat == ai.ResponseFormatJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}
	return params
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	params := c.buildParams(messages, ai.ApplyOptions(opts...))

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.NewPermanentError("openai: response contained no choices", 0, nil)
	}

	return &ai.Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Model:        resp.Model,
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		ToolCalls: extractToolCalls(resp.Choices[0].Message.ToolCalls),
	}, nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	params := c.buildParams(messages, ai.ApplyOptions(opts...))
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	ch := make(chan ai.StreamEvent)

	go func() {
		defer close(ch)
		defer stream.Close()
		var acc openai.ChatCompletionAccumulator
		send := func(ev ai.StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !send(ai.StreamEvent{Delta: chunk.Choices[0].Delta.Content}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(ai.StreamEvent{Err: wrapError(err)})
			return
		}

		resp := &ai.Response{
			Model: acc.Model,
			Usage: ai.Usage{
				InputTokens:  int(acc.Usage.PromptTokens),
				OutputTokens: int(acc.Usage.CompletionTokens),
			},
		}
		if len(acc.Choices) > 0 {
			completion := acc.Choices[0]
			resp.Content = completion.Message.Content
			resp.FinishReason = string(completion.FinishReason)
			resp.ToolCalls = extractToolCalls(completion.Message.ToolCalls)
		}
		send(ai.StreamEvent{Done: true, Response: resp})
	}()

	return ch, nil
}

var _ ai.ChatProvider = (*Client)(nil)

package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/relay"
)

// DefaultMaxTokens is sent when a request does not set MaxTokens.
// The messages API requires the field.
const DefaultMaxTokens = 4096

// Client wraps the Anthropic SDK to implement ai.ChatProvider.
type Client struct {
	client *anthropic.Client
	model  string
}

// New binds an SDK client to a default model.
func New(client *anthropic.Client, model string) *Client {
	return &Client{client: client, model: model}
}

// SDK returns the underlying SDK client.
func (c *Client) SDK() *anthropic.Client { return c.client }

// Model returns the default model for requests.
func (c *Client) Model() string { return c.model }

func (c *Client) buildParams(messages []ai.Message, options *ai.Options) (anthropic.MessageNewParams, bool) {
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(DefaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}

	useJSONTool := options.ResponseFormat == ai.ResponseFormatJSON
	switch {
	case useJSONTool:
		jsonTool, jsonToolChoice := buildJSONTool()
		params.Tools = append(convertTools(options.Tools), jsonTool)
		params.ToolChoice = jsonToolChoice
	case len(options.Tools) > 0:
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}
	return params, useJSONTool
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	params, useJSONTool := c.buildParams(messages, ai.ApplyOptions(opts...))

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	return convertResponse(resp, useJSONTool), nil
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	params, useJSONTool := c.buildParams(messages, ai.ApplyOptions(opts...))

	stream := c.client.Messages.NewStreaming(ctx, params)
	ch := make(chan ai.StreamEvent)

	go func() {
		defer close(ch)
		defer stream.Close()
		var acc anthropic.Message
		send := func(ev ai.StreamEvent) bool {
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for stream.Next() {
			event := stream.Current()
			if err := acc.Accumulate(event); err != nil {
				send(ai.StreamEvent{Err: err})
				return
			}

			if event.Type != "content_block_delta" {
				continue
			}
			delta := event.AsContentBlockDelta()
			if text := delta.Delta.AsTextDelta(); text.Type == "text_delta" && text.Text != "" {
				if !send(ai.StreamEvent{Delta: text.Text}) {
					return
				}
			}
		}

		if err := stream.Err(); err != nil {
			send(ai.StreamEvent{Err: wrapError(err)})
			return
		}
		send(ai.StreamEvent{Done: true, Response: convertResponse(&acc, useJSONTool)})
	}()

	return ch, nil
}

func convertResponse(msg *anthropic.Message, useJSONTool bool) *ai.Response {
	var content string
	var toolCalls []ai.ToolCall
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			content += block.Text
		case "tool_use":
			if useJSONTool && block.Name == jsonResponseToolName {
				content = string(block.Input)
				continue
			}
			toolCalls = append(toolCalls, ai.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	return &ai.Response{
		Content:      content,
		FinishReason: string(msg.StopReason),
		Model:        string(msg.Model),
		Usage: ai.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		ToolCalls: toolCalls,
	}
}

var _ ai.ChatProvider = (*Client)(nil)

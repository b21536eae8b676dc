// Package relay provides the shared chat types used by every provider profile.
//
// The relay library lets call sites talk to any HTTP endpoint that speaks the
// OpenAI chat completions or Anthropic messages protocol through one
// interface. Endpoint, credential and model are resolved per provider profile
// by the [github.com/spetersoncode/relay/compat] package; this package only
// holds the protocol-neutral vocabulary:
//
//   - [ChatProvider]: send conversations and receive responses
//   - [Message], [Response], [StreamEvent]: conversation data
//   - [Tool], [ToolCall], [ToolResult]: function calling
//   - [Option]: per-request settings such as model and temperature
//
// # Basic Usage
//
//	c, err := compat.New(compat.HunyuanOpenAI)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := c.Chat(ctx, []relay.Message{
//	    {Role: relay.RoleUser, Content: "What is the capital of France?"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Content)
//
// # Streaming Responses
//
//	stream, err := c.ChatStream(ctx, messages)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range stream {
//	    if event.Err != nil {
//	        log.Fatal(event.Err)
//	    }
//	    fmt.Print(event.Delta)
//	}
//
// # Error Handling
//
// Construction failures are reported as [*ServiceInitializationError].
// Malformed settings surface as a [*ConfigurationValidationError] wrapped
// inside it. Errors returned by chat calls are categorized:
//
//	if relay.IsTransient(err) {
//	    // rate limit or server error, safe to retry
//	}
package relay

// Package anthropic adapts an Anthropic messages SDK client to [relay.ChatProvider].
//
// The adapter never builds its own SDK client. Callers pass a configured
// *anthropic.Client (credential, endpoint and headers already applied) and the
// model every request defaults to:
//
//	sdk := anthropic.NewClient(option.WithAPIKey(key), option.WithBaseURL(url))
//	c := anthropicprovider.New(&sdk, "hunyuan-turbos-latest")
//
// System messages are sent through the request's system blocks. JSON mode is
// emulated with a synthetic tool whose input becomes the response content.
// Requests without an explicit token limit use [DefaultMaxTokens].
package anthropic

// Package compat builds chat clients for OpenAI- and Anthropic-compatible
// endpoints from a provider profile.
//
// A [Profile] names the environment prefix, wire protocol and defaults of one
// endpoint family. [New] resolves the credential, base URL and model with the
// precedence explicit option > environment > settings file > profile
// default, validates them, and returns a [Client] that satisfies
// relay.ChatProvider:
//
//	client, err := compat.New(compat.HunyuanOpenAI)
//	if err != nil {
//	    return err // names HUNYUAN_OPENAI_API_KEY when no key is configured
//	}
//	resp, err := client.Chat(ctx, []relay.Message{relay.NewUserMessage("你好")})
//
// Each profile reads three variables:
//
//	<PREFIX>_API_KEY   credential (required unless an SDK client is supplied)
//	<PREFIX>_BASE_URL  endpoint override
//	<PREFIX>_MODEL_ID  model override
//
// # Built-in Profiles
//
//	hunyuan-openai     HUNYUAN_OPENAI     openai     https://api.hunyuan.cloud.tencent.com/v1
//	hunyuan-anthropic  HUNYUAN_ANTHROPIC  anthropic  https://api.lkeap.cloud.tencent.com/anthropic
//	venus-openai       VENUS_OPENAI       openai     http://v2.open.venus.oa.com/llmproxy
//
// Construction does no network I/O and never caches clients. The credential
// is held redacted and only unwrapped when the SDK client is built.
package compat

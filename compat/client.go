package compat

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/agent"
	anthropicprovider "github.com/spetersoncode/relay/internal/provider/anthropic"
	openaiprovider "github.com/spetersoncode/relay/internal/provider/openai"
	"github.com/spetersoncode/relay/internal/secret"
	"github.com/spetersoncode/relay/internal/settings"
	"github.com/spetersoncode/relay/middleware"
)

// Client is a chat client bound to one profile and its resolved model.
// It is safe for concurrent use when the underlying SDK client is.
type Client struct {
	profile    Profile
	model      string
	baseURL    string
	provider   ai.ChatProvider
	openai     *openai.Client
	anthropic  *anthropic.Client
	invocation agent.Invocation
}

// New resolves configuration for profile and builds a client.
// Every failure is a *relay.ServiceInitializationError; no partially built
// client is returned.
func New(profile Profile, opts ...Option) (*Client, error) {
	o := applyOptions(opts)
	cfg, err := prepare(profile, o)
	if err != nil {
		return nil, err
	}

	if err := checkExternalClient(profile, o); err != nil {
		return nil, err
	}
	external := o.openaiClient != nil || o.anthropicClient != nil
	if !external && !cfg.APIKey.IsPresent() {
		return nil, initError(profile, missingKeyMessage(profile), nil)
	}

	logger := o.logger.With("profile", profile.Name)
	if o.instructionRole != "" {
		if profile.Protocol != ai.ProtocolOpenAI {
			logger.Warn("instruction role is ignored for Anthropic-protocol profiles", "role", o.instructionRole)
		} else if err := checkInstructionRole(profile, o.instructionRole); err != nil {
			return nil, err
		}
	}
	if external {
		if o.explicit.apiKey.IsPresent() || o.explicit.baseURL != "" || len(o.headers) > 0 {
			logger.Warn("explicit API key, base URL and default headers are ignored when an SDK client is supplied")
		}
		cfg.BaseURL = ""
	}
	logger.Info("initializing client", "model", cfg.Model, "base_url", cfg.BaseURL, "external_client", external)

	c := &Client{
		profile:    profile,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		invocation: o.invocation,
	}

	var base ai.ChatProvider
	switch profile.Protocol {
	case ai.ProtocolOpenAI:
		c.openai = o.openaiClient
		if c.openai == nil {
			c.openai = newOpenAIClient(cfg, o.headers)
		}
		base = openaiprovider.New(c.openai, cfg.Model, openaiprovider.WithInstructionRole(o.instructionRole))
	case ai.ProtocolAnthropic:
		c.anthropic = o.anthropicClient
		if c.anthropic == nil {
			c.anthropic = newAnthropicClient(cfg, o.headers)
		}
		base = anthropicprovider.New(c.anthropic, cfg.Model)
	}
	c.provider = middleware.Chain(base, o.middleware...)
	return c, nil
}

// ResolveConfig loads and resolves configuration for profile without
// building a client. The credential stays redacted.
func ResolveConfig(profile Profile, opts ...Option) (Config, error) {
	return prepare(profile, applyOptions(opts))
}

func prepare(profile Profile, o *options) (Config, error) {
	if err := profile.validate(); err != nil {
		return Config{}, initError(profile, "invalid profile", err)
	}

	raw, err := settings.Load(settings.Source{
		Prefix:       profile.EnvPrefix,
		FilePath:     o.envFile,
		FileEncoding: o.envFileEncoding,
		Lookup:       o.lookup,
	})
	if err != nil {
		return Config{}, initError(profile, fmt.Sprintf("failed to load %s settings", profile.Label), err)
	}

	if o.explicit.baseURL != "" {
		if err := settings.ValidateBaseURL("WithBaseURL", o.explicit.baseURL); err != nil {
			return Config{}, initError(profile, "invalid option", err)
		}
	}
	if o.explicit.model != "" {
		if err := settings.ValidateModelID("WithModel", o.explicit.model); err != nil {
			return Config{}, initError(profile, "invalid option", err)
		}
	}

	return resolve(profile, o.explicit, raw), nil
}

func checkExternalClient(profile Profile, o *options) error {
	switch {
	case profile.Protocol == ai.ProtocolOpenAI && o.anthropicClient != nil:
		return initError(profile, "WithAnthropicClient cannot be used with an OpenAI-protocol profile; use WithOpenAIClient", nil)
	case profile.Protocol == ai.ProtocolAnthropic && o.openaiClient != nil:
		return initError(profile, "WithOpenAIClient cannot be used with an Anthropic-protocol profile; use WithAnthropicClient", nil)
	}
	return nil
}

func checkInstructionRole(profile Profile, role string) error {
	switch role {
	case openaiprovider.InstructionRoleSystem, openaiprovider.InstructionRoleDeveloper:
		return nil
	}
	return initError(profile, fmt.Sprintf("instruction role %q is not supported; use %q or %q",
		role, openaiprovider.InstructionRoleSystem, openaiprovider.InstructionRoleDeveloper), nil)
}

func missingKeyMessage(p Profile) string {
	msg := fmt.Sprintf("%s API key is required. Set it with WithAPIKey or the %s environment variable", p.Label, p.APIKeyEnv())
	if p.KeyURL != "" {
		msg += ". Get your API key at: " + p.KeyURL
	}
	return msg
}

func initError(p Profile, msg string, cause error) error {
	return &ai.ServiceInitializationError{Profile: p.Name, Msg: msg, Cause: cause}
}

func newOpenAIClient(cfg Config, headers map[string]string) *openai.Client {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(secret.Reveal(cfg.APIKey)),
		openaioption.WithBaseURL(cfg.BaseURL),
	}
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		opts = append(opts, openaioption.WithHeader(k, headers[k]))
	}
	client := openai.NewClient(opts...)
	return &client
}

func newAnthropicClient(cfg Config, headers map[string]string) *anthropic.Client {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(secret.Reveal(cfg.APIKey)),
		anthropicoption.WithBaseURL(cfg.BaseURL),
	}
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		opts = append(opts, anthropicoption.WithHeader(k, headers[k]))
	}
	client := anthropic.NewClient(opts...)
	return &client
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return c.provider.Chat(ctx, messages, opts...)
}

// ChatStream sends a conversation and returns a channel of streaming events.
func (c *Client) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (<-chan ai.StreamEvent, error) {
	return c.provider.ChatStream(ctx, messages, opts...)
}

// OpenAI returns the SDK client for OpenAI-protocol profiles, otherwise nil.
func (c *Client) OpenAI() *openai.Client { return c.openai }

// Anthropic returns the SDK client for Anthropic-protocol profiles, otherwise nil.
func (c *Client) Anthropic() *anthropic.Client { return c.anthropic }

// ModelID returns the resolved model sent with every request.
func (c *Client) ModelID() string { return c.model }

// BaseURL returns the resolved endpoint, or "" when a supplied SDK client
// owns the endpoint.
func (c *Client) BaseURL() string { return c.baseURL }

// Profile returns the profile the client was built from.
func (c *Client) Profile() Profile { return c.profile }

// Invocation returns the function-invocation policy given to agents.
func (c *Client) Invocation() agent.Invocation { return c.invocation }

// AsAgent creates an agent backed by this client. The client's
// function-invocation policy applies unless opts override it.
func (c *Client) AsAgent(name, instructions string, opts ...agent.Option) *agent.Agent {
	all := append([]agent.Option{agent.WithInvocation(c.invocation)}, opts...)
	return agent.New(c, name, instructions, all...)
}

var _ ai.ChatProvider = (*Client)(nil)

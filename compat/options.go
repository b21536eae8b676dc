package compat

import (
	"log/slog"
	"maps"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"github.com/spetersoncode/relay/agent"
	"github.com/spetersoncode/relay/internal/secret"
	"github.com/spetersoncode/relay/middleware"
)

// Option configures client construction.
type Option func(*options)

type options struct {
	explicit        explicit
	openaiClient    *openai.Client
	anthropicClient *anthropic.Client
	headers         map[string]string
	middleware      []middleware.Middleware
	invocation      agent.Invocation
	instructionRole string
	envFile         string
	envFileEncoding string
	lookup          func(string) (string, bool)
	logger          *slog.Logger
}

func applyOptions(opts []Option) *options {
	o := &options{
		invocation: agent.DefaultInvocation(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithAPIKey sets the credential, overriding <PREFIX>_API_KEY.
// A blank key counts as not given.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.explicit.apiKey = secret.New(strings.TrimSpace(key))
	}
}

// WithModel sets the model, overriding <PREFIX>_MODEL_ID and the profile default.
func WithModel(model string) Option {
	return func(o *options) {
		o.explicit.model = strings.TrimSpace(model)
	}
}

// WithBaseURL sets the endpoint, overriding <PREFIX>_BASE_URL and the profile default.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.explicit.baseURL = strings.TrimSpace(baseURL)
	}
}

// WithOpenAIClient supplies a preconfigured SDK client for an OpenAI-protocol
// profile. No credential is required; an explicit key, base URL or default
// headers are ignored because the supplied client already carries them.
func WithOpenAIClient(client *openai.Client) Option {
	return func(o *options) {
		o.openaiClient = client
	}
}

// WithAnthropicClient supplies a preconfigured SDK client for an
// Anthropic-protocol profile. See WithOpenAIClient.
func WithAnthropicClient(client *anthropic.Client) Option {
	return func(o *options) {
		o.anthropicClient = client
	}
}

// WithDefaultHeaders adds headers sent on every request. Later calls merge
// over earlier ones.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		maps.Copy(o.headers, headers)
	}
}

// WithMiddleware wraps the client's provider. The first middleware is outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mws...)
	}
}

// WithFunctionInvocation sets the tool-execution policy used by agents
// created with Client.AsAgent.
func WithFunctionInvocation(inv agent.Invocation) Option {
	return func(o *options) {
		o.invocation = inv
	}
}

// WithInstructionRole sets the role system messages are sent with on
// OpenAI-protocol profiles: "system" (default) or "developer".
func WithInstructionRole(role string) Option {
	return func(o *options) {
		o.instructionRole = strings.TrimSpace(role)
	}
}

// WithEnvFile reads settings from a dotenv or YAML file (.yaml, .yml) in the
// given encoding, a WHATWG label such as "utf-8" or "gbk". Empty means UTF-8.
// Environment variables still take precedence and a missing file is ignored.
func WithEnvFile(path, encoding string) Option {
	return func(o *options) {
		o.envFile = path
		o.envFileEncoding = encoding
	}
}

// WithEnvLookup replaces os.LookupEnv as the environment source.
func WithEnvLookup(lookup func(key string) (string, bool)) Option {
	return func(o *options) {
		o.lookup = lookup
	}
}

// WithLogger sets the logger used during construction.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

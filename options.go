package relay

// ResponseFormat specifies the desired output format.
type ResponseFormat string

const (
	// ResponseFormatText is the default free-form text output.
	ResponseFormatText ResponseFormat = "text"
	// ResponseFormatJSON requests a JSON object response.
	ResponseFormatJSON ResponseFormat = "json"
)

// Options contains configuration for a chat request.
type Options struct {
	// Model overrides the model bound to the client for this request.
	Model          string
	MaxTokens      int
	Temperature    *float64
	Tools          []Tool
	ToolChoice     ToolChoice
	ResponseFormat ResponseFormat
}

// Option is a functional option for configuring chat requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithTools sets the tools available to the model.
func WithTools(tools []Tool) Option {
	return func(o *Options) {
		o.Tools = tools
	}
}

// WithToolChoice controls how the model uses the provided tools.
func WithToolChoice(choice ToolChoice) Option {
	return func(o *Options) {
		o.ToolChoice = choice
	}
}

// WithJSONMode requests a JSON object response.
func WithJSONMode() Option {
	return func(o *Options) {
		o.ResponseFormat = ResponseFormatJSON
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

package openai

import (
	"errors"

	"github.com/openai/openai-go"
	"github.com/spetersoncode/relay/internal/provider"
)

// wrapError wraps an OpenAI SDK error with relay error categorization.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// Network and context errors pass through unchanged.
		return err
	}
	return provider.WrapStatus("openai: request failed", err, apiErr.StatusCode, apiErr.Response)
}

package anthropic

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spetersoncode/relay/internal/provider"
)

// wrapError wraps an Anthropic SDK error with relay error categorization.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return provider.WrapStatus("anthropic: request failed", err, apiErr.StatusCode, apiErr.Response)
}

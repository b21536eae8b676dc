package relay

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizedError(t *testing.T) {
	cause := errors.New("status 429")

	tests := []struct {
		name      string
		err       *Error
		category  ErrorCategory
		retryable bool
	}{
		{"transient", NewTransientError("rate limited", 429, cause), ErrorTransient, true},
		{"permanent", NewPermanentError("unauthorized", 401, cause), ErrorPermanent, false},
		{"user input", NewUserInputError("bad request", 400, cause), ErrorUserInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category())
			assert.Equal(t, tt.retryable, tt.err.Retryable())
			assert.True(t, errors.Is(tt.err, cause))
			assert.Contains(t, tt.err.Error(), "status 429")
		})
	}
}

func TestCategoryHelpers(t *testing.T) {
	wrapped := fmt.Errorf("chat: %w", NewTransientErrorWithRetry("slow down", 429, 3*time.Second, nil))

	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsPermanent(wrapped))
	assert.False(t, IsUserInput(wrapped))
	assert.Equal(t, 429, StatusCodeOf(wrapped))
	assert.Equal(t, 3*time.Second, RetryAfterOf(wrapped))

	plain := errors.New("boom")
	assert.False(t, IsTransient(plain))
	assert.Zero(t, StatusCodeOf(plain))
	assert.Zero(t, RetryAfterOf(plain))
}

func TestConfigurationValidationError(t *testing.T) {
	t.Run("names key and reason", func(t *testing.T) {
		err := &ConfigurationValidationError{Key: "VENUS_OPENAI_BASE_URL", Reason: "must be an absolute http(s) URL"}
		assert.Equal(t, "invalid setting VENUS_OPENAI_BASE_URL: must be an absolute http(s) URL", err.Error())
		assert.Nil(t, err.Unwrap())
	})

	t.Run("includes cause", func(t *testing.T) {
		cause := errors.New("no such encoding")
		err := &ConfigurationValidationError{Key: "env file", Reason: "unsupported encoding", Cause: cause}
		assert.Contains(t, err.Error(), "no such encoding")
		assert.True(t, errors.Is(err, cause))
	})
}

func TestServiceInitializationError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := &ServiceInitializationError{Profile: "venus-openai", Msg: "api key is required"}
		assert.Equal(t, "relay: venus-openai: api key is required", err.Error())
	})

	t.Run("wraps validation error", func(t *testing.T) {
		cause := &ConfigurationValidationError{Key: "X_MODEL_ID", Reason: "must not contain whitespace"}
		err := error(&ServiceInitializationError{Profile: "x", Msg: "failed to load settings", Cause: cause})

		var cve *ConfigurationValidationError
		require.True(t, errors.As(err, &cve))
		assert.Equal(t, "X_MODEL_ID", cve.Key)
		assert.Contains(t, err.Error(), "failed to load settings: invalid setting X_MODEL_ID")
	})

	t.Run("without profile", func(t *testing.T) {
		err := &ServiceInitializationError{Msg: "profile is required"}
		assert.Equal(t, "relay: profile is required", err.Error())
	})
}

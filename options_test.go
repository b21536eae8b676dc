package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	t.Run("returns empty options when no options provided", func(t *testing.T) {
		opts := ApplyOptions()
		assert.NotNil(t, opts)
		assert.Empty(t, opts.Model)
		assert.Zero(t, opts.MaxTokens)
		assert.Nil(t, opts.Temperature)
		assert.Nil(t, opts.Tools)
		assert.Empty(t, opts.ToolChoice)
		assert.Empty(t, opts.ResponseFormat)
	})

	t.Run("applies multiple options", func(t *testing.T) {
		tools := []Tool{{Name: "test"}}
		opts := ApplyOptions(
			WithModel("glm-5"),
			WithMaxTokens(1000),
			WithTemperature(0.7),
			WithTools(tools),
			WithToolChoice(ToolChoiceRequired),
			WithJSONMode(),
		)

		assert.Equal(t, "glm-5", opts.Model)
		assert.Equal(t, 1000, opts.MaxTokens)
		require.NotNil(t, opts.Temperature)
		assert.Equal(t, 0.7, *opts.Temperature)
		assert.Equal(t, tools, opts.Tools)
		assert.Equal(t, ToolChoiceRequired, opts.ToolChoice)
		assert.Equal(t, ResponseFormatJSON, opts.ResponseFormat)
	})

	t.Run("later options override earlier ones", func(t *testing.T) {
		opts := ApplyOptions(WithModel("a"), WithModel("b"))
		assert.Equal(t, "b", opts.Model)
	})
}

package secret

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const plain = "sk-live-very-secret"

func TestCredentialPresence(t *testing.T) {
	assert.False(t, Credential{}.IsPresent())
	assert.False(t, New("").IsPresent())
	assert.True(t, New(plain).IsPresent())
}

func TestReveal(t *testing.T) {
	assert.Equal(t, plain, Reveal(New(plain)))
	assert.Empty(t, Reveal(Credential{}))
}

func TestCredentialNeverDisplaysValue(t *testing.T) {
	c := New(plain)

	t.Run("fmt verbs", func(t *testing.T) {
		for _, verb := range []string{"%s", "%v", "%+v", "%#v", "%q", "%x", "%d"} {
			out := fmt.Sprintf(verb, c)
			assert.NotContains(t, out, plain, verb)
			assert.Contains(t, out, Redacted, verb)
		}
	})

	t.Run("inside a struct", func(t *testing.T) {
		holder := struct {
			Key Credential
		}{Key: c}
		assert.NotContains(t, fmt.Sprintf("%+v", holder), plain)
		assert.NotContains(t, fmt.Sprintf("%#v", holder), plain)
	})

	t.Run("json", func(t *testing.T) {
		out, err := json.Marshal(map[string]any{"api_key": c})
		require.NoError(t, err)
		assert.JSONEq(t, `{"api_key":"[REDACTED]"}`, string(out))
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := yaml.Marshal(map[string]any{"api_key": c})
		require.NoError(t, err)
		assert.NotContains(t, string(out), plain)
		assert.Contains(t, string(out), Redacted)
	})

	t.Run("text", func(t *testing.T) {
		out, err := c.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, Redacted, string(out))
	})

	t.Run("slog", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		logger.Info("init", "api_key", c)
		assert.NotContains(t, buf.String(), plain)
		assert.Contains(t, buf.String(), "api_key="+Redacted)
	})
}

func TestAbsentCredentialDisplay(t *testing.T) {
	var c Credential
	assert.Empty(t, c.String())
	assert.Equal(t, `secret.Credential("")`, fmt.Sprintf("%#v", c))
}

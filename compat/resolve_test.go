package compat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spetersoncode/relay/internal/secret"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestPrecedence covers every presence combination of explicit, environment
// and file values for each field.
func TestPrecedence(t *testing.T) {
	p := VenusOpenAI

	type field struct {
		name     string
		env      string
		explicit func(string) Option
		value    func(Config) string
		def      string
		sample   func(layer string) string
	}
	fields := []field{
		{
			name:     "api key",
			env:      p.APIKeyEnv(),
			explicit: WithAPIKey,
			value:    func(c Config) string { return secret.Reveal(c.APIKey) },
			def:      "",
			sample:   func(layer string) string { return "key-" + layer },
		},
		{
			name:     "base url",
			env:      p.BaseURLEnv(),
			explicit: WithBaseURL,
			value:    func(c Config) string { return c.BaseURL },
			def:      p.DefaultBaseURL,
			sample:   func(layer string) string { return "https://" + layer + ".example.com/v1" },
		},
		{
			name:     "model",
			env:      p.ModelIDEnv(),
			explicit: WithModel,
			value:    func(c Config) string { return c.Model },
			def:      p.DefaultModel,
			sample:   func(layer string) string { return "model-" + layer },
		},
	}

	for _, f := range fields {
		for mask := 0; mask < 8; mask++ {
			hasExplicit, hasEnv, hasFile := mask&1 != 0, mask&2 != 0, mask&4 != 0
			name := fmt.Sprintf("%s/explicit=%t,env=%t,file=%t", f.name, hasExplicit, hasEnv, hasFile)
			t.Run(name, func(t *testing.T) {
				env := map[string]string{}
				var opts []Option
				want := f.def

				if hasFile {
					path := writeFile(t, ".env", fmt.Sprintf("%s=%s\n", f.env, f.sample("file")))
					opts = append(opts, WithEnvFile(path, ""))
					want = f.sample("file")
				}
				if hasEnv {
					env[f.env] = f.sample("env")
					want = f.sample("env")
				}
				if hasExplicit {
					opts = append(opts, f.explicit(f.sample("explicit")))
					want = f.sample("explicit")
				}
				opts = append(opts, WithEnvLookup(envMap(env)))

				cfg, err := ResolveConfig(p, opts...)
				require.NoError(t, err)
				assert.Equal(t, want, f.value(cfg))
			})
		}
	}
}

func TestPrecedenceEmptyIsAbsent(t *testing.T) {
	env := map[string]string{
		VenusOpenAI.APIKeyEnv():  "env-key",
		VenusOpenAI.ModelIDEnv(): "   ",
	}
	cfg, err := ResolveConfig(VenusOpenAI,
		WithAPIKey(""),
		WithModel("  "),
		WithBaseURL(""),
		WithEnvLookup(envMap(env)),
	)
	require.NoError(t, err)
	assert.Equal(t, "env-key", secret.Reveal(cfg.APIKey))
	assert.Equal(t, VenusOpenAI.DefaultModel, cfg.Model)
	assert.Equal(t, VenusOpenAI.DefaultBaseURL, cfg.BaseURL)
}

func TestResolveDefaultsWithOnlyKey(t *testing.T) {
	for _, p := range Profiles() {
		t.Run(p.Name, func(t *testing.T) {
			cfg, err := ResolveConfig(p, WithAPIKey("k"), WithEnvLookup(envMap(nil)))
			require.NoError(t, err)
			assert.Equal(t, p.DefaultBaseURL, cfg.BaseURL)
			assert.Equal(t, p.DefaultModel, cfg.Model)
			assert.True(t, cfg.APIKey.IsPresent())
		})
	}
}

func TestResolveCustomPrefix(t *testing.T) {
	p := Profile{
		Name:           "x",
		Label:          "X",
		EnvPrefix:      "X",
		Protocol:       VenusOpenAI.Protocol,
		DefaultBaseURL: "https://x.example.com/v1",
		DefaultModel:   "model-1",
	}
	env := map[string]string{"X_API_KEY": "abc", "X_MODEL_ID": "model-2"}

	cfg, err := ResolveConfig(p, WithEnvLookup(envMap(env)))
	require.NoError(t, err)
	assert.Equal(t, "abc", secret.Reveal(cfg.APIKey))
	assert.Equal(t, "https://x.example.com/v1", cfg.BaseURL)
	assert.Equal(t, "model-2", cfg.Model)
}

func TestResolveDeterministic(t *testing.T) {
	env := map[string]string{HunyuanOpenAI.APIKeyEnv(): "k", HunyuanOpenAI.ModelIDEnv(): "hunyuan-lite"}
	first, err := ResolveConfig(HunyuanOpenAI, WithEnvLookup(envMap(env)))
	require.NoError(t, err)
	for range 5 {
		again, err := ResolveConfig(HunyuanOpenAI, WithEnvLookup(envMap(env)))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveYAMLFile(t *testing.T) {
	path := writeFile(t, "settings.yaml", "HUNYUAN_ANTHROPIC_MODEL_ID: hunyuan-t1-latest\nHUNYUAN_ANTHROPIC_API_KEY: from-yaml\n")
	cfg, err := ResolveConfig(HunyuanAnthropic, WithEnvFile(path, "utf-8"), WithEnvLookup(envMap(nil)))
	require.NoError(t, err)
	assert.Equal(t, "hunyuan-t1-latest", cfg.Model)
	assert.Equal(t, "from-yaml", secret.Reveal(cfg.APIKey))
}

func TestConfigRedaction(t *testing.T) {
	const key = "sk-very-secret-123"
	cfg, err := ResolveConfig(VenusOpenAI, WithAPIKey(key), WithEnvLookup(envMap(nil)))
	require.NoError(t, err)

	var rendered []string
	for _, verb := range []string{"%v", "%+v", "%#v", "%s", "%q", "%x"} {
		rendered = append(rendered, fmt.Sprintf(verb, cfg), fmt.Sprintf(verb, cfg.APIKey))
	}

	js, err := json.Marshal(cfg)
	require.NoError(t, err)
	rendered = append(rendered, string(js))

	ys, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	rendered = append(rendered, string(ys))

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("config", "config", cfg, "key", cfg.APIKey)
	rendered = append(rendered, buf.String())

	for _, out := range rendered {
		assert.NotContains(t, out, key)
	}
	assert.Contains(t, string(js), secret.Redacted)
	assert.True(t, strings.Contains(buf.String(), secret.Redacted))
}

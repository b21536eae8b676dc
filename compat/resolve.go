package compat

import (
	"github.com/spetersoncode/relay/internal/secret"
	"github.com/spetersoncode/relay/internal/settings"
)

// Config is the resolved configuration for one client.
// BaseURL and Model are never empty after resolution; APIKey may be absent.
type Config struct {
	APIKey  secret.Credential `json:"api_key" yaml:"api_key"`
	BaseURL string            `json:"base_url" yaml:"base_url"`
	Model   string            `json:"model" yaml:"model"`
}

// explicit holds values passed directly by the caller. Empty means absent.
type explicit struct {
	apiKey  secret.Credential
	baseURL string
	model   string
}

// resolve applies explicit > loaded > profile default per field.
func resolve(p Profile, exp explicit, raw settings.Raw) Config {
	return Config{
		APIKey:  firstCredential(exp.apiKey, raw.APIKey),
		BaseURL: firstNonEmpty(exp.baseURL, raw.BaseURL, p.DefaultBaseURL),
		Model:   firstNonEmpty(exp.model, raw.ModelID, p.DefaultModel),
	}
}

func firstCredential(creds ...secret.Credential) secret.Credential {
	for _, c := range creds {
		if c.IsPresent() {
			return c
		}
	}
	return secret.Credential{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

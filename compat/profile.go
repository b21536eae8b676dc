package compat

import (
	"fmt"
	"strings"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/settings"
)

// Profile describes one family of compatible endpoints.
type Profile struct {
	// Name is the stable identifier used by LookupProfile and the CLI.
	Name string

	// Label is the human-readable provider name used in messages.
	Label string

	// EnvPrefix prefixes the _API_KEY, _BASE_URL and _MODEL_ID variables.
	EnvPrefix string

	Protocol ai.Protocol

	DefaultBaseURL string
	DefaultModel   string

	// KeyURL is where users obtain a credential. Optional.
	KeyURL string
}

// Built-in profiles.
var (
	HunyuanOpenAI = Profile{
		Name:           "hunyuan-openai",
		Label:          "Hunyuan",
		EnvPrefix:      "HUNYUAN_OPENAI",
		Protocol:       ai.ProtocolOpenAI,
		DefaultBaseURL: "https://api.hunyuan.cloud.tencent.com/v1",
		DefaultModel:   "hunyuan-turbos-latest",
		KeyURL:         "https://console.cloud.tencent.com/hunyuan/start",
	}

	HunyuanAnthropic = Profile{
		Name:           "hunyuan-anthropic",
		Label:          "Hunyuan",
		EnvPrefix:      "HUNYUAN_ANTHROPIC",
		Protocol:       ai.ProtocolAnthropic,
		DefaultBaseURL: "https://api.lkeap.cloud.tencent.com/anthropic",
		DefaultModel:   "hunyuan-turbos-latest",
		KeyURL:         "https://console.cloud.tencent.com/lkeap",
	}

	VenusOpenAI = Profile{
		Name:           "venus-openai",
		Label:          "Venus",
		EnvPrefix:      "VENUS_OPENAI",
		Protocol:       ai.ProtocolOpenAI,
		DefaultBaseURL: "http://v2.open.venus.oa.com/llmproxy",
		DefaultModel:   "deepseek-v3.2",
	}
)

// Profiles returns the built-in profiles.
func Profiles() []Profile {
	return []Profile{HunyuanOpenAI, HunyuanAnthropic, VenusOpenAI}
}

// LookupProfile finds a built-in profile by name, ignoring case.
func LookupProfile(name string) (Profile, bool) {
	for _, p := range Profiles() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Profile{}, false
}

// APIKeyEnv returns the credential variable name, e.g. "VENUS_OPENAI_API_KEY".
func (p Profile) APIKeyEnv() string { return settings.APIKeyName(p.EnvPrefix) }

// BaseURLEnv returns the endpoint variable name.
func (p Profile) BaseURLEnv() string { return settings.BaseURLName(p.EnvPrefix) }

// ModelIDEnv returns the model variable name.
func (p Profile) ModelIDEnv() string { return settings.ModelIDName(p.EnvPrefix) }

func (p Profile) validate() error {
	switch {
	case p.Name == "":
		return fmt.Errorf("profile has no name")
	case p.EnvPrefix == "":
		return fmt.Errorf("profile has no environment prefix")
	case p.Protocol != ai.ProtocolOpenAI && p.Protocol != ai.ProtocolAnthropic:
		return fmt.Errorf("unsupported protocol %q", p.Protocol)
	case p.DefaultModel == "":
		return fmt.Errorf("profile has no default model")
	}
	return settings.ValidateBaseURL(p.EnvPrefix+" default base URL", p.DefaultBaseURL)
}

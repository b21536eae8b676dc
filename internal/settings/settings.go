// Package settings loads provider-scoped settings from the environment and an
// optional settings file.
//
// Three keys are recognized per prefix:
//
//	<PREFIX>_API_KEY   credential
//	<PREFIX>_BASE_URL  endpoint override
//	<PREFIX>_MODEL_ID  model identifier override
//
// Environment variables take precedence over the file. Unset or blank values
// are absent. Loading never mutates the process environment.
package settings

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"unicode"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/internal/secret"
)

// Key suffixes appended to a profile prefix.
const (
	SuffixAPIKey  = "_API_KEY"
	SuffixBaseURL = "_BASE_URL"
	SuffixModelID = "_MODEL_ID"
)

// LookupFunc reports the value of an environment variable and whether it is set.
type LookupFunc func(key string) (string, bool)

// Source describes where settings for one prefix are read from.
type Source struct {
	// Prefix is the variable name prefix without trailing underscore, e.g. "VENUS_OPENAI".
	Prefix string

	// FilePath is an optional dotenv or YAML file. A missing file is ignored.
	FilePath string

	// FileEncoding is an optional WHATWG encoding label for FilePath. Default UTF-8.
	FileEncoding string

	// Lookup reads the environment. Nil means os.LookupEnv.
	Lookup LookupFunc
}

// Raw holds the values loaded for one prefix. Empty strings are absent.
type Raw struct {
	APIKey  secret.Credential
	BaseURL string
	ModelID string
}

// APIKeyName returns the credential variable name for prefix.
func APIKeyName(prefix string) string { return prefix + SuffixAPIKey }

// BaseURLName returns the endpoint variable name for prefix.
func BaseURLName(prefix string) string { return prefix + SuffixBaseURL }

// ModelIDName returns the model variable name for prefix.
func ModelIDName(prefix string) string { return prefix + SuffixModelID }

// Load reads the three recognized keys for src.Prefix.
// Shape errors are returned as *relay.ConfigurationValidationError.
func Load(src Source) (Raw, error) {
	lookup := src.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var file map[string]any
	if src.FilePath != "" {
		var err error
		file, err = readFile(src.FilePath, src.FileEncoding)
		if err != nil {
			return Raw{}, err
		}
	}

	get := func(key string) (string, error) {
		if v, ok := lookup(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
		switch v := file[key].(type) {
		case nil:
			return "", nil
		case string:
			return strings.TrimSpace(v), nil
		default:
			return "", &ai.ConfigurationValidationError{Key: key, Reason: fmt.Sprintf("expected a string, got %T", v)}
		}
	}

	var raw Raw
	apiKey, err := get(APIKeyName(src.Prefix))
	if err != nil {
		return Raw{}, err
	}
	raw.APIKey = secret.New(apiKey)
	if raw.BaseURL, err = get(BaseURLName(src.Prefix)); err != nil {
		return Raw{}, err
	}
	if raw.ModelID, err = get(ModelIDName(src.Prefix)); err != nil {
		return Raw{}, err
	}

	if raw.BaseURL != "" {
		if err := ValidateBaseURL(BaseURLName(src.Prefix), raw.BaseURL); err != nil {
			return Raw{}, err
		}
	}
	if raw.ModelID != "" {
		if err := ValidateModelID(ModelIDName(src.Prefix), raw.ModelID); err != nil {
			return Raw{}, err
		}
	}
	return raw, nil
}

// ValidateBaseURL checks that value is an absolute http or https URL with a host.
func ValidateBaseURL(key, value string) error {
	u, err := url.Parse(value)
	if err != nil {
		// url.Error repeats the input; keep only the parse failure.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return &ai.ConfigurationValidationError{Key: key, Reason: "not a valid URL", Cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ai.ConfigurationValidationError{Key: key, Reason: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ai.ConfigurationValidationError{Key: key, Reason: "URL has no host"}
	}
	return nil
}

// ValidateModelID checks that value is a single token.
func ValidateModelID(key, value string) error {
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return &ai.ConfigurationValidationError{Key: key, Reason: "must not contain whitespace"}
	}
	return nil
}

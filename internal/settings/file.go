package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	ai "github.com/spetersoncode/relay"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

// readFile parses a dotenv or YAML settings file into a flat key/value map.
// Dotenv values are always strings; YAML values keep their decoded type so
// that recognized keys holding non-strings can be rejected by the caller.
// A missing file yields an empty map.
func readFile(path, encoding string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, &ai.ConfigurationValidationError{Key: path, Reason: "cannot read settings file", Cause: err}
	}

	r, err := decode(data, encoding)
	if err != nil {
		return nil, &ai.ConfigurationValidationError{Key: path, Reason: fmt.Sprintf("unsupported encoding %q", encoding), Cause: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path, r)
	default:
		env, err := godotenv.Parse(r)
		if err != nil {
			return nil, &ai.ConfigurationValidationError{Key: path, Reason: "malformed dotenv file", Cause: err}
		}
		values := make(map[string]any, len(env))
		for k, v := range env {
			values[k] = v
		}
		return values, nil
	}
}

func decode(data []byte, encoding string) (io.Reader, error) {
	if encoding == "" {
		return bytes.NewReader(data), nil
	}
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder().Reader(bytes.NewReader(data)), nil
}

// parseYAML decodes a top-level mapping. An empty document yields an empty map.
func parseYAML(path string, r io.Reader) (map[string]any, error) {
	doc := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ai.ConfigurationValidationError{Key: path, Reason: "malformed YAML file", Cause: err}
	}
	return doc, nil
}

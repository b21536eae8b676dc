// Package secret holds credentials so they cannot leak through formatting,
// logging or serialization.
//
// A [Credential] only ever renders as [Redacted]. The plain value is returned
// by [Reveal], a package function rather than a method: because this package
// is internal, code outside the module can hold and inspect a Credential but
// can never unwrap it.
package secret

import (
	"fmt"
	"log/slog"
)

// Redacted is the fixed marker every display path yields for a present credential.
const Redacted = "[REDACTED]"

// Credential is an opaque secret value. The zero value is an absent credential.
type Credential struct {
	value string
}

// New wraps a plain value. An empty string yields an absent credential.
func New(value string) Credential {
	return Credential{value: value}
}

// IsPresent reports whether the credential holds a value.
func (c Credential) IsPresent() bool {
	return c.value != ""
}

// String returns the redacted marker, or an empty string when absent.
func (c Credential) String() string {
	if !c.IsPresent() {
		return ""
	}
	return Redacted
}

// GoString keeps %#v from printing the struct fields.
func (c Credential) GoString() string {
	return fmt.Sprintf("secret.Credential(%q)", c.String())
}

// Format covers every fmt verb, including %x and %q.
func (c Credential) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('#') {
			fmt.Fprint(f, c.GoString())
			return
		}
		fmt.Fprint(f, c.String())
	case 'q':
		fmt.Fprintf(f, "%q", c.String())
	default:
		fmt.Fprint(f, c.String())
	}
}

// LogValue implements slog.LogValuer.
func (c Credential) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// MarshalText implements encoding.TextMarshaler.
func (c Credential) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// MarshalJSON implements json.Marshaler.
func (c Credential) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", c.String())), nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Credential) MarshalYAML() (any, error) {
	return c.String(), nil
}

// Reveal returns the plain value. Client construction is its only caller.
func Reveal(c Credential) string {
	return c.value
}

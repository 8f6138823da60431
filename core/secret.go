package core

import "log/slog"

const redacted = "[REDACTED]"

// Secret holds the OpenRouter API key. Printing, JSON, YAML and slog all
// render it as [REDACTED]; only Expose returns the key, and the client calls
// it once per request to build the Authorization header.
//
//	secret := NewSecret("sk-or-v1-...")
//	fmt.Println(secret)              // [REDACTED]
//	fmt.Printf("%#v", secret)        // core.Secret{[REDACTED]}
//	slog.Info("auth", "key", secret) // key=[REDACTED]
type Secret struct {
	value string
}

// NewSecret creates a new Secret from a string value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// String returns a redacted placeholder.
// Implements fmt.Stringer.
func (s Secret) String() string {
	return redacted
}

// GoString returns a redacted placeholder for %#v formatting.
// Implements fmt.GoStringer.
func (s Secret) GoString() string {
	return "core.Secret{" + redacted + "}"
}

// MarshalJSON returns a redacted JSON string.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// MarshalText returns a redacted text representation.
// Implements encoding.TextMarshaler, which also covers YAML.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// Expose returns the actual secret value.
// Be careful not to log or serialize the returned value.
func (s Secret) Expose() string {
	return s.value
}

// IsEmpty returns true if the secret value is empty.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// Hint returns a short, display-safe fingerprint of the secret: the last
// four characters behind an ellipsis, or "[REDACTED]" for short values.
func (s Secret) Hint() string {
	if len(s.value) < 12 {
		return redacted
	}
	return "..." + s.value[len(s.value)-4:]
}

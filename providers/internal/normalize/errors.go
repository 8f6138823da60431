// Package normalize builds the typed errors returned by the OpenRouter client.
package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/petal-labs/openrouter/core"
)

// EmptyBodyMessage is the APIError message for a successful status with no body.
const EmptyBodyMessage = "Empty response body"

// errorEnvelope is the OpenRouter error body:
// {"error":{"code":402,"message":"...","metadata":{...}}}
type errorEnvelope struct {
	Error struct {
		Code     json.RawMessage `json:"code"`
		Message  string          `json:"message"`
		Metadata map[string]any  `json:"metadata"`
	} `json:"error"`
}

// StatusError builds the APIError for a non-2xx response. The raw body is
// kept verbatim as the message; the OpenRouter envelope, if present, is
// parsed into ProviderMessage and Metadata.
func StatusError(status int, body []byte) error {
	apiErr := &core.APIError{
		Code:    status,
		Message: string(body),
		Err:     SentinelForStatus(status),
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil {
		apiErr.ProviderMessage = env.Error.Message
		apiErr.Metadata = env.Error.Metadata
	}
	return apiErr
}

// EmptyBodyError builds the APIError for a response without a body.
func EmptyBodyError(status int) error {
	return &core.APIError{
		Code:    status,
		Message: EmptyBodyMessage,
		Err:     core.ErrEmptyResponse,
	}
}

// DecodeError builds the APIError for a body that failed to decode.
// The body is embedded in the message.
func DecodeError(status int, err error, body []byte) error {
	return &core.APIError{
		Code:    status,
		Message: fmt.Sprintf("Failed to decode JSON: %v. Body was: %s", err, body),
		Err:     core.ErrDecode,
	}
}

// ConfigError builds a ConfigError with the HTTP-style code 400.
func ConfigError(field, message string, err error) error {
	return &core.ConfigError{
		Code:    http.StatusBadRequest,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// TransportError wraps a failure returned by http.Client.Do or while
// reading the response body.
func TransportError(op, url string, err error) error {
	return core.NewTransportError(op, url, err, IsTimeout(err))
}

// IsTimeout reports whether err was caused by an expired deadline,
// either the client timeout or the caller's context.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// SentinelForStatus maps an HTTP status code to a core sentinel error.
func SentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return core.ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrUnauthorized
	case status == http.StatusPaymentRequired:
		return core.ErrPaymentRequired
	case status == http.StatusNotFound:
		return core.ErrNotFound
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimited
	default:
		return core.ErrServer
	}
}

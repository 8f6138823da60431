package core

import (
	"errors"
	"fmt"
)

// Error classes. Use errors.Is to test which class an error belongs to.
var (
	ErrConfig           = errors.New("configuration error")
	ErrAPI              = errors.New("api error")
	ErrSchemaValidation = errors.New("schema validation error")
	ErrNetwork          = errors.New("network error")
	ErrTimeout          = errors.New("request timed out")
)

// Sentinel errors wrapped by APIError to classify the failure further.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrPaymentRequired = errors.New("payment required")
	ErrNotFound        = errors.New("not found")
	ErrRateLimited     = errors.New("rate limited")
	ErrServer          = errors.New("server error")
	ErrDecode          = errors.New("decode error")
	ErrEmptyResponse   = errors.New("empty response body")
)

// Validation errors with actionable guidance.
var (
	ErrModelRequired  = errors.New("model required: pass a model ID to NewRequestBuilder, e.g. \"openai/gpt-4o\"")
	ErrNoMessages     = errors.New("no messages: add at least one message using .System(), .User(), or .Assistant()")
	ErrClientNotReady = &ConfigError{Code: 400, Message: "client not ready: build it with New().WithBaseURL(...).WithAPIKey(...)"}
)

// ConfigError reports malformed client configuration, such as an unparsable
// base URL or a header value that cannot be sent on the wire.
type ConfigError struct {
	Code    int
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (code=%d)", e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (code=%d)", e.Message, e.Code)
}

// Is reports whether target is ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// Unwrap returns the underlying cause, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// APIError is returned when the remote API answers with a failure: a non-2xx
// status, an empty body, or a body that does not decode.
//
// Message always carries the raw response body for status failures so the
// upstream diagnostics are never lost. ProviderMessage and Metadata are
// filled in when the body is an OpenRouter error envelope.
type APIError struct {
	Code            int
	Message         string
	ProviderMessage string
	Metadata        map[string]any
	Err             error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status=%d): %s", e.Code, e.Message)
}

// Is reports whether target is ErrAPI.
func (e *APIError) Is(target error) bool {
	return target == ErrAPI
}

// Unwrap returns the classification sentinel.
func (e *APIError) Unwrap() error {
	return e.Err
}

// SchemaValidationError is returned when a decoded response breaks a
// structural invariant, such as a tool call whose kind is not "function".
type SchemaValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *SchemaValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrSchemaValidation.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// TransportError wraps a failure of the underlying HTTP transport
// (connection refused, TLS failure, timeout, cancelled context).
// The original error is preserved and reachable through errors.Is/As.
type TransportError struct {
	Op      string
	URL     string
	Err     error
	timeout bool
}

// NewTransportError wraps err. timeout marks the failure as a deadline expiry.
func NewTransportError(op, url string, err error, timeout bool) *TransportError {
	return &TransportError{Op: op, URL: url, Err: err, timeout: timeout}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

// Timeout reports whether the transport gave up because a deadline expired.
func (e *TransportError) Timeout() bool {
	return e.timeout
}

// Is reports whether target is ErrNetwork, or ErrTimeout for timeouts.
func (e *TransportError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	return target == ErrTimeout && e.timeout
}

// Unwrap returns the transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorClass names the class of err for logs and traces: "config", "api",
// "schema_validation", "timeout", "network", or "unknown".
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrAPI):
		return "api"
	case errors.Is(err, ErrSchemaValidation):
		return "schema_validation"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}

// ErrorSummary describes err without any response body. An APIError is
// reduced to its status and sentinel; other errors never carry a body and
// are returned as is.
func ErrorSummary(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		summary := fmt.Sprintf("api error (status=%d)", apiErr.Code)
		if apiErr.Err != nil {
			summary += ": " + apiErr.Err.Error()
		}
		return summary
	}
	return err.Error()
}

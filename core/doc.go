// Package core holds the wire types, request builder, error classes and
// telemetry hooks shared by the OpenRouter client and its CLI.
//
// # Requests
//
// [RequestBuilder] assembles a [ChatCompletionRequest]:
//
//	req, err := core.NewRequestBuilder("openai/gpt-4o", nil, nil).
//	    System("You are a helpful assistant.").
//	    User("Hello!").
//	    Temperature(0.7).
//	    Param("transforms", []string{"middle-out"}).
//	    Build()
//
// Parameters without a typed field go into [ChatCompletionRequest.Extra]
// and are sent as top-level JSON keys.
//
// RequestBuilder is NOT thread-safe. Use [RequestBuilder.Clone] to derive
// independent builders from a shared base.
//
// # Error Handling
//
// Every error returned by the openrouter client (its configuration stages,
// NewFromEnv, ChatCompletion and the ChatAPI methods) belongs to exactly one
// class:
//   - [ErrConfig]: malformed base URL or header value, missing API key, or a
//     request that cannot be built ([ConfigError])
//   - [ErrAPI]: non-2xx status, empty body or undecodable body ([APIError])
//   - [ErrSchemaValidation]: response broke a structural invariant ([SchemaValidationError])
//   - [ErrNetwork]: the transport failed ([TransportError]); [ErrTimeout] on top for timeouts
//
// [RequestBuilder.Build] itself returns the bare [ErrModelRequired] and
// [ErrNoMessages] sentinels; the client wraps them in a [ConfigError].
//
// Use errors.Is to check the class and errors.As to read the details:
//
//	var apiErr *core.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == http.StatusPaymentRequired {
//	    // top up credits
//	}
//
// # Telemetry
//
// Implement [TelemetryHook] to observe request lifecycle, or use
// [NewLoggingTelemetryHook] to send events to a slog.Logger.
// Events never carry API keys or message content.
package core

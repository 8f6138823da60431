package core

import (
	"context"
	"log/slog"
	"time"
)

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// Hooks are called synchronously on the calling goroutine and must be safe
// for concurrent use, since a single client may serve many calls at once.
//
// Events never include API keys or message content. RequestEndEvent.Err is
// the error returned to the caller, and an APIError in it carries the raw
// response body; hooks that export errors should use ErrorSummary and
// ErrorClass, as the bundled hooks do.
//
// ctx is the context passed to the call, so hooks can join the caller's
// trace or read request-scoped values.
type TelemetryHook interface {
	// OnRequestStart is called before the request is sent.
	OnRequestStart(ctx context.Context, e RequestStartEvent)

	// OnRequestEnd is called once the call has returned, successfully or not.
	OnRequestEnd(ctx context.Context, e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	RequestID string    // Client-generated correlation ID
	Model     ModelID   // Model being called
	URL       string    // Endpoint URL
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
type RequestEndEvent struct {
	RequestID string    // Same ID as the matching start event
	Model     ModelID   // Model that was called
	Status    int       // HTTP status, 0 if no response was received
	Start     time.Time // When the request started
	End       time.Time // When the request completed
	Usage     Usage     // Token consumption
	Err       error     // Error if request failed, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Use this as a default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(context.Context, RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(context.Context, RequestEndEvent) {}

// LoggingTelemetryHook writes request lifecycle events to a slog.Logger.
// Errors are logged with ErrorSummary, never with the response body.
type LoggingTelemetryHook struct {
	logger *slog.Logger
}

// NewLoggingTelemetryHook returns a hook that logs to logger,
// or to slog.Default() when logger is nil.
func NewLoggingTelemetryHook(logger *slog.Logger) *LoggingTelemetryHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingTelemetryHook{logger: logger}
}

// OnRequestStart logs at debug level.
func (h *LoggingTelemetryHook) OnRequestStart(ctx context.Context, e RequestStartEvent) {
	h.logger.DebugContext(ctx, "chat completion start",
		"request_id", e.RequestID,
		"model", string(e.Model),
		"url", e.URL)
}

// OnRequestEnd logs at info level on success and warn level on failure.
func (h *LoggingTelemetryHook) OnRequestEnd(ctx context.Context, e RequestEndEvent) {
	attrs := []any{
		"request_id", e.RequestID,
		"model", string(e.Model),
		"status", e.Status,
		"duration", e.Duration(),
	}
	if e.Err != nil {
		h.logger.WarnContext(ctx, "chat completion failed", append(attrs,
			"error_class", ErrorClass(e.Err),
			"error", ErrorSummary(e.Err))...)
		return
	}
	h.logger.InfoContext(ctx, "chat completion done", append(attrs,
		"prompt_tokens", e.Usage.PromptTokens,
		"completion_tokens", e.Usage.CompletionTokens,
		"total_tokens", e.Usage.TotalTokens)...)
}

// Compile-time checks that the hooks implement TelemetryHook.
var (
	_ TelemetryHook = NoopTelemetryHook{}
	_ TelemetryHook = (*LoggingTelemetryHook)(nil)
)

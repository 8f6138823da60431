// Package otel reports OpenRouter chat completions as OpenTelemetry spans.
//
//	hook := otel.NewHook(tracerProvider.Tracer("my-service"))
//	client, err := stage.WithTelemetry(hook).WithAPIKey(key)
//
// One span is recorded per call, named "chat.completion", covering the time
// between the start and end telemetry events. The span is a child of the
// span in the context passed to ChatCompletion, if any.
//
// Failed calls record an "exception" event built from core.ErrorSummary, so
// response bodies carried by API errors are never exported.
package otel

import (
	"context"
	"fmt"
	"sync"

	gootel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/openrouter/core"
)

// InstrumentationName is the tracer name used when no tracer is supplied.
const InstrumentationName = "github.com/petal-labs/openrouter/contrib/otel"

// SpanName is the name given to every chat completion span.
const SpanName = "chat.completion"

// Attribute keys.
const (
	AttrRequestID        = attribute.Key("openrouter.request_id")
	AttrModel            = attribute.Key("openrouter.model")
	AttrURL              = attribute.Key("url.full")
	AttrStatus           = attribute.Key("http.response.status_code")
	AttrPromptTokens     = attribute.Key("openrouter.usage.prompt_tokens")
	AttrCompletionTokens = attribute.Key("openrouter.usage.completion_tokens")
	AttrTotalTokens      = attribute.Key("openrouter.usage.total_tokens")
	AttrErrorType        = attribute.Key("error.type")
	AttrExceptionType    = attribute.Key("exception.type")
	AttrExceptionMessage = attribute.Key("exception.message")
)

// Hook is a core.TelemetryHook that records spans. It is safe for
// concurrent use; in-flight spans are keyed by request ID.
type Hook struct {
	tracer trace.Tracer
	spans  sync.Map // request ID -> trace.Span
}

// NewHook returns a hook that records spans with tracer, or with the global
// tracer provider when tracer is nil.
func NewHook(tracer trace.Tracer) *Hook {
	if tracer == nil {
		tracer = gootel.Tracer(InstrumentationName)
	}
	return &Hook{tracer: tracer}
}

// OnRequestStart starts the span for the call as a child of ctx.
func (h *Hook) OnRequestStart(ctx context.Context, e core.RequestStartEvent) {
	_, span := h.tracer.Start(ctx, SpanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(
			AttrRequestID.String(e.RequestID),
			AttrModel.String(string(e.Model)),
			AttrURL.String(e.URL),
		),
	)
	h.spans.Store(e.RequestID, span)
}

// OnRequestEnd finishes the span started for the same request ID.
// End events without a matching start are ignored.
func (h *Hook) OnRequestEnd(_ context.Context, e core.RequestEndEvent) {
	v, ok := h.spans.LoadAndDelete(e.RequestID)
	if !ok {
		return
	}
	span := v.(trace.Span)

	if e.Status != 0 {
		span.SetAttributes(AttrStatus.Int(e.Status))
	}
	if e.Err != nil {
		summary := core.ErrorSummary(e.Err)
		span.SetAttributes(AttrErrorType.String(core.ErrorClass(e.Err)))
		span.AddEvent("exception",
			trace.WithTimestamp(e.End),
			trace.WithAttributes(
				AttrExceptionType.String(fmt.Sprintf("%T", e.Err)),
				AttrExceptionMessage.String(summary),
			),
		)
		span.SetStatus(codes.Error, summary)
	} else {
		span.SetAttributes(
			AttrPromptTokens.Int(e.Usage.PromptTokens),
			AttrCompletionTokens.Int(e.Usage.CompletionTokens),
			AttrTotalTokens.Int(e.Usage.TotalTokens),
		)
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.End))
}

var _ core.TelemetryHook = (*Hook)(nil)

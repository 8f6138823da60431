package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestRequestEndEventDuration(t *testing.T) {
	start := time.Now()
	event := RequestEndEvent{Start: start, End: start.Add(1500 * time.Millisecond)}

	if got := event.Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
}

func TestNoopTelemetryHook(t *testing.T) {
	var hook TelemetryHook = NoopTelemetryHook{}

	// Must not panic.
	hook.OnRequestStart(context.Background(), RequestStartEvent{Model: "m"})
	hook.OnRequestEnd(context.Background(), RequestEndEvent{Model: "m", Err: errors.New("boom")})
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line %q is not JSON: %v", line, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestLoggingTelemetryHookSuccess(t *testing.T) {
	var buf bytes.Buffer
	hook := NewLoggingTelemetryHook(newTestLogger(&buf))

	start := time.Now()
	hook.OnRequestStart(context.Background(), RequestStartEvent{RequestID: "req-1", Model: "openai/gpt-4", URL: "https://x/chat/completions", Start: start})
	hook.OnRequestEnd(context.Background(), RequestEndEvent{
		RequestID: "req-1",
		Model:     "openai/gpt-4",
		Status:    200,
		Start:     start,
		End:       start.Add(time.Second),
		Usage:     Usage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7},
	})

	lines := decodeLogLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}
	if lines[0]["level"] != "DEBUG" || lines[0]["request_id"] != "req-1" {
		t.Errorf("start line = %v", lines[0])
	}
	if lines[1]["level"] != "INFO" {
		t.Errorf("end level = %v, want INFO", lines[1]["level"])
	}
	if lines[1]["total_tokens"] != float64(7) {
		t.Errorf("total_tokens = %v, want 7", lines[1]["total_tokens"])
	}
}

func TestLoggingTelemetryHookFailure(t *testing.T) {
	var buf bytes.Buffer
	hook := NewLoggingTelemetryHook(newTestLogger(&buf))

	hook.OnRequestEnd(context.Background(), RequestEndEvent{
		RequestID: "req-2",
		Model:     "m",
		Status:    500,
		Err:       &APIError{Code: 500, Message: "Internal Server Error", Err: ErrServer},
	})

	lines := decodeLogLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1", len(lines))
	}
	if lines[0]["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", lines[0]["level"])
	}
	if msg, _ := lines[0]["error"].(string); msg != "api error (status=500): server error" {
		t.Errorf("error attr = %v, want status and class only", lines[0]["error"])
	}
	if lines[0]["error_class"] != "api" {
		t.Errorf("error_class = %v, want api", lines[0]["error_class"])
	}
	if _, ok := lines[0]["total_tokens"]; ok {
		t.Error("failure line should not report token usage")
	}
}

func TestLoggingTelemetryHookDefaultLogger(t *testing.T) {
	if NewLoggingTelemetryHook(nil).logger == nil {
		t.Error("nil logger should fall back to slog.Default()")
	}
}

func TestLoggingTelemetryHookOmitsResponseBody(t *testing.T) {
	var buf bytes.Buffer
	hook := NewLoggingTelemetryHook(newTestLogger(&buf))

	body := `{"choices":[{"message":{"content":"private answer"}}]`
	hook.OnRequestEnd(context.Background(), RequestEndEvent{
		RequestID: "req-3",
		Status:    200,
		Err:       &APIError{Code: 200, Message: "decode: unexpected EOF; body: " + body, Err: ErrDecode},
	})

	out := buf.String()
	if strings.Contains(out, "private answer") {
		t.Errorf("log leaked the response body: %s", out)
	}
	if !strings.Contains(out, "decode error") {
		t.Errorf("log should name the decode failure: %s", out)
	}
}

func TestErrorClassAndSummary(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantClass   string
		wantSummary string
	}{
		{"nil", nil, "", ""},
		{"config", &ConfigError{Code: 400, Field: "base_url", Message: "Invalid base URL"}, "config", "base_url: Invalid base URL (code=400)"},
		{"api with body", &APIError{Code: 500, Message: "server exploded", Err: ErrServer}, "api", "api error (status=500): server error"},
		{"api without sentinel", &APIError{Code: 418, Message: "teapot"}, "api", "api error (status=418)"},
		{"wrapped api", fmt.Errorf("chat: %w", &APIError{Code: 502, Message: "<html>", Err: ErrServer}), "api", "api error (status=502): server error"},
		{"schema", &SchemaValidationError{Message: "Invalid tool call kind: tool. Expected 'function'"}, "schema_validation", "Invalid tool call kind: tool. Expected 'function'"},
		{"timeout", NewTransportError("POST", "https://x/", context.DeadlineExceeded, true), "timeout", "POST https://x/: context deadline exceeded"},
		{"network", NewTransportError("POST", "https://x/", errors.New("refused"), false), "network", "POST https://x/: refused"},
		{"other", errors.New("boom"), "unknown", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorClass(tt.err); got != tt.wantClass {
				t.Errorf("ErrorClass() = %q, want %q", got, tt.wantClass)
			}
			if got := ErrorSummary(tt.err); got != tt.wantSummary {
				t.Errorf("ErrorSummary() = %q, want %q", got, tt.wantSummary)
			}
		})
	}
}

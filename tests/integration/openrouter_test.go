//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/tools"
)

func TestOpenRouter_ChatCompletion(t *testing.T) {
	client := newClient(t, getAPIKey(t))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	req, err := client.CompletionRequest(nil).
		Model(testModel).
		User("Say 'hello' and nothing else.").
		MaxTokens(16).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	resp, err := client.ChatCompletion(ctx, req)
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}

	if resp.ID == "" {
		t.Error("response ID is empty")
	}
	if len(resp.Choices) == 0 {
		t.Fatal("no choices in response")
	}
	if !strings.Contains(strings.ToLower(resp.Output()), "hello") {
		t.Errorf("Output() = %q, want it to contain hello", resp.Output())
	}
	if resp.Usage == nil || resp.Usage.TotalTokens == 0 {
		t.Errorf("Usage = %+v, want token counts", resp.Usage)
	}
}

func TestOpenRouter_ChatAPISend(t *testing.T) {
	client := newClient(t, getAPIKey(t))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Chat().Send(ctx, testModel,
		core.Message{Role: core.RoleSystem, Content: "You only answer with a single number."},
		core.Message{Role: core.RoleUser, Content: "What is 2 + 2?"},
	)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if !strings.Contains(resp.Output(), "4") {
		t.Errorf("Output() = %q, want 4", resp.Output())
	}
}

func TestOpenRouter_ToolCalls(t *testing.T) {
	client := newClient(t, getAPIKey(t))

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	registry := tools.NewRegistry(tools.WithValidation())
	schema := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"location": {Type: "string", Description: "The city and state, e.g. San Francisco, CA"},
		},
		Required: []string{"location"},
	}
	err := registry.Register(tools.NewFunc("get_weather", "Get the current weather in a given location", schema,
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return map[string]string{"conditions": "sunny", "temperature": "22C"}, nil
		}))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	builder := client.CompletionRequest(nil).
		Model(testModel).
		User("What's the weather in Paris? Use the get_weather tool.").
		Tools(registry.Definitions()...)

	req, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	resp, err := client.ChatCompletion(ctx, req)
	if err != nil {
		t.Fatalf("ChatCompletion() error = %v", err)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		t.Fatalf("expected tool calls, got content %q", msg.Content)
	}
	for _, call := range msg.ToolCalls {
		if call.Kind != core.ToolKindFunction {
			t.Errorf("tool call kind = %q, want function", call.Kind)
		}
	}

	results, err := registry.ExecuteAll(ctx, msg.ToolCalls)
	if err != nil {
		t.Fatalf("ExecuteAll() error = %v", err)
	}
	builder.Message(msg)
	for _, r := range results {
		builder.Message(r)
	}

	req, err = builder.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	final, err := client.ChatCompletion(ctx, req)
	if err != nil {
		t.Fatalf("final ChatCompletion() error = %v", err)
	}
	if final.Output() == "" {
		t.Error("final answer is empty")
	}
}

func TestOpenRouter_InvalidKey(t *testing.T) {
	getAPIKey(t)
	client := newClient(t, "sk-or-v1-invalid")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := client.CompletionRequest(nil).Model(testModel).User("hi").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	_, err = client.ChatCompletion(ctx, req)
	if !errors.Is(err, core.ErrAPI) {
		t.Fatalf("error = %v, want ErrAPI", err)
	}
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *core.APIError", err)
	}
	if apiErr.Code != http.StatusUnauthorized {
		t.Errorf("Code = %d, want %d", apiErr.Code, http.StatusUnauthorized)
	}
}

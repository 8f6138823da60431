package openrouter

import (
	"context"
	"net/http"

	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/providers/internal/normalize"
)

// ChatAPI groups the chat endpoint operations. It shares the HTTP client of
// the Client that created it and holds its own copy of the configuration.
type ChatAPI struct {
	pipeline
}

func newChatAPI(httpClient *http.Client, config Config, telemetry core.TelemetryHook) *ChatAPI {
	return &ChatAPI{pipeline{
		config:    config.clone(),
		http:      httpClient,
		telemetry: telemetry,
	}}
}

// Create sends a chat completion request.
func (a *ChatAPI) Create(ctx context.Context, req *core.ChatCompletionRequest) (*core.ChatCompletionResponse, error) {
	return a.chatCompletion(ctx, req)
}

// Send builds a request for model from messages and sends it. A request
// that cannot be built fails with a *core.ConfigError wrapping
// core.ErrModelRequired or core.ErrNoMessages.
func (a *ChatAPI) Send(ctx context.Context, model core.ModelID, messages ...core.Message) (*core.ChatCompletionResponse, error) {
	req, err := core.NewRequestBuilder(model, messages, nil).Build()
	if err != nil {
		return nil, normalize.ConfigError("request", err.Error(), err)
	}
	return a.Create(ctx, req)
}

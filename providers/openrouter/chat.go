package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/providers/internal/normalize"
)

// chatCompletionsPath is the chat completions endpoint, relative to the base URL.
const chatCompletionsPath = "chat/completions"

// pipeline is the request/response machinery shared by Client and ChatAPI.
// All fields are read-only after construction.
type pipeline struct {
	config    Config
	http      *http.Client
	telemetry core.TelemetryHook
}

func (p *pipeline) ready() error {
	if p == nil || p.http == nil || p.config.BaseURL == nil {
		return core.ErrClientNotReady
	}
	return nil
}

// endpoint resolves path against the base URL. The base must be able to
// act as a join base: hierarchical, and with a path that is empty or ends in "/".
func (p *pipeline) endpoint(path string) (*url.URL, error) {
	base := p.config.BaseURL
	if base.Opaque != "" {
		return nil, normalize.ConfigError("base_url", "URL join error: "+base.String()+" cannot be a base", nil)
	}
	if base.Path != "" && !strings.HasSuffix(base.Path, "/") {
		return nil, normalize.ConfigError("base_url", "URL join error: "+base.String()+" must end with \"/\"", nil)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, normalize.ConfigError("base_url", "URL join error: "+err.Error(), err)
	}
	return base.ResolveReference(ref), nil
}

// ChatCompletion sends req to the chat completions endpoint, decodes the
// response and validates its tool calls.
func (c *Client) ChatCompletion(ctx context.Context, req *core.ChatCompletionRequest) (*core.ChatCompletionResponse, error) {
	return c.chatCompletion(ctx, req)
}

func (p *pipeline) chatCompletion(ctx context.Context, req *core.ChatCompletionRequest) (*core.ChatCompletionResponse, error) {
	if err := p.ready(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, normalize.ConfigError("request", "request is required", nil)
	}

	endpoint, err := p.endpoint(chatCompletionsPath)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	start := time.Now()
	p.telemetry.OnRequestStart(ctx, core.RequestStartEvent{
		RequestID: requestID,
		Model:     req.Model,
		URL:       endpoint.String(),
		Start:     start,
	})

	resp, status, err := p.doChat(ctx, endpoint, req)

	end := core.RequestEndEvent{
		RequestID: requestID,
		Model:     req.Model,
		Status:    status,
		Start:     start,
		End:       time.Now(),
		Err:       err,
	}
	if resp != nil && resp.Usage != nil {
		end.Usage = *resp.Usage
	}
	p.telemetry.OnRequestEnd(ctx, end)

	return resp, err
}

// doChat performs the HTTP exchange. status is 0 when no response arrived.
func (p *pipeline) doChat(ctx context.Context, endpoint *url.URL, req *core.ChatCompletionRequest) (*core.ChatCompletionResponse, int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, normalize.ConfigError("request", "cannot encode request: "+err.Error(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, 0, normalize.ConfigError("request", err.Error(), err)
	}

	// Rebuilt for every request rather than relying on the transport defaults.
	headers, err := p.config.BuildHeaders()
	if err != nil {
		return nil, 0, err
	}
	for key, values := range headers {
		httpReq.Header[key] = values
	}

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return nil, 0, normalize.TransportError(http.MethodPost, endpoint.String(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, normalize.TransportError(http.MethodPost, endpoint.String(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, normalize.StatusError(resp.StatusCode, respBody)
	}

	out, err := decodeResponse[core.ChatCompletionResponse](resp.StatusCode, respBody)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if err := ValidateToolCalls(out); err != nil {
		return nil, resp.StatusCode, err
	}
	return out, resp.StatusCode, nil
}

// decodeResponse decodes a successful response body into T.
// An empty body and a malformed body are both API errors; the raw body is
// kept in the message of the latter.
func decodeResponse[T any](status int, body []byte) (*T, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, normalize.EmptyBodyError(status)
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, normalize.DecodeError(status, err, body)
	}
	return &out, nil
}

package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petal-labs/openrouter/cli/config"
	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/providers/openrouter"
)

const okBody = `{
	"id": "gen-1",
	"model": "openai/gpt-4",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hi there!"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 5, "completion_tokens": 3, "total_tokens": 8}
}`

const toolCallBody = `{
	"id": "gen-2",
	"model": "openai/gpt-4",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "", "tool_calls": [
		{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"Paris\"}"}}
	]}}]
}`

const badToolBody = `{
	"id": "gen-3",
	"model": "openai/gpt-4",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "", "tool_calls": [
		{"id": "call_1", "type": "tool", "function": {"name": "x", "arguments": "{}"}}
	]}}]
}`

func decodeRequest(t *testing.T, body string) core.ChatCompletionRequest {
	t.Helper()
	var req core.ChatCompletionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("request body %q: %v", body, err)
	}
	return req
}

func TestChatSuccess(t *testing.T) {
	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-test")
	rec := &captured{}
	url := newServer(t, http.StatusOK, okBody, rec)

	run := runApp(t, nil, nil, "",
		"chat", "--base-url", url, "--model", "openai/gpt-4",
		"--prompt", "Hello", "--system", "Be brief.",
		"--temperature", "0.5", "--max-tokens", "10",
		"--referer", "https://myapp.example", "--title", "My App")

	if run.err != nil {
		t.Fatalf("chat error = %v (stderr %q)", run.err, run.stderr.String())
	}
	if got := run.stdout.String(); got != "> Hello\nHi there!\n" {
		t.Errorf("stdout = %q", got)
	}

	headers, body := rec.last()
	if got := headers.Get("Authorization"); got != "Bearer sk-test" {
		t.Errorf("Authorization = %q, want Bearer sk-test", got)
	}
	if got := headers.Get("Referer"); got != "https://myapp.example" {
		t.Errorf("Referer = %q", got)
	}
	if got := headers.Get("X-Title"); got != "My App" {
		t.Errorf("X-Title = %q", got)
	}

	req := decodeRequest(t, body)
	if req.Model != "openai/gpt-4" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != core.RoleSystem || req.Messages[1].Content != "Hello" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if req.Temperature == nil || *req.Temperature != 0.5 {
		t.Errorf("temperature = %v, want 0.5", req.Temperature)
	}
	if req.MaxTokens == nil || *req.MaxTokens != 10 {
		t.Errorf("max_tokens = %v, want 10", req.MaxTokens)
	}
}

func TestChatJSONOutput(t *testing.T) {
	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-test")
	url := newServer(t, http.StatusOK, okBody, nil)

	run := runApp(t, nil, nil, "", "chat", "--base-url", url, "--prompt", "Hello", "--json")
	if run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}

	var out chatOutput
	if err := json.Unmarshal(run.stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, run.stdout.String())
	}
	if out.ID != "gen-1" || out.Output != "Hi there!" {
		t.Errorf("output = %+v", out)
	}
	if out.Usage == nil || out.Usage.TotalTokens != 8 {
		t.Errorf("usage = %+v, want total 8", out.Usage)
	}
}

func TestChatToolCalls(t *testing.T) {
	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-test")
	url := newServer(t, http.StatusOK, toolCallBody, nil)

	run := runApp(t, nil, nil, "", "chat", "--base-url", url, "--prompt", "Weather?")
	if run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	if !strings.Contains(run.stdout.String(), `tool call call_1: get_weather({"city":"Paris"})`) {
		t.Errorf("stdout = %q, want tool call line", run.stdout.String())
	}
}

func TestChatExitCodes(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL + "/"
	closed.Close()

	tests := []struct {
		name     string
		status   int
		body     string
		baseURL  string
		wantCode int
		wantErr  string
	}{
		{"api error", http.StatusPaymentRequired, `{"error":{"code":402,"message":"Insufficient credits"}}`, "", ExitAPI, "Insufficient credits"},
		{"server error", http.StatusInternalServerError, "Internal Server Error", "", ExitAPI, "status=500"},
		{"empty body", http.StatusOK, "", "", ExitAPI, "Empty response body"},
		{"schema", http.StatusOK, badToolBody, "", ExitSchema, "Invalid tool call kind: tool"},
		{"network", 0, "", closedURL, ExitNetwork, "Error:"},
		{"invalid base url", 0, "", "not a url", ExitValidation, "Invalid base URL"},
		{"base url without slash", 0, "", "http://127.0.0.1:1/v1", ExitValidation, "URL join error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(openrouter.APIKeyEnvVar, "sk-test")
			url := tt.baseURL
			if url == "" {
				url = newServer(t, tt.status, tt.body, nil)
			}

			run := runApp(t, nil, nil, "", "chat", "--base-url", url, "--prompt", "Hello")
			if got := exitCode(t, run.err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr %q)", got, tt.wantCode, run.stderr.String())
			}
			if !strings.Contains(run.stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want %q", run.stderr.String(), tt.wantErr)
			}
		})
	}
}

func TestChatErrorJSON(t *testing.T) {
	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-test")
	url := newServer(t, http.StatusTooManyRequests, `{"error":{"code":429,"message":"slow down"}}`, nil)

	run := runApp(t, nil, nil, "", "chat", "--base-url", url, "--prompt", "Hello", "--json")
	if got := exitCode(t, run.err); got != ExitAPI {
		t.Errorf("exit code = %d, want %d", got, ExitAPI)
	}

	var out errorOutput
	if err := json.Unmarshal(run.stderr.Bytes(), &out); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, run.stderr.String())
	}
	if out.Error.Type != "api_error" || out.Error.Status != http.StatusTooManyRequests {
		t.Errorf("error = %+v", out.Error)
	}
}

func TestChatKeyFromKeystore(t *testing.T) {
	clearEnv(t)
	rec := &captured{}
	url := newServer(t, http.StatusOK, okBody, rec)

	ks := newMemKeystore()
	_ = ks.Set("openrouter", "sk-default")
	_ = ks.Set("work", "sk-work")

	run := runApp(t, nil, ks, "", "chat", "--base-url", url, "--prompt", "Hello")
	if run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	if headers, _ := rec.last(); headers.Get("Authorization") != "Bearer sk-default" {
		t.Errorf("Authorization = %q, want default key", headers.Get("Authorization"))
	}

	run = runApp(t, &config.Config{APIKeyRef: "work"}, ks, "", "chat", "--base-url", url, "--prompt", "Hello")
	if run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	if headers, _ := rec.last(); headers.Get("Authorization") != "Bearer sk-work" {
		t.Errorf("Authorization = %q, want work key", headers.Get("Authorization"))
	}
}

func TestChatEnvKeyWinsOverKeystore(t *testing.T) {
	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-env")
	rec := &captured{}
	url := newServer(t, http.StatusOK, okBody, rec)

	ks := newMemKeystore()
	_ = ks.Set("openrouter", "sk-stored")

	run := runApp(t, nil, ks, "", "chat", "--base-url", url, "--prompt", "Hello")
	if run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	if headers, _ := rec.last(); headers.Get("Authorization") != "Bearer sk-env" {
		t.Errorf("Authorization = %q, want env key", headers.Get("Authorization"))
	}
}

func TestChatMissingKey(t *testing.T) {
	clearEnv(t)

	run := runApp(t, nil, nil, "", "chat", "--prompt", "Hello")
	if got := exitCode(t, run.err); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
	if !strings.Contains(run.stderr.String(), "openrouter keys set openrouter") {
		t.Errorf("stderr = %q, want keys set hint", run.stderr.String())
	}
}

func TestChatMissingPrompt(t *testing.T) {
	clearEnv(t)

	run := runApp(t, nil, nil, "", "chat")
	if got := exitCode(t, run.err); got != ExitValidation {
		t.Errorf("exit code = %d, want %d", got, ExitValidation)
	}
	if !strings.Contains(run.stderr.String(), "prompt") {
		t.Errorf("stderr = %q, want required flag error", run.stderr.String())
	}
}

func TestChatSettingPrecedence(t *testing.T) {
	cfgRec, envRec, flagRec := &captured{}, &captured{}, &captured{}
	cfgURL := newServer(t, http.StatusOK, okBody, cfgRec)
	envURL := newServer(t, http.StatusOK, okBody, envRec)
	flagURL := newServer(t, http.StatusOK, okBody, flagRec)
	cfg := &config.Config{BaseURL: cfgURL, DefaultModel: "cfg/model", SiteTitle: "From Config"}

	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-test")

	// Config file only.
	if run := runApp(t, cfg, nil, "", "chat", "--prompt", "Hello"); run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	headers, body := cfgRec.last()
	if got := decodeRequest(t, body).Model; got != "cfg/model" {
		t.Errorf("model = %q, want cfg/model", got)
	}
	if got := headers.Get("X-Title"); got != "From Config" {
		t.Errorf("X-Title = %q, want From Config", got)
	}

	// Environment beats config.
	t.Setenv(openrouter.BaseURLEnvVar, envURL)
	t.Setenv(openrouter.SiteTitleEnvVar, "From Env")
	if run := runApp(t, cfg, nil, "", "chat", "--prompt", "Hello"); run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	if envRec.count() != 1 {
		t.Errorf("env server hits = %d, want 1", envRec.count())
	}
	if headers, _ := envRec.last(); headers.Get("X-Title") != "From Env" {
		t.Errorf("X-Title = %q, want From Env", headers.Get("X-Title"))
	}

	// Flags beat both.
	if run := runApp(t, cfg, nil, "", "chat", "--prompt", "Hello", "--base-url", flagURL, "--model", "flag/model"); run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	_, body = flagRec.last()
	if got := decodeRequest(t, body).Model; got != "flag/model" {
		t.Errorf("model = %q, want flag/model", got)
	}
	if cfgRec.count() != 1 {
		t.Errorf("config server hits = %d, want 1", cfgRec.count())
	}
}

func TestChatDefaultModel(t *testing.T) {
	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-test")
	rec := &captured{}
	url := newServer(t, http.StatusOK, okBody, rec)

	if run := runApp(t, nil, nil, "", "chat", "--base-url", url, "--prompt", "Hello"); run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}
	_, body := rec.last()
	if got := decodeRequest(t, body).Model; got != openrouter.DefaultModel {
		t.Errorf("model = %q, want %q", got, openrouter.DefaultModel)
	}
}

func TestChatVerboseLogs(t *testing.T) {
	clearEnv(t)
	t.Setenv(openrouter.APIKeyEnvVar, "sk-or-v1-0123456789abcdef")
	url := newServer(t, http.StatusOK, okBody, nil)

	run := runApp(t, nil, nil, "", "chat", "--base-url", url, "--prompt", "Hello", "--verbose")
	if run.err != nil {
		t.Fatalf("chat error = %v", run.err)
	}

	stderr := run.stderr.String()
	for _, want := range []string{"chat completion done", "total_tokens=8", "Usage: 5 prompt", "key=...cdef"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
	if strings.Contains(stderr, "0123456789abcdef") {
		t.Error("verbose output leaked the API key")
	}
}

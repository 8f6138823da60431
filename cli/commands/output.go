package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/petal-labs/openrouter/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
	ExitSchema     = 4
)

// chatOutput is the --json rendering of a completion.
type chatOutput struct {
	ID        string          `json:"id"`
	Model     core.ModelID    `json:"model"`
	Output    string          `json:"output"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
	Usage     *core.Usage     `json:"usage,omitempty"`
}

func newChatOutput(resp *core.ChatCompletionResponse) chatOutput {
	out := chatOutput{
		ID:     resp.ID,
		Model:  resp.Model,
		Output: resp.Output(),
		Usage:  resp.Usage,
	}
	if len(resp.Choices) > 0 {
		out.ToolCalls = resp.Choices[0].Message.ToolCalls
	}
	return out
}

type errorOutput struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

func (a *App) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// classify maps an error to its exit code, JSON error type and HTTP status.
func classify(err error) (code int, kind string, status int) {
	var exitErr *exitError
	var apiErr *core.APIError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.code, "error", 0
	case errors.Is(err, core.ErrSchemaValidation):
		return ExitSchema, "schema_error", 0
	case errors.Is(err, core.ErrNetwork):
		return ExitNetwork, "network_error", 0
	case errors.As(err, &apiErr):
		return ExitAPI, "api_error", apiErr.Code
	case errors.Is(err, core.ErrConfig),
		errors.Is(err, core.ErrModelRequired),
		errors.Is(err, core.ErrNoMessages):
		return ExitValidation, "validation_error", 0
	default:
		return ExitAPI, "error", 0
	}
}

// handleError reports err on stderr and returns it with its exit code.
func (a *App) handleError(err error) error {
	code, kind, status := classify(err)

	if a.jsonOutput {
		_ = a.writeJSON(a.stderr, errorOutput{Error: errorBody{Type: kind, Message: err.Error(), Status: status}})
	} else {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		var apiErr *core.APIError
		if errors.As(err, &apiErr) && apiErr.ProviderMessage != "" {
			fmt.Fprintf(a.stderr, "  OpenRouter: %s\n", apiErr.ProviderMessage)
		}
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return exitWithCode(code, err)
}

// reportErr is handleError for commands whose errors may be nil.
func (a *App) reportErr(err error) error {
	if err == nil {
		return nil
	}
	return a.handleError(err)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ModelID is an OpenRouter model slug such as "openai/gpt-4o".
type ModelID string

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool" // For tool result messages
)

// ToolKindFunction is the only tool call kind the API is allowed to return.
const ToolKindFunction = "function"

// Message represents a single message in a conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For assistant messages requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For tool result messages (RoleTool)
}

// Tool describes a tool the model may call.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef is the definition of a function tool.
type FunctionDef struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// FunctionTool returns a function tool definition with the given parameter schema.
func FunctionTool(name, description string, parameters *jsonschema.Schema) Tool {
	return Tool{
		Type: ToolKindFunction,
		Function: FunctionDef{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ToolCall represents a tool invocation requested by the model.
// Kind is the wire "type" discriminator and is expected to be "function".
// Arguments MUST preserve raw JSON as sent by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Kind     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// CheckKind returns a *SchemaValidationError naming the kind unless the
// call is of kind "function".
func (c ToolCall) CheckKind() error {
	if c.Kind == ToolKindFunction {
		return nil
	}
	return &SchemaValidationError{
		Message: fmt.Sprintf("Invalid tool call kind: %s. Expected '%s'", c.Kind, ToolKindFunction),
	}
}

// FunctionCall carries the name and JSON-encoded arguments of a call.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatCompletionRequest is the body of POST chat/completions.
//
// Extra holds additional top-level parameters (for example "provider" or
// "transforms"). They are flattened into the JSON object on marshal and
// collected back from unknown keys on unmarshal. Typed fields win over
// Extra entries with the same key.
type ChatCompletionRequest struct {
	Model       ModelID        `json:"model"`
	Messages    []Message      `json:"messages"`
	Tools       []Tool         `json:"tools,omitempty"`
	ToolChoice  any            `json:"tool_choice,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
	TopP        *float64       `json:"top_p,omitempty"`
	Stop        []string       `json:"stop,omitempty"`
	Seed        *int           `json:"seed,omitempty"`
	Extra       map[string]any `json:"-"`
}

// requestFields lists the JSON keys owned by typed ChatCompletionRequest fields.
var requestFields = map[string]struct{}{
	"model":       {},
	"messages":    {},
	"tools":       {},
	"tool_choice": {},
	"temperature": {},
	"max_tokens":  {},
	"top_p":       {},
	"stop":        {},
	"seed":        {},
}

// MarshalJSON flattens Extra into the request object.
func (r ChatCompletionRequest) MarshalJSON() ([]byte, error) {
	type plain ChatCompletionRequest
	data, err := json.Marshal(plain(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return data, nil
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for key, value := range r.Extra {
		if _, owned := requestFields[key]; owned {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes typed fields and gathers any other keys into Extra.
func (r *ChatCompletionRequest) UnmarshalJSON(data []byte) error {
	type plain ChatCompletionRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key := range requestFields {
		delete(fields, key)
	}
	if len(fields) > 0 {
		p.Extra = fields
	}

	*r = ChatCompletionRequest(p)
	return nil
}

// ChatCompletionResponse is the decoded body of a successful completion.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object,omitempty"`
	Created int64    `json:"created,omitempty"`
	Model   ModelID  `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Output returns the content of the first choice, or "" when there is none.
func (r *ChatCompletionResponse) Output() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// Choice is one completion alternative.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage tracks token consumption for a request.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

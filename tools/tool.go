// Package tools runs the function calls a model requests.
//
// Register tools in a Registry, offer them with Registry.Definitions, and
// answer the model's tool calls with Registry.Execute:
//
//	reg := tools.NewRegistry()
//	_ = reg.Register(tools.NewFunc("get_weather", "Current weather", schema, getWeather))
//
//	req, _ := client.CompletionRequest(msgs).Tools(reg.Definitions()...).Build()
//	resp, _ := client.ChatCompletion(ctx, req)
//	results, _ := reg.ExecuteAll(ctx, resp.Choices[0].Message.ToolCalls)
package tools

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/petal-labs/openrouter/core"
)

// Tool defines the interface for AI-callable tools.
// Tools provide a schema for argument validation and a Call method for execution.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// This is provided to the AI model to help it decide when to use the tool.
	Description() string

	// Schema returns the JSON Schema that describes the tool's parameters.
	// It may be nil for tools without parameters.
	Schema() *jsonschema.Schema

	// Call executes the tool with the given arguments.
	// The args parameter contains the raw JSON arguments from the model.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Definition returns the wire definition of t for ChatCompletionRequest.Tools.
func Definition(t Tool) core.Tool {
	return core.FunctionTool(t.Name(), t.Description(), t.Schema())
}

// funcTool adapts a function to the Tool interface.
type funcTool struct {
	name        string
	description string
	schema      *jsonschema.Schema
	fn          func(ctx context.Context, args json.RawMessage) (any, error)
}

// NewFunc returns a Tool that calls fn.
func NewFunc(name, description string, schema *jsonschema.Schema, fn func(ctx context.Context, args json.RawMessage) (any, error)) Tool {
	return &funcTool{name: name, description: description, schema: schema, fn: fn}
}

func (f *funcTool) Name() string               { return f.name }
func (f *funcTool) Description() string        { return f.description }
func (f *funcTool) Schema() *jsonschema.Schema { return f.schema }

func (f *funcTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	return f.fn(ctx, args)
}

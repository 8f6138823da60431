package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/petal-labs/openrouter/core"
)

// ErrDuplicateTool is returned when attempting to register a tool with a name
// that is already registered.
var ErrDuplicateTool = errors.New("tool already registered")

// ErrUnknownTool is returned when the model calls a tool that is not registered.
var ErrUnknownTool = errors.New("tool not found")

// Registry manages a collection of tools indexed by name.
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	middleware []Middleware
}

// NewRegistry creates a new empty tool registry. The middleware, if any,
// wraps every tool registered afterwards.
func NewRegistry(middleware ...Middleware) *Registry {
	return &Registry{
		tools:      make(map[string]Tool),
		middleware: middleware,
	}
}

// Register adds a tool to the registry.
// Returns ErrDuplicateTool if a tool with the same name is already registered.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return errors.New("tool cannot be nil")
	}

	name := t.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}

	r.tools[name] = ApplyMiddleware(t, r.middleware...)
	return nil
}

// Get retrieves a tool by name.
// Returns the tool and true if found, or nil and false if not found.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools sorted by name.
// The returned slice is a copy and safe to modify.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Definitions returns the wire definitions of all registered tools, sorted by name.
func (r *Registry) Definitions() []core.Tool {
	list := r.List()
	defs := make([]core.Tool, len(list))
	for i, t := range list {
		defs[i] = Definition(t)
	}
	return defs
}

// Execute runs the tool named by call and returns the tool result message
// to append to the conversation. The tool's return value is encoded as JSON.
func (r *Registry) Execute(ctx context.Context, call core.ToolCall) (core.Message, error) {
	if err := call.CheckKind(); err != nil {
		return core.Message{}, err
	}

	tool, ok := r.Get(call.Function.Name)
	if !ok {
		return core.Message{}, fmt.Errorf("%w: %q", ErrUnknownTool, call.Function.Name)
	}

	ctx = ContextWithToolContext(ctx, &ToolContext{
		ToolName: call.Function.Name,
		CallID:   call.ID,
		Metadata: make(map[string]any),
	})
	result, err := tool.Call(ctx, json.RawMessage(call.Function.Arguments))
	if err != nil {
		return core.Message{}, fmt.Errorf("tool %s: %w", call.Function.Name, err)
	}

	content, err := json.Marshal(result)
	if err != nil {
		return core.Message{}, fmt.Errorf("tool %s: encode result: %w", call.Function.Name, err)
	}

	return core.Message{Role: core.RoleTool, Content: string(content), ToolCallID: call.ID}, nil
}

// ExecuteAll runs calls in order and stops at the first failure.
func (r *Registry) ExecuteAll(ctx context.Context, calls []core.ToolCall) ([]core.Message, error) {
	results := make([]core.Message, 0, len(calls))
	for _, call := range calls {
		msg, err := r.Execute(ctx, call)
		if err != nil {
			return results, err
		}
		results = append(results, msg)
	}
	return results, nil
}

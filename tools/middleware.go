package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolCallFunc is the function signature for tool execution.
// Middleware wraps this function to add behavior.
type ToolCallFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Middleware wraps a ToolCallFunc to add behavior before and/or after execution.
type Middleware func(next ToolCallFunc) ToolCallFunc

// ToolContext provides metadata about the current tool call to middleware.
type ToolContext struct {
	// ToolName is the name of the tool being called.
	ToolName string

	// CallID is the model-assigned ID of the call, if known.
	CallID string

	// Schema is the parameter schema of the tool being called.
	Schema *jsonschema.Schema

	// Metadata allows middleware to share data with each other.
	Metadata map[string]any
}

type toolContextKey struct{}

// ContextWithToolContext adds ToolContext to a context.
func ContextWithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFromContext retrieves ToolContext from a context.
// Returns nil if not present.
func ToolContextFromContext(ctx context.Context) *ToolContext {
	tc, _ := ctx.Value(toolContextKey{}).(*ToolContext)
	return tc
}

// Chain combines multiple middleware into a single middleware.
// Middleware are executed in the order provided (first middleware is outermost).
func Chain(middlewares ...Middleware) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// ApplyMiddleware wraps a tool with middleware.
func ApplyMiddleware(tool Tool, middlewares ...Middleware) Tool {
	if len(middlewares) == 0 {
		return tool
	}
	return &wrappedTool{
		Tool:    tool,
		wrapped: Chain(middlewares...)(tool.Call),
	}
}

// wrappedTool is a tool with middleware applied.
type wrappedTool struct {
	Tool
	wrapped ToolCallFunc
}

func (w *wrappedTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	tc := ToolContextFromContext(ctx)
	if tc == nil {
		tc = &ToolContext{Metadata: make(map[string]any)}
		ctx = ContextWithToolContext(ctx, tc)
	}
	if tc.ToolName == "" {
		tc.ToolName = w.Tool.Name()
	}
	if tc.Schema == nil {
		tc.Schema = w.Tool.Schema()
	}
	return w.wrapped(ctx, args)
}

// WithLogging logs each call at debug level and failures at warn level.
// Arguments and results are never logged.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			attrs := []any{}
			if tc := ToolContextFromContext(ctx); tc != nil {
				attrs = append(attrs, "tool", tc.ToolName, "call_id", tc.CallID)
			}

			start := time.Now()
			result, err := next(ctx, args)
			attrs = append(attrs, "duration", time.Since(start))

			if err != nil {
				logger.WarnContext(ctx, "tool call failed", append(attrs, "error", err)...)
			} else {
				logger.DebugContext(ctx, "tool call done", attrs...)
			}
			return result, err
		}
	}
}

// WithTimeout creates middleware that enforces a timeout on tool execution.
func WithTimeout(d time.Duration) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			// Execute in goroutine to respect timeout.
			type result struct {
				value any
				err   error
			}
			ch := make(chan result, 1)

			go func() {
				v, err := next(ctx, args)
				ch <- result{v, err}
			}()

			select {
			case r := <-ch:
				return r.value, r.err
			case <-ctx.Done():
				return nil, fmt.Errorf("tool execution timeout after %v", d)
			}
		}
	}
}

// ErrInvalidArguments is wrapped by errors from WithValidation.
var ErrInvalidArguments = errors.New("invalid tool arguments")

// WithValidation checks the arguments against the tool's parameter schema
// before the tool runs. Tools without a schema only need valid JSON.
func WithValidation() Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			var instance any = map[string]any{}
			if len(args) > 0 {
				if err := json.Unmarshal(args, &instance); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
				}
			}

			tc := ToolContextFromContext(ctx)
			if tc == nil || tc.Schema == nil {
				return next(ctx, args)
			}

			resolved, err := tc.Schema.Resolve(nil)
			if err != nil {
				return nil, fmt.Errorf("tool %s: schema: %w", tc.ToolName, err)
			}
			if err := resolved.Validate(instance); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
			}
			return next(ctx, args)
		}
	}
}

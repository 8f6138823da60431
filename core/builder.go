package core

import "maps"

// RequestBuilder provides a fluent API for building chat completion requests.
// RequestBuilder is NOT thread-safe and should not be shared across goroutines.
type RequestBuilder struct {
	req ChatCompletionRequest
}

// NewRequestBuilder returns a builder seeded with a model, the initial
// messages and a set of extra top-level parameters. extra may be nil.
func NewRequestBuilder(model ModelID, messages []Message, extra map[string]any) *RequestBuilder {
	b := &RequestBuilder{
		req: ChatCompletionRequest{
			Model:    model,
			Messages: append([]Message(nil), messages...),
			Extra:    make(map[string]any, len(extra)),
		},
	}
	maps.Copy(b.req.Extra, extra)
	return b
}

// Model overrides the model.
func (b *RequestBuilder) Model(model ModelID) *RequestBuilder {
	b.req.Model = model
	return b
}

// System appends a system message.
func (b *RequestBuilder) System(s string) *RequestBuilder {
	return b.Message(Message{Role: RoleSystem, Content: s})
}

// User appends a user message.
func (b *RequestBuilder) User(s string) *RequestBuilder {
	return b.Message(Message{Role: RoleUser, Content: s})
}

// Assistant appends an assistant message.
func (b *RequestBuilder) Assistant(s string) *RequestBuilder {
	return b.Message(Message{Role: RoleAssistant, Content: s})
}

// ToolResult appends the result of a tool call.
func (b *RequestBuilder) ToolResult(callID, content string) *RequestBuilder {
	return b.Message(Message{Role: RoleTool, Content: content, ToolCallID: callID})
}

// Message appends an arbitrary message.
func (b *RequestBuilder) Message(m Message) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, m)
	return b
}

// Temperature sets the temperature parameter.
func (b *RequestBuilder) Temperature(v float64) *RequestBuilder {
	b.req.Temperature = &v
	return b
}

// MaxTokens sets the maximum tokens parameter.
func (b *RequestBuilder) MaxTokens(n int) *RequestBuilder {
	b.req.MaxTokens = &n
	return b
}

// TopP sets the nucleus sampling parameter.
func (b *RequestBuilder) TopP(v float64) *RequestBuilder {
	b.req.TopP = &v
	return b
}

// Seed sets the sampling seed.
func (b *RequestBuilder) Seed(n int) *RequestBuilder {
	b.req.Seed = &n
	return b
}

// Stop sets the stop sequences.
func (b *RequestBuilder) Stop(sequences ...string) *RequestBuilder {
	b.req.Stop = sequences
	return b
}

// Tools sets the tools available for the request.
func (b *RequestBuilder) Tools(ts ...Tool) *RequestBuilder {
	b.req.Tools = ts
	return b
}

// ToolChoice sets tool_choice ("auto", "none", "required" or an object).
func (b *RequestBuilder) ToolChoice(choice any) *RequestBuilder {
	b.req.ToolChoice = choice
	return b
}

// Param sets an extra top-level parameter.
func (b *RequestBuilder) Param(key string, value any) *RequestBuilder {
	b.req.Extra[key] = value
	return b
}

// Clone returns an independent copy of the builder.
func (b *RequestBuilder) Clone() *RequestBuilder {
	c := &RequestBuilder{req: b.req}
	c.req.Messages = append([]Message(nil), b.req.Messages...)
	c.req.Tools = append([]Tool(nil), b.req.Tools...)
	c.req.Stop = append([]string(nil), b.req.Stop...)
	c.req.Extra = maps.Clone(b.req.Extra)
	if c.req.Extra == nil {
		c.req.Extra = make(map[string]any)
	}
	return c
}

// Build validates the request and returns a copy of it.
func (b *RequestBuilder) Build() (*ChatCompletionRequest, error) {
	if b.req.Model == "" {
		return nil, ErrModelRequired
	}
	if len(b.req.Messages) == 0 {
		return nil, ErrNoMessages
	}
	req := b.Clone().req
	if len(req.Extra) == 0 {
		req.Extra = nil
	}
	return &req, nil
}

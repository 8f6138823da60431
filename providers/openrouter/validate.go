package openrouter

import "github.com/petal-labs/openrouter/core"

// ValidateToolCalls checks that every tool call in resp is of kind
// "function". Choices and tool calls are visited in decoded order and the
// first violation is returned as a *core.SchemaValidationError.
func ValidateToolCalls(resp *core.ChatCompletionResponse) error {
	if resp == nil {
		return nil
	}
	for _, choice := range resp.Choices {
		for _, call := range choice.Message.ToolCalls {
			if err := call.CheckKind(); err != nil {
				return err
			}
		}
	}
	return nil
}

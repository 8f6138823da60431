package tools

import (
	"encoding/json"

	"github.com/petal-labs/openrouter/core"
)

// ParseArgs parses tool call arguments into a typed struct.
//
// Example:
//
//	type WeatherArgs struct {
//	    Location string `json:"location"`
//	    Unit     string `json:"unit"`
//	}
//
//	args, err := tools.ParseArgs[WeatherArgs](toolCall)
//	if err != nil {
//	    return nil, err
//	}
func ParseArgs[T any](call core.ToolCall) (*T, error) {
	var result T
	if err := json.Unmarshal([]byte(call.Function.Arguments), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

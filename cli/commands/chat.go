package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/openrouter/core"
)

func (a *App) newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a chat completion request",
		Long: `Send a chat completion request and print the first choice.

Examples:
  openrouter chat --prompt "Hello"
  openrouter chat --model anthropic/claude-3.5-sonnet --prompt "Hello" --json
  openrouter chat --system "Answer in French." --prompt "Hello" --temperature 0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&a.chatPrompt, "prompt", "", "User message (required)")
	cmd.Flags().StringVar(&a.chatSystem, "system", "", "System message")
	cmd.Flags().Float64Var(&a.chatTemperature, "temperature", 0, "Temperature (0 = use default)")
	cmd.Flags().IntVar(&a.chatMaxTokens, "max-tokens", 0, "Max tokens (0 = use default)")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func (a *App) runChat(ctx context.Context) error {
	client, err := a.newClient()
	if err != nil {
		return a.handleError(err)
	}

	builder := client.CompletionRequest(nil).Model(a.modelID())
	if a.chatSystem != "" {
		builder.System(a.chatSystem)
	}
	builder.User(a.chatPrompt)
	if a.chatTemperature > 0 {
		builder.Temperature(a.chatTemperature)
	}
	if a.chatMaxTokens > 0 {
		builder.MaxTokens(a.chatMaxTokens)
	}

	req, err := builder.Build()
	if err != nil {
		return a.handleError(err)
	}

	resp, err := client.ChatCompletion(ctx, req)
	if err != nil {
		return a.handleError(err)
	}

	if a.jsonOutput {
		return a.writeJSON(a.stdout, newChatOutput(resp))
	}

	fmt.Fprintf(a.stdout, "> %s\n", a.chatPrompt)
	a.printResponse(resp)
	return nil
}

// printResponse writes the first choice as text, followed by any tool calls.
func (a *App) printResponse(resp *core.ChatCompletionResponse) {
	if out := resp.Output(); out != "" {
		fmt.Fprintln(a.stdout, out)
	}
	if len(resp.Choices) > 0 {
		for _, call := range resp.Choices[0].Message.ToolCalls {
			fmt.Fprintf(a.stdout, "tool call %s: %s(%s)\n", call.ID, call.Function.Name, call.Function.Arguments)
		}
	}
	if a.verbose && resp.Usage != nil {
		fmt.Fprintf(a.stderr, "Usage: %d prompt + %d completion = %d total tokens\n",
			resp.Usage.PromptTokens,
			resp.Usage.CompletionTokens,
			resp.Usage.TotalTokens)
	}
}

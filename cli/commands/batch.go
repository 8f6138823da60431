package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/openrouter/core"
)

const defaultBatchConcurrency = 4

func (a *App) newBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Send one completion per prompt line, concurrently",
		Long: `Read prompts from a file, one per line, and send them concurrently
over a single client. Blank lines are skipped. Results are printed in
input order. Use --file - to read from stdin.

Examples:
  openrouter batch --file prompts.txt
  openrouter batch --file prompts.txt --concurrency 8 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&a.batchFile, "file", "", "File with one prompt per line (required)")
	cmd.Flags().IntVar(&a.batchConcurrency, "concurrency", defaultBatchConcurrency, "Maximum requests in flight")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// batchResult is one line of batch output.
type batchResult struct {
	Index  int         `json:"index"`
	Prompt string      `json:"prompt"`
	Output string      `json:"output,omitempty"`
	Usage  *core.Usage `json:"usage,omitempty"`
	Error  *errorBody  `json:"error,omitempty"`
	err    error
}

func (a *App) runBatch(ctx context.Context) error {
	if a.batchConcurrency < 1 {
		return a.handleError(exitWithCode(ExitValidation, fmt.Errorf("concurrency must be at least 1, got %d", a.batchConcurrency)))
	}

	prompts, err := a.readPrompts()
	if err != nil {
		return a.handleError(exitWithCode(ExitValidation, err))
	}
	if len(prompts) == 0 {
		return a.handleError(exitWithCode(ExitValidation, fmt.Errorf("no prompts in %s", a.batchFile)))
	}

	client, err := a.newClient()
	if err != nil {
		return a.handleError(err)
	}

	chat := client.Chat()
	model := a.modelID()
	results := make([]batchResult, len(prompts))

	var g errgroup.Group
	g.SetLimit(a.batchConcurrency)
	for i, prompt := range prompts {
		g.Go(func() error {
			res := batchResult{Index: i, Prompt: prompt}
			resp, err := chat.Send(ctx, model, core.Message{Role: core.RoleUser, Content: prompt})
			if err != nil {
				_, kind, status := classify(err)
				res.err = err
				res.Error = &errorBody{Type: kind, Message: err.Error(), Status: status}
			} else {
				res.Output = resp.Output()
				res.Usage = resp.Usage
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	a.logger.Debug("batch finished", "requests", len(prompts), "concurrency", a.batchConcurrency)

	if a.jsonOutput {
		if err := a.writeJSON(a.stdout, results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			fmt.Fprintf(a.stdout, "[%d] > %s\n", res.Index+1, res.Prompt)
			if res.err != nil {
				fmt.Fprintf(a.stdout, "error: %v\n", res.err)
				continue
			}
			fmt.Fprintln(a.stdout, res.Output)
		}
	}

	var failed int
	var first error
	for _, res := range results {
		if res.err != nil {
			failed++
			if first == nil {
				first = res.err
			}
		}
	}
	if first != nil {
		fmt.Fprintf(a.stderr, "%d of %d requests failed\n", failed, len(results))
		code, _, _ := classify(first)
		return exitWithCode(code, first)
	}
	return nil
}

// readPrompts returns the non-blank lines of the batch file, trimmed.
func (a *App) readPrompts() ([]string, error) {
	var r io.Reader = a.stdin
	if a.batchFile != "-" {
		f, err := os.Open(a.batchFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var prompts []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			prompts = append(prompts, line)
		}
	}
	return prompts, scanner.Err()
}

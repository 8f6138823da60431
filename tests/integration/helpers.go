//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/providers/openrouter"
)

// testModel is a small model that supports tool calling.
const testModel core.ModelID = "openai/gpt-4o-mini"

// isCI returns true if running in a CI environment.
func isCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// getAPIKey returns the OpenRouter API key, skipping the test when it is unset.
// In CI, a missing key fails the test unless OPENROUTER_SKIP_INTEGRATION is set.
func getAPIKey(t *testing.T) string {
	t.Helper()
	key := os.Getenv(openrouter.APIKeyEnvVar)
	if key != "" {
		return key
	}
	if isCI() && os.Getenv("OPENROUTER_SKIP_INTEGRATION") == "" {
		t.Fatalf("%s not set (CI environment detected; set OPENROUTER_SKIP_INTEGRATION=1 to skip)", openrouter.APIKeyEnvVar)
	}
	t.Skipf("%s not set", openrouter.APIKeyEnvVar)
	return ""
}

// newClient returns a ready client for the live API.
func newClient(t *testing.T, apiKey string) *openrouter.Client {
	t.Helper()
	stage, err := openrouter.New().WithBaseURL(openrouter.DefaultBaseURL)
	if err != nil {
		t.Fatalf("WithBaseURL() error = %v", err)
	}
	client, err := stage.
		WithTimeout(60 * time.Second).
		WithSiteTitle("openrouter-go integration tests").
		WithAPIKey(apiKey)
	if err != nil {
		t.Fatalf("WithAPIKey() error = %v", err)
	}
	return client
}

// cliResult holds the result of running a CLI command.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCLI executes the CLI with the given environment and arguments.
// HOME points at a temporary directory so no user config or keystore is read.
func runCLI(t *testing.T, env []string, stdin string, args ...string) cliResult {
	t.Helper()

	if cliBinary == "" {
		t.Fatal("CLI binary not built - TestMain may not have run")
	}

	cmd := exec.Command(cliBinary, args...)
	cmd.Env = append([]string{"HOME=" + t.TempDir(), "PATH=" + os.Getenv("PATH")}, env...)
	if stdin != "" {
		cmd.Stdin = bytes.NewBufferString(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return cliResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

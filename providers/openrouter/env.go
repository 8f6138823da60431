package openrouter

import (
	"net/http"
	"os"

	"github.com/petal-labs/openrouter/core"
)

// Environment variables read by NewFromEnv.
const (
	APIKeyEnvVar      = "OPENROUTER_API_KEY"
	BaseURLEnvVar     = "OPENROUTER_BASE_URL"
	HTTPRefererEnvVar = "OPENROUTER_HTTP_REFERER"
	SiteTitleEnvVar   = "OPENROUTER_SITE_TITLE"
)

// ErrAPIKeyNotFound is returned when the API key environment variable is not set.
// It is a *core.ConfigError.
var ErrAPIKeyNotFound = &core.ConfigError{
	Code:    http.StatusBadRequest,
	Field:   "api_key",
	Message: APIKeyEnvVar + " environment variable not set",
}

// NewFromEnv builds a ready client from the environment:
//
//	client, err := openrouter.NewFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// OPENROUTER_API_KEY is required. OPENROUTER_BASE_URL defaults to
// DefaultBaseURL; OPENROUTER_HTTP_REFERER and OPENROUTER_SITE_TITLE are optional.
// configure, if given, runs on the NoAuth stage before the key is applied.
func NewFromEnv(configure ...func(NoAuthClient) NoAuthClient) (*Client, error) {
	apiKey := os.Getenv(APIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}

	baseURL := os.Getenv(BaseURLEnvVar)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	stage, err := New().WithBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if referer := os.Getenv(HTTPRefererEnvVar); referer != "" {
		stage = stage.WithHTTPReferer(referer)
	}
	if title := os.Getenv(SiteTitleEnvVar); title != "" {
		stage = stage.WithSiteTitle(title)
	}
	for _, fn := range configure {
		stage = fn(stage)
	}

	return stage.WithAPIKey(apiKey)
}

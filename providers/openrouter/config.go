package openrouter

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/providers/internal/normalize"
)

// DefaultBaseURL is the default OpenRouter API root.
// It ends in "/" so relative endpoint paths resolve beneath it.
const DefaultBaseURL = "https://openrouter.ai/api/v1/"

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultModel is the model used by Client.CompletionRequest.
const DefaultModel core.ModelID = "openai/gpt-4"

// Header names sent with every request.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerReferer       = "Referer"
	headerTitle         = "X-Title"
)

// Config holds the settings of an OpenRouter client.
// Empty string fields and an empty APIKey mean "not set".
type Config struct {
	// APIKey is the OpenRouter API key.
	APIKey core.Secret

	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL *url.URL

	// HTTPReferer is sent as the Referer header for app attribution.
	HTTPReferer string

	// SiteTitle is sent as the X-Title header for app attribution.
	SiteTitle string

	// Timeout bounds a whole request, including reading the body.
	Timeout time.Duration
}

func defaultConfig() Config {
	base, err := url.Parse(DefaultBaseURL)
	if err != nil {
		panic(err)
	}
	return Config{
		BaseURL: base,
		Timeout: DefaultTimeout,
	}
}

// clone returns a copy that shares no mutable state with c.
func (c Config) clone() Config {
	if c.BaseURL != nil {
		u := *c.BaseURL
		if c.BaseURL.User != nil {
			user := *c.BaseURL.User
			u.User = &user
		}
		c.BaseURL = &u
	}
	return c
}

// BuildHeaders returns the headers every request carries:
// Authorization when a key is set, Content-Type always, and Referer and
// X-Title when set. A value that is not valid header field text fails
// with a *core.ConfigError naming the header.
func (c Config) BuildHeaders() (http.Header, error) {
	headers := make(http.Header)

	if !c.APIKey.IsEmpty() {
		value := "Bearer " + c.APIKey.Expose()
		if !httpguts.ValidHeaderFieldValue(value) {
			// Never echo the key back in the error.
			return nil, normalize.ConfigError(headerAuthorization, "API key contains characters not allowed in a header value", nil)
		}
		headers.Set(headerAuthorization, value)
	}

	headers.Set(headerContentType, "application/json")

	if c.HTTPReferer != "" {
		if !httpguts.ValidHeaderFieldValue(c.HTTPReferer) {
			return nil, normalize.ConfigError(headerReferer, "invalid header value "+strconv.Quote(c.HTTPReferer), nil)
		}
		headers.Set(headerReferer, c.HTTPReferer)
	}

	if c.SiteTitle != "" {
		if !httpguts.ValidHeaderFieldValue(c.SiteTitle) {
			return nil, normalize.ConfigError(headerTitle, "invalid header value "+strconv.Quote(c.SiteTitle), nil)
		}
		headers.Set(headerTitle, c.SiteTitle)
	}

	return headers, nil
}

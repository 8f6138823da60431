package openrouter

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/providers/internal/normalize"
)

// UnconfiguredClient is the first configuration stage. It holds the default
// configuration and can only move on by choosing a base URL.
type UnconfiguredClient struct {
	config Config
}

// NoAuthClient is the second configuration stage: the base URL is set but
// there is no API key yet. Settings that shape the transport (timeout,
// attribution headers, round tripper, telemetry) can only be changed here.
type NoAuthClient struct {
	config    Config
	transport http.RoundTripper
	telemetry core.TelemetryHook
}

// Client is the ready stage: it holds the final configuration and the HTTP
// client built from it. A Client is immutable and safe for concurrent use.
//
// Obtain one with New().WithBaseURL(...).WithAPIKey(...) or NewFromEnv.
type Client struct {
	pipeline
}

// New returns an unconfigured client with the default configuration:
// no API key, DefaultBaseURL, no attribution headers and DefaultTimeout.
func New() UnconfiguredClient {
	return UnconfiguredClient{config: defaultConfig()}
}

// WithBaseURL parses rawURL and advances to the NoAuth stage. rawURL must
// be absolute and should end in "/" so endpoint paths resolve beneath it.
// http, https, ws, wss and ftp URLs also need a host.
func (c UnconfiguredClient) WithBaseURL(rawURL string) (NoAuthClient, error) {
	base, err := parseBaseURL(rawURL)
	if err != nil {
		return NoAuthClient{}, err
	}

	config := c.config.clone()
	config.BaseURL = base
	return NoAuthClient{config: config, telemetry: core.NoopTelemetryHook{}}, nil
}

// hostSchemes need a non-empty host. Other schemes, such as file, may
// leave it empty.
var hostSchemes = map[string]bool{
	"http": true, "https": true, "ws": true, "wss": true, "ftp": true,
}

func parseBaseURL(rawURL string) (*url.URL, error) {
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, normalize.ConfigError("base_url", "Invalid base URL: "+err.Error(), err)
	}
	if !base.IsAbs() {
		return nil, normalize.ConfigError("base_url", "Invalid base URL: relative URL without a base", nil)
	}
	if base.Host == "" && base.Opaque == "" && hostSchemes[base.Scheme] {
		return nil, normalize.ConfigError("base_url", "Invalid base URL: empty host", nil)
	}
	return base, nil
}

// BaseURL returns the configured base URL.
func (c NoAuthClient) BaseURL() *url.URL {
	return c.config.clone().BaseURL
}

// WithTimeout sets the request timeout.
func (c NoAuthClient) WithTimeout(d time.Duration) NoAuthClient {
	c.config = c.config.clone()
	c.config.Timeout = d
	return c
}

// WithHTTPReferer sets the Referer header used for app attribution.
func (c NoAuthClient) WithHTTPReferer(referer string) NoAuthClient {
	c.config = c.config.clone()
	c.config.HTTPReferer = referer
	return c
}

// WithSiteTitle sets the X-Title header used for app attribution.
func (c NoAuthClient) WithSiteTitle(title string) NoAuthClient {
	c.config = c.config.clone()
	c.config.SiteTitle = title
	return c
}

// WithTransport sets the round tripper used underneath the default header
// injection, e.g. for proxies or custom TLS. Defaults to a clone of
// http.DefaultTransport.
func (c NoAuthClient) WithTransport(rt http.RoundTripper) NoAuthClient {
	c.transport = rt
	return c
}

// WithTelemetry sets the telemetry hook for the client.
func (c NoAuthClient) WithTelemetry(h core.TelemetryHook) NoAuthClient {
	if h != nil {
		c.telemetry = h
	}
	return c
}

// WithAPIKey stores the API key and builds the HTTP client, advancing to the
// ready stage. The default headers are computed once here and baked into the
// transport; a header value that cannot be sent fails with *core.ConfigError.
func (c NoAuthClient) WithAPIKey(apiKey string) (*Client, error) {
	if c.config.BaseURL == nil {
		return nil, core.ErrClientNotReady
	}

	config := c.config.clone()
	config.APIKey = core.NewSecret(apiKey)

	headers, err := config.BuildHeaders()
	if err != nil {
		return nil, err
	}

	base := c.transport
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	telemetry := c.telemetry
	if telemetry == nil {
		telemetry = core.NoopTelemetryHook{}
	}

	return &Client{pipeline{
		config: config,
		http: &http.Client{
			Timeout:   config.Timeout,
			Transport: &headerTransport{base: base, headers: headers, host: config.BaseURL.Hostname()},
		},
		telemetry: telemetry,
	}}, nil
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return c.config.clone()
}

// HTTPClient returns the shared HTTP client. Treat it as read-only.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// Chat returns the chat endpoint API, sharing this client's HTTP client.
func (c *Client) Chat() *ChatAPI {
	return newChatAPI(c.http, c.config, c.telemetry)
}

// CompletionRequest returns a request builder seeded with DefaultModel,
// the given messages and an empty set of extra parameters.
func (c *Client) CompletionRequest(messages []core.Message) *core.RequestBuilder {
	return core.NewRequestBuilder(DefaultModel, messages, map[string]any{})
}

// ValidateToolCalls checks the tool calls of a decoded response.
// See the package-level ValidateToolCalls.
func (c *Client) ValidateToolCalls(resp *core.ChatCompletionResponse) error {
	return ValidateToolCalls(resp)
}

// headerTransport adds default headers to requests that do not already
// carry them. It never mutates the caller's request.
//
// Redirect hops to a host other than host get no defaults, so the
// Authorization header that http.Client strips on such hops stays stripped.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
	host    string
}

// RoundTrip implements http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Response != nil && !strings.EqualFold(req.URL.Hostname(), t.host) {
		return t.base.RoundTrip(req)
	}

	r := req.Clone(req.Context())
	for key, values := range t.headers {
		if _, ok := r.Header[key]; !ok {
			r.Header[key] = append([]string(nil), values...)
		}
	}
	return t.base.RoundTrip(r)
}

// Package openrouter is a typed client for the OpenRouter chat completions API.
//
// A client is configured in stages, and each stage is its own type, so a
// client that cannot send requests has no method to send them:
//
//	UnconfiguredClient --WithBaseURL--> NoAuthClient --WithAPIKey--> *Client
//
// Timeout, attribution headers, transport and telemetry can only be set on
// the NoAuthClient stage, before the HTTP client is built:
//
//	stage, err := openrouter.New().WithBaseURL(openrouter.DefaultBaseURL)
//	if err != nil {
//	    return err
//	}
//	client, err := stage.
//	    WithTimeout(time.Minute).
//	    WithHTTPReferer("https://example.com").
//	    WithSiteTitle("Example").
//	    WithAPIKey(os.Getenv("OPENROUTER_API_KEY"))
//	if err != nil {
//	    return err
//	}
//
//	req, err := client.CompletionRequest(nil).User("Hello!").Build()
//	if err != nil {
//	    return err
//	}
//	resp, err := client.ChatCompletion(ctx, req)
//
// Stage methods have value receivers and return new values; an earlier
// stage is never changed by a later one.
//
// A zero Client (declared without going through the stages) fails every
// call with core.ErrClientNotReady.
//
// Client is safe for concurrent use. Every call builds its own request and
// header set; nothing is retried.
package openrouter

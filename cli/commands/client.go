package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/petal-labs/openrouter/cli/keystore"
	"github.com/petal-labs/openrouter/core"
	"github.com/petal-labs/openrouter/providers/openrouter"
)

// newClient builds a ready client. Each setting is taken from the first
// source that has it: flag, environment, config file, built-in default.
func (a *App) newClient() (*openrouter.Client, error) {
	baseURL := firstNonEmpty(a.baseURL, os.Getenv(openrouter.BaseURLEnvVar), a.cfg.BaseURL, openrouter.DefaultBaseURL)
	stage, err := openrouter.New().WithBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	switch {
	case a.timeout > 0:
		stage = stage.WithTimeout(a.timeout)
	case a.cfg.Timeout > 0:
		stage = stage.WithTimeout(a.cfg.Timeout)
	}
	if referer := firstNonEmpty(a.referer, os.Getenv(openrouter.HTTPRefererEnvVar), a.cfg.HTTPReferer); referer != "" {
		stage = stage.WithHTTPReferer(referer)
	}
	if title := firstNonEmpty(a.title, os.Getenv(openrouter.SiteTitleEnvVar), a.cfg.SiteTitle); title != "" {
		stage = stage.WithSiteTitle(title)
	}
	if a.verbose {
		stage = stage.WithTelemetry(core.NewLoggingTelemetryHook(a.logger))
	}

	apiKey, err := a.apiKey()
	if err != nil {
		return nil, err
	}

	a.logger.Debug("client configured", "base_url", baseURL, "key", core.NewSecret(apiKey).Hint())
	return stage.WithAPIKey(apiKey)
}

// apiKey returns OPENROUTER_API_KEY when set, else the keystore entry
// named by the config.
func (a *App) apiKey() (string, error) {
	if key := os.Getenv(openrouter.APIKeyEnvVar); key != "" {
		return key, nil
	}

	name := a.cfg.KeyName()
	ks, err := a.newKeystore()
	if err != nil {
		return "", exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
	}

	key, err := ks.Get(name)
	if err != nil {
		var notFound *keystore.ErrKeyNotFound
		if errors.As(err, &notFound) {
			return "", exitWithCode(ExitValidation, fmt.Errorf("no API key: set %s or run 'openrouter keys set %s'", openrouter.APIKeyEnvVar, name))
		}
		return "", exitWithCode(ExitValidation, fmt.Errorf("failed to get API key: %w", err))
	}
	return key, nil
}

// modelID returns the model from the flag, the config file or the default.
func (a *App) modelID() core.ModelID {
	return core.ModelID(firstNonEmpty(a.model, a.cfg.DefaultModel, string(openrouter.DefaultModel)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package config handles CLI configuration loading.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultKeyName is the keystore entry used when api_key_ref is not set.
const DefaultKeyName = "openrouter"

// Config represents the CLI configuration file.
type Config struct {
	BaseURL      string        `yaml:"base_url,omitempty"`
	DefaultModel string        `yaml:"default_model,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	HTTPReferer  string        `yaml:"http_referer,omitempty"`
	SiteTitle    string        `yaml:"site_title,omitempty"`
	APIKeyRef    string        `yaml:"api_key_ref,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.openrouter/config.yaml
// - Windows: %USERPROFILE%\.openrouter\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		// Fallback to current directory
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".openrouter", "config.yaml")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing config file is not an error
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// KeyName returns the keystore entry holding the API key.
func (c *Config) KeyName() string {
	if c == nil || c.APIKeyRef == "" {
		return DefaultKeyName
	}
	return c.APIKeyRef
}

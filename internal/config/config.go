// Package config loads and validates the application configuration.
// A Config is built once at startup and passed in explicitly; there is no
// process-global configuration state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigurationError marks a fatal problem with credentials or settings.
// It is never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// SourceKind selects where session data comes from.
type SourceKind string

const (
	SourceRemote    SourceKind = "remote"
	SourceSynthetic SourceKind = "synthetic"
)

// Platform holds the remote bot-platform connection settings.
type Platform struct {
	BaseURL           string `yaml:"baseUrl"`
	BotID             string `yaml:"botId"`
	ClientID          string `yaml:"clientId"`
	ClientSecret      string `yaml:"clientSecret"`
	RequestsPerMinute int    `yaml:"requestsPerMinute"`
}

// Fetch tunes the message fetcher.
type Fetch struct {
	BatchConcurrency int `yaml:"batchConcurrency"`
}

// Classify configures the optional LLM classification adapter.
type Classify struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// Config is the full application configuration.
type Config struct {
	Source   SourceKind `yaml:"source"`
	Platform Platform   `yaml:"platform"`
	Fetch    Fetch      `yaml:"fetch"`
	Classify Classify   `yaml:"classify"`
}

// Load reads an optional YAML file, applies environment overrides, and
// fills defaults. Validation is separate so synthetic runs can skip the
// credential checks.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Platform.BaseURL = getEnv("BOTSIFT_BASE_URL", c.Platform.BaseURL)
	c.Platform.BotID = getEnv("BOTSIFT_BOT_ID", c.Platform.BotID)
	c.Platform.ClientID = getEnv("BOTSIFT_CLIENT_ID", c.Platform.ClientID)
	c.Platform.ClientSecret = getEnv("BOTSIFT_CLIENT_SECRET", c.Platform.ClientSecret)
	c.Classify.APIKey = getEnv("OPENAI_API_KEY", c.Classify.APIKey)

	if v := os.Getenv("BOTSIFT_SOURCE"); v != "" {
		c.Source = SourceKind(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = SourceRemote
	}
	if c.Platform.RequestsPerMinute == 0 {
		c.Platform.RequestsPerMinute = 59
	}
	if c.Fetch.BatchConcurrency == 0 {
		c.Fetch.BatchConcurrency = 10
	}
	if c.Classify.Model == "" {
		c.Classify.Model = "gpt-4o-mini"
	}
}

// Validate checks the settings the selected source actually needs.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceRemote:
		if c.Platform.BaseURL == "" {
			return &ConfigurationError{Reason: "platform.baseUrl is required for the remote source"}
		}
		if c.Platform.BotID == "" || c.Platform.ClientID == "" || c.Platform.ClientSecret == "" {
			return &ConfigurationError{Reason: "platform.botId, platform.clientId and platform.clientSecret are required for the remote source"}
		}
	case SourceSynthetic:
		// Nothing to check; the synthetic source needs no credentials.
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown source %q (want %q or %q)", c.Source, SourceRemote, SourceSynthetic)}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

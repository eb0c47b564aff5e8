/*
Package config loads runtime settings for the meal-plan service.
Values come from built-in defaults, an optional YAML file, and finally the
process environment (with .env autoloaded).
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort             = 8080
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	DefaultAnthropicTimeout = 60 * time.Second
)

// Config is the root configuration object.
type Config struct {
	// Port specifies the TCP port the HTTP server will listen on.
	Port int `yaml:"port"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogFormat is either "json" or "console".
	LogFormat string `yaml:"log_format"`

	Anthropic AnthropicConfig `yaml:"anthropic"`
}

// AnthropicConfig holds the single static credential and endpoint settings.
type AnthropicConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Port:      DefaultPort,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Anthropic: AnthropicConfig{
			BaseURL: DefaultAnthropicBaseURL,
			Timeout: DefaultAnthropicTimeout,
		},
	}
}

// Load builds the effective configuration. When path is empty the
// MEALPLAN_CONFIG variable is consulted; a missing path means env only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("MEALPLAN_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = strings.ToLower(v)
	}

	// CLAUDE_API_KEY wins over the SDK-conventional name.
	if v := os.Getenv("CLAUDE_API_KEY"); v != "" {
		c.Anthropic.APIKey = v
	} else if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Anthropic.APIKey = v
	}

	if v := os.Getenv("ANTHROPIC_BASE_URL"); v != "" {
		c.Anthropic.BaseURL = v
	}
	if v := os.Getenv("ANTHROPIC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ANTHROPIC_TIMEOUT %q: %w", v, err)
		}
		c.Anthropic.Timeout = d
	}
	return nil
}

// Validate checks the values that would otherwise fail late at runtime.
// A missing API key is not an error here: the form still renders and the
// adapter reports the problem on the first consultation.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.Anthropic.BaseURL == "" {
		return fmt.Errorf("anthropic base url must not be empty")
	}
	if c.Anthropic.Timeout <= 0 {
		return fmt.Errorf("anthropic timeout must be positive")
	}
	return nil
}

// HasAPIKey reports whether the static credential is present.
func (c Config) HasAPIKey() bool {
	return strings.TrimSpace(c.Anthropic.APIKey) != ""
}

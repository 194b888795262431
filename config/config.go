// Package config loads application settings from a TOML file with
// environment variable overrides.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vinayprograms/slackagent/credentials"
	"github.com/vinayprograms/slackagent/errors"
	"github.com/vinayprograms/slackagent/llm"
	"github.com/vinayprograms/slackagent/retry"
)

// Duration wraps time.Duration for TOML decoding of values like "1s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds all application configuration.
type Config struct {
	Slack     SlackConfig     `toml:"slack"`
	App       AppConfig       `toml:"app"`
	API       APIConfig       `toml:"api"`
	LLM       llm.Config      `toml:"llm"`
	Retry     RetryConfig     `toml:"retry"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// SlackConfig holds Slack credentials and endpoint settings.
type SlackConfig struct {
	BotToken      string `toml:"bot_token"`
	AppToken      string `toml:"app_token"`
	SigningSecret string `toml:"signing_secret"`
	BaseURL       string `toml:"base_url"` // Override for testing
}

// AppConfig holds general application settings.
type AppConfig struct {
	Env          string `toml:"env"` // development, staging, production
	Debug        bool   `toml:"debug"`
	SystemPrompt string `toml:"system_prompt"` // Override the agent's default prompt
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// RetryConfig controls the task executor's retry policy.
type RetryConfig struct {
	MaxRetries   int      `toml:"max_retries"`
	BaseDelay    Duration `toml:"base_delay"`
	MaxDelay     Duration `toml:"max_delay"`
	JitterFactor float64  `toml:"jitter_factor"`
}

// RateLimitConfig throttles inbound submissions and outbound Slack
// calls, per minute. Zero disables the limit.
type RateLimitConfig struct {
	TaskSubmitsPerMinute int `toml:"task_submits_per_minute"`
	SlackCallsPerMinute  int `toml:"slack_calls_per_minute"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the default configuration.
func Default() Config {
	rc := retry.DefaultConfig()
	return Config{
		App: AppConfig{
			Env: "development",
		},
		API: APIConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"*"},
		},
		LLM: llm.Config{
			Provider:  "anthropic",
			MaxTokens: 4096,
		},
		Retry: RetryConfig{
			MaxRetries:   rc.MaxRetries,
			BaseDelay:    Duration{rc.BaseDelay},
			MaxDelay:     Duration{rc.MaxDelay},
			JitterFactor: rc.JitterFactor,
		},
		RateLimit: RateLimitConfig{
			// Slack's posting methods allow roughly one call per second.
			SlackCallsPerMinute: 60,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// Load reads configuration from the given TOML file, falling back to
// defaults when the file does not exist, then applies environment
// variable overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, errors.Initialization("parse config: "+err.Error(), errors.WithCause(err))
			}
		}
	}

	cfg.applyEnv()
	cfg.applyCredentials()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables.
func (c *Config) applyEnv() {
	setString(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	setString(&c.Slack.AppToken, "SLACK_APP_TOKEN")
	setString(&c.Slack.SigningSecret, "SLACK_SIGNING_SECRET")
	setString(&c.Slack.BaseURL, "SLACK_BASE_URL")

	setString(&c.App.Env, "APP_ENV")
	setBool(&c.App.Debug, "APP_DEBUG")
	setString(&c.Logging.Level, "APP_LOG_LEVEL")

	setString(&c.API.Host, "API_HOST")
	setInt(&c.API.Port, "API_PORT")

	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setInt(&c.LLM.MaxTokens, "LLM_MAX_TOKENS")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")

	setBool(&c.Telemetry.Enabled, "TELEMETRY_ENABLED")
	setString(&c.Telemetry.Endpoint, "TELEMETRY_ENDPOINT")
}

// applyCredentials fills missing secrets from credentials.toml.
// Config and env always win; the credentials file is the fallback.
func (c *Config) applyCredentials() {
	if c.Slack.BotToken != "" && c.LLM.APIKey != "" {
		return
	}
	creds, _, err := credentials.Load()
	if err != nil {
		return
	}
	if c.Slack.BotToken == "" {
		c.Slack.BotToken = creds.SlackBotToken()
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = creds.APIKey(c.LLM.Provider)
	}
}

// Validate checks required settings and value constraints.
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return errors.Initialization("slack bot_token is required")
	}
	if !strings.HasPrefix(c.Slack.BotToken, "xoxb-") {
		return errors.Validation("slack bot_token must start with xoxb-")
	}
	if c.Slack.AppToken != "" && !strings.HasPrefix(c.Slack.AppToken, "xapp-") {
		return errors.Validation("slack app_token must start with xapp-")
	}

	switch c.App.Env {
	case "development", "staging", "production":
	default:
		return errors.Validation("app env must be development, staging or production")
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return errors.Validation("api port must be between 1 and 65535")
	}

	if c.Retry.MaxRetries < 0 {
		return errors.Validation("retry max_retries must not be negative")
	}
	if c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		return errors.Validation("retry jitter_factor must be between 0 and 1")
	}

	return nil
}

// RetryPolicy converts the retry section into the executor's retry config.
func (c *Config) RetryPolicy() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = c.Retry.MaxRetries
	if c.Retry.BaseDelay.Duration > 0 {
		rc.BaseDelay = c.Retry.BaseDelay.Duration
	}
	if c.Retry.MaxDelay.Duration > 0 {
		rc.MaxDelay = c.Retry.MaxDelay.Duration
	}
	rc.JitterFactor = c.Retry.JitterFactor
	return rc
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

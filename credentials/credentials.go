// Package credentials loads API keys from standard locations.
//
// Secrets live in credentials.toml rather than the main config file so
// the config can be committed while keys stay local. Layout:
//
//	[llm]
//	api_key = "..."        # generic fallback
//
//	[anthropic]
//	api_key = "sk-ant-..."
//
//	[slack]
//	bot_token = "xoxb-..."
package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrInsecurePermissions is returned when the credentials file is
// readable by group or others.
var ErrInsecurePermissions = fmt.Errorf("credentials file has insecure permissions")

// Credentials holds API keys loaded from credentials.toml.
// Provider sections are loaded dynamically so new providers need no
// code changes.
type Credentials struct {
	providers map[string]section
}

type section struct {
	apiKey   string
	botToken string
}

// StandardPaths returns the credential file locations in priority order.
func StandardPaths() []string {
	paths := []string{"credentials.toml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "slack-agent", "credentials.toml"),
			filepath.Join(home, ".slack-agent", "credentials.toml"),
		)
	}
	return paths
}

// Load loads credentials from the first available standard location.
// A missing file is not an error; the returned Credentials falls back
// to environment variables.
func Load() (*Credentials, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			creds, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return creds, path, nil
		}
	}
	return nil, "", nil
}

// LoadFile loads credentials from a specific file.
// Returns ErrInsecurePermissions unless the file is mode 0400.
func LoadFile(path string) (*Credentials, error) {
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		mode := info.Mode().Perm()
		if mode != 0400 {
			return nil, fmt.Errorf("%w: %s has mode %04o (must be 0400)",
				ErrInsecurePermissions, path, mode)
		}
	}

	var rawData map[string]interface{}
	if _, err := toml.DecodeFile(path, &rawData); err != nil {
		return nil, err
	}

	creds := &Credentials{providers: make(map[string]section)}
	for key, value := range rawData {
		raw, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		sec := section{}
		sec.apiKey, _ = raw["api_key"].(string)
		sec.botToken, _ = raw["bot_token"].(string)
		if sec.apiKey == "" && sec.botToken == "" {
			continue
		}
		creds.providers[key] = sec
	}
	return creds, nil
}

// APIKey returns the API key for an LLM provider.
// Priority: [provider] section, then the generic [llm] section, then
// the provider's environment variable.
func (c *Credentials) APIKey(provider string) string {
	if c != nil {
		if sec, ok := c.providers[provider]; ok && sec.apiKey != "" {
			return sec.apiKey
		}
		if sec, ok := c.providers["llm"]; ok && sec.apiKey != "" {
			return sec.apiKey
		}
	}
	return os.Getenv(envVarForProvider(provider))
}

// SlackBotToken returns the Slack bot token from the [slack] section,
// falling back to SLACK_BOT_TOKEN.
func (c *Credentials) SlackBotToken() string {
	if c != nil {
		if sec, ok := c.providers["slack"]; ok && sec.botToken != "" {
			return sec.botToken
		}
	}
	return os.Getenv("SLACK_BOT_TOKEN")
}

// envVarForProvider returns the environment variable name for a provider.
func envVarForProvider(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	default:
		return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
	}
}

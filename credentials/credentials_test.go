package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeCreds(t *testing.T, content string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.toml")
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadFileProviderSections(t *testing.T) {
	path := writeCreds(t, `
[llm]
api_key = "generic-key"

[anthropic]
api_key = "ant-key"

[slack]
bot_token = "xoxb-creds"
`, 0400)

	creds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := creds.APIKey("anthropic"); got != "ant-key" {
		t.Errorf("APIKey(anthropic) = %q", got)
	}
	// Unlisted provider falls back to the generic section.
	if got := creds.APIKey("openai"); got != "generic-key" {
		t.Errorf("APIKey(openai) = %q", got)
	}
	if got := creds.SlackBotToken(); got != "xoxb-creds" {
		t.Errorf("SlackBotToken() = %q", got)
	}
}

func TestLoadFileRejectsInsecurePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	path := writeCreds(t, `[llm]
api_key = "k"
`, 0644)

	_, err := LoadFile(path)
	if !errors.Is(err, ErrInsecurePermissions) {
		t.Errorf("LoadFile() error = %v, want ErrInsecurePermissions", err)
	}
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-ant")
	t.Setenv("CUSTOM_PROVIDER_API_KEY", "env-custom")

	var creds *Credentials // nil: no file found
	if got := creds.APIKey("anthropic"); got != "env-ant" {
		t.Errorf("APIKey(anthropic) = %q", got)
	}
	if got := creds.APIKey("custom-provider"); got != "env-custom" {
		t.Errorf("APIKey(custom-provider) = %q", got)
	}
}

func TestSlackBotTokenEnvFallback(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-env")

	var creds *Credentials
	if got := creds.SlackBotToken(); got != "xoxb-env" {
		t.Errorf("SlackBotToken() = %q", got)
	}
}

func TestLoadMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir() error = %v", err)
	}
	defer os.Chdir(cwd)

	// Point HOME at the empty dir so the standard paths miss too.
	t.Setenv("HOME", dir)

	creds, path, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if creds != nil || path != "" {
		t.Errorf("Load() = %v, %q, want nil", creds, path)
	}
}

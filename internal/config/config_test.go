package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xyz-social/newsletter/internal/config"
)

// clearEnv blanks every variable that could leak into Load from the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"API_ENDPOINT", "MESSAGES_ENDPOINT", "SOCKET_ENDPOINT"} {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	cfg, err := config.LoadWithHome(home, "")
	if err != nil {
		t.Fatalf("LoadWithHome() failed: %v", err)
	}

	if cfg.ChatEndpoint != config.DefaultChatEndpoint {
		t.Errorf("Expected chat endpoint %q, got %q", config.DefaultChatEndpoint, cfg.ChatEndpoint)
	}
	if cfg.MessagesEndpoint != config.DefaultMessagesEndpoint {
		t.Errorf("Expected messages endpoint %q, got %q", config.DefaultMessagesEndpoint, cfg.MessagesEndpoint)
	}
	if cfg.WaitTimeout != 30*time.Second {
		t.Errorf("Expected wait timeout 30s, got %s", cfg.WaitTimeout)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("Expected poll interval 1s, got %s", cfg.PollInterval)
	}
	if cfg.UseSocket {
		t.Error("Expected polling by default")
	}
	if !cfg.History {
		t.Error("Expected history enabled by default")
	}
	if cfg.IssuesDir != filepath.Join(home, "issues") {
		t.Errorf("Expected issues dir under home, got %q", cfg.IssuesDir)
	}
	if cfg.Home != home {
		t.Errorf("Expected home %q, got %q", home, cfg.Home)
	}
}

func TestLoad_LegacyEndpointEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_ENDPOINT", "http://localhost:8080/api/chat")
	t.Setenv("MESSAGES_ENDPOINT", "http://localhost:8080/api/messages")
	t.Setenv("SOCKET_ENDPOINT", "ws://localhost:3001")

	cfg, err := config.LoadWithHome(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadWithHome() failed: %v", err)
	}

	if cfg.ChatEndpoint != "http://localhost:8080/api/chat" {
		t.Errorf("Expected chat endpoint from env, got %q", cfg.ChatEndpoint)
	}
	if cfg.MessagesEndpoint != "http://localhost:8080/api/messages" {
		t.Errorf("Expected messages endpoint from env, got %q", cfg.MessagesEndpoint)
	}
	if cfg.SocketEndpoint != "ws://localhost:3001" {
		t.Errorf("Expected socket endpoint from env, got %q", cfg.SocketEndpoint)
	}
}

func TestLoad_FilePrefixedEnvAndLegacyPriority(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	configPath := filepath.Join(home, "config.toml")
	contents := `chat_endpoint = "http://file.example/api/chat"
wait_timeout = "10s"
poll_interval = "250ms"
use_socket = true
`
	if err := os.WriteFile(configPath, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("NEWSLETTER_WAIT_TIMEOUT", "45s")
	t.Setenv("NEWSLETTER_CHAT_ENDPOINT", "http://prefixed.example/api/chat")
	t.Setenv("API_ENDPOINT", "http://legacy.example/api/chat")

	// No explicit path: <home>/config.toml is picked up.
	cfg, err := config.LoadWithHome(home, "")
	if err != nil {
		t.Fatalf("LoadWithHome() failed: %v", err)
	}

	if cfg.ChatEndpoint != "http://legacy.example/api/chat" {
		t.Errorf("Expected legacy env to win, got %q", cfg.ChatEndpoint)
	}
	if cfg.WaitTimeout != 45*time.Second {
		t.Errorf("Expected prefixed env to override file, got %s", cfg.WaitTimeout)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("Expected poll interval from file, got %s", cfg.PollInterval)
	}
	if !cfg.UseSocket {
		t.Error("Expected use_socket from file")
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	clearEnv(t)

	_, err := config.LoadWithHome(t.TempDir(), filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("Expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			ChatEndpoint:     "https://a.example/api/chat",
			MessagesEndpoint: "https://a.example/api/messages",
			SocketEndpoint:   "wss://a.example",
			IssuesDir:        "/tmp/issues",
			WaitTimeout:      time.Second,
			PollInterval:     time.Second,
			HTTPTimeout:      time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid", func(c *config.Config) {}, ""},
		{"relative chat endpoint", func(c *config.Config) { c.ChatEndpoint = "/api/chat" }, "chat_endpoint"},
		{"empty socket endpoint", func(c *config.Config) { c.SocketEndpoint = "" }, "socket_endpoint"},
		{"empty issues dir", func(c *config.Config) { c.IssuesDir = "" }, "issues_dir"},
		{"zero wait", func(c *config.Config) { c.WaitTimeout = 0 }, "wait_timeout"},
		{"negative poll", func(c *config.Config) { c.PollInterval = -time.Second }, "poll_interval"},
		{"zero http timeout", func(c *config.Config) { c.HTTPTimeout = 0 }, "http_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EmptyLegacyEnvUsesDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_ENDPOINT", "")
	t.Setenv("MESSAGES_ENDPOINT", "")
	t.Setenv("SOCKET_ENDPOINT", "")
	t.Setenv(config.EnvPrefix+"CHAT_ENDPOINT", "")
	t.Setenv(config.EnvPrefix+"LOG_LEVEL", "")

	cfg, err := config.LoadWithHome(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadWithHome() failed: %v", err)
	}

	if cfg.ChatEndpoint != config.DefaultChatEndpoint {
		t.Errorf("Expected default chat endpoint, got %q", cfg.ChatEndpoint)
	}
	if cfg.MessagesEndpoint != config.DefaultMessagesEndpoint {
		t.Errorf("Expected default messages endpoint, got %q", cfg.MessagesEndpoint)
	}
	if cfg.SocketEndpoint != config.DefaultSocketEndpoint {
		t.Errorf("Expected default socket endpoint, got %q", cfg.SocketEndpoint)
	}
	if cfg.LogLevel == "" {
		t.Error("Expected an empty log level variable to keep the default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed with empty variables set: %v", err)
	}
}

func TestSampleConfig_LoadsAsDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, []byte(config.SampleConfig), 0o600); err != nil {
		t.Fatal(err)
	}

	fromFile, err := config.LoadWithHome(home, path)
	if err != nil {
		t.Fatalf("LoadWithHome(sample) failed: %v", err)
	}
	defaults, err := config.LoadWithHome(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadWithHome() failed: %v", err)
	}

	if fromFile.ChatEndpoint != defaults.ChatEndpoint || fromFile.WaitTimeout != defaults.WaitTimeout ||
		fromFile.HTTPTimeout != defaults.HTTPTimeout || fromFile.LogLevel != defaults.LogLevel {
		t.Errorf("sample config should match defaults, got %+v", fromFile)
	}
}

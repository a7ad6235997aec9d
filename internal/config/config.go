package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/xyz-social/newsletter/internal/paths"
)

const (
	// EnvPrefix is the prefix for environment overrides of any config key.
	// NEWSLETTER_WAIT_TIMEOUT=45s sets wait_timeout.
	EnvPrefix = "NEWSLETTER_"

	DefaultChatEndpoint     = "https://newsletter.xyz.social/api/chat"
	DefaultMessagesEndpoint = "https://newsletter.xyz.social/api/messages"
	DefaultSocketEndpoint   = "https://localhost:3001"
)

// legacyEnv maps the endpoint variables the chat client has always honored
// to their config keys. They win over every other source.
var legacyEnv = map[string]string{
	"API_ENDPOINT":      "chat_endpoint",
	"MESSAGES_ENDPOINT": "messages_endpoint",
	"SOCKET_ENDPOINT":   "socket_endpoint",
}

// Config is the resolved client configuration.
type Config struct {
	Home string `koanf:"-"`

	ChatEndpoint     string `koanf:"chat_endpoint"`
	MessagesEndpoint string `koanf:"messages_endpoint"`
	SocketEndpoint   string `koanf:"socket_endpoint"`

	IssuesDir string `koanf:"issues_dir"`

	WaitTimeout  time.Duration `koanf:"wait_timeout"`
	PollInterval time.Duration `koanf:"poll_interval"`
	HTTPTimeout  time.Duration `koanf:"http_timeout"`
	UseSocket    bool          `koanf:"use_socket"`

	History  bool   `koanf:"history"`
	LogLevel string `koanf:"log_level"`
}

// Defaults returns the built-in configuration values for the given home directory.
func Defaults(home string) map[string]any {
	return map[string]any{
		"chat_endpoint":     DefaultChatEndpoint,
		"messages_endpoint": DefaultMessagesEndpoint,
		"socket_endpoint":   DefaultSocketEndpoint,
		"issues_dir":        paths.IssuesDir(home),
		"wait_timeout":      30 * time.Second,
		"poll_interval":     time.Second,
		"http_timeout":      10 * time.Second,
		"use_socket":        false,
		"history":           true,
		"log_level":         "warn",
	}
}

// Load resolves configuration for the current user. configPath may be empty,
// in which case <home>/config.toml is used when it exists.
func Load(configPath string) (*Config, error) {
	return LoadWithHome(paths.Home(), configPath)
}

// LoadWithHome resolves configuration with the following priority:
// 1. API_ENDPOINT / MESSAGES_ENDPOINT / SOCKET_ENDPOINT (highest)
// 2. NEWSLETTER_* environment variables
// 3. TOML config file
// 4. Built-in defaults.
func LoadWithHome(home, configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(home), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	} else if defaultPath := paths.ConfigFile(home); paths.Exists(defaultPath) {
		if err := k.Load(file.Provider(defaultPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", defaultPath, err)
		}
	}

	// Set-but-empty variables are skipped so they fall back to the layers
	// below instead of clearing a value.
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
	}), nil); err != nil {
		return nil, fmt.Errorf("load %s environment: %w", EnvPrefix, err)
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return legacyEnv[key], value // unknown names map to "" and are skipped
	}), nil); err != nil {
		return nil, fmt.Errorf("load endpoint environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Home = home
	cfg.IssuesDir = os.ExpandEnv(cfg.IssuesDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the values a session cannot run without.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"chat_endpoint":     c.ChatEndpoint,
		"messages_endpoint": c.MessagesEndpoint,
		"socket_endpoint":   c.SocketEndpoint,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if c.IssuesDir == "" {
		return fmt.Errorf("issues_dir must not be empty")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait_timeout must be positive, got %s", c.WaitTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}

	return nil
}

// SampleConfig is the commented starting file written by "newsletter config init".
const SampleConfig = `# Newsletter client configuration

chat_endpoint = "https://newsletter.xyz.social/api/chat"
messages_endpoint = "https://newsletter.xyz.social/api/messages"
socket_endpoint = "https://localhost:3001"

# issues_dir = "/path/to/issues"

wait_timeout = "30s"
poll_interval = "1s"
http_timeout = "10s"
use_socket = false

history = true
log_level = "warn"
`

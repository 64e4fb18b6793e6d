package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	internal "github.com/kali2026000/my-ai-companion/companion"
)

// EnvPrefix is prepended to every environment override, e.g.
// chat.model becomes COMPANION_CHAT_MODEL.
const EnvPrefix = "COMPANION"

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Chat       ChatConfig       `mapstructure:"chat"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Fallback   FallbackConfig   `mapstructure:"fallback"`
	Credential CredentialConfig `mapstructure:"credential"`
	Log        LogConfig        `mapstructure:"log"`
}

// ChatConfig stores the remote chat endpoint and request shaping settings.
type ChatConfig struct {
	Model          string        `mapstructure:"model"`           // Model identifier sent with every request
	MaxTokens      int           `mapstructure:"max_tokens"`      // Maximum output size bound
	SystemPrompt   string        `mapstructure:"system_prompt"`   // Persona instruction, empty to omit
	ContextWindow  int           `mapstructure:"context_window"`  // Recent turns sent as context
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // Deadline for the single outbound call
	BaseURL        string        `mapstructure:"base_url"`        // Endpoint root, /v1/messages is appended
	APIVersion     string        `mapstructure:"api_version"`     // anthropic-version header value
}

// StorageConfig selects the key-value backends for the two storage slots.
type StorageConfig struct {
	Backend           string `mapstructure:"backend"`            // "file", "bolt", "libsql", "memory"
	CredentialBackend string `mapstructure:"credential_backend"` // same values; "memory" keeps the key for the process lifetime
	DataDir           string `mapstructure:"data_dir"`
	HistoryKey        string `mapstructure:"history_key"`
	CredentialKey     string `mapstructure:"credential_key"`
	BoltFile          string `mapstructure:"bolt_file"`
	LibSQLFile        string `mapstructure:"libsql_file"`
}

// RateLimitConfig paces outbound calls on the client side.
type RateLimitConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Capacity   int           `mapstructure:"capacity"`    // Token bucket capacity
	RefillRate time.Duration `mapstructure:"refill_rate"` // Time between token refills
}

// SpeechConfig controls spoken playback of assistant replies.
type SpeechConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command"` // Executable that reads the reply from its last argument
	Args    []string `mapstructure:"args"`
}

// FallbackRule is one entry of the offline reply table.
type FallbackRule struct {
	Name     string   `mapstructure:"name"`
	Triggers []string `mapstructure:"triggers"` // Case-insensitive substrings, any one matches
	Reply    string   `mapstructure:"reply"`
}

// FallbackConfig overrides the built-in offline reply table when Rules is non-empty.
type FallbackConfig struct {
	DefaultReply string         `mapstructure:"default_reply"`
	Rules        []FallbackRule `mapstructure:"rules"`
}

// CredentialConfig seeds the credential slot at startup.
type CredentialConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	File   string `mapstructure:"file"` // Empty means stderr, except in the TUI
}

// DefaultSystemPrompt describes the companion persona.
const DefaultSystemPrompt = "You are a warm, supportive companion. Listen carefully, " +
	"answer in a calm and friendly tone, keep replies short, and remember what the user has shared earlier in the conversation."

// DefaultFallbackReply is used offline when no rule matches.
const DefaultFallbackReply = "I'm here and I'm listening. Tell me more about what's on your mind."

// Loader owns a viper instance so a loaded config can be watched for changes.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with all defaults registered.
func NewLoader() *Loader {
	v := viper.New()
	setDefaults(v)
	return &Loader{v: v}
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	return NewLoader().Load(configPath)
}

// Load reads the config file (if any), applies env overrides and decodes the result.
func (l *Loader) Load(configPath string) (*Config, error) {
	v := l.v
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The conventional variable wins over nothing but loses to COMPANION_CREDENTIAL_API_KEY.
	_ = v.BindEnv("credential.api_key", EnvPrefix+"_CREDENTIAL_API_KEY", "ANTHROPIC_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file on the search path; defaults and env apply.
	}

	return l.decode()
}

// ConfigFileUsed reports the file the loader read, empty when running on defaults.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Watch re-decodes the config every time the file changes on disk.
// It is a no-op when no config file was read.
func (l *Loader) Watch(onChange func(cfg *Config, err error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.decode())
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the orchestrator cannot run with.
func (c *Config) Validate() error {
	if c.Chat.Model == "" {
		return fmt.Errorf("chat.model is required")
	}
	if c.Chat.MaxTokens <= 0 {
		return fmt.Errorf("chat.max_tokens must be positive: %d", c.Chat.MaxTokens)
	}
	if c.Chat.ContextWindow <= 0 {
		return fmt.Errorf("chat.context_window must be positive: %d", c.Chat.ContextWindow)
	}
	if c.Chat.RequestTimeout <= 0 {
		return fmt.Errorf("chat.request_timeout must be positive: %s", c.Chat.RequestTimeout)
	}
	for _, backend := range []string{c.Storage.Backend, c.Storage.CredentialBackend} {
		switch backend {
		case "file", "bolt", "libsql", "memory":
		default:
			return fmt.Errorf("unknown storage backend %q", backend)
		}
	}
	if c.Storage.HistoryKey == "" || c.Storage.CredentialKey == "" {
		return fmt.Errorf("storage.history_key and storage.credential_key are required")
	}
	if c.Storage.HistoryKey == c.Storage.CredentialKey {
		return fmt.Errorf("storage.history_key and storage.credential_key must differ: %q", c.Storage.HistoryKey)
	}
	if c.RateLimit.Enabled && (c.RateLimit.Capacity <= 0 || c.RateLimit.RefillRate <= 0) {
		return fmt.Errorf("rate_limit needs a positive capacity and refill_rate")
	}
	for i, rule := range c.Fallback.Rules {
		if len(rule.Triggers) == 0 || rule.Reply == "" {
			return fmt.Errorf("fallback.rules[%d] needs triggers and a reply", i)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Remote endpoint
	v.SetDefault("chat.model", "claude-sonnet-4-20250514")
	v.SetDefault("chat.max_tokens", 1024)
	v.SetDefault("chat.system_prompt", DefaultSystemPrompt)
	v.SetDefault("chat.context_window", 10)
	v.SetDefault("chat.request_timeout", "30s")
	v.SetDefault("chat.base_url", "https://api.anthropic.com")
	v.SetDefault("chat.api_version", "2023-06-01")

	// Storage
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.credential_backend", "memory")
	v.SetDefault("storage.data_dir", internal.DefaultDataDir)
	v.SetDefault("storage.history_key", internal.DefaultHistoryKey)
	v.SetDefault("storage.credential_key", internal.DefaultCredentialKey)
	v.SetDefault("storage.bolt_file", internal.DefaultBoltFile)
	v.SetDefault("storage.libsql_file", internal.DefaultLibSQLFile)

	// Client-side pacing
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.capacity", 5)
	v.SetDefault("rate_limit.refill_rate", "2s")

	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.command", "espeak")
	v.SetDefault("speech.args", []string{})

	v.SetDefault("fallback.default_reply", DefaultFallbackReply)

	v.SetDefault("credential.api_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("log.file", "")
}

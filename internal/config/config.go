// Package config handles configuration for qanoonchat.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/qanoonbot/qanoonchat/internal/models"
)

const configDirName = ".qanoonchat"

// configDirOverride is set by the --config-dir flag
var configDirOverride string

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`             // "dark", "light", or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`      // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"` // Preserve original line breaks
}

// EndpointsConfig holds the backend URLs
type EndpointsConfig struct {
	Generate   string `json:"generate"`
	SaveChat   string `json:"save_chat"`
	SavedChats string `json:"saved_chats"`
	Login      string `json:"login"`
	Register   string `json:"register"`
}

// Config represents the user configuration
type Config struct {
	Endpoints EndpointsConfig `json:"endpoints"`
	// TypingIntervalMs is the delay between revealed characters of a reply.
	TypingIntervalMs int `json:"typing_interval_ms"`
	// RequestTimeoutSeconds bounds every backend request.
	RequestTimeoutSeconds int            `json:"request_timeout_seconds"`
	LogLevel              string         `json:"log_level"`
	CopyToClipboard       bool           `json:"copy_to_clipboard"`
	TUITheme              string         `json:"tui_theme,omitempty"`
	Markdown              MarkdownConfig `json:"markdown,omitempty"`
}

// envOverrides lists the environment variables that take precedence over the config file
type envOverrides struct {
	Home             string `env:"QANOON_HOME"`
	GenerateURL      string `env:"QANOON_GENERATE_URL"`
	SaveURL          string `env:"QANOON_SAVE_URL"`
	SavedChatsURL    string `env:"QANOON_SAVED_CHATS_URL"`
	LoginURL         string `env:"QANOON_LOGIN_URL"`
	RegisterURL      string `env:"QANOON_REGISTER_URL"`
	TypingIntervalMs int    `env:"QANOON_TYPING_INTERVAL_MS"`
	LogLevel         string `env:"QANOON_LOG_LEVEL"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Endpoints: EndpointsConfig{
			Generate:   models.EndpointGenerate,
			SaveChat:   models.EndpointSaveChat,
			SavedChats: models.EndpointSavedChats,
			Login:      models.EndpointLogin,
			Register:   models.EndpointRegister,
		},
		TypingIntervalMs:      50,
		RequestTimeoutSeconds: 60,
		LogLevel:              "info",
		CopyToClipboard:       false,
		TUITheme:              "dark",
		Markdown:              DefaultMarkdownConfig(),
	}
}

// TypingInterval returns the delay between revealed characters
func (c Config) TypingInterval() time.Duration {
	if c.TypingIntervalMs <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.TypingIntervalMs) * time.Millisecond
}

// RequestTimeout returns the per-request timeout
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SetConfigDir overrides the configuration directory for this process
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// LoadDotEnv loads a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func loadEnv() (envOverrides, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return o, fmt.Errorf("failed to parse environment: %w", err)
	}
	return o, nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	if o, err := loadEnv(); err == nil && o.Home != "" {
		return o.Home, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	// 0o700: the directory holds the local transcript
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the path to the diagnostic log file
func GetLogPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "qanoonchat.log"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			cfg = DefaultConfig()
			if envErr := applyEnv(&cfg); envErr != nil {
				return cfg, envErr
			}
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Use defaults if config doesn't exist
	default:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	o, err := loadEnv()
	if err != nil {
		return err
	}

	if o.GenerateURL != "" {
		cfg.Endpoints.Generate = o.GenerateURL
	}
	if o.SaveURL != "" {
		cfg.Endpoints.SaveChat = o.SaveURL
	}
	if o.SavedChatsURL != "" {
		cfg.Endpoints.SavedChats = o.SavedChatsURL
	}
	if o.LoginURL != "" {
		cfg.Endpoints.Login = o.LoginURL
	}
	if o.RegisterURL != "" {
		cfg.Endpoints.Register = o.RegisterURL
	}
	if o.TypingIntervalMs > 0 {
		cfg.TypingIntervalMs = o.TypingIntervalMs
	}
	if o.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(o.LogLevel)
	}
	return nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qanoonbot/qanoonchat/internal/config"
	"github.com/qanoonbot/qanoonchat/internal/render"
)

// configSetters maps the keys accepted by 'config set' to their fields
var configSetters = map[string]func(cfg *config.Config, value string) error{
	"endpoints.generate":    func(c *config.Config, v string) error { c.Endpoints.Generate = v; return nil },
	"endpoints.save_chat":   func(c *config.Config, v string) error { c.Endpoints.SaveChat = v; return nil },
	"endpoints.saved_chats": func(c *config.Config, v string) error { c.Endpoints.SavedChats = v; return nil },
	"endpoints.login":       func(c *config.Config, v string) error { c.Endpoints.Login = v; return nil },
	"endpoints.register":    func(c *config.Config, v string) error { c.Endpoints.Register = v; return nil },
	"typing_interval_ms": func(c *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("typing_interval_ms must be a positive integer, got %q", v)
		}
		c.TypingIntervalMs = n
		return nil
	},
	"request_timeout_seconds": func(c *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("request_timeout_seconds must be a positive integer, got %q", v)
		}
		c.RequestTimeoutSeconds = n
		return nil
	},
	"log_level": func(c *config.Config, v string) error {
		switch strings.ToLower(v) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(v)
			return nil
		}
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", v)
	},
	"copy_to_clipboard": func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("copy_to_clipboard must be true or false, got %q", v)
		}
		c.CopyToClipboard = b
		return nil
	},
	"tui_theme": func(c *config.Config, v string) error {
		if _, ok := render.TUIThemeByName(v); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", v, strings.Join(render.TUIThemeNames(), ", "))
		}
		c.TUITheme = v
		return nil
	},
	"markdown.style": func(c *config.Config, v string) error { c.Markdown.Style = v; return nil },
}

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change qanoonchat settings.

Settings live in config.json under the config directory. Environment
variables (QANOON_*) and a .env file in the working directory take
precedence over the file.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadConfig()
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
				}
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write a config file with the default settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.GetConfigPath()
				if err != nil {
					return err
				}
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("config file already exists: %s", path)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to check config file: %w", err)
				}
				if err := config.SaveConfig(config.DefaultConfig()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			},
		},
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  "Change one setting in config.json.\n\nKeys:\n  " + strings.Join(keys, "\n  "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, ok := configSetters[args[0]]
			if !ok {
				return fmt.Errorf("unknown setting %q", args[0])
			}

			// environment overrides must not end up in the file
			cfg, err := loadConfigFile()
			if err != nil {
				return err
			}
			if err := set(&cfg, args[1]); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

// loadConfigFile reads config.json without environment overrides
func loadConfigFile() (config.Config, error) {
	cfg := config.DefaultConfig()

	path, err := config.GetConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

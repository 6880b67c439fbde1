package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Launcher LauncherConfig
	Search   SearchConfig
	Dispatch DispatchConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

type LogConfig struct {
	Enabled bool
	Dir     string
	Level   string
}

// LauncherConfig holds the list view's input policy.
type LauncherConfig struct {
	ClearSearchOnAction bool `mapstructure:"clear_search_on_action"`
	StartInSearch       bool `mapstructure:"start_in_search"`
}

type SearchConfig struct {
	Fuzzy bool
}

// DispatchConfig controls how keystrokes are sent.
type DispatchConfig struct {
	Osascript string
	// AfterExit closes the launcher before sending the keystroke so it lands
	// in the previously focused window.
	AfterExit bool `mapstructure:"after_exit"`
}

func home() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.Getenv("HOME")
}

// Path is the config file location: $KEYBOX_CONFIG or
// ~/.config/keybox/config.toml.
func Path() string {
	if p := os.Getenv("KEYBOX_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(home(), ".config", "keybox", "config.toml")
}

func defaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(home(), ".keybox", "keybox.db"))
	v.SetDefault("log.enabled", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("launcher.clear_search_on_action", true)
	v.SetDefault("launcher.start_in_search", false)
	v.SetDefault("search.fuzzy", false)
	v.SetDefault("dispatch.osascript", "osascript")
	v.SetDefault("dispatch.after_exit", true)
}

// Load reads configuration from file and env. Env var overrides use prefix KEYBOX_.
func Load() (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("KEYBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Default is the configuration used when no file or env is present.
func Default() Config {
	v := viper.New()
	defaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Save writes cfg to Path(), creating the directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("log.enabled", cfg.Log.Enabled)
	v.Set("log.dir", cfg.Log.Dir)
	v.Set("log.level", cfg.Log.Level)
	v.Set("launcher.clear_search_on_action", cfg.Launcher.ClearSearchOnAction)
	v.Set("launcher.start_in_search", cfg.Launcher.StartInSearch)
	v.Set("search.fuzzy", cfg.Search.Fuzzy)
	v.Set("dispatch.osascript", cfg.Dispatch.Osascript)
	v.Set("dispatch.after_exit", cfg.Dispatch.AfterExit)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete sectionspy configuration
type Config struct {
	Spy      SpyConfig      `mapstructure:"spy"`
	Document DocumentConfig `mapstructure:"document"`
	TUI      TUIConfig      `mapstructure:"tui"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SpyConfig controls how the active section is chosen
type SpyConfig struct {
	// Threshold is the fraction of the viewport height, from the top, where
	// the trigger point sits (default: 0.25)
	Threshold float64 `mapstructure:"threshold"`
	// ActivationMargin is a CSS-style margin applied to the viewport before
	// visibility is measured, in page pixels (default: "-100px 0px -50% 0px").
	// Manifest simulations use it; the viewer uses TUIConfig.ActivationMargin.
	ActivationMargin string `mapstructure:"activation_margin"`
	// ThrottleMs bounds how often scroll notifications are evaluated
	ThrottleMs int `mapstructure:"throttle_ms"`
}

// DocumentConfig controls how documents are split into sections
type DocumentConfig struct {
	// HeadingLevel is the deepest heading that starts a section (1-6)
	HeadingLevel int `mapstructure:"heading_level"`
	// Include lists glob patterns on section keys. Empty tracks every section.
	Include []string `mapstructure:"include"`
}

// TUIConfig controls the terminal UI behavior
type TUIConfig struct {
	// SidebarWidth is the width of the navigation sidebar in columns (default: 30, min: 16, max: 60)
	SidebarWidth int `mapstructure:"sidebar_width"`
	// Theme is the color theme for the TUI (default: "default")
	// Options: "default", "monokai", "dracula", "nord"
	Theme string `mapstructure:"theme"`
	// Mouse enables mouse wheel scrolling
	Mouse bool `mapstructure:"mouse"`
	// ActivationMargin is the viewer's visibility margin. Rows count as
	// pixels and % resolves against the pane height (default: "-1px 0px -50% 0px")
	ActivationMargin string `mapstructure:"activation_margin"`
}

// WatchConfig controls reloading when the document changes on disk
type WatchConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMs int  `mapstructure:"debounce_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled turns on file logging (default: false)
	Enabled bool `mapstructure:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is the log directory. Empty uses the config directory.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the size at which the log file rotates
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep
	MaxBackups int `mapstructure:"max_backups"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Spy: SpyConfig{
			Threshold:        0.25,
			ActivationMargin: "-100px 0px -50% 0px",
			ThrottleMs:       100,
		},
		Document: DocumentConfig{
			HeadingLevel: 2,
			Include:      []string{},
		},
		TUI: TUIConfig{
			SidebarWidth:     30,
			Theme:            "default",
			Mouse:            true,
			ActivationMargin: "-1px 0px -50% 0px",
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 150,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// ThrottleWindow returns the throttle window as a time.Duration
func (c *SpyConfig) ThrottleWindow() time.Duration {
	return time.Duration(c.ThrottleMs) * time.Millisecond
}

// Debounce returns the reload debounce as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolveDir returns the log directory, expanding ~ and falling back to the
// config directory.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir == "" {
		return ConfigDir()
	}
	path := c.Dir
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Spy defaults
	viper.SetDefault("spy.threshold", defaults.Spy.Threshold)
	viper.SetDefault("spy.activation_margin", defaults.Spy.ActivationMargin)
	viper.SetDefault("spy.throttle_ms", defaults.Spy.ThrottleMs)

	// Document defaults
	viper.SetDefault("document.heading_level", defaults.Document.HeadingLevel)
	viper.SetDefault("document.include", defaults.Document.Include)

	// TUI defaults
	viper.SetDefault("tui.sidebar_width", defaults.TUI.SidebarWidth)
	viper.SetDefault("tui.theme", defaults.TUI.Theme)
	viper.SetDefault("tui.mouse", defaults.TUI.Mouse)
	viper.SetDefault("tui.activation_margin", defaults.TUI.ActivationMargin)

	// Watch defaults
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sectionspy")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sectionspy"
	}
	return filepath.Join(home, ".config", "sectionspy")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidThemes returns the list of built-in themes
func ValidThemes() []string {
	return []string{"default", "monokai", "dracula", "nord"}
}

package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/logging"
	"github.com/Iron-Ham/sectionspy/internal/spy"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify sectionspy configuration",
	Long: `View or modify sectionspy configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  sectionspy config set spy.threshold 0.3
  sectionspy config set tui.theme nord
  sectionspy config set document.heading_level 3

Valid keys:
  spy.threshold            - Trigger point as a fraction of the viewport (0-1)
  spy.activation_margin    - CSS-style margin in page pixels (simulate)
  spy.throttle_ms          - Scroll evaluation window in milliseconds
  document.heading_level   - Deepest heading that starts a section (1-6)
  tui.sidebar_width        - Sidebar width in columns (16-60, 0 hides it)
  tui.theme                - Color theme: default, monokai, dracula, nord
  tui.mouse                - Mouse wheel scrolling (true/false)
  tui.activation_margin    - Viewer margin in rows, e.g. "-1px 0px -50% 0px"
  watch.enabled            - Reload when the file changes (true/false)
  watch.debounce_ms        - Quiet period before reloading
  logging.enabled          - Write a log file (true/false)
  logging.level            - debug, info, warn, error`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/sectionspy/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	printConfig(cmd.OutOrStdout(), cfg)
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "spy:")
	fmt.Fprintf(w, "  threshold: %v\n", cfg.Spy.Threshold)
	fmt.Fprintf(w, "  activation_margin: %q\n", cfg.Spy.ActivationMargin)
	fmt.Fprintf(w, "  throttle_ms: %d\n", cfg.Spy.ThrottleMs)

	fmt.Fprintln(w, "document:")
	fmt.Fprintf(w, "  heading_level: %d\n", cfg.Document.HeadingLevel)
	fmt.Fprintf(w, "  include: [%s]\n", strings.Join(cfg.Document.Include, ", "))

	fmt.Fprintln(w, "tui:")
	fmt.Fprintf(w, "  sidebar_width: %d\n", cfg.TUI.SidebarWidth)
	fmt.Fprintf(w, "  theme: %s\n", cfg.TUI.Theme)
	fmt.Fprintf(w, "  mouse: %v\n", cfg.TUI.Mouse)
	fmt.Fprintf(w, "  activation_margin: %q\n", cfg.TUI.ActivationMargin)

	fmt.Fprintln(w, "watch:")
	fmt.Fprintf(w, "  enabled: %v\n", cfg.Watch.Enabled)
	fmt.Fprintf(w, "  debounce_ms: %d\n", cfg.Watch.DebounceMs)

	fmt.Fprintln(w, "logging:")
	fmt.Fprintf(w, "  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Fprintf(w, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  dir: %s\n", cfg.Logging.ResolveDir())
}

// settableKeys maps each key `config set` accepts to its value type.
var settableKeys = map[string]string{
	"spy.threshold":          "float",
	"spy.activation_margin":  "margin",
	"spy.throttle_ms":        "int",
	"document.heading_level": "int",
	"tui.sidebar_width":      "int",
	"tui.theme":              "theme",
	"tui.mouse":              "bool",
	"tui.activation_margin":  "margin",
	"watch.enabled":          "bool",
	"watch.debounce_ms":      "int",
	"logging.enabled":        "bool",
	"logging.level":          "level",
}

// parseSetting validates value for key and converts it to the type stored
// in the config file.
func parseSetting(key, value string) (any, error) {
	keyType, ok := settableKeys[key]
	if !ok {
		if guess := suggest(key, slices.Sorted(maps.Keys(settableKeys))); guess != "" {
			return nil, fmt.Errorf("unknown configuration key: %s (did you mean %s?)", key, guess)
		}
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'sectionspy config set --help' to see valid keys", key)
	}

	switch keyType {
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("invalid value for %s: expected a number between 0 and 1", key)
		}
		return f, nil
	case "margin":
		if _, err := spy.ParseMargin(value); err != nil {
			return nil, errors.Wrapf(err, "invalid value for %s", key)
		}
		return value, nil
	case "theme":
		if !slices.Contains(config.ValidThemes(), value) {
			if guess := suggest(value, config.ValidThemes()); guess != "" {
				return nil, fmt.Errorf("invalid value for %s: %s (did you mean %s?)", key, value, guess)
			}
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(config.ValidThemes(), ", "))
		}
		return value, nil
	case "level":
		if logging.ParseLevel(value) != strings.ToUpper(value) {
			return nil, fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(logging.ValidLevels(), ", "))
		}
		return strings.ToLower(value), nil
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	default:
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	}
}

// suggest returns the candidate closest to s by edit distance, or "" when
// none is within a third of its length.
func suggest(s string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(s, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > max(1, len(best)/3) {
		return ""
	}
	return best
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseSetting(key, args[1])
	if err != nil {
		return err
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper and make sure the result still validates
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return errors.Wrapf(err, "invalid configuration after setting %s", key)
	}

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(out, "Config saved to %s\n", configFile)

	return nil
}

// defaultConfigContent is the commented file written by `config init`.
const defaultConfigContent = `# sectionspy configuration

# Active-section tracking
spy:
  # Trigger point, as a fraction of the viewport height from the top
  threshold: 0.25
  # CSS-style margin applied to the viewport before measuring visibility,
  # in page pixels. Used by simulate.
  activation_margin: "-100px 0px -50% 0px"
  # Scroll positions are evaluated at most once per window
  throttle_ms: 100

# How documents are split into sections
document:
  # Deepest heading level (1-6) that starts a section
  heading_level: 2
  # Glob patterns of section keys to track. Empty tracks every section.
  include: []

# Terminal viewer
tui:
  # Sidebar width in columns (16-60). 0 hides the sidebar.
  sidebar_width: 30
  # Options: default, monokai, dracula, nord
  theme: default
  mouse: true
  # Visibility margin for the viewer. Rows count as pixels and % resolves
  # against the pane height.
  activation_margin: "-1px 0px -50% 0px"

# Reload the document when it changes on disk
watch:
  enabled: true
  debounce_ms: 150

# Debug logging
logging:
  enabled: false
  level: info
  # Empty uses the config directory
  dir: ""
  max_size_mb: 10
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'sectionspy config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize sectionspy's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: SECTIONSPY_* (e.g., SECTIONSPY_SPY_THRESHOLD)")

	return nil
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "sectionspy",
	Short: "Follow the active section of a document as you scroll",
	Long: `Sectionspy opens a Markdown or HTML document in a scrollable terminal
viewer and keeps a navigation sidebar in sync with the section you are
reading. The active section is chosen from scroll position and section
visibility.

It can also list a document's sections or replay a scripted scroll session
against a page manifest.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// reportError prints err with its severity. Errors that did not come from
// sectionspy's own checks, such as I/O or flag parsing failures, get a pointer
// to the debug log.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %v\n", errors.GetSeverity(err), err)
	if !errors.IsUserFacing(err) {
		fmt.Fprintln(w, "For details, enable logging (sectionspy config set logging.enabled true) and run sectionspy logs.")
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/sectionspy/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level when logging is enabled (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SECTIONSPY")
	// Replace dots with underscores for nested keys in env vars
	// e.g., SECTIONSPY_SPY_THRESHOLD for spy.threshold
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newLogger opens the log file described by cfg. With logging disabled it
// returns a logger that discards everything.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.Logging.ResolveDir(), cfg.Logging.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}

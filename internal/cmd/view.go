package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Open a document in the terminal viewer",
	Long: `Open a Markdown or HTML document in a scrollable viewer with a section
sidebar that follows your reading position.

Keys:
  j/k, ↑/↓      scroll one line
  pgdn/pgup     scroll one page
  ^d/^u         scroll half a page
  g/G           top / bottom
  n/p           next / previous section
  r             reload the document
  q             quit

The document is reloaded automatically when it changes on disk unless
--no-watch is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().Float64("threshold", 0, "trigger point as a fraction of the pane height")
	viewCmd.Flags().String("margin", "", "activation margin in rows, CSS shorthand (e.g. \"-1px 0px -50% 0px\")")
	viewCmd.Flags().StringP("section", "s", "", "open at the section with this key")
	viewCmd.Flags().StringSlice("include", nil, "glob patterns of section keys to track")
	viewCmd.Flags().Int("heading-level", 0, "deepest heading level that starts a section")
	viewCmd.Flags().String("theme", "", "color theme (default, monokai, dracula, nord)")
	viewCmd.Flags().Bool("no-watch", false, "do not reload when the file changes")

	_ = viper.BindPFlag("spy.threshold", viewCmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("tui.activation_margin", viewCmd.Flags().Lookup("margin"))
	_ = viper.BindPFlag("document.include", viewCmd.Flags().Lookup("include"))
	_ = viper.BindPFlag("document.heading_level", viewCmd.Flags().Lookup("heading-level"))
	_ = viper.BindPFlag("tui.theme", viewCmd.Flags().Lookup("theme"))
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.Watch.Enabled = false
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open log")
	}
	defer func() { _ = logger.Close() }()

	start, _ := cmd.Flags().GetString("section")
	app, err := tui.New(tui.Options{
		Path:   args[0],
		Start:  start,
		Config: cfg,
		Logger: logger.WithDocument(args[0]),
	})
	if err != nil {
		return err
	}
	return app.Run()
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/document"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/util"
)

const defaultTermWidth = 80

var sectionsCmd = &cobra.Command{
	Use:   "sections <file>",
	Short: "List the sections of a document",
	Long: `List the sections a document splits into, in order, with the key the
tracker uses for each, its heading level and how many lines it occupies when
wrapped to --width columns.

Sections excluded by document.include are marked with '-'.`,
	Args: cobra.ExactArgs(1),
	RunE: runSections,
}

var sectionsWidth int

func init() {
	rootCmd.AddCommand(sectionsCmd)

	sectionsCmd.Flags().IntVarP(&sectionsWidth, "width", "w", 0, "wrap width for line counts (default: terminal width)")
}

func runSections(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	doc, err := document.Load(args[0], cfg.Document.HeadingLevel)
	if err != nil {
		return err
	}
	filter, err := document.NewFilter(cfg.Document.Include)
	if err != nil {
		return err
	}

	width := sectionsWidth
	if width <= 0 {
		width = terminalWidth()
	}
	return printSections(cmd.OutOrStdout(), doc, document.NewLayout(doc, width), filter, width)
}

// terminalWidth returns the width of stdout, or a default when stdout is
// not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultTermWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultTermWidth
	}
	return w
}

func printSections(w io.Writer, doc *document.Document, layout *document.Layout, filter *document.Filter, width int) error {
	keyWidth := len("KEY")
	for _, r := range layout.Ranges() {
		keyWidth = max(keyWidth, len(r.Key))
	}

	header := fmt.Sprintf("  %-*s  %5s  %5s  %s", keyWidth, "KEY", "LEVEL", "LINES", "TITLE")
	if _, err := fmt.Fprintln(w, util.TruncateANSI(header, width)); err != nil {
		return err
	}

	for _, r := range layout.Ranges() {
		mark := "*"
		if !filter.Match(r.Key) {
			mark = "-"
		}
		title := ""
		if s, ok := doc.Section(r.Key); ok {
			title = strings.Repeat("  ", max(0, s.Level-1)) + s.Title
		}
		line := fmt.Sprintf("%s %-*s  %5d  %5d  %s", mark, keyWidth, r.Key, r.Level, r.Len(), title)
		if _, err := fmt.Fprintln(w, util.TruncateANSI(line, width)); err != nil {
			return err
		}
	}

	if patterns := filter.Patterns(); len(patterns) > 0 {
		if _, err := fmt.Fprintf(w, "\ninclude: %s\n", strings.Join(patterns, ", ")); err != nil {
			return err
		}
	}
	return nil
}

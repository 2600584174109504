package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/logging"
	"github.com/Iron-Ham/sectionspy/internal/spy"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the debug log",
	Long: `View and filter the sectionspy debug log.

Logging must be enabled (logging.enabled: true) for entries to be written.
Activations are shown as "previous -> key (source)". By default the last
50 entries are shown.

Examples:
  # Show the last 50 entries
  sectionspy logs

  # Show only activation history
  sectionspy logs --activations

  # Every activation into or out of one section
  sectionspy logs -a --section usage

  # Activations decided by the scroll estimator
  sectionspy logs -a --source scroll

  # Everything a single tracker logged
  sectionspy logs -t 3f2a9c1e -n 0

  # Follow the log, warnings and up, from the last hour
  sectionspy logs -f --level warn --since 1h`,
	RunE: runLogs,
}

// logOptions holds the logs command flags.
type logOptions struct {
	tracker     string
	section     string
	source      string
	activations bool
	level       string
	since       string
	grep        string
	tail        int
	follow      bool
}

var logsOpts logOptions

func init() {
	rootCmd.AddCommand(logsCmd)

	f := logsCmd.Flags()
	f.StringVarP(&logsOpts.tracker, "tracker", "t", "", "Only entries from trackers whose ID starts with this prefix")
	f.StringVarP(&logsOpts.section, "section", "s", "", "Only entries about this section key (as key or previous)")
	f.StringVar(&logsOpts.source, "source", "", "Only entries from this signal (initial/visibility/scroll)")
	f.BoolVarP(&logsOpts.activations, "activations", "a", false, "Only section activations")
	f.StringVar(&logsOpts.level, "level", "", "Minimum level (debug/info/warn/error)")
	f.StringVar(&logsOpts.since, "since", "", "Only entries newer than this duration (e.g. 1h, 30m)")
	f.StringVar(&logsOpts.grep, "grep", "", "Only entries whose message or fields match this regex")
	f.IntVarP(&logsOpts.tail, "tail", "n", 50, "Number of entries to show (0 for all)")
	f.BoolVarP(&logsOpts.follow, "follow", "f", false, "Keep printing new entries as they are written")
}

// activationMsg is the message the tracker logs on every change of the
// active key.
const activationMsg = "section activated"

// logEntry is one JSON log line with the tracker's fields pulled out.
type logEntry struct {
	Time      time.Time
	Level     string
	Msg       string
	Document  string
	TrackerID string
	Key       string
	Previous  string
	Source    string
	Extra     map[string]any
}

func parseLogEntry(line string) (*logEntry, error) {
	var all map[string]any
	if err := json.Unmarshal([]byte(line), &all); err != nil {
		return nil, err
	}

	take := func(name string) string {
		v, ok := all[name]
		if !ok {
			return ""
		}
		delete(all, name)
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}

	e := &logEntry{
		Level:     take("level"),
		Msg:       take("msg"),
		Document:  take("document"),
		TrackerID: take("tracker_id"),
		Key:       take("key"),
		Previous:  take("previous"),
		Source:    take("source"),
	}
	if ts := take("time"); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("time %q: %w", ts, err)
		}
		e.Time = t
	}
	if len(all) > 0 {
		e.Extra = all
	}
	return e, nil
}

func (e *logEntry) activation() bool {
	return e.Msg == activationMsg && e.Key != ""
}

var (
	logTimeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	logFieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	logKeyStyle   = lipgloss.NewStyle().Bold(true)

	logLevelStyles = map[string]lipgloss.Style{
		logging.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		logging.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		logging.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		logging.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// levelPriority orders levels for --level; unknown levels sort first.
func levelPriority(level string) int {
	return slices.Index(logging.ValidLevels(), strings.ToUpper(level))
}

// formatLogEntry renders an entry on one line. Activations read as
// "previous -> key (source)"; other entries print their message and fields.
func formatLogEntry(e *logEntry) string {
	var sb strings.Builder

	level := strings.ToUpper(e.Level)
	sb.WriteString(logTimeStyle.Render(e.Time.Format("15:04:05.000")))
	sb.WriteString(" ")
	style, ok := logLevelStyles[level]
	if !ok {
		style = lipgloss.NewStyle()
	}
	sb.WriteString(style.Render(fmt.Sprintf("%-5s", level)))
	if e.TrackerID != "" {
		sb.WriteString(" ")
		sb.WriteString(logFieldStyle.Render(shortID(e.TrackerID)))
	}
	sb.WriteString(" ")

	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&sb, " %s%s", logFieldStyle.Render(name+"="), value)
		}
	}

	if e.activation() {
		from := e.Previous
		if from == "" {
			from = "(none)"
		}
		fmt.Fprintf(&sb, "%s -> %s", from, logKeyStyle.Render(e.Key))
		if e.Source != "" {
			fmt.Fprintf(&sb, " (%s)", e.Source)
		}
	} else {
		sb.WriteString(e.Msg)
		field("key", e.Key)
		field("previous", e.Previous)
		field("source", e.Source)
	}

	for _, name := range slices.Sorted(maps.Keys(e.Extra)) {
		field(name, fmt.Sprint(e.Extra[name]))
	}
	return sb.String()
}

// shortID trims a tracker UUID to its first block.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// logFilter selects which entries are shown.
type logFilter struct {
	minLevel    int
	since       time.Time
	grep        *regexp.Regexp
	tracker     string
	section     string
	source      string
	activations bool
}

func newLogFilter(opts logOptions) (*logFilter, error) {
	f := &logFilter{
		minLevel:    -1,
		tracker:     opts.tracker,
		section:     opts.section,
		activations: opts.activations,
	}

	if opts.level != "" {
		f.minLevel = levelPriority(logging.ParseLevel(opts.level))
	}

	if opts.source != "" {
		sources := []string{string(spy.SourceInitial), string(spy.SourceVisibility), string(spy.SourceScroll)}
		if !slices.Contains(sources, opts.source) {
			if s := suggest(opts.source, sources); s != "" {
				return nil, fmt.Errorf("unknown source %q (did you mean %s?)", opts.source, s)
			}
			return nil, fmt.Errorf("unknown source %q (valid: %s)", opts.source, strings.Join(sources, ", "))
		}
		f.source = opts.source
	}

	if opts.since != "" {
		d, err := time.ParseDuration(opts.since)
		if err != nil {
			return nil, fmt.Errorf("invalid duration format: %w", err)
		}
		f.since = time.Now().Add(-d)
	}

	if opts.grep != "" {
		re, err := regexp.Compile(opts.grep)
		if err != nil {
			return nil, fmt.Errorf("invalid grep pattern: %w", err)
		}
		f.grep = re
	}
	return f, nil
}

func (f *logFilter) passes(e *logEntry) bool {
	switch {
	case f.minLevel >= 0 && levelPriority(e.Level) < f.minLevel:
		return false
	case !f.since.IsZero() && e.Time.Before(f.since):
		return false
	case f.tracker != "" && !strings.HasPrefix(e.TrackerID, f.tracker):
		return false
	case f.activations && !e.activation():
		return false
	case f.section != "" && e.Key != f.section && e.Previous != f.section:
		return false
	case f.source != "" && e.Source != f.source:
		return false
	}

	if f.grep != nil {
		text := []string{e.Msg, e.Key, e.Previous, e.Source}
		for _, v := range e.Extra {
			text = append(text, fmt.Sprint(v))
		}
		return f.grep.MatchString(strings.Join(text, " "))
	}
	return true
}

// renderLine formats one raw log line, reporting false when the filter
// rejects it. Lines that are not JSON are shown as-is.
func (f *logFilter) renderLine(line string) (string, bool) {
	e, err := parseLogEntry(line)
	if err != nil {
		return line, true
	}
	if !f.passes(e) {
		return "", false
	}
	return formatLogEntry(e), true
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	out := cmd.OutOrStdout()
	logPath := filepath.Join(cfg.Logging.ResolveDir(), logging.FileName)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No log file found at", logPath)
		if !cfg.Logging.Enabled {
			fmt.Fprintln(out, "Enable logging with: sectionspy config set logging.enabled true")
		}
		return nil
	}

	filter, err := newLogFilter(logsOpts)
	if err != nil {
		return err
	}

	if logsOpts.follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return followLogs(ctx, out, logPath, filter)
	}
	return displayLogs(out, logPath, logsOpts.tail, filter)
}

// displayLogs prints the last tail matching entries (all when tail is 0).
func displayLogs(w io.Writer, logPath string, tail int, filter *logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	var shown []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			if s, ok := filter.renderLine(line); ok {
				shown = append(shown, s)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	if tail > 0 && len(shown) > tail {
		shown = shown[len(shown)-tail:]
	}
	if len(shown) == 0 {
		fmt.Fprintln(w, "No matching log entries found.")
		return nil
	}
	for _, s := range shown {
		fmt.Fprintln(w, s)
	}
	return nil
}

// followLogs prints matching entries appended after it starts, until ctx is
// done.
func followLogs(ctx context.Context, w io.Writer, logPath string, filter *logFilter) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}
	fmt.Fprintf(w, "Following logs... (Ctrl+C to stop)\n\n")

	reader := bufio.NewReader(file)
	var partial string
	for {
		chunk, err := reader.ReadString('\n')
		partial += chunk
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}

		line := strings.TrimSpace(partial)
		partial = ""
		if line == "" {
			continue
		}
		if s, ok := filter.renderLine(line); ok {
			fmt.Fprintln(w, s)
		}
	}
}

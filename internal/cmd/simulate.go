package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/sectionspy/internal/clock"
	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/document"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/event"
	"github.com/Iron-Ham/sectionspy/internal/intersect"
	"github.com/Iron-Ham/sectionspy/internal/logging"
	"github.com/Iron-Ham/sectionspy/internal/spy"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <manifest.yaml>",
	Short: "Replay a scroll session against a page manifest",
	Long: `Replay a scripted scroll session headlessly and print every change of the
active section.

The manifest gives the viewport height, the section rectangles in document
coordinates and, optionally, the scroll offsets to visit:

  viewport_height: 800
  offsets: [0, 500, 1200]
  sections:
    - key: intro
      top: 0
      height: 300
    - key: api
      top: 300
      height: 1200
      detach_after: 3   # removed from the page after the third step

Time runs on a virtual clock. After each step the clock advances by one
throttle window so the scroll evaluation runs; use --no-settle to keep
steps inside a single window instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

var (
	simulateOffsets  []float64
	simulateNoSettle bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Float64SliceVar(&simulateOffsets, "offsets", nil, "scroll offsets to visit (overrides the manifest)")
	simulateCmd.Flags().BoolVar(&simulateNoSettle, "no-settle", false, "do not advance the clock between steps")
}

// simulation is the outcome of a replayed scroll session.
type simulation struct {
	TrackerID string
	Changes   []spy.Change
	Steps     []simulationStep
	Stats     spy.Stats
}

type simulationStep struct {
	Offset float64
	Active string
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	manifest, err := document.LoadManifest(args[0])
	if err != nil {
		return err
	}

	offsets := manifest.Offsets
	if len(simulateOffsets) > 0 {
		offsets = simulateOffsets
	}
	if len(offsets) == 0 {
		return fmt.Errorf("no offsets to visit: set offsets in the manifest or pass --offsets")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open log")
	}
	defer func() { _ = logger.Close() }()

	_, err = simulate(cmd.OutOrStdout(), manifest, offsets, &cfg.Spy, !simulateNoSettle, logger.WithDocument(args[0]))
	return err
}

// simulate drives a tracker over the manifest's page, scrolling to each
// offset in turn, and writes a transcript to w.
func simulate(w io.Writer, manifest *document.Manifest, offsets []float64, spyCfg *config.SpyConfig, settle bool, logger *logging.Logger) (*simulation, error) {
	page := document.NewPage(manifest)
	vclock := clock.NewVirtual()
	bus := event.NewBus(event.WithLogger(logger))
	observer := intersect.NewObserver(page)

	window := spyCfg.ThrottleWindow()
	if window <= 0 {
		window = spy.DefaultThrottleWindow
	}

	result := &simulation{TrackerID: uuid.NewString()}
	fmt.Fprintf(w, "tracker %s: %d sections, viewport %g\n", result.TrackerID, len(manifest.Sections), manifest.ViewportHeight)

	tracker, err := spy.New(page.Sections(), spy.Deps{
		Observer:  observer,
		Viewport:  page,
		Scheduler: vclock,
		Scroll:    event.NewScrollSource(bus),
	},
		spy.WithThreshold(spyCfg.Threshold),
		spy.WithActivationMargin(spyCfg.ActivationMargin),
		spy.WithThrottleWindow(window),
		spy.WithLogger(logger.WithTracker(result.TrackerID)),
		spy.WithOnChange(func(c spy.Change) {
			result.Changes = append(result.Changes, c)
			from := c.Previous
			if from == "" {
				from = "-"
			}
			fmt.Fprintf(w, "  %7s  %-10s  %s -> %s\n", formatElapsed(vclock.Now()), c.Source, from, c.Current)
		}),
	)
	if err != nil {
		return nil, err
	}
	defer tracker.Dispose()

	observer.Check()

	for i, offset := range offsets {
		fmt.Fprintf(w, "step %d: offset %g\n", i+1, offset)

		page.ScrollTo(offset)
		bus.Publish(event.NewScrolledEvent(offset, manifest.ViewportHeight))
		observer.Check()
		if settle {
			vclock.Advance(window)
		}

		active, _ := tracker.Active()
		result.Steps = append(result.Steps, simulationStep{Offset: offset, Active: active})
	}

	// Let a pending scroll evaluation finish before reporting.
	vclock.Advance(window)

	result.Stats = tracker.Stats()
	active, ok := tracker.Active()
	if !ok {
		active = "(none)"
	}
	fmt.Fprintf(w, "active: %s\n", active)
	fmt.Fprintf(w, "activations: %d, scroll notifications: %d, evaluations: %d, dropped: %d\n",
		result.Stats.Activations, result.Stats.ScrollNotifications, result.Stats.ScrollEvaluations, result.Stats.DroppedNotifications)
	return result, nil
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

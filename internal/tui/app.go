// Package tui is the terminal document viewer. It lays a document out in a
// scrollable pane, tracks the active section as the reader scrolls and
// highlights it in a navigation sidebar.
package tui

import (
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/sectionspy/internal/watch"
)

// App wraps the Bubbletea program
type App struct {
	program *tea.Program
	model   *Model
	watcher *watch.Watcher
}

// New creates a new TUI application
func New(opts Options) (*App, error) {
	model, err := NewModel(opts)
	if err != nil {
		return nil, err
	}
	return &App{model: model}, nil
}

// Model returns the application's model.
func (a *App) Model() *Model {
	return a.model
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	defer a.model.Close()

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if a.model.cfg.TUI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	a.program = tea.NewProgram(a.model, programOpts...)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	done := make(chan struct{})
	go forwardSignal(sigChan, done, func() { a.program.Send(tea.Quit()) })

	if a.model.path != "" && a.model.cfg.Watch.Enabled {
		w, err := watch.New(a.model.path, func() {
			a.program.Send(reloadMsg{})
		},
			watch.WithDebounce(a.model.cfg.Watch.Debounce()),
			watch.WithLogger(a.model.logger),
		)
		if err != nil {
			// Viewing still works without live reload.
			a.model.logger.Warn("file watching disabled", "path", a.model.path, "error", err)
		} else {
			a.watcher = w
			defer func() { _ = a.watcher.Close() }()
		}
	}

	_, err := a.program.Run()

	// Clean up signal handler
	signal.Stop(sigChan)
	close(done)

	return err
}

// forwardSignal calls quit on the first signal, or returns once done is
// closed.
func forwardSignal(sig <-chan os.Signal, done <-chan struct{}, quit func()) {
	select {
	case <-sig:
		quit()
	case <-done:
	}
}

package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/document"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/event"
	"github.com/Iron-Ham/sectionspy/internal/intersect"
	"github.com/Iron-Ham/sectionspy/internal/logging"
	"github.com/Iron-Ham/sectionspy/internal/spy"
	"github.com/Iron-Ham/sectionspy/internal/tui/styles"
)

// Layout constants
const (
	statusBarHeight = 1
	borderSize      = 2 // one cell on each side of a bordered panel
	minContentWidth = 20
)

// Options configures a Model.
type Options struct {
	// Path is the document on disk. It is required unless Document is set,
	// and reloads always read from it.
	Path string
	// Document, when set, is shown instead of loading Path at startup.
	Document *document.Document
	// Start is the key of the section to open at.
	Start  string
	Config *config.Config
	Logger *logging.Logger
	// Bus receives viewer events. A private bus is created when nil.
	Bus *event.Bus
}

// Model is the Bubble Tea model for the document viewer.
type Model struct {
	path   string
	cfg    *config.Config
	logger *logging.Logger
	styles *styles.Styles
	keys   keyMap

	bus      *event.Bus
	scroll   *event.ScrollSource
	sched    *teaScheduler
	pane     *pane
	observer *intersect.Observer
	filter   *document.Filter

	doc       *document.Document
	layout    *document.Layout
	tracker   *spy.Tracker
	trackerID string
	active    string

	width, height int
	start         string
	ready         bool
	reloads       int
	lastErr       error
	quitting      bool
}

// NewModel loads the document and prepares the viewer. The tracker is built
// on the first window size message, once the pane has a height.
func NewModel(opts Options) (*Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	bus := opts.Bus
	if bus == nil {
		bus = event.NewBus(event.WithLogger(logger))
	}

	filter, err := document.NewFilter(cfg.Document.Include)
	if err != nil {
		return nil, err
	}

	doc := opts.Document
	if doc == nil {
		doc, err = document.Load(opts.Path, cfg.Document.HeadingLevel)
		if err != nil {
			return nil, err
		}
	}
	if opts.Start != "" {
		if _, ok := doc.Section(opts.Start); !ok {
			return nil, errors.NewNotFoundError("section", opts.Start)
		}
	}

	m := &Model{
		path:   opts.Path,
		cfg:    cfg,
		logger: logger,
		styles: styles.New(cfg.TUI.Theme),
		keys:   defaultKeyMap(),
		bus:    bus,
		scroll: event.NewScrollSource(bus),
		sched:  newTeaScheduler(),
		pane:   newPane(),
		filter: filter,
		doc:    doc,
		start:  opts.Start,
	}
	m.observer = intersect.NewObserver(m.pane)
	m.pane.vp.MouseWheelEnabled = false
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.SetWindowTitle("sectionspy: " + m.doc.Name)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		if m.cfg.TUI.Mouse && msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.scrollBy(-3)
			case tea.MouseButtonWheelDown:
				m.scrollBy(3)
			}
		}

	case timerMsg:
		m.sched.Fire(msg.id)

	case reloadMsg:
		m.reload()
	}

	cmds := m.sched.Drain()
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if !m.ready {
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		return nil
	}

	h := m.pane.vp.Height
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Down):
		m.scrollBy(1)
	case key.Matches(msg, m.keys.Up):
		m.scrollBy(-1)
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(h)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(-h)
	case key.Matches(msg, m.keys.HalfDown):
		m.scrollBy(max(1, h/2))
	case key.Matches(msg, m.keys.HalfUp):
		m.scrollBy(-max(1, h/2))
	case key.Matches(msg, m.keys.Top):
		m.scrollTo(0)
	case key.Matches(msg, m.keys.Bottom):
		m.scrollTo(m.pane.maxOffset())
	case key.Matches(msg, m.keys.Next):
		m.jump(1)
	case key.Matches(msg, m.keys.Prev):
		m.jump(-1)
	case key.Matches(msg, m.keys.Reload):
		m.reload()
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.disposeTracker()
	return tea.Quit
}

// resize lays the document out for the new content width. The tracker
// survives: its boundaries read whichever layout is current.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	w, h := m.contentSize()
	m.pane.resize(w, h)

	if m.layout == nil || m.layout.Width() != w {
		m.relayout()
	}

	if !m.ready {
		m.ready = true
		m.rebuildTracker()
		if r, ok := m.layout.Range(m.start); ok {
			m.scrollTo(r.Start)
		}
		return
	}
	m.pane.scrollTo(m.pane.offset())
	m.notifyScrolled()
}

// sidebarWidth returns the sidebar's outer width, or 0 when it is disabled
// or the terminal is too narrow to fit it.
func (m *Model) sidebarWidth() int {
	w := m.cfg.TUI.SidebarWidth
	if w <= 0 || m.width-w-borderSize < minContentWidth {
		return 0
	}
	return w
}

// contentSize returns the inner size of the content panel.
func (m *Model) contentSize() (width, height int) {
	width = max(1, m.width-m.sidebarWidth()-borderSize)
	height = max(1, m.height-statusBarHeight-borderSize)
	return width, height
}

func (m *Model) relayout() {
	w, _ := m.contentSize()
	m.layout = document.NewLayout(m.doc, w)
	m.pane.vp.SetContent(m.renderContent())
}

func (m *Model) currentLayout() *document.Layout {
	return m.layout
}

// rebuildTracker disposes the current tracker and starts a new one with a
// fresh ID over the current layout.
func (m *Model) rebuildTracker() {
	m.disposeTracker()

	id := uuid.NewString()
	logger := m.logger.WithDocument(m.path).WithTracker(id)

	sections := document.Sections(m.currentLayout, m.pane.offset, m.filter.Match)
	tracker, err := spy.New(sections, spy.Deps{
		Observer:  m.observer,
		Viewport:  m.pane,
		Scheduler: m.sched,
		Scroll:    m.scroll,
	},
		spy.WithThreshold(m.cfg.Spy.Threshold),
		spy.WithActivationMargin(m.cfg.TUI.ActivationMargin),
		spy.WithThrottleWindow(m.cfg.Spy.ThrottleWindow()),
		spy.WithLogger(logger),
		spy.WithOnChange(func(c spy.Change) {
			m.active = c.Current
			m.bus.Publish(event.NewSectionActivatedEvent(id, c.Previous, c.Current, string(c.Source)))
		}),
	)
	if err != nil {
		// Config validation rejects bad tracker options before we get here.
		m.lastErr = err
		logger.Error("failed to start tracker", "error", err)
		return
	}

	m.tracker = tracker
	m.trackerID = id
	if key, ok := tracker.Active(); ok {
		m.active = key
	}
	m.observer.Check()
}

func (m *Model) disposeTracker() {
	if m.tracker == nil {
		return
	}
	m.tracker.Dispose()
	m.bus.Publish(event.NewTrackerDisposedEvent(m.trackerID, m.tracker.Stats().Activations))
	m.tracker = nil
	m.trackerID = ""
	m.active = ""
}

func (m *Model) scrollBy(delta int) {
	if m.pane.scrollBy(delta) {
		m.notifyScrolled()
	}
}

func (m *Model) scrollTo(line int) {
	if m.pane.scrollTo(line) {
		m.notifyScrolled()
	}
}

// notifyScrolled tells both signal paths that geometry changed: the bus
// feeds the tracker's scroll listener and Check re-measures visibility.
func (m *Model) notifyScrolled() {
	m.bus.Publish(event.NewScrolledEvent(m.pane.ScrollOffset(), m.pane.ViewportHeight()))
	m.observer.Check()
}

// jump scrolls to the start of the tracked section dir steps away from the
// active one. Moving backwards from inside a section first returns to its
// start.
func (m *Model) jump(dir int) {
	if m.tracker == nil || m.layout == nil {
		return
	}
	keys := m.tracker.Keys()
	if len(keys) == 0 {
		return
	}

	idx := -1
	for i, k := range keys {
		if k == m.active {
			idx = i
			break
		}
	}

	if dir < 0 && idx >= 0 {
		if r, ok := m.layout.Range(keys[idx]); ok && m.pane.offset() > r.Start {
			m.scrollTo(r.Start)
			return
		}
	}

	next := min(max(idx+dir, 0), len(keys)-1)
	if r, ok := m.layout.Range(keys[next]); ok {
		m.scrollTo(r.Start)
	}
}

// reload re-reads the document and rebuilds the tracker. A failed reload
// keeps the previous document on screen.
func (m *Model) reload() {
	if m.path == "" {
		return
	}
	doc, err := document.Load(m.path, m.cfg.Document.HeadingLevel)
	if err != nil {
		m.lastErr = err
		m.logger.Warn("reload failed", "path", m.path, "error", err)
		m.bus.Publish(event.NewDocumentReloadedEvent(m.path, 0, err))
		return
	}

	m.doc = doc
	m.lastErr = nil
	m.reloads++
	if !m.ready {
		return
	}
	m.relayout()
	m.pane.scrollTo(m.pane.offset())
	m.rebuildTracker()
	m.logger.Info("document reloaded", "path", m.path, "sections", len(doc.Sections))
	m.bus.Publish(event.NewDocumentReloadedEvent(m.path, len(doc.Sections), nil))
}

// Active returns the active section key, or "" before the first activation.
func (m *Model) Active() string {
	return m.active
}

// TrackerID returns the ID of the live tracker.
func (m *Model) TrackerID() string {
	return m.trackerID
}

// Close disposes the tracker.
func (m *Model) Close() {
	m.disposeTracker()
}

func (m *Model) statusText() string {
	if m.tracker == nil {
		return "no tracker"
	}
	stats := m.tracker.Stats()
	active := m.active
	if active == "" {
		active = "-"
	}
	return fmt.Sprintf("%s  %d/%d sections  %d activations",
		active, m.activeIndex()+1, len(m.tracker.Keys()), stats.Activations)
}

func (m *Model) activeIndex() int {
	if m.tracker == nil {
		return -1
	}
	for i, k := range m.tracker.Keys() {
		if k == m.active {
			return i
		}
	}
	return -1
}

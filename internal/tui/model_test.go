package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/sectionspy/internal/config"
	"github.com/Iron-Ham/sectionspy/internal/document"
	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/event"
	"github.com/Iron-Ham/sectionspy/internal/spy"
)

// testMarkdown builds a document whose sections are each 30 lines tall.
func testMarkdown(titles ...string) string {
	var b strings.Builder
	for _, title := range titles {
		fmt.Fprintf(&b, "## %s\n", title)
		for i := 1; i < 30; i++ {
			fmt.Fprintf(&b, "%s line %d\n", title, i)
		}
	}
	return b.String()
}

func testConfig(margin string) *config.Config {
	cfg := config.Default()
	cfg.TUI.ActivationMargin = margin
	cfg.Watch.Enabled = false
	return cfg
}

// newTestModel returns a sized model over a 120-line document with a
// content pane 21 rows tall.
func newTestModel(t *testing.T, margin string) *Model {
	t.Helper()
	doc, err := document.Parse("guide.md", testMarkdown("Intro", "Install", "Usage", "API"), 2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, err := NewModel(Options{Document: doc, Config: testConfig(margin)})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 24})
	return m
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "pgdown":
			msg = tea.KeyMsg{Type: tea.KeyPgDown}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

// settle fires every pending scheduler timer.
func settle(m *Model) {
	for _, id := range m.sched.Pending() {
		m.Update(timerMsg{id: id})
	}
}

func TestModel_InitialActive(t *testing.T) {
	m := newTestModel(t, "0px")

	if m.tracker == nil {
		t.Fatal("tracker not built after first resize")
	}
	if got := m.Active(); got != "intro" {
		t.Errorf("Active() = %q, want intro", got)
	}
	if m.TrackerID() == "" {
		t.Error("TrackerID() is empty")
	}
	if got := m.pane.vp.Height; got != 21 {
		t.Errorf("pane height = %d, want 21", got)
	}
}

func TestModel_NotReadyBeforeResize(t *testing.T) {
	doc, err := document.Parse("guide.md", testMarkdown("Intro"), 2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, err := NewModel(Options{Document: doc, Config: testConfig("0px")})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}

	press(m, "j", "n")
	if m.tracker != nil {
		t.Error("tracker built before the window size was known")
	}
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}

func TestModel_BottomActivatesLast(t *testing.T) {
	m := newTestModel(t, "0px")

	press(m, "G")
	if got := m.pane.offset(); got != 99 {
		t.Fatalf("offset = %d, want 99", got)
	}
	if got := m.Active(); got != "api" {
		t.Errorf("Active() after G = %q, want api", got)
	}

	settle(m)
	if got := m.Active(); got != "api" {
		t.Errorf("Active() after scroll evaluation = %q, want api", got)
	}

	press(m, "g")
	if got := m.Active(); got != "intro" {
		t.Errorf("Active() after g = %q, want intro", got)
	}
}

func TestModel_NextPrev(t *testing.T) {
	m := newTestModel(t, "0px")

	press(m, "n")
	if got := m.pane.offset(); got != 30 {
		t.Errorf("offset after n = %d, want 30", got)
	}
	if got := m.Active(); got != "install" {
		t.Errorf("Active() after n = %q, want install", got)
	}

	press(m, "p")
	if got := m.Active(); got != "intro" {
		t.Errorf("Active() after p = %q, want intro", got)
	}

	// p inside a section returns to its start first.
	press(m, "n", "j", "j", "p")
	if got := m.pane.offset(); got != 30 {
		t.Errorf("offset after p from inside install = %d, want 30", got)
	}
	if got := m.Active(); got != "install" {
		t.Errorf("Active() = %q, want install", got)
	}
}

func TestModel_ScrollPathDrivesActivation(t *testing.T) {
	// The page-pixel default margin is larger than the pane, so nothing
	// ever intersects and only scroll evaluations move the active section.
	m := newTestModel(t, spy.DefaultActivationMargin)
	if got := m.Active(); got != "intro" {
		t.Fatalf("Active() = %q, want intro", got)
	}

	press(m, "pgdown", "pgdown")
	if got := m.pane.offset(); got != 42 {
		t.Fatalf("offset = %d, want 42", got)
	}
	if got := m.Active(); got != "intro" {
		t.Errorf("Active() before the throttle window = %q, want intro", got)
	}
	if got := len(m.sched.Pending()); got != 1 {
		t.Errorf("pending timers = %d, want 1", got)
	}

	settle(m)
	if got := m.Active(); got != "install" {
		t.Errorf("Active() after the throttle window = %q, want install", got)
	}

	stats := m.tracker.Stats()
	if stats.ScrollNotifications != 2 || stats.ScrollEvaluations != 1 || stats.DroppedNotifications != 1 {
		t.Errorf("stats = %+v, want 2 notifications, 1 evaluation, 1 dropped", stats)
	}
}

func TestModel_VisibilityPathActivates(t *testing.T) {
	// The viewer default keeps pane rows 1 to 10.5 of 21.
	m := newTestModel(t, config.Default().TUI.ActivationMargin)
	var activated []event.SectionActivatedEvent
	m.bus.Subscribe(event.TypeSectionActivated, func(e event.Event) {
		activated = append(activated, e.(event.SectionActivatedEvent))
	})

	// intro keeps rows 1-5 (4/30), install rows 5-10.5 (5.5/30). The
	// ratios are within tolerance and install's top is nearer.
	m.scrollTo(25)

	if got := m.Active(); got != "install" {
		t.Fatalf("Active() = %q, want install", got)
	}
	if len(activated) != 1 || activated[0].Source != string(spy.SourceVisibility) {
		t.Errorf("activated = %+v, want one visibility activation", activated)
	}
	if got := len(m.sched.Pending()); got != 1 {
		t.Errorf("pending timers = %d, want the scroll evaluation still queued", got)
	}
	if snap, ok := m.tracker.Snapshot("install"); !ok || !snap.IsIntersecting {
		t.Errorf("Snapshot(install) = %+v, %v, want intersecting", snap, ok)
	}

	settle(m)
	if got := m.Active(); got != "install" {
		t.Errorf("Active() after scroll evaluation = %q, want install", got)
	}
}

func TestModel_StartSection(t *testing.T) {
	doc, err := document.Parse("guide.md", testMarkdown("Intro", "Install", "Usage", "API"), 2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	m, err := NewModel(Options{Document: doc, Config: testConfig("0px"), Start: "usage"})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 24})

	if got := m.pane.offset(); got != 60 {
		t.Errorf("offset = %d, want 60", got)
	}
	if got := m.Active(); got != "usage" {
		t.Errorf("Active() = %q, want usage", got)
	}

	_, err = NewModel(Options{Document: doc, Config: testConfig("0px"), Start: "missing"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("NewModel() error = %v, want ErrNotFound", err)
	}
	var nf *errors.NotFoundError
	if !errors.As(err, &nf) || nf.ResourceID != "missing" {
		t.Errorf("error = %#v, want NotFoundError for missing", err)
	}
}

func TestModel_ResizeKeepsTracker(t *testing.T) {
	m := newTestModel(t, "0px")
	press(m, "G")
	id := m.TrackerID()

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if m.TrackerID() != id {
		t.Error("resize rebuilt the tracker")
	}
	if got := m.pane.offset(); got != 83 {
		t.Errorf("offset after resize = %d, want 83", got)
	}
	if got := m.Active(); got != "api" {
		t.Errorf("Active() after resize = %q, want api", got)
	}
}

func TestModel_NarrowTerminalHidesSidebar(t *testing.T) {
	m := newTestModel(t, "0px")
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 24})

	if got := m.sidebarWidth(); got != 0 {
		t.Errorf("sidebarWidth() = %d, want 0", got)
	}
	if got := m.pane.vp.Width; got != 38 {
		t.Errorf("pane width = %d, want 38", got)
	}
}

func TestModel_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.md")
	if err := os.WriteFile(path, []byte(testMarkdown("Intro", "Install")), 0644); err != nil {
		t.Fatal(err)
	}

	bus := event.NewBus()
	var reloaded []event.DocumentReloadedEvent
	var disposed int
	bus.Subscribe(event.TypeDocumentReloaded, func(e event.Event) {
		reloaded = append(reloaded, e.(event.DocumentReloadedEvent))
	})
	bus.Subscribe(event.TypeTrackerDisposed, func(event.Event) { disposed++ })

	m, err := NewModel(Options{Path: path, Config: testConfig("0px"), Bus: bus})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 24})
	first := m.TrackerID()

	if err := os.WriteFile(path, []byte(testMarkdown("Intro", "Install", "Extra")), 0644); err != nil {
		t.Fatal(err)
	}
	m.Update(reloadMsg{})

	if m.TrackerID() == first {
		t.Error("reload kept the old tracker")
	}
	if got := m.tracker.Keys(); len(got) != 3 || got[2] != "extra" {
		t.Errorf("Keys() = %v, want [intro install extra]", got)
	}
	if disposed != 1 {
		t.Errorf("tracker.disposed events = %d, want 1", disposed)
	}
	if len(reloaded) != 1 || reloaded[0].Sections != 3 || reloaded[0].Err != nil {
		t.Errorf("reload events = %+v", reloaded)
	}
	if got := m.Active(); got != "intro" {
		t.Errorf("Active() after reload = %q, want intro", got)
	}

	// A broken file keeps the previous document and tracker.
	second := m.TrackerID()
	if err := os.WriteFile(path, []byte("\n\n"), 0644); err != nil {
		t.Fatal(err)
	}
	press(m, "r")
	if m.TrackerID() != second {
		t.Error("failed reload replaced the tracker")
	}
	if !errors.Is(m.lastErr, errors.ErrDocumentEmpty) {
		t.Errorf("lastErr = %v, want ErrDocumentEmpty", m.lastErr)
	}
	if len(reloaded) != 2 || reloaded[1].Err == nil {
		t.Errorf("failed reload event missing: %+v", reloaded)
	}
}

func TestModel_Include(t *testing.T) {
	doc, err := document.Parse("guide.md", testMarkdown("Intro", "Install", "Usage", "API"), 2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg := testConfig("0px")
	cfg.Document.Include = []string{"install", "api"}
	m, err := NewModel(Options{Document: doc, Config: cfg})
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 24})

	if got := m.tracker.Keys(); len(got) != 2 || got[0] != "install" || got[1] != "api" {
		t.Fatalf("Keys() = %v, want [install api]", got)
	}
	// Neither tracked section contains the trigger, so the first wins.
	if got := m.Active(); got != "install" {
		t.Errorf("Active() = %q, want install", got)
	}

	press(m, "n")
	if got := m.pane.offset(); got != 90 {
		t.Errorf("offset after n = %d, want 90", got)
	}
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, "0px")
	var events []string
	m.bus.SubscribeAll(func(e event.Event) { events = append(events, e.EventType()) })

	cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q command produced %T, want tea.QuitMsg", cmd())
	}
	if m.tracker != nil {
		t.Error("tracker not disposed on quit")
	}
	if m.View() != "" {
		t.Error("View() not empty after quit")
	}
	if len(events) != 1 || events[0] != event.TypeTrackerDisposed {
		t.Errorf("events = %v, want [%s]", events, event.TypeTrackerDisposed)
	}
}

func TestModel_PublishesEvents(t *testing.T) {
	m := newTestModel(t, "0px")

	var scrolled []event.ScrolledEvent
	var activated []event.SectionActivatedEvent
	m.bus.Subscribe(event.TypeScrolled, func(e event.Event) {
		scrolled = append(scrolled, e.(event.ScrolledEvent))
	})
	m.bus.Subscribe(event.TypeSectionActivated, func(e event.Event) {
		activated = append(activated, e.(event.SectionActivatedEvent))
	})

	press(m, "n")

	if len(scrolled) != 1 || scrolled[0].Offset != 30 || scrolled[0].Height != 21 {
		t.Errorf("scrolled events = %+v", scrolled)
	}
	if len(activated) != 1 {
		t.Fatalf("activated events = %d, want 1", len(activated))
	}
	got := activated[0]
	if got.Previous != "intro" || got.Key != "install" || got.Source != string(spy.SourceVisibility) || got.TrackerID != m.TrackerID() {
		t.Errorf("activated = %+v", got)
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t, "0px")
	view := m.View()

	for _, want := range []string{"guide.md", "▸", "Intro", "Install", "intro  1/4 sections"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 24 {
		t.Errorf("View() has %d lines, want 24", lines)
	}
}

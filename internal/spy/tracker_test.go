package spy

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/Iron-Ham/sectionspy/internal/errors"
)

// threeSections is the layout [0,300) [300,700) [700,1200) in an 800px
// viewport.
func threeSections() *harness {
	h := newHarness(800)
	h.page.add("intro", 0, 300).add("usage", 300, 400).add("api", 700, 500)
	return h
}

func mustStart(t *testing.T, h *harness, opts ...Option) *Tracker {
	t.Helper()
	tr, err := h.start(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(tr.Dispose)
	return tr
}

func assertActive(t *testing.T, tr *Tracker, want string) {
	t.Helper()
	got, ok := tr.Active()
	if !ok {
		t.Fatalf("Active() = none, want %q", want)
	}
	if got != want {
		t.Fatalf("Active() = %q, want %q", got, want)
	}
}

func TestTracker_InitialActivation(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)

	// Trigger point 200 falls in [0,300).
	assertActive(t, tr, "intro")
	if len(h.changes) != 1 || h.changes[0].Source != SourceInitial || h.changes[0].Previous != "" {
		t.Errorf("changes = %+v, want one initial change", h.changes)
	}
}

func TestTracker_InitialFallsBackToFirstSection(t *testing.T) {
	h := newHarness(800)
	h.page.add("a", 1000, 100).add("b", 1200, 100)
	tr := mustStart(t, h)

	assertActive(t, tr, "a")
}

func TestTracker_ScrollPicksLargerVisibleRatio(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)

	// Viewport [500,1300), trigger 700. usage shows 200/400 = 0.5, api shows
	// 500/500 = 1.0, and both contain the trigger point.
	h.scrollTo(500)

	assertActive(t, tr, "api")
	last := h.changes[len(h.changes)-1]
	if last.Source != SourceScroll || last.Previous != "intro" {
		t.Errorf("last change = %+v, want scroll from intro", last)
	}
}

func TestTracker_NothingIntersectingPicksClosestTop(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)

	h.observer.deliver(
		entry("intro", false, 0, -2300),
		entry("usage", false, 0, -2000),
		entry("api", false, 0, -1600),
	)

	assertActive(t, tr, "api")
}

func TestTracker_DetachedSectionNeverSelected(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)

	h.observer.deliver(
		entry("intro", true, 1, 0),
		entry("usage", true, 0.5, 300),
		entry("api", false, 0, 700),
	)
	assertActive(t, tr, "intro")

	h.page.detached["intro"] = true
	h.observer.deliver(entry("usage", true, 0.6, 300))
	assertActive(t, tr, "usage")

	// A later batch that still favours the detached section must not revive
	// it.
	h.observer.deliver(entry("intro", true, 1, 0))
	assertActive(t, tr, "usage")

	h.scrollTo(0)
	assertActive(t, tr, "usage")
}

func TestTracker_ActiveDetachedFallsBackToNearest(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)
	assertActive(t, tr, "intro")

	// Trigger 210 lies in no attached section; usage (top 300) is nearer
	// than api (top 700).
	h.page.detached["intro"] = true
	h.scrollTo(0)
	h.scrollTo(10)

	assertActive(t, tr, "usage")
	last := h.changes[len(h.changes)-1]
	if last.Previous != "intro" || last.Source != SourceScroll {
		t.Errorf("last change = %+v, want scroll from intro", last)
	}
}

func TestTracker_ActiveDetachedDuringVisibilityBatch(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)

	h.page.detached["intro"] = true
	h.vp.offset = 600
	h.observer.deliver(entry("intro", true, 1, 0))

	// Trigger 800: api (top 700) is nearer than usage (top 300).
	assertActive(t, tr, "api")
	if last := h.changes[len(h.changes)-1]; last.Source != SourceVisibility {
		t.Errorf("last source = %q, want visibility", last.Source)
	}
}

func TestTracker_DuplicateKeysKeepFirst(t *testing.T) {
	h := newHarness(800)
	h.page.add("a", 0, 100).add("b", 100, 100)
	sections := h.page.sections()
	sections = append(sections, Section{Key: "a", Boundary: func() (Rect, bool) { return Rect{Top: 5000, Height: 10}, true }})

	tr, err := New(sections, h.deps())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tr.Dispose()

	if got := tr.Keys(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
	if len(h.observer.keys) != 2 {
		t.Errorf("observed %d sections, want 2", len(h.observer.keys))
	}
}

func TestTracker_UnregisteredKeyIgnored(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)

	h.observer.deliver(entry("ghost", true, 1, 0), entry("intro", true, 0.75, -50))

	assertActive(t, tr, "intro")
	if got := tr.Stats().IgnoredEntries; got != 1 {
		t.Errorf("IgnoredEntries = %d, want 1", got)
	}
	if _, ok := tr.Snapshot("ghost"); ok {
		t.Error("Snapshot(ghost) recorded an unregistered key")
	}
	if snap, ok := tr.Snapshot("intro"); !ok || snap.IntersectionRatio != 0.75 || snap.ViewportTop != -50 {
		t.Errorf("Snapshot(intro) = %+v, %v", snap, ok)
	}
	if _, ok := tr.Snapshot("api"); ok {
		t.Error("Snapshot(api) exists before any observation")
	}
}

func TestTracker_VisibilityTieBreak(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    string
	}{
		{
			name: "ratios within tolerance, nearer top wins",
			entries: []Entry{
				entry("intro", true, 0.6, -200),
				entry("usage", true, 0.5, 40),
			},
			want: "usage",
		},
		{
			name: "ratios apart, larger ratio wins",
			entries: []Entry{
				entry("intro", true, 0.9, -250),
				entry("usage", true, 0.5, 40),
			},
			want: "intro",
		},
		{
			name: "equal distance goes to earlier registration",
			entries: []Entry{
				entry("usage", true, 0.5, 50),
				entry("api", true, 0.5, -50),
			},
			want: "usage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 3 {
				h := threeSections()
				tr := mustStart(t, h)
				h.observer.deliver(tt.entries...)
				assertActive(t, tr, tt.want)
			}
		})
	}
}

func TestTracker_ThrottleBurst(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)

	for range 25 {
		h.scroll.emit()
	}
	if tr.Throttle() != ThrottleScheduled {
		t.Fatalf("Throttle() = %v, want scheduled", tr.Throttle())
	}
	h.clock.Advance(DefaultThrottleWindow)

	s := tr.Stats()
	if s.ScrollNotifications != 25 {
		t.Errorf("ScrollNotifications = %d, want 25", s.ScrollNotifications)
	}
	if s.ScrollEvaluations != 1 {
		t.Errorf("ScrollEvaluations = %d, want 1", s.ScrollEvaluations)
	}
	if s.DroppedNotifications != 24 {
		t.Errorf("DroppedNotifications = %d, want 24", s.DroppedNotifications)
	}
}

func TestTracker_ThrottleSpread(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h, WithThrottleWindow(50*time.Millisecond))

	for range 6 {
		h.scroll.emit()
		h.clock.Advance(50 * time.Millisecond)
	}

	if got := tr.Stats().ScrollEvaluations; got != 6 {
		t.Errorf("ScrollEvaluations = %d, want 6", got)
	}
}

func TestTracker_DisposeFreezesActiveKey(t *testing.T) {
	h := threeSections()
	tr := mustStart(t, h)
	listener := h.observer.listener

	h.vp.offset = 500
	h.scroll.emit()
	tr.Dispose()

	if h.clock.Pending() != 0 {
		t.Errorf("Pending() = %d after Dispose, want 0", h.clock.Pending())
	}
	if len(h.observer.keys) != 0 {
		t.Errorf("%d subscriptions left after Dispose", len(h.observer.keys))
	}
	if h.scroll.removed != 1 {
		t.Errorf("scroll listener removed %d times, want 1", h.scroll.removed)
	}

	h.clock.Advance(time.Second)
	listener.Intersections([]Entry{entry("api", true, 1, 0)})
	h.scroll.emit()
	h.clock.Advance(time.Second)

	assertActive(t, tr, "intro")
	if !tr.Disposed() {
		t.Error("Disposed() = false")
	}

	tr.Dispose()
	if h.scroll.removed != 1 {
		t.Errorf("second Dispose removed the listener again")
	}
}

func TestTracker_Inert(t *testing.T) {
	h := newHarness(800)
	h.page.add("gone", 0, 100)
	h.page.detached["gone"] = true
	tr := mustStart(t, h)

	if key, ok := tr.Active(); ok {
		t.Errorf("Active() = %q, want none", key)
	}
	h.scrollTo(0)
	if _, ok := tr.Active(); ok {
		t.Error("inert tracker activated on scroll")
	}
	if len(h.observer.keys) != 0 {
		t.Errorf("inert tracker observed %d sections", len(h.observer.keys))
	}
}

func TestTracker_ObserveOptions(t *testing.T) {
	h := threeSections()
	mustStart(t, h, WithThreshold(0.5), WithActivationMargin("-10px 0px"))

	if got := h.observer.opts.Thresholds; !slices.Equal(got, []float64{0, 0.5, 1}) {
		t.Errorf("Thresholds = %v, want [0 0.5 1]", got)
	}
	top, bottom := h.observer.opts.Margin.Bounds(800)
	if top != 10 || bottom != 790 {
		t.Errorf("Bounds(800) = (%v, %v), want (10, 790)", top, bottom)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		deps func(h *harness) Deps
		want error
	}{
		{
			name: "threshold above one",
			opts: []Option{WithThreshold(1.5)},
			want: errors.ErrInvalidThreshold,
		},
		{
			name: "threshold NaN",
			opts: []Option{WithThreshold(math.NaN())},
			want: errors.ErrInvalidThreshold,
		},
		{
			name: "bad margin",
			opts: []Option{WithActivationMargin("10em")},
			want: errors.ErrInvalidMargin,
		},
		{
			name: "negative window",
			opts: []Option{WithThrottleWindow(-time.Second)},
			want: errors.ErrInvalidThrottle,
		},
		{
			name: "missing scheduler",
			deps: func(h *harness) Deps {
				d := h.deps()
				d.Scheduler = nil
				return d
			},
			want: errors.ErrMissingDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := threeSections()
			deps := h.deps()
			if tt.deps != nil {
				deps = tt.deps(h)
			}
			_, err := New(h.page.sections(), deps, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestThresholds(t *testing.T) {
	tests := []struct {
		in   float64
		want []float64
	}{
		{0.25, []float64{0, 0.25, 0.5, 1}},
		{0.75, []float64{0, 0.5, 0.75, 1}},
		{0.5, []float64{0, 0.5, 1}},
		{0, []float64{0, 0.5, 1}},
	}
	for _, tt := range tests {
		if got := Thresholds(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("Thresholds(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

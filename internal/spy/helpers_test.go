package spy

import "github.com/Iron-Ham/sectionspy/internal/clock"

// fakeViewport is a mutable scroll state.
type fakeViewport struct {
	offset float64
	height float64
}

func (v *fakeViewport) ScrollOffset() float64   { return v.offset }
func (v *fakeViewport) ViewportHeight() float64 { return v.height }

// page lays out sections in document coordinates and reports them relative
// to the viewport, the way a host's bounding rect would.
type page struct {
	vp       *fakeViewport
	keys     []string
	tops     map[string]float64
	heights  map[string]float64
	detached map[string]bool
}

func newPage(vp *fakeViewport) *page {
	return &page{
		vp:       vp,
		tops:     make(map[string]float64),
		heights:  make(map[string]float64),
		detached: make(map[string]bool),
	}
}

func (p *page) add(key string, top, height float64) *page {
	p.keys = append(p.keys, key)
	p.tops[key] = top
	p.heights[key] = height
	return p
}

func (p *page) boundary(key string) BoundaryFunc {
	return func() (Rect, bool) {
		if p.detached[key] {
			return Rect{}, false
		}
		return Rect{Top: p.tops[key] - p.vp.offset, Height: p.heights[key]}, true
	}
}

func (p *page) sections() []Section {
	out := make([]Section, len(p.keys))
	for i, k := range p.keys {
		out[i] = Section{Key: k, Boundary: p.boundary(k)}
	}
	return out
}

// fakeObserver records subscriptions and lets tests push batches.
type fakeObserver struct {
	next       Subscription
	keys       map[Subscription]string
	opts       ObserveOptions
	listener   Listener
	unobserved []Subscription
}

func newFakeObserver() *fakeObserver {
	return &fakeObserver{keys: make(map[Subscription]string)}
}

func (o *fakeObserver) Observe(key string, _ BoundaryFunc, opts ObserveOptions, l Listener) Subscription {
	o.next++
	o.keys[o.next] = key
	o.opts = opts
	o.listener = l
	return o.next
}

func (o *fakeObserver) Unobserve(sub Subscription) {
	o.unobserved = append(o.unobserved, sub)
	delete(o.keys, sub)
}

func (o *fakeObserver) deliver(entries ...Entry) {
	o.listener.Intersections(entries)
}

// fakeScroll holds registered scroll callbacks. Removed callbacks are kept
// so tests can simulate a notification that was already queued.
type fakeScroll struct {
	fns     []func()
	removed int
}

func (s *fakeScroll) OnScroll(fn func()) func() {
	s.fns = append(s.fns, fn)
	return func() { s.removed++ }
}

func (s *fakeScroll) emit() {
	for _, fn := range s.fns {
		fn()
	}
}

type harness struct {
	vp       *fakeViewport
	page     *page
	observer *fakeObserver
	scroll   *fakeScroll
	clock    *clock.Virtual
	changes  []Change
}

func newHarness(height float64) *harness {
	vp := &fakeViewport{height: height}
	return &harness{
		vp:       vp,
		page:     newPage(vp),
		observer: newFakeObserver(),
		scroll:   &fakeScroll{},
		clock:    clock.NewVirtual(),
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Observer:  h.observer,
		Viewport:  h.vp,
		Scheduler: h.clock,
		Scroll:    h.scroll,
	}
}

func (h *harness) start(opts ...Option) (*Tracker, error) {
	opts = append([]Option{WithOnChange(func(c Change) { h.changes = append(h.changes, c) })}, opts...)
	return New(h.page.sections(), h.deps(), opts...)
}

// scrollTo moves the viewport, emits a notification and lets the throttle
// window elapse.
func (h *harness) scrollTo(offset float64) {
	h.vp.offset = offset
	h.scroll.emit()
	h.clock.Advance(DefaultThrottleWindow)
}

func entry(key string, intersecting bool, ratio, top float64) Entry {
	return Entry{Key: key, Snapshot: Snapshot{IsIntersecting: intersecting, IntersectionRatio: ratio, ViewportTop: top}}
}


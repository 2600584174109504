package event

// ScrollSource adapts a Bus to spy.ScrollSource: every ScrolledEvent becomes
// a scroll notification.
type ScrollSource struct {
	bus *Bus
}

// NewScrollSource creates a ScrollSource on bus.
func NewScrollSource(bus *Bus) *ScrollSource {
	return &ScrollSource{bus: bus}
}

// OnScroll registers fn for viewport.scrolled events. The returned func
// unsubscribes it and may be called more than once.
func (s *ScrollSource) OnScroll(fn func()) func() {
	id := s.bus.Subscribe(TypeScrolled, func(Event) { fn() })
	return func() {
		s.bus.Unsubscribe(id)
	}
}

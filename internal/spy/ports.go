package spy

import "time"

// Subscription identifies one Observe registration.
type Subscription uint64

// ObserveOptions configures how an Observer measures a section.
type ObserveOptions struct {
	// Thresholds are ascending intersection ratios. The observer reports a
	// section whenever its ratio crosses one of them.
	Thresholds []float64
	// Margin shrinks or grows the root bounds before intersecting.
	Margin Margin
}

// Listener receives observation batches. Observers batch entries per
// Listener, so implementations should be comparable (pointer receivers).
type Listener interface {
	Intersections(entries []Entry)
}

// Observer is the host's visibility-observation capability.
type Observer interface {
	Observe(key string, boundary BoundaryFunc, opts ObserveOptions, l Listener) Subscription
	Unobserve(sub Subscription)
}

// Viewport exposes the host's current scroll state.
type Viewport interface {
	ScrollOffset() float64
	ViewportHeight() float64
}

// Scheduler runs fn once after d. The returned cancel func prevents fn from
// running if it has not run yet; calling it more than once is harmless.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// ScrollSource delivers scroll notifications. remove unregisters fn.
type ScrollSource interface {
	OnScroll(fn func()) (remove func())
}

// Deps bundles the host capabilities a Tracker needs. All are required.
type Deps struct {
	Observer  Observer
	Viewport  Viewport
	Scheduler Scheduler
	Scroll    ScrollSource
}

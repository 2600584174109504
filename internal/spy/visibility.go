package spy

import "github.com/Iron-Ham/sectionspy/internal/logging"

// visibilityTracker owns one observer subscription per registered section
// and the latest snapshot for each.
type visibilityTracker struct {
	observer Observer
	registry *Registry
	opts     ObserveOptions
	logger   *logging.Logger

	subs      []Subscription
	snapshots map[string]Snapshot
	closed    bool

	// accept gates each batch and returns false once the tracker is
	// disposed. onBatch runs after a batch has been applied.
	accept  func() bool
	onBatch func()
	stats   *Stats
}

func newVisibilityTracker(observer Observer, registry *Registry, opts ObserveOptions, logger *logging.Logger, stats *Stats) *visibilityTracker {
	return &visibilityTracker{
		observer:  observer,
		registry:  registry,
		opts:      opts,
		logger:    logger,
		snapshots: make(map[string]Snapshot, registry.Len()),
		stats:     stats,
	}
}

func (v *visibilityTracker) start() {
	for _, key := range v.registry.Keys() {
		boundary, _ := v.registry.Boundary(key)
		v.subs = append(v.subs, v.observer.Observe(key, boundary, v.opts, v))
	}
}

// Intersections implements Listener.
func (v *visibilityTracker) Intersections(entries []Entry) {
	if v.closed || (v.accept != nil && !v.accept()) {
		return
	}

	v.stats.VisibilityBatches++
	for _, e := range entries {
		if !v.registry.Contains(e.Key) {
			v.stats.IgnoredEntries++
			v.logger.Debug("ignoring observation for unregistered key", "key", e.Key)
			continue
		}
		v.snapshots[e.Key] = e.Snapshot
	}

	if v.onBatch != nil {
		v.onBatch()
	}
}

// observations returns snapshots for sections that are still attached, in
// registration order.
func (v *visibilityTracker) observations() []observed {
	out := make([]observed, 0, len(v.snapshots))
	for i, key := range v.registry.Keys() {
		snap, ok := v.snapshots[key]
		if !ok {
			continue
		}
		if _, attached := v.registry.Rect(key); !attached {
			continue
		}
		out = append(out, observed{key: key, order: i, snap: snap})
	}
	return out
}

// snapshot returns the latest observation for key.
func (v *visibilityTracker) snapshot(key string) (Snapshot, bool) {
	s, ok := v.snapshots[key]
	return s, ok
}

func (v *visibilityTracker) close() {
	if v.closed {
		return
	}
	v.closed = true
	for _, sub := range v.subs {
		v.observer.Unobserve(sub)
	}
	v.subs = nil
}

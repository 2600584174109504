package spy

import (
	"fmt"
	"slices"
	"time"

	"github.com/Iron-Ham/sectionspy/internal/errors"
	"github.com/Iron-Ham/sectionspy/internal/logging"
)

// DefaultThreshold places the trigger point a quarter of the way down the
// viewport.
const DefaultThreshold = 0.25

// Option configures a Tracker.
type Option func(*trackerConfig)

type trackerConfig struct {
	threshold float64
	margin    string
	window    time.Duration
	onChange  func(Change)
	logger    *logging.Logger
}

// WithThreshold sets the activation threshold θ, a fraction in [0, 1].
func WithThreshold(threshold float64) Option {
	return func(c *trackerConfig) {
		c.threshold = threshold
	}
}

// WithActivationMargin sets the CSS-style margin applied to the root bounds
// for visibility observation.
func WithActivationMargin(margin string) Option {
	return func(c *trackerConfig) {
		c.margin = margin
	}
}

// WithThrottleWindow sets how often scroll notifications may trigger a
// scroll-mode evaluation. Zero selects DefaultThrottleWindow.
func WithThrottleWindow(d time.Duration) Option {
	return func(c *trackerConfig) {
		c.window = d
	}
}

// WithOnChange registers a callback invoked synchronously whenever the
// active key changes.
func WithOnChange(fn func(Change)) Option {
	return func(c *trackerConfig) {
		c.onChange = fn
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logging.Logger) Option {
	return func(c *trackerConfig) {
		c.logger = l
	}
}

// Thresholds returns the observation thresholds for activation threshold θ:
// [0, θ, 0.5, 1], sorted and de-duplicated.
func Thresholds(threshold float64) []float64 {
	ts := []float64{0, threshold, 0.5, 1}
	slices.Sort(ts)
	return slices.Compact(ts)
}

// Tracker reports the active section of a scrollable document.
type Tracker struct {
	registry   *Registry
	estimator  *Estimator
	visibility *visibilityTracker
	throttle   *ThrottleMonitor
	removeScrl func()

	onChange func(Change)
	logger   *logging.Logger

	active    string
	hasActive bool
	disposed  bool
	stats     Stats
}

// New registers sections and starts tracking. Sections detached at this
// moment are excluded for the tracker's lifetime; duplicate keys keep their
// first occurrence. With no usable sections the tracker is inert and Active
// always reports false.
//
// New returns an error for invalid options or missing dependencies.
func New(sections []Section, deps Deps, opts ...Option) (*Tracker, error) {
	cfg := trackerConfig{
		threshold: DefaultThreshold,
		margin:    DefaultActivationMargin,
		window:    DefaultThrottleWindow,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	if err := validateDeps(deps); err != nil {
		return nil, err
	}
	if cfg.threshold < 0 || cfg.threshold > 1 || cfg.threshold != cfg.threshold {
		return nil, errors.NewTrackerError(fmt.Sprintf("threshold %v", cfg.threshold), errors.ErrInvalidThreshold)
	}
	if cfg.window < 0 {
		return nil, errors.NewTrackerError(fmt.Sprintf("throttle window %s", cfg.window), errors.ErrInvalidThrottle)
	}
	if cfg.window == 0 {
		cfg.window = DefaultThrottleWindow
	}
	margin, err := ParseMargin(cfg.margin)
	if err != nil {
		return nil, errors.NewTrackerError("activation margin", err)
	}

	registry := NewRegistry(sections)
	t := &Tracker{
		registry:  registry,
		estimator: NewEstimator(registry, deps.Viewport, cfg.threshold),
		onChange:  cfg.onChange,
		logger:    cfg.logger,
	}

	for _, key := range registry.Duplicates() {
		t.logger.Warn("duplicate section key ignored", "key", key)
	}
	for _, key := range registry.Detached() {
		t.logger.Debug("section detached at registration, excluded", "key", key)
	}

	if registry.Len() == 0 {
		t.logger.Info("no attached sections, tracker is inert")
		t.throttle = NewThrottleMonitor(deps.Scheduler, cfg.window, func() {})
		return t, nil
	}

	t.visibility = newVisibilityTracker(deps.Observer, registry, ObserveOptions{
		Thresholds: Thresholds(cfg.threshold),
		Margin:     margin,
	}, t.logger, &t.stats)
	t.visibility.accept = func() bool { return !t.disposed }
	t.visibility.onBatch = t.arbitrateVisibility
	t.visibility.start()

	if key, ok := t.estimator.Initial(); ok {
		t.activate(key, SourceInitial)
	}

	t.throttle = NewThrottleMonitor(deps.Scheduler, cfg.window, t.evaluateScroll)
	t.removeScrl = deps.Scroll.OnScroll(t.handleScroll)

	t.logger.Debug("tracker started",
		"sections", registry.Len(),
		"threshold", cfg.threshold,
		"margin", margin.String(),
		"window_ms", cfg.window.Milliseconds(),
	)
	return t, nil
}

func validateDeps(deps Deps) error {
	var missing []string
	if deps.Observer == nil {
		missing = append(missing, "observer")
	}
	if deps.Viewport == nil {
		missing = append(missing, "viewport")
	}
	if deps.Scheduler == nil {
		missing = append(missing, "scheduler")
	}
	if deps.Scroll == nil {
		missing = append(missing, "scroll source")
	}
	if len(missing) > 0 {
		return errors.NewTrackerError(fmt.Sprintf("missing %v", missing), errors.ErrMissingDependency)
	}
	return nil
}

// Active returns the active key. It returns false until the first
// activation and forever for an inert tracker.
func (t *Tracker) Active() (string, bool) {
	return t.active, t.hasActive
}

// Keys returns the registered keys in registration order.
func (t *Tracker) Keys() []string {
	return t.registry.Keys()
}

// Stats returns activity counters.
func (t *Tracker) Stats() Stats {
	s := t.stats
	s.DroppedNotifications = t.throttle.Dropped()
	return s
}

// Snapshot returns the latest visibility observation for key.
func (t *Tracker) Snapshot(key string) (Snapshot, bool) {
	if t.visibility == nil {
		return Snapshot{}, false
	}
	return t.visibility.snapshot(key)
}

// Throttle exposes the scroll monitor's state, mainly for status displays.
func (t *Tracker) Throttle() ThrottleState {
	return t.throttle.State()
}

// Disposed reports whether Dispose has been called.
func (t *Tracker) Disposed() bool {
	return t.disposed
}

// Dispose releases the observer subscriptions, the scroll listener and any
// pending timer. After Dispose the active key never changes again, even if
// already-queued callbacks fire. It is safe to call more than once.
func (t *Tracker) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true

	if t.visibility != nil {
		t.visibility.close()
	}
	if t.removeScrl != nil {
		t.removeScrl()
		t.removeScrl = nil
	}
	t.throttle.Stop()

	t.logger.Debug("tracker disposed", "active", t.active, "activations", t.stats.Activations)
}

func (t *Tracker) handleScroll() {
	if t.disposed {
		return
	}
	t.stats.ScrollNotifications++
	t.throttle.Notify()
}

func (t *Tracker) evaluateScroll() {
	if t.disposed {
		return
	}
	t.stats.ScrollEvaluations++
	if key, ok := t.estimator.Scroll(); ok {
		t.activate(key, SourceScroll)
		return
	}
	t.replaceDetached(SourceScroll)
}

func (t *Tracker) arbitrateVisibility() {
	if t.disposed {
		return
	}
	if key, ok := pickVisible(t.visibility.observations()); ok {
		t.activate(key, SourceVisibility)
		return
	}
	t.replaceDetached(SourceVisibility)
}

// replaceDetached moves the active key off a section that has left the
// document, onto the nearest attached one.
func (t *Tracker) replaceDetached(source Source) {
	if !t.hasActive {
		return
	}
	if _, attached := t.registry.Rect(t.active); attached {
		return
	}
	if key, ok := t.estimator.Nearest(); ok {
		t.logger.Debug("active section detached", "key", t.active)
		t.activate(key, source)
	}
}

// activate is the single writer of the active key.
func (t *Tracker) activate(key string, source Source) {
	if t.disposed || !t.registry.Contains(key) {
		return
	}
	if t.hasActive && t.active == key {
		return
	}

	change := Change{Previous: t.active, Current: key, Source: source}
	t.active = key
	t.hasActive = true
	t.stats.Activations++

	t.logger.WithSource(string(source)).Debug("section activated", "key", key, "previous", change.Previous)
	if t.onChange != nil {
		t.onChange(change)
	}
}

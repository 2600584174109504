package spy

import "time"

// DefaultThrottleWindow bounds scroll-mode re-evaluation to ten per second.
const DefaultThrottleWindow = 100 * time.Millisecond

// ThrottleState is the monitor's scheduling state.
type ThrottleState int

const (
	// ThrottleIdle means no evaluation is pending; the next notification
	// schedules one.
	ThrottleIdle ThrottleState = iota
	// ThrottleScheduled means an evaluation will run when the window ends;
	// notifications are dropped until then.
	ThrottleScheduled
)

func (s ThrottleState) String() string {
	if s == ThrottleScheduled {
		return "scheduled"
	}
	return "idle"
}

// ThrottleMonitor turns a burst of notifications into at most one run per
// window. The first notification while idle schedules run at the end of the
// window. Notifications that arrive before it fires are dropped, not queued.
type ThrottleMonitor struct {
	scheduler Scheduler
	window    time.Duration
	run       func()

	state   ThrottleState
	cancel  func()
	stopped bool

	fired   int
	dropped int
}

// NewThrottleMonitor creates an idle monitor.
func NewThrottleMonitor(scheduler Scheduler, window time.Duration, run func()) *ThrottleMonitor {
	return &ThrottleMonitor{
		scheduler: scheduler,
		window:    window,
		run:       run,
	}
}

// Notify records a notification. It returns true when the call scheduled a
// new window and false when it was dropped.
func (m *ThrottleMonitor) Notify() bool {
	if m.stopped {
		return false
	}
	if m.state == ThrottleScheduled {
		m.dropped++
		return false
	}

	m.state = ThrottleScheduled
	m.cancel = m.scheduler.After(m.window, m.fire)
	return true
}

func (m *ThrottleMonitor) fire() {
	if m.stopped || m.state != ThrottleScheduled {
		return
	}
	m.state = ThrottleIdle
	m.cancel = nil
	m.fired++
	m.run()
}

// Stop cancels any pending run and ignores all later notifications.
// It is safe to call more than once.
func (m *ThrottleMonitor) Stop() {
	if m.stopped {
		return
	}
	m.stopped = true
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.state = ThrottleIdle
}

// State returns the current scheduling state.
func (m *ThrottleMonitor) State() ThrottleState {
	return m.state
}

// Fired returns how many runs have executed.
func (m *ThrottleMonitor) Fired() int {
	return m.fired
}

// Dropped returns how many notifications were dropped.
func (m *ThrottleMonitor) Dropped() int {
	return m.dropped
}

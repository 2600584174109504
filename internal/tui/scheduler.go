package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// teaScheduler implements spy.Scheduler on the Bubble Tea event loop.
// Every timer becomes a tea.Tick carrying its ID; callbacks run from
// Update, so tracker state is only ever touched on the UI goroutine.
//
// After cannot return a command to the runtime directly, so ticks are queued
// and drained by Update after each message.
type teaScheduler struct {
	next   uint64
	timers map[uint64]func()
	queued []tea.Cmd
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{timers: make(map[uint64]func())}
}

// After schedules fn. Cancelled IDs stay in flight as ticks and are dropped
// on arrival.
func (s *teaScheduler) After(d time.Duration, fn func()) func() {
	s.next++
	id := s.next
	s.timers[id] = fn
	s.queued = append(s.queued, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{id: id}
	}))
	return func() {
		delete(s.timers, id)
	}
}

// Fire runs the timer with the given ID. It returns false for cancelled or
// already-fired timers.
func (s *teaScheduler) Fire(id uint64) bool {
	fn, ok := s.timers[id]
	if !ok {
		return false
	}
	delete(s.timers, id)
	fn()
	return true
}

// Drain returns and clears the queued tick commands.
func (s *teaScheduler) Drain() []tea.Cmd {
	cmds := s.queued
	s.queued = nil
	return cmds
}

// Pending returns the IDs of live timers in scheduling order.
func (s *teaScheduler) Pending() []uint64 {
	ids := make([]uint64, 0, len(s.timers))
	for id := uint64(1); id <= s.next; id++ {
		if _, ok := s.timers[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Package clock provides a deterministic scheduler for driving trackers
// without wall-clock delays.
package clock

import (
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// epoch is where every virtual clock starts; Now reports time since it.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Virtual is a manually advanced clock backed by a clockwork fake clock.
// Timers registered with After fire only from Advance, on the caller's
// goroutine.
type Virtual struct {
	fake *clockwork.FakeClock

	mu     sync.Mutex
	seq    uint64
	timers []*timer
}

type timer struct {
	seq uint64
	due time.Time
	t   clockwork.Timer
	fn  func()
}

// NewVirtual returns a clock at time zero.
func NewVirtual() *Virtual {
	return &Virtual{fake: clockwork.NewFakeClockAt(epoch)}
}

// Now returns the elapsed virtual time.
func (v *Virtual) Now() time.Duration {
	return v.fake.Since(epoch)
}

// After schedules fn to run once the clock has advanced by d.
func (v *Virtual) After(d time.Duration, fn func()) func() {
	if d < 0 {
		d = 0
	}

	v.mu.Lock()
	v.seq++
	t := &timer{seq: v.seq, due: v.fake.Now().Add(d), t: v.fake.NewTimer(d), fn: fn}
	v.timers = append(v.timers, t)
	v.mu.Unlock()

	return func() {
		t.t.Stop()
		v.mu.Lock()
		defer v.mu.Unlock()
		v.timers = slices.DeleteFunc(v.timers, func(o *timer) bool { return o == t })
	}
}

// Advance moves the clock forward by d and runs every timer that falls due,
// in deadline order and FIFO among equal deadlines. Timers scheduled by a
// callback run in the same call when their deadline is within range.
func (v *Virtual) Advance(d time.Duration) {
	end := v.fake.Now().Add(d)

	for {
		t := v.popDue(end)
		if t == nil {
			break
		}
		if wait := v.fake.Until(t.due); wait > 0 {
			v.fake.Advance(wait)
		}
		// The fake timer has expired by now; drain it so the channel is
		// not left holding a stale tick.
		select {
		case <-t.t.Chan():
		default:
		}
		t.fn()
	}

	if wait := v.fake.Until(end); wait > 0 {
		v.fake.Advance(wait)
	}
}

// popDue removes and returns the earliest timer due by end.
func (v *Virtual) popDue(end time.Time) *timer {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.timers) == 0 {
		return nil
	}
	next := slices.MinFunc(v.timers, func(a, b *timer) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return int(a.seq) - int(b.seq)
	})
	if next.due.After(end) {
		return nil
	}
	v.timers = slices.DeleteFunc(v.timers, func(o *timer) bool { return o == next })
	return next
}

// Pending returns the number of timers that have neither fired nor been
// cancelled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

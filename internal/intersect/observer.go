// Package intersect implements spy.Observer by measuring section rectangles
// against the viewport on demand.
//
// Hosts without a native visibility API call Check after anything that can
// move content: a scroll, a resize or a reflow. Check delivers an entry for
// each subscription whose intersection state crossed a threshold since the
// previous check.
package intersect

import (
	"math"
	"sync"

	"github.com/Iron-Ham/sectionspy/internal/spy"
)

type subscription struct {
	id       spy.Subscription
	key      string
	boundary spy.BoundaryFunc
	opts     spy.ObserveOptions
	listener spy.Listener

	reported     bool
	bucket       int
	intersecting bool
}

// Observer is a geometric spy.Observer. It is safe for concurrent use, but
// listeners are always called from the goroutine running Check.
type Observer struct {
	mu       sync.Mutex
	viewport spy.Viewport
	nextID   spy.Subscription
	subs     []*subscription
}

// NewObserver creates an Observer that measures against viewport.
func NewObserver(viewport spy.Viewport) *Observer {
	return &Observer{viewport: viewport}
}

// Observe implements spy.Observer. Nothing is delivered until the next Check.
func (o *Observer) Observe(key string, boundary spy.BoundaryFunc, opts spy.ObserveOptions, l spy.Listener) spy.Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	o.subs = append(o.subs, &subscription{
		id:       o.nextID,
		key:      key,
		boundary: boundary,
		opts:     opts,
		listener: l,
	})
	return o.nextID
}

// Unobserve implements spy.Observer. Unknown or already removed
// subscriptions are ignored.
func (o *Observer) Unobserve(id spy.Subscription) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i], o.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of live subscriptions.
func (o *Observer) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

type batch struct {
	listener spy.Listener
	entries  []spy.Entry
}

// Check measures every subscription and delivers changed entries, one batch
// per listener in subscription order. It returns the number of entries
// delivered.
func (o *Observer) Check() int {
	o.mu.Lock()
	height := o.viewport.ViewportHeight()

	var batches []*batch
	total := 0
	for _, s := range o.subs {
		rect, ok := s.boundary()
		if !ok {
			continue
		}
		top, bottom := s.opts.Margin.Bounds(height)
		ratio, intersecting := Intersect(rect, top, bottom)
		bucket := Bucket(ratio, s.opts.Thresholds)

		if s.reported && bucket == s.bucket && intersecting == s.intersecting {
			continue
		}
		s.reported = true
		s.bucket = bucket
		s.intersecting = intersecting

		entry := spy.Entry{
			Key: s.key,
			Snapshot: spy.Snapshot{
				IsIntersecting:    intersecting,
				IntersectionRatio: ratio,
				ViewportTop:       rect.Top,
			},
		}
		b := findBatch(batches, s.listener)
		if b == nil {
			b = &batch{listener: s.listener}
			batches = append(batches, b)
		}
		b.entries = append(b.entries, entry)
		total++
	}
	o.mu.Unlock()

	// Listeners may Unobserve while handling a batch, so deliver unlocked.
	for _, b := range batches {
		b.listener.Intersections(b.entries)
	}
	return total
}

func findBatch(batches []*batch, l spy.Listener) *batch {
	for _, b := range batches {
		if b.listener == l {
			return b
		}
	}
	return nil
}

// Intersect returns the fraction of rect that lies within [top, bottom] and
// whether it intersects at all. A zero-height rect intersects when it lies
// within the bounds, with ratio 1.
func Intersect(rect spy.Rect, top, bottom float64) (ratio float64, intersecting bool) {
	if rect.Height <= 0 {
		if rect.Top >= top && rect.Top <= bottom {
			return 1, true
		}
		return 0, false
	}
	visible := math.Min(bottom, rect.Bottom()) - math.Max(top, rect.Top)
	if visible <= 0 {
		return 0, false
	}
	return math.Min(1, visible/rect.Height), true
}

// Bucket returns how many thresholds ratio has reached.
func Bucket(ratio float64, thresholds []float64) int {
	n := 0
	for _, t := range thresholds {
		if ratio >= t {
			n++
		}
	}
	return n
}

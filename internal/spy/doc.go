// Package spy decides which section of a scrollable document is "active".
//
// A [Tracker] combines two signals:
//
//   - Visibility: an [Observer] reports, per section, whether it intersects
//     the (margin-adjusted) viewport and by how much. Every batch of
//     observations is arbitrated immediately. This is the preferred signal.
//   - Position: on construction, and again at most once per throttle window
//     after scroll notifications, the tracker estimates the active section
//     from the trigger point (scroll offset plus a fraction of the viewport
//     height). This covers the time before the observer first fires and the
//     gaps between observations.
//
// Whichever signal fires last wins. Both converge on the same answer for a
// settled viewport, so brief disagreement is tolerated.
//
// # Ports
//
// The tracker never touches a real screen. Hosts inject an [Observer], a
// [Viewport] accessor, a [Scheduler] and a [ScrollSource]. Tests drive all
// four deterministically; see internal/intersect for a geometric observer and
// internal/clock for a virtual scheduler.
//
// # Threading
//
// A Tracker is not safe for concurrent use. All callbacks (observer batches,
// scroll notifications, timer expirations) must arrive on one goroutine,
// such as a bubbletea Update loop.
//
// # Lifecycle
//
// Sections are registered once, in [New]. A section whose boundary is
// detached at that moment is excluded for the tracker's lifetime. To pick up
// new sections, [Tracker.Dispose] the tracker and build a new one.
package spy

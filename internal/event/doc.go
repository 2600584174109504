// Package event provides a pub-sub event bus that decouples the viewer's
// components.
//
// The TUI publishes scroll and reload events without knowing who consumes
// them. The tracker listens for scrolls through [ScrollSource], and
// activations flow back out as [SectionActivatedEvent] for the status bar and
// the log.
//
// # Main Types
//
//   - [Event]: Interface that all events implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher, safe for concurrent use
//   - [ScrollSource]: Adapts a Bus to the tracker's scroll notification port
//
// # Event Types
//
//   - [ScrolledEvent] (viewport.scrolled): the scroll offset or viewport size changed
//   - [SectionActivatedEvent] (section.activated): the active section changed
//   - [DocumentReloadedEvent] (document.reloaded): the document was re-read from disk
//   - [TrackerDisposedEvent] (tracker.disposed): a tracker was torn down
//
// # Thread Safety
//
// Handlers are called synchronously on the publishing goroutine. A panicking
// handler is recovered and logged, and the remaining handlers still run.
//
// # Basic Usage
//
//	bus := event.NewBus(event.WithLogger(logger))
//
//	bus.Subscribe(event.TypeSectionActivated, func(e event.Event) {
//	    activated := e.(event.SectionActivatedEvent)
//	    log.Printf("now reading %s", activated.Key)
//	})
//
//	bus.Publish(event.NewScrolledEvent(120, 40))
package event

package event

import "time"

// Event types published by sectionspy.
const (
	TypeScrolled         = "viewport.scrolled"
	TypeSectionActivated = "section.activated"
	TypeDocumentReloaded = "document.reloaded"
	TypeTrackerDisposed  = "tracker.disposed"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "viewport.scrolled").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// ScrolledEvent is emitted whenever the viewport's scroll offset or size
// changes.
type ScrolledEvent struct {
	baseEvent
	Offset float64
	Height float64
}

// NewScrolledEvent creates a ScrolledEvent.
func NewScrolledEvent(offset, height float64) ScrolledEvent {
	return ScrolledEvent{
		baseEvent: newBaseEvent(TypeScrolled),
		Offset:    offset,
		Height:    height,
	}
}

// SectionActivatedEvent is emitted when the active section changes.
type SectionActivatedEvent struct {
	baseEvent
	TrackerID string
	Previous  string // empty on first activation
	Key       string
	Source    string // "initial", "visibility" or "scroll"
}

// NewSectionActivatedEvent creates a SectionActivatedEvent.
func NewSectionActivatedEvent(trackerID, previous, key, source string) SectionActivatedEvent {
	return SectionActivatedEvent{
		baseEvent: newBaseEvent(TypeSectionActivated),
		TrackerID: trackerID,
		Previous:  previous,
		Key:       key,
		Source:    source,
	}
}

// DocumentReloadedEvent is emitted after the document is re-read from disk.
type DocumentReloadedEvent struct {
	baseEvent
	Path     string
	Sections int
	Err      error // non-nil when the reload failed and the old content was kept
}

// NewDocumentReloadedEvent creates a DocumentReloadedEvent.
func NewDocumentReloadedEvent(path string, sections int, err error) DocumentReloadedEvent {
	return DocumentReloadedEvent{
		baseEvent: newBaseEvent(TypeDocumentReloaded),
		Path:      path,
		Sections:  sections,
		Err:       err,
	}
}

// TrackerDisposedEvent is emitted when a tracker is torn down.
type TrackerDisposedEvent struct {
	baseEvent
	TrackerID   string
	Activations int
}

// NewTrackerDisposedEvent creates a TrackerDisposedEvent.
func NewTrackerDisposedEvent(trackerID string, activations int) TrackerDisposedEvent {
	return TrackerDisposedEvent{
		baseEvent:   newBaseEvent(TypeTrackerDisposed),
		TrackerID:   trackerID,
		Activations: activations,
	}
}

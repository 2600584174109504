package spy

// Rect is the vertical extent of a section. Top is measured from the top of
// the viewport, like a bounding client rect: a section scrolled above the
// fold has a negative Top.
type Rect struct {
	Top    float64
	Height float64
}

// Bottom returns Top + Height.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// BoundaryFunc reports a section's current rectangle. It returns false when
// the section is not attached to the page. Providers are invoked on every
// evaluation and must be cheap and side-effect free.
type BoundaryFunc func() (Rect, bool)

// Section is a caller-registered region.
type Section struct {
	Key      string
	Boundary BoundaryFunc
}

// Snapshot is the latest visibility observation for one section.
type Snapshot struct {
	IsIntersecting    bool
	IntersectionRatio float64 // fraction of the section inside the root bounds, 0..1
	ViewportTop       float64 // Rect.Top at observation time
}

// Entry is one observation delivered by an Observer.
type Entry struct {
	Key string
	Snapshot
}

// Source identifies which signal produced an activation.
type Source string

const (
	SourceInitial    Source = "initial"
	SourceVisibility Source = "visibility"
	SourceScroll     Source = "scroll"
)

// Change describes an active-key transition. Previous is empty for the
// first activation.
type Change struct {
	Previous string
	Current  string
	Source   Source
}

// Stats counts tracker activity since construction.
type Stats struct {
	VisibilityBatches    int // observer deliveries handled
	IgnoredEntries       int // entries for keys that are not registered
	ScrollNotifications  int // raw scroll notifications received
	ScrollEvaluations    int // throttled scroll-mode evaluations run
	DroppedNotifications int // notifications dropped while a window was pending
	Activations          int // times the active key actually changed
}

package spy

// Measured is a section's rectangle at the moment it was measured.
type Measured struct {
	Key   string
	Order int // registration index, used for deterministic tie-breaks
	Rect  Rect
}

// Registry is the fixed, ordered set of sections a tracker works with.
// Construction drops sections that are detached at that moment, along with
// duplicate keys (the first occurrence wins).
type Registry struct {
	sections   []Section
	index      map[string]int
	duplicates []string
	detached   []string
}

// NewRegistry builds a registry from sections in registration order.
func NewRegistry(sections []Section) *Registry {
	r := &Registry{
		index: make(map[string]int, len(sections)),
	}

	for _, s := range sections {
		if _, dup := r.index[s.Key]; dup {
			r.duplicates = append(r.duplicates, s.Key)
			continue
		}
		if s.Boundary == nil {
			r.detached = append(r.detached, s.Key)
			continue
		}
		if _, ok := s.Boundary(); !ok {
			r.detached = append(r.detached, s.Key)
			continue
		}
		r.index[s.Key] = len(r.sections)
		r.sections = append(r.sections, s)
	}
	return r
}

// Len returns the number of registered sections.
func (r *Registry) Len() int {
	return len(r.sections)
}

// Keys returns registered keys in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.sections))
	for i, s := range r.sections {
		keys[i] = s.Key
	}
	return keys
}

// Contains reports whether key was registered.
func (r *Registry) Contains(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Order returns the registration index of key, or -1.
func (r *Registry) Order(key string) int {
	if i, ok := r.index[key]; ok {
		return i
	}
	return -1
}

// Duplicates returns keys that were rejected because they repeated an
// earlier key.
func (r *Registry) Duplicates() []string {
	return r.duplicates
}

// Detached returns keys that were dropped because their boundary was
// unavailable at construction.
func (r *Registry) Detached() []string {
	return r.detached
}

// Rect measures a single registered section. It returns false when the key is
// unknown or the section is currently detached.
func (r *Registry) Rect(key string) (Rect, bool) {
	i, ok := r.index[key]
	if !ok {
		return Rect{}, false
	}
	return r.sections[i].Boundary()
}

// Boundary returns the registered provider for key.
func (r *Registry) Boundary(key string) (BoundaryFunc, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.sections[i].Boundary, true
}

// Measure invokes every provider and returns the attached sections in
// registration order.
func (r *Registry) Measure() []Measured {
	out := make([]Measured, 0, len(r.sections))
	for i, s := range r.sections {
		rect, ok := s.Boundary()
		if !ok {
			continue
		}
		out = append(out, Measured{Key: s.Key, Order: i, Rect: rect})
	}
	return out
}

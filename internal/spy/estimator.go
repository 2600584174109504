package spy

import "math"

// scrollRatioTolerance is the strict (<) ratio difference under which two
// scroll-mode candidates are decided by distance to the trigger point.
const scrollRatioTolerance = 0.1

// Estimator infers the active section from scroll geometry alone.
type Estimator struct {
	registry  *Registry
	viewport  Viewport
	threshold float64
}

// NewEstimator creates an Estimator. threshold is the fraction of the
// viewport height, measured from its top, where the trigger point sits.
func NewEstimator(registry *Registry, viewport Viewport, threshold float64) *Estimator {
	return &Estimator{registry: registry, viewport: viewport, threshold: threshold}
}

// TriggerPoint returns the document coordinate of the activation point.
func (e *Estimator) TriggerPoint() float64 {
	return e.viewport.ScrollOffset() + e.viewport.ViewportHeight()*e.threshold
}

// placed is a measured section converted to document coordinates.
type placed struct {
	Measured
	top      float64 // document-absolute
	distance float64 // |top - trigger|
}

func (e *Estimator) containing() (s, h, t float64, out []placed) {
	s = e.viewport.ScrollOffset()
	h = e.viewport.ViewportHeight()
	t = s + h*e.threshold

	for _, m := range e.registry.Measure() {
		top := s + m.Rect.Top
		if top <= t && t <= top+m.Rect.Height {
			out = append(out, placed{Measured: m, top: top, distance: math.Abs(top - t)})
		}
	}
	return s, h, t, out
}

// Initial picks the containing section whose top is closest to the trigger
// point, or the first attached section when none contains it.
func (e *Estimator) Initial() (string, bool) {
	_, _, _, cands := e.containing()
	if len(cands) > 0 {
		best := cands[0]
		for _, c := range cands[1:] {
			if c.distance < best.distance {
				best = c
			}
		}
		return best.Key, true
	}

	measured := e.registry.Measure()
	if len(measured) == 0 {
		return "", false
	}
	return measured[0].Key, true
}

// Scroll picks the containing section with the largest visible fraction.
// Sections within scrollRatioTolerance of the best fraction are decided by
// distance to the trigger point. It returns false when no section contains
// the trigger point.
func (e *Estimator) Scroll() (string, bool) {
	s, h, _, cands := e.containing()
	if len(cands) == 0 {
		return "", false
	}

	ratios := make([]float64, len(cands))
	best := 0.0
	for i, c := range cands {
		ratios[i] = VisibleRatio(s, h, c.top, c.Rect.Height)
		best = math.Max(best, ratios[i])
	}

	winner := -1
	for i, c := range cands {
		if best-ratios[i] >= scrollRatioTolerance {
			continue
		}
		if winner < 0 || c.distance < cands[winner].distance {
			winner = i
		}
	}
	return cands[winner].Key, true
}

// Nearest picks the attached section whose top is closest to the trigger
// point, the earliest on ties. It returns false when every section is
// detached.
func (e *Estimator) Nearest() (string, bool) {
	s := e.viewport.ScrollOffset()
	t := e.TriggerPoint()

	best, found := Measured{}, false
	bestDistance := math.Inf(1)
	for _, m := range e.registry.Measure() {
		if d := math.Abs(s + m.Rect.Top - t); d < bestDistance {
			best, bestDistance, found = m, d, true
		}
	}
	return best.Key, found
}

// VisibleRatio returns the fraction of a section (document top, height)
// inside the viewport [s, s+h). Zero-height sections report 0.
func VisibleRatio(s, h, top, height float64) float64 {
	if height <= 0 {
		return 0
	}
	visibleTop := math.Max(0, s-top)
	visibleBottom := math.Min(height, s+h-top)
	return math.Max(0, visibleBottom-visibleTop) / height
}

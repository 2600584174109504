package spy

import "math"

// visibleRatioTolerance is how close two intersection ratios must be (<=)
// before the section nearer the viewport top wins instead.
const visibleRatioTolerance = 0.1

// floatSlack absorbs rounding in ratio differences such as 0.6-0.5.
const floatSlack = 1e-9

// observed is a section's latest snapshot together with its registration
// order.
type observed struct {
	key   string
	order int
	snap  Snapshot
}

// pickVisible arbitrates visibility snapshots. Among intersecting sections it
// takes every section within visibleRatioTolerance of the best ratio and
// picks the one whose top is closest to the viewport top. When nothing
// intersects it falls back to the section closest to the viewport, visible
// or not. Remaining ties go to the earlier registration. Input must be in
// registration order.
func pickVisible(all []observed) (string, bool) {
	var visible []observed
	for _, o := range all {
		if o.snap.IsIntersecting {
			visible = append(visible, o)
		}
	}

	if len(visible) == 0 {
		return closestToTop(all)
	}

	best := visible[0].snap.IntersectionRatio
	for _, o := range visible[1:] {
		best = math.Max(best, o.snap.IntersectionRatio)
	}

	var contenders []observed
	for _, o := range visible {
		if best-o.snap.IntersectionRatio <= visibleRatioTolerance+floatSlack {
			contenders = append(contenders, o)
		}
	}
	return closestToTop(contenders)
}

func closestToTop(cands []observed) (string, bool) {
	if len(cands) == 0 {
		return "", false
	}
	winner := cands[0]
	for _, o := range cands[1:] {
		if math.Abs(o.snap.ViewportTop) < math.Abs(winner.snap.ViewportTop) {
			winner = o
		}
	}
	return winner.key, true
}

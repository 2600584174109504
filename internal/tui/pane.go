package tui

import "github.com/charmbracelet/bubbles/viewport"

// pane is the scrollable content area. It is the tracker's spy.Viewport:
// offsets and heights are in terminal rows.
type pane struct {
	vp viewport.Model
}

func newPane() *pane {
	return &pane{vp: viewport.New(0, 0)}
}

func (p *pane) ScrollOffset() float64 {
	return float64(p.vp.YOffset)
}

func (p *pane) ViewportHeight() float64 {
	return float64(p.vp.Height)
}

// offset returns the current top line.
func (p *pane) offset() int {
	return p.vp.YOffset
}

// maxOffset is the largest offset that still fills the pane.
func (p *pane) maxOffset() int {
	return max(0, p.vp.TotalLineCount()-p.vp.Height)
}

// scrollTo moves to line n, clamped to the content. It reports whether the
// offset changed.
func (p *pane) scrollTo(n int) bool {
	n = min(max(n, 0), p.maxOffset())
	if n == p.vp.YOffset {
		return false
	}
	p.vp.SetYOffset(n)
	return true
}

// scrollBy moves by delta lines.
func (p *pane) scrollBy(delta int) bool {
	return p.scrollTo(p.vp.YOffset + delta)
}

func (p *pane) resize(width, height int) {
	p.vp.Width = width
	p.vp.Height = height
}

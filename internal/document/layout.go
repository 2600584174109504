package document

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/sectionspy/internal/spy"
)

// Range is the half-open line range [Start, End) a section occupies once
// laid out.
type Range struct {
	Key   string
	Level int
	Start int
	End   int
}

// Len returns the number of lines in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Layout is a document word-wrapped to a fixed width.
type Layout struct {
	width  int
	lines  []string
	ranges []Range
	index  map[string]int
}

// NewLayout wraps every section of doc to width columns. Code fences are
// wrapped like prose; a width below 1 leaves lines untouched.
func NewLayout(doc *Document, width int) *Layout {
	l := &Layout{
		width: width,
		index: make(map[string]int, len(doc.Sections)),
	}

	style := lipgloss.NewStyle()
	if width > 0 {
		style = style.Width(width)
	}

	for _, s := range doc.Sections {
		start := len(l.lines)
		for _, raw := range s.Lines {
			raw = strings.ReplaceAll(raw, "\t", "    ")
			if strings.TrimSpace(raw) == "" || width <= 0 {
				l.lines = append(l.lines, strings.TrimRight(raw, " "))
				continue
			}
			for _, wrapped := range strings.Split(style.Render(raw), "\n") {
				l.lines = append(l.lines, strings.TrimRight(wrapped, " "))
			}
		}
		l.index[s.Key] = len(l.ranges)
		l.ranges = append(l.ranges, Range{Key: s.Key, Level: s.Level, Start: start, End: len(l.lines)})
	}
	return l
}

// Width returns the wrap width.
func (l *Layout) Width() int {
	return l.width
}

// Lines returns the laid-out lines.
func (l *Layout) Lines() []string {
	return l.lines
}

// Height returns the total number of lines.
func (l *Layout) Height() int {
	return len(l.lines)
}

// Ranges returns the section ranges in document order.
func (l *Layout) Ranges() []Range {
	return l.ranges
}

// Range looks up the range for key.
func (l *Layout) Range(key string) (Range, bool) {
	i, ok := l.index[key]
	if !ok {
		return Range{}, false
	}
	return l.ranges[i], true
}

// At returns the section containing line, if any.
func (l *Layout) At(line int) (Range, bool) {
	for _, r := range l.ranges {
		if line >= r.Start && line < r.End {
			return r, true
		}
	}
	return Range{}, false
}

// Boundary returns a provider that measures key in whatever layout current
// returns, relative to the scroll offset. The section reports detached when
// the current layout no longer contains it, so a tracker survives a
// re-layout but never selects a section that disappeared.
func Boundary(current func() *Layout, key string, offset func() int) spy.BoundaryFunc {
	return func() (spy.Rect, bool) {
		l := current()
		if l == nil {
			return spy.Rect{}, false
		}
		r, ok := l.Range(key)
		if !ok {
			return spy.Rect{}, false
		}
		return spy.Rect{
			Top:    float64(r.Start - offset()),
			Height: float64(r.Len()),
		}, true
	}
}

// Sections builds tracker sections for every key in the layout that
// include accepts, in document order. A nil include accepts everything.
func Sections(current func() *Layout, offset func() int, include func(key string) bool) []spy.Section {
	l := current()
	if l == nil {
		return nil
	}
	out := make([]spy.Section, 0, len(l.ranges))
	for _, r := range l.ranges {
		if include != nil && !include(r.Key) {
			continue
		}
		out = append(out, spy.Section{Key: r.Key, Boundary: Boundary(current, r.Key, offset)})
	}
	return out
}

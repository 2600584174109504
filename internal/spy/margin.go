package spy

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Iron-Ham/sectionspy/internal/errors"
)

// DefaultActivationMargin ignores the top 100 rows of the viewport and its
// bottom half, so a section becomes active once it reaches the upper middle.
const DefaultActivationMargin = "-100px 0px -50% 0px"

// Unit is the unit of a margin Length.
type Unit int

const (
	UnitPixels Unit = iota
	UnitPercent
)

// Length is a single margin component.
type Length struct {
	Value float64
	Unit  Unit
}

// Resolve converts the length to pixels against base (the viewport
// dimension the margin applies to).
func (l Length) Resolve(base float64) float64 {
	if l.Unit == UnitPercent {
		return base * l.Value / 100
	}
	return l.Value
}

func (l Length) String() string {
	v := strconv.FormatFloat(l.Value, 'f', -1, 64)
	if l.Unit == UnitPercent {
		return v + "%"
	}
	return v + "px"
}

// Margin adjusts the root bounds used for visibility observation. Positive
// values grow the root, negative values shrink it, as with CSS margins.
// Tracking is vertical, so Left and Right are kept only for round-tripping.
type Margin struct {
	Top, Right, Bottom, Left Length
}

// ParseMargin parses CSS margin shorthand with one to four components, each
// "<number>px", "<number>%" or a bare "0". An empty string is a zero margin.
func ParseMargin(s string) (Margin, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Margin{}, nil
	}
	if len(fields) > 4 {
		return Margin{}, fmt.Errorf("%w: %q has %d components, want 1-4", errors.ErrInvalidMargin, s, len(fields))
	}

	lengths := make([]Length, len(fields))
	for i, f := range fields {
		l, err := parseLength(f)
		if err != nil {
			return Margin{}, fmt.Errorf("%w: %q: %v", errors.ErrInvalidMargin, s, err)
		}
		lengths[i] = l
	}

	switch len(lengths) {
	case 1:
		return Margin{lengths[0], lengths[0], lengths[0], lengths[0]}, nil
	case 2:
		return Margin{lengths[0], lengths[1], lengths[0], lengths[1]}, nil
	case 3:
		return Margin{lengths[0], lengths[1], lengths[2], lengths[1]}, nil
	default:
		return Margin{lengths[0], lengths[1], lengths[2], lengths[3]}, nil
	}
}

func parseLength(tok string) (Length, error) {
	var unit Unit
	num := tok
	switch {
	case strings.HasSuffix(tok, "px"):
		num = strings.TrimSuffix(tok, "px")
	case strings.HasSuffix(tok, "%"):
		num = strings.TrimSuffix(tok, "%")
		unit = UnitPercent
	case tok != "0":
		return Length{}, fmt.Errorf("component %q must end in px or %%", tok)
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || num == "" || math.IsNaN(v) || math.IsInf(v, 0) {
		return Length{}, fmt.Errorf("component %q is not a number", tok)
	}
	return Length{Value: v, Unit: unit}, nil
}

// Bounds returns the root's top and bottom edges, relative to the viewport
// top, after applying the margin to a viewport of the given height.
func (m Margin) Bounds(viewportHeight float64) (top, bottom float64) {
	return -m.Top.Resolve(viewportHeight), viewportHeight + m.Bottom.Resolve(viewportHeight)
}

func (m Margin) String() string {
	return strings.Join([]string{m.Top.String(), m.Right.String(), m.Bottom.String(), m.Left.String()}, " ")
}

// Package util provides small text helpers shared by the document loader and
// the terminal views.
package util

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI truncates a string to maxWidth visual columns, adding "..." if truncated.
// ANSI escape codes and wide characters are accounted for.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate includes the tail in the final width calculation
	return ansi.Truncate(s, maxWidth, "...")
}

// FitANSI truncates or right-pads s so it occupies exactly width columns.
func FitANSI(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) > width {
		if width <= 3 {
			return strings.Repeat(".", width)
		}
		s = ansi.Truncate(s, width, "...")
	}
	if pad := width - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// Slugify lowercases s, keeps letters and digits, and joins the remaining
// words with single hyphens: "Getting Started!" becomes "getting-started".
// Markdown emphasis and inline code markers are dropped.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range ansi.Strip(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(unicode.ToLower(r))
		case r == '_' || r == '*' || r == '`' || r == '\'':
			// markup and apostrophes vanish without splitting words
		default:
			pendingDash = true
		}
	}
	return b.String()
}

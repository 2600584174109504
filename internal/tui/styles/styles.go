// Package styles holds the lipgloss styles for the viewer, built from a
// named color palette.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains every style the viewer renders with.
type Styles struct {
	Palette *ColorPalette

	// Sidebar
	Sidebar       lipgloss.Style
	SidebarTitle  lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style
	SidebarMarker lipgloss.Style

	// Content
	Content lipgloss.Style
	Heading lipgloss.Style

	// Footer / status bar
	StatusBar lipgloss.Style
	StatusKey lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style
	HelpKey   lipgloss.Style
}

// New builds styles for the named theme. Unknown names use the default
// theme.
func New(theme string) *Styles {
	p := PaletteFor(theme)
	return &Styles{
		Palette: p,

		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		SidebarTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary).
			MarginBottom(1),
		SidebarItem: lipgloss.NewStyle().
			Foreground(p.Muted),
		SidebarActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Text).
			Background(p.Primary),
		SidebarMarker: lipgloss.NewStyle().
			Foreground(p.Primary),

		Content: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border),
		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Primary),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Text).
			Background(p.Surface).
			Padding(0, 1),
		StatusKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary).
			Background(p.Surface),
		Warning: lipgloss.NewStyle().
			Foreground(p.Warning),
		Muted: lipgloss.NewStyle().
			Foreground(p.Muted),
		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Secondary),
	}
}

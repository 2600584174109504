package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/sectionspy/internal/document"
	"github.com/Iron-Ham/sectionspy/internal/util"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	_, h := m.contentSize()
	content := m.styles.Content.Render(m.pane.vp.View())

	body := content
	if sw := m.sidebarWidth(); sw > 0 {
		sidebar := m.renderSidebar(sw-borderSize, h)
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

// renderContent styles heading lines for the pane.
func (m *Model) renderContent() string {
	lines := make([]string, len(m.layout.Lines()))
	copy(lines, m.layout.Lines())
	for _, r := range m.layout.Ranges() {
		if r.Key == document.PreambleKey || r.Len() == 0 {
			continue
		}
		lines[r.Start] = m.styles.Heading.Render(lines[r.Start])
	}
	return strings.Join(lines, "\n")
}

// renderSidebar lists every section, indented by heading level, with the
// active one highlighted. Sections the include filter drops are dimmed and
// carry no marker.
func (m *Model) renderSidebar(width, height int) string {
	inner := max(1, width-2) // horizontal padding
	var b strings.Builder
	b.WriteString(m.styles.SidebarTitle.Render(util.TruncateANSI(m.doc.Name, inner)))
	b.WriteString("\n")

	rows := 2 // title and its margin
	for _, r := range m.layout.Ranges() {
		if rows >= height {
			break
		}
		title := r.Key
		if s, ok := m.doc.Section(r.Key); ok && s.Title != "" {
			title = s.Title
		}
		indent := strings.Repeat("  ", max(0, r.Level-1))
		label := util.FitANSI(indent+title, inner-2)

		switch {
		case r.Key == m.active:
			b.WriteString(m.styles.SidebarMarker.Render("▸ "))
			b.WriteString(m.styles.SidebarActive.Render(label))
		case m.filter.Match(r.Key):
			b.WriteString("  ")
			b.WriteString(m.styles.SidebarItem.Render(label))
		default:
			b.WriteString("  ")
			b.WriteString(m.styles.Muted.Faint(true).Render(label))
		}
		b.WriteString("\n")
		rows++
	}

	return m.styles.Sidebar.
		Width(width).
		Height(height).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderStatusBar() string {
	left := m.styles.StatusKey.Render(" " + m.statusText() + " ")
	if m.lastErr != nil {
		left += " " + m.styles.Warning.Render(m.lastErr.Error())
	}

	var help []string
	for _, b := range m.keys.helpBindings() {
		h := b.Help()
		help = append(help, m.styles.HelpKey.Render(h.Key)+" "+m.styles.Muted.Render(h.Desc))
	}
	right := strings.Join(help, "  ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		return m.styles.StatusBar.Width(m.width).Render(util.TruncateANSI(left, max(1, m.width-2)))
	}
	return m.styles.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

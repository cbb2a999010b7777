package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// Panel is a bordered box with a title line. Badge is right-aligned on the
// title line and carries counts or the active filter.
type Panel struct {
	Title   string
	Badge   string
	Content string
	Width   int
	Height  int
	Focused bool
	Theme   theme.Theme
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	border := p.Theme.Border
	if p.Focused {
		border = p.Theme.BorderFocused
	}
	style := lipgloss.NewStyle().
		Width(p.Width).
		Height(p.Height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)

	content := p.Content
	if p.Title != "" {
		content = p.titleLine() + "\n" + content
	}
	return style.Render(content)
}

func (p *Panel) titleLine() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if p.Focused {
		titleStyle = titleStyle.Foreground(p.Theme.BorderFocused)
	}
	title := titleStyle.Render(p.Title)
	if p.Badge == "" {
		return title
	}

	avail := p.Width - lipgloss.Width(title) - 2
	if avail < 4 {
		return title
	}
	badge := lipgloss.NewStyle().Foreground(p.Theme.Metadata).
		Render(runewidth.Truncate(p.Badge, avail, "…"))
	gap := max(p.Width-lipgloss.Width(title)-lipgloss.Width(badge)-1, 1)
	return title + lipgloss.NewStyle().Width(gap).Render("") + badge
}

// ContentHeight is the number of lines left for Content under the title
func (p *Panel) ContentHeight() int {
	if p.Title == "" {
		return p.Height
	}
	return max(p.Height-1, 1)
}

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// ErrorOverlay is a modal error card dismissed with Esc or Enter
type ErrorOverlay struct {
	Width   int
	Theme   theme.Theme
	Title   string
	Message string
}

// NewErrorOverlay creates an empty overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Width: 60, Theme: th}
}

// SetError replaces the displayed error
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
}

// View renders the card
func (e *ErrorOverlay) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(e.Theme.Error).Render("✗ " + e.Title)
	body := lipgloss.NewStyle().Foreground(e.Theme.Foreground).Width(e.Width - 6).Render(e.Message)
	hint := lipgloss.NewStyle().Foreground(e.Theme.Metadata).Italic(true).Render("Esc/Enter: dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))
}

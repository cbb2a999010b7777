package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysnmp/internal/history"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// RerunHistoryMsg asks the app to issue a past operation again
type RerunHistoryMsg struct {
	Entry history.Entry
}

// CloseHistoryMsg is sent when the history list closes
type CloseHistoryMsg struct{}

// HistoryView lists recent operations, newest first
type HistoryView struct {
	Width  int
	Height int
	Theme  theme.Theme

	entries  []history.Entry
	selected int
	offset   int
}

// NewHistoryView creates an empty list
func NewHistoryView(th theme.Theme) *HistoryView {
	return &HistoryView{Width: 90, Height: 24, Theme: th}
}

// SetEntries replaces the listed operations
func (h *HistoryView) SetEntries(entries []history.Entry) {
	h.entries = entries
	h.selected = 0
	h.offset = 0
}

func (h *HistoryView) visible() int {
	return max(h.Height-8, 1)
}

// Update handles key input
func (h *HistoryView) Update(msg tea.KeyMsg) (*HistoryView, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return h, func() tea.Msg { return CloseHistoryMsg{} }
	case "up", "k":
		if h.selected > 0 {
			h.selected--
			h.offset = min(h.offset, h.selected)
		}
	case "down", "j":
		if h.selected < len(h.entries)-1 {
			h.selected++
			if h.selected >= h.offset+h.visible() {
				h.offset = h.selected - h.visible() + 1
			}
		}
	case "enter":
		if h.selected < len(h.entries) {
			e := h.entries[h.selected]
			return h, func() tea.Msg { return RerunHistoryMsg{Entry: e} }
		}
	}
	return h, nil
}

// View renders the list
func (h *HistoryView) View() string {
	title := lipgloss.NewStyle().
		Foreground(h.Theme.Background).
		Background(h.Theme.Info).
		Padding(0, 1).
		Bold(true).
		Render("Operation History")
	meta := lipgloss.NewStyle().Foreground(h.Theme.Metadata)
	sections := []string{title, meta.Padding(0, 1).Render("↑↓: Navigate  Enter: Run again  Esc: Close"), ""}

	if len(h.entries) == 0 {
		sections = append(sections, "No operations recorded yet.")
	}

	end := min(h.offset+h.visible(), len(h.entries))
	for i := h.offset; i < end; i++ {
		e := h.entries[i]
		status := lipgloss.NewStyle().Foreground(h.Theme.Success).Render("✓")
		if !e.Success {
			status = lipgloss.NewStyle().Foreground(h.Theme.Error).Render("✗")
		}
		line := fmt.Sprintf("%s %s %-8s %-14s %s %s",
			status,
			meta.Render(e.ExecutedAt.Format("01-02 15:04:05")),
			e.Kind,
			runewidth.Truncate(e.ProfileName, 14, "…"),
			lipgloss.NewStyle().Foreground(h.Theme.OID).Render(e.OID),
			meta.Render(fmt.Sprintf("%d rows, %s", e.Rows, e.Duration.Round(1e6))))
		if !e.Success && e.ErrorMessage != "" {
			line += "\n    " + lipgloss.NewStyle().Foreground(h.Theme.Error).
				Render(runewidth.Truncate(e.ErrorMessage, max(h.Width-10, 10), "…"))
		}

		style := lipgloss.NewStyle().Padding(0, 1)
		if i == h.selected {
			style = style.Background(h.Theme.Selection).Foreground(h.Theme.Foreground)
		}
		sections = append(sections, style.Render(line))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.Theme.BorderFocused).
		Width(h.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}

package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysnmp/internal/profile"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// ConnectProfileMsg asks the app to connect to a stored profile
type ConnectProfileMsg struct {
	Name string
}

// NewProfileMsg asks the app to open the profile form
type NewProfileMsg struct{}

// DeleteProfileMsg asks the app to delete a stored profile
type DeleteProfileMsg struct {
	Name string
}

// CloseProfilePickerMsg is sent when the picker closes
type CloseProfilePickerMsg struct{}

// ProfilePicker lists stored profiles, most recently used first
type ProfilePicker struct {
	Width int
	Theme theme.Theme

	entries  []profile.Entry
	selected int
}

// NewProfilePicker creates an empty picker
func NewProfilePicker(th theme.Theme) *ProfilePicker {
	return &ProfilePicker{Width: 60, Theme: th}
}

// SetEntries replaces the listed profiles, keeping the selection on the same
// name when possible
func (p *ProfilePicker) SetEntries(entries []profile.Entry) {
	current := p.Selected()
	p.entries = entries
	p.selected = 0
	for i, e := range entries {
		if e.Name == current {
			p.selected = i
		}
	}
}

// Selected returns the highlighted profile name
func (p *ProfilePicker) Selected() string {
	if p.selected < 0 || p.selected >= len(p.entries) {
		return ""
	}
	return p.entries[p.selected].Name
}

// Update handles key input
func (p *ProfilePicker) Update(msg tea.KeyMsg) (*ProfilePicker, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return p, func() tea.Msg { return CloseProfilePickerMsg{} }
	case "up", "k":
		if p.selected > 0 {
			p.selected--
		}
	case "down", "j":
		if p.selected < len(p.entries)-1 {
			p.selected++
		}
	case "a", "n":
		return p, func() tea.Msg { return NewProfileMsg{} }
	case "d", "x":
		if name := p.Selected(); name != "" {
			return p, func() tea.Msg { return DeleteProfileMsg{Name: name} }
		}
	case "enter":
		name := p.Selected()
		return p, func() tea.Msg { return ConnectProfileMsg{Name: name} }
	}
	return p, nil
}

// View renders the picker
func (p *ProfilePicker) View() string {
	title := lipgloss.NewStyle().
		Foreground(p.Theme.Background).
		Background(p.Theme.Info).
		Padding(0, 1).
		Bold(true).
		Render("Connect")
	meta := lipgloss.NewStyle().Foreground(p.Theme.Metadata)
	sections := []string{title, meta.Padding(0, 1).Render("Enter: Connect  a: New  d: Delete  Esc: Close"), ""}

	if len(p.entries) == 0 {
		sections = append(sections, "No profiles yet. Press 'a' to create one.")
	}
	for i, e := range p.entries {
		pr := e.ConnectionProfile
		line := fmt.Sprintf("%s  %s", pr.Name, meta.Render(fmt.Sprintf("%s %s", pr.Version, pr.Address())))
		if !e.LastUsed.IsZero() {
			line += meta.Render("  · " + e.LastUsed.Format("2006-01-02 15:04"))
		}
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == p.selected {
			style = style.Background(p.Theme.Selection).Foreground(p.Theme.Foreground)
		}
		sections = append(sections, style.Render(line))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Width(p.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}

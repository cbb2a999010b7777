package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// Search targets
const (
	SearchRows   = "rows"
	SearchModule = "module"
)

// SearchInputMsg is sent when the query changes (rows) or is submitted (module)
type SearchInputMsg struct {
	Query string
	Mode  string
	Final bool
}

// CloseSearchMsg is sent when search should be closed
type CloseSearchMsg struct{}

// SearchInput provides a search input box
type SearchInput struct {
	Input   textinput.Model
	Mode    string
	Theme   theme.Theme
	Width   int
	Visible bool
}

// NewSearchInput creates a new search input
func NewSearchInput(th theme.Theme) *SearchInput {
	ti := textinput.New()
	ti.Placeholder = "Search rows..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 40

	return &SearchInput{
		Input: ti,
		Mode:  SearchRows,
		Theme: th,
	}
}

// ToggleMode switches between row search and module lookup
func (s *SearchInput) ToggleMode() {
	if s.Mode == SearchRows {
		s.Mode = SearchModule
		s.Input.Placeholder = "Jump to MIB module..."
	} else {
		s.Mode = SearchRows
		s.Input.Placeholder = "Search rows..."
	}
}

// Reset clears the search input
func (s *SearchInput) Reset() {
	s.Input.SetValue("")
	if s.Mode != SearchRows {
		s.ToggleMode()
	}
}

// Update handles messages. Row searches are emitted on every edit so the
// table narrows while typing; module lookups only on Enter.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "tab":
			s.ToggleMode()
			return s, nil
		case "enter":
			return s, s.emit(true)
		case "esc":
			return s, func() tea.Msg { return CloseSearchMsg{} }
		}
	}

	before := s.Input.Value()
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	if s.Mode == SearchRows && s.Input.Value() != before {
		return s, tea.Batch(cmd, s.emit(false))
	}
	return s, cmd
}

func (s *SearchInput) emit(final bool) tea.Cmd {
	query, mode := s.Input.Value(), s.Mode
	if mode == SearchModule && query == "" {
		return nil
	}
	return func() tea.Msg {
		return SearchInputMsg{Query: query, Mode: mode, Final: final}
	}
}

// View renders the search input
func (s *SearchInput) View() string {
	modeIndicator := "[Rows]"
	modeColor := s.Theme.Success
	if s.Mode == SearchModule {
		modeIndicator = "[MIB]"
		modeColor = s.Theme.Info
	}

	modeStyle := lipgloss.NewStyle().
		Foreground(modeColor).
		Bold(true)

	inputWidth := s.Width - 20
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Padding(0, 1).
		Width(s.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Metadata).
		Italic(true)

	content := modeStyle.Render(modeIndicator) + " " + s.Input.View()
	helpText := helpStyle.Render("Tab: rows/MIB │ Enter: apply │ Esc: close")

	return boxStyle.Render(content + "\n" + helpText)
}

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// StatusBar is the top line: connection state, busy spinner and the last
// operation's outcome
type StatusBar struct {
	Width int
	Theme theme.Theme

	Profile     string
	Connected   bool
	Connecting  bool
	ConnectedAt time.Time
	Busy        bool
	Message     string
	Rows        int

	spinner spinner.Model
}

// NewStatusBar creates an idle status bar
func NewStatusBar(th theme.Theme) *StatusBar {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(th.Warning)
	return &StatusBar{Theme: th, spinner: s}
}

// Tick starts the spinner
func (sb *StatusBar) Tick() tea.Cmd {
	return sb.spinner.Tick
}

// Update advances the spinner while busy. Once idle the tick chain stops.
func (sb *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); !ok || !sb.Active() {
		return nil
	}
	var cmd tea.Cmd
	sb.spinner, cmd = sb.spinner.Update(msg)
	return cmd
}

// Active reports whether the spinner should run
func (sb *StatusBar) Active() bool {
	return sb.Busy || sb.Connecting
}

// View renders the bar
func (sb *StatusBar) View() string {
	var state string
	switch {
	case sb.Connecting:
		state = lipgloss.NewStyle().Foreground(sb.Theme.Warning).Render("◌ connecting " + sb.Profile)
	case sb.Connected:
		state = lipgloss.NewStyle().Foreground(sb.Theme.Success).Render("● " + sb.Profile)
		if !sb.ConnectedAt.IsZero() {
			state += lipgloss.NewStyle().Foreground(sb.Theme.Metadata).
				Render(" since " + sb.ConnectedAt.Format("15:04:05"))
		}
	default:
		state = lipgloss.NewStyle().Foreground(sb.Theme.Metadata).Render("○ disconnected")
	}

	left := "lazysnmp  " + state
	if sb.Active() {
		left += " " + sb.spinner.View()
	}

	right := fmt.Sprintf("%d rows", sb.Rows)
	if sb.Message != "" {
		right = sb.Message + "  │  " + right
	}

	avail := sb.Width - 4
	lw := lipgloss.Width(left)
	if lw+lipgloss.Width(right)+1 > avail {
		right = runewidth.Truncate(right, max(avail-lw-1, 0), "…")
	}
	gap := max(avail-lw-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Width(sb.Width).
		Background(sb.Theme.Selection).
		Foreground(sb.Theme.Foreground).
		Padding(0, 2).
		Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}

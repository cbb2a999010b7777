package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysnmp/internal/session"
	"github.com/rebeliceyang/lazysnmp/internal/snmp"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// OIDSubmitMsg asks the app to issue a query
type OIDSubmitMsg struct {
	Kind  session.OpKind
	OID   string
	Type  string
	Value string
}

// CloseOIDPromptMsg is sent when the prompt is cancelled
type CloseOIDPromptMsg struct{}

// OIDPrompt reads the target OID of a query. Set additionally asks for a value
// type and value. Up and down recall earlier OIDs.
type OIDPrompt struct {
	Width int
	Theme theme.Theme

	kind    session.OpKind
	oid     textinput.Model
	value   textinput.Model
	typeIdx int
	field   int // 0=oid, 1=type, 2=value

	history    []string
	historyIdx int
}

// NewOIDPrompt creates a hidden prompt
func NewOIDPrompt(th theme.Theme) *OIDPrompt {
	oid := textinput.New()
	oid.Placeholder = "1.3.6.1.2.1.1"
	oid.CharLimit = 256
	oid.Prompt = ""

	value := textinput.New()
	value.Placeholder = "value"
	value.CharLimit = 1024
	value.Prompt = ""

	return &OIDPrompt{Theme: th, oid: oid, value: value, historyIdx: -1}
}

// Open starts a prompt for kind seeded with target
func (p *OIDPrompt) Open(kind session.OpKind, target, typ string) tea.Cmd {
	p.kind = kind
	p.oid.SetValue(target)
	p.oid.CursorEnd()
	p.value.SetValue("")
	p.typeIdx = 0
	for i, t := range snmp.SetTypes {
		if strings.EqualFold(t, typ) {
			p.typeIdx = i
		}
	}
	p.field = 0
	p.historyIdx = -1
	p.value.Blur()
	return p.oid.Focus()
}

// Kind returns the operation being prompted for
func (p *OIDPrompt) Kind() session.OpKind {
	return p.kind
}

// SetHistory replaces the recall list, most recent first
func (p *OIDPrompt) SetHistory(oids []string) {
	p.history = oids
	p.historyIdx = -1
}

func (p *OIDPrompt) fields() int {
	if p.kind == session.OpSet {
		return 3
	}
	return 1
}

func (p *OIDPrompt) focus(field int) tea.Cmd {
	p.field = field
	p.oid.Blur()
	p.value.Blur()
	switch field {
	case 0:
		return p.oid.Focus()
	case 2:
		return p.value.Focus()
	}
	return nil
}

func (p *OIDPrompt) recall(delta int) {
	if len(p.history) == 0 {
		return
	}
	idx := p.historyIdx + delta
	if idx < -1 {
		idx = -1
	}
	if idx >= len(p.history) {
		idx = len(p.history) - 1
	}
	p.historyIdx = idx
	if idx == -1 {
		p.oid.SetValue("")
		return
	}
	p.oid.SetValue(p.history[idx])
	p.oid.CursorEnd()
}

// Update handles key input
func (p *OIDPrompt) Update(msg tea.Msg) (*OIDPrompt, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch key.String() {
	case "esc":
		return p, func() tea.Msg { return CloseOIDPromptMsg{} }
	case "tab":
		return p, p.focus((p.field + 1) % p.fields())
	case "shift+tab":
		return p, p.focus((p.field - 1 + p.fields()) % p.fields())
	case "enter":
		if p.field < p.fields()-1 {
			return p, p.focus(p.field + 1)
		}
		submit := OIDSubmitMsg{Kind: p.kind, OID: strings.TrimSpace(p.oid.Value())}
		if p.kind == session.OpSet {
			submit.Type = snmp.SetTypes[p.typeIdx]
			submit.Value = p.value.Value()
		}
		return p, func() tea.Msg { return submit }
	case "up", "down":
		if p.field == 0 {
			if key.String() == "up" {
				p.recall(1)
			} else {
				p.recall(-1)
			}
		}
		return p, nil
	case "left", "right":
		if p.field == 1 {
			delta := 1
			if key.String() == "left" {
				delta = -1
			}
			p.typeIdx = (p.typeIdx + delta + len(snmp.SetTypes)) % len(snmp.SetTypes)
			return p, nil
		}
	}

	var cmd tea.Cmd
	switch p.field {
	case 0:
		p.oid, cmd = p.oid.Update(msg)
	case 2:
		p.value, cmd = p.value.Update(msg)
	}
	return p, cmd
}

// View renders the prompt line
func (p *OIDPrompt) View() string {
	label := lipgloss.NewStyle().Foreground(p.Theme.Background).Background(p.Theme.Info).Bold(true).Padding(0, 1)
	dim := lipgloss.NewStyle().Foreground(p.Theme.Metadata)

	parts := []string{label.Render(strings.ToUpper(string(p.kind))), p.oid.View()}
	if p.kind == session.OpSet {
		typ := "‹ " + snmp.SetTypes[p.typeIdx] + " ›"
		if p.field == 1 {
			typ = lipgloss.NewStyle().Foreground(p.Theme.Info).Bold(true).Render(typ)
		} else {
			typ = dim.Render(typ)
		}
		parts = append(parts, typ, p.value.View())
	}
	parts = append(parts, dim.Render("enter: run │ ↑↓: history │ esc: cancel"))

	return lipgloss.NewStyle().
		Width(p.Width).
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(p.Theme.BorderFocused).
		Render(strings.Join(parts, "  "))
}

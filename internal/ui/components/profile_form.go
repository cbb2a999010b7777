package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/profile"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// ProfileSubmitMsg asks the app to persist the form's profile
type ProfileSubmitMsg struct {
	Fields profile.Fields
}

// CloseProfileFormMsg is sent when the form is cancelled
type CloseProfileFormMsg struct{}

type formField struct {
	label   string
	input   textinput.Model
	choices []string // non-empty for selector fields
	choice  int
	v3      bool // shown only for version 3
	v12     bool // shown only for versions 1 and 2
}

func (f *formField) value() string {
	if len(f.choices) > 0 {
		return f.choices[f.choice]
	}
	return f.input.Value()
}

// Field indices
const (
	fieldName = iota
	fieldTarget
	fieldPort
	fieldTimeout
	fieldTransport
	fieldRetries
	fieldVersion
	fieldCommunity
	fieldUser
	fieldAuthProto
	fieldAuthPass
	fieldPrivProto
	fieldPrivPass
	fieldCount
)

// ProfileForm collects a new connection profile. The name field is validated
// live against the stored profiles.
type ProfileForm struct {
	Width  int
	Height int
	Theme  theme.Theme

	builder *profile.Builder
	fields  []*formField
	active  int

	nameState profile.NameState
	nameErr   string // last failure to list the stored profiles
	err       string
}

// NewProfileForm creates an empty form validating names through builder
func NewProfileForm(builder *profile.Builder, th theme.Theme) *ProfileForm {
	text := func(placeholder string, secret bool) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 128
		ti.Width = 32
		if secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		return ti
	}

	f := &ProfileForm{
		Theme:   th,
		builder: builder,
		fields: []*formField{
			fieldName:      {label: "Name", input: text("core-switch", false)},
			fieldTarget:    {label: "Target", input: text(models.DefaultTarget, false)},
			fieldPort:      {label: "Port", input: text(fmt.Sprint(models.DefaultPort), false)},
			fieldTimeout:   {label: "Timeout (s)", input: text(fmt.Sprint(models.DefaultTimeout), false)},
			fieldTransport: {label: "Transport", choices: []string{string(models.TransportUDP), string(models.TransportTCP)}},
			fieldRetries:   {label: "Retries", input: text(fmt.Sprint(models.DefaultRetries), false)},
			fieldVersion:   {label: "Version", choices: []string{string(models.Version1), string(models.Version2c), string(models.Version3)}, choice: 1},
			fieldCommunity: {label: "Community", input: text(models.DefaultCommunity, true), v12: true},
			fieldUser:      {label: "User", input: text("", false), v3: true},
			fieldAuthProto: {label: "Auth protocol", choices: models.AuthProtocols, v3: true},
			fieldAuthPass:  {label: "Auth passphrase", input: text("", true), v3: true},
			fieldPrivProto: {label: "Priv protocol", choices: models.PrivProtocols, v3: true},
			fieldPrivPass:  {label: "Priv passphrase", input: text("", true), v3: true},
		},
	}
	f.focus(fieldName)
	f.validateName()
	return f
}

func (f *ProfileForm) version() string {
	return f.fields[fieldVersion].value()
}

func (f *ProfileForm) visible(i int) bool {
	field := f.fields[i]
	v3 := f.version() == string(models.Version3)
	return !(field.v3 && !v3) && !(field.v12 && v3)
}

func (f *ProfileForm) focus(i int) {
	for j, field := range f.fields {
		if j == i {
			field.input.Focus()
		} else {
			field.input.Blur()
		}
	}
	f.active = i
}

// move shifts focus to the next visible field in direction delta
func (f *ProfileForm) move(delta int) {
	i := f.active
	for {
		i = (i + delta + fieldCount) % fieldCount
		if f.visible(i) {
			f.focus(i)
			return
		}
	}
}

func (f *ProfileForm) validateName() {
	if f.builder == nil {
		f.nameState = profile.CheckName(f.fields[fieldName].value(), nil)
		return
	}
	state, err := f.builder.ValidateName(context.Background(), f.fields[fieldName].value())
	f.nameErr = ""
	if err != nil {
		f.nameErr = err.Error()
	}
	f.nameState = state
}

// NameState returns the live validation state of the name field
func (f *ProfileForm) NameState() profile.NameState {
	return f.nameState
}

// SetError shows a submit failure under the form
func (f *ProfileForm) SetError(err error) {
	if err == nil {
		f.err = ""
		return
	}
	f.err = err.Error()
}

// Fields returns the raw values; hidden payload fields are left empty
func (f *ProfileForm) Fields() profile.Fields {
	get := func(i int) string {
		if !f.visible(i) {
			return ""
		}
		return strings.TrimSpace(f.fields[i].value())
	}
	return profile.Fields{
		Name:           f.fields[fieldName].value(),
		Target:         get(fieldTarget),
		Port:           get(fieldPort),
		Timeout:        get(fieldTimeout),
		Transport:      get(fieldTransport),
		Retries:        get(fieldRetries),
		Version:        get(fieldVersion),
		Community:      get(fieldCommunity),
		UserName:       get(fieldUser),
		AuthProtocol:   get(fieldAuthProto),
		AuthPassphrase: get(fieldAuthPass),
		PrivProtocol:   get(fieldPrivProto),
		PrivPassphrase: get(fieldPrivPass),
	}
}

// Update handles key input
func (f *ProfileForm) Update(msg tea.Msg) (*ProfileForm, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}

	field := f.fields[f.active]
	switch key.String() {
	case "esc":
		return f, func() tea.Msg { return CloseProfileFormMsg{} }
	case "tab", "down":
		f.move(1)
		return f, nil
	case "shift+tab", "up":
		f.move(-1)
		return f, nil
	case "ctrl+s", "enter":
		if key.String() == "enter" && f.active != fieldCount-1 && f.active != fieldCommunity {
			f.move(1)
			return f, nil
		}
		f.validateName()
		if !f.nameState.CanSave() {
			return f, nil
		}
		fields := f.Fields()
		return f, func() tea.Msg { return ProfileSubmitMsg{Fields: fields} }
	case "left", "right", " ":
		if len(field.choices) > 0 {
			delta := 1
			if key.String() == "left" {
				delta = -1
			}
			field.choice = (field.choice + delta + len(field.choices)) % len(field.choices)
			return f, nil
		}
	}

	if len(field.choices) > 0 {
		return f, nil
	}

	var cmd tea.Cmd
	field.input, cmd = field.input.Update(msg)
	if f.active == fieldName {
		f.err = ""
		f.validateName()
	}
	return f, cmd
}

// View renders the form
func (f *ProfileForm) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(f.Theme.BorderFocused)
	labelStyle := lipgloss.NewStyle().Foreground(f.Theme.Metadata).Width(17)
	activeLabel := lipgloss.NewStyle().Foreground(f.Theme.Foreground).Bold(true).Width(17)
	choiceStyle := lipgloss.NewStyle().Foreground(f.Theme.Info)

	b.WriteString(titleStyle.Render("New SNMP Profile"))
	b.WriteString("\n\n")

	for i, field := range f.fields {
		if !f.visible(i) {
			continue
		}
		prefix, ls := "  ", labelStyle
		if i == f.active {
			prefix, ls = "> ", activeLabel
		}

		var value string
		if len(field.choices) > 0 {
			value = choiceStyle.Render("‹ " + field.value() + " ›")
		} else {
			value = field.input.View()
		}
		b.WriteString(prefix + ls.Render(field.label) + value + "\n")

		if i == fieldName {
			msg := f.nameState.Message()
			if f.nameErr != "" {
				msg = f.nameErr
			}
			if msg != "" {
				b.WriteString("  " + lipgloss.NewStyle().Foreground(f.Theme.Error).Render("  "+msg) + "\n")
			}
		}
	}

	b.WriteString("\n")
	if f.err != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(f.Theme.Error).Render(f.err))
		b.WriteString("\n")
	}

	save := lipgloss.NewStyle().Foreground(f.Theme.Success).Render("Ctrl+S: save")
	if !f.nameState.CanSave() {
		save = lipgloss.NewStyle().Foreground(f.Theme.Metadata).Strikethrough(true).Render("Ctrl+S: save")
	}
	help := lipgloss.NewStyle().Foreground(f.Theme.Metadata).Italic(true).
		Render("Tab/↑/↓: field │ ←/→: choose │ Esc: cancel │ ")
	b.WriteString(help + save)

	width := f.Width
	if width <= 0 {
		width = 64
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(f.Theme.BorderFocused).
		Padding(1, 2).
		Width(width).
		Render(b.String())
}

package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysnmp/internal/filter"
	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// ApplyFilterMsg is sent when a filter should be applied
type ApplyFilterMsg struct {
	Filter models.Filter
}

// CloseFilterBuilderMsg is sent when the filter builder should close
type CloseFilterBuilderMsg struct{}

// FilterBuilder builds a row filter over the result columns
type FilterBuilder struct {
	Width   int
	Height  int
	Theme   theme.Theme
	builder *filter.Builder

	filter          models.Filter
	currentIndex    int    // index in conditions list
	editMode        string // "", "column", "operator", "value"
	columnIndex     int
	operatorIndex   int
	valueInput      string
	validationError string

	availableOps []models.FilterOperator
	preview      string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder(th theme.Theme) *FilterBuilder {
	return &FilterBuilder{
		Width:   72,
		Height:  24,
		Theme:   th,
		builder: filter.NewBuilder(),
		filter: models.Filter{
			RootGroup: models.FilterGroup{Logic: "AND"},
		},
	}
}

// SetFilter seeds the builder with the filter currently applied
func (fb *FilterBuilder) SetFilter(f models.Filter) {
	if f.RootGroup.Logic == "" {
		f.RootGroup.Logic = "AND"
	}
	fb.filter = f
	fb.currentIndex = 0
	fb.editMode = ""
	fb.updatePreview()
}

// Filter returns the filter being edited
func (fb *FilterBuilder) Filter() models.Filter {
	return fb.filter
}

func (fb *FilterBuilder) column() string {
	return models.ResultColumns[fb.columnIndex]
}

// Update handles keyboard input
func (fb *FilterBuilder) Update(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch fb.editMode {
	case "":
		return fb.handleNavigationMode(msg)
	case "column":
		return fb.handleColumnMode(msg)
	case "operator":
		return fb.handleOperatorMode(msg)
	case "value":
		return fb.handleValueMode(msg)
	}
	return fb, nil
}

func (fb *FilterBuilder) handleNavigationMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	conds := fb.filter.RootGroup.Conditions
	switch msg.String() {
	case "up", "k":
		if fb.currentIndex > 0 {
			fb.currentIndex--
		}
	case "down", "j":
		if fb.currentIndex < len(conds)-1 {
			fb.currentIndex++
		}
	case "a", "n":
		fb.editMode = "column"
		fb.columnIndex = 1 // OID
		fb.validationError = ""
	case "d", "x":
		if fb.currentIndex < len(conds) {
			fb.filter.RootGroup.Conditions = append(conds[:fb.currentIndex:fb.currentIndex], conds[fb.currentIndex+1:]...)
			if fb.currentIndex > 0 && fb.currentIndex >= len(fb.filter.RootGroup.Conditions) {
				fb.currentIndex--
			}
			fb.updatePreview()
		}
	case "o":
		if fb.filter.RootGroup.Logic == "OR" {
			fb.filter.RootGroup.Logic = "AND"
		} else {
			fb.filter.RootGroup.Logic = "OR"
		}
		fb.updatePreview()
	case "enter":
		// An empty filter is valid: it clears the current one
		if _, err := fb.builder.Build(fb.filter); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		fb.validationError = ""
		f := fb.filter
		return fb, func() tea.Msg {
			return ApplyFilterMsg{Filter: f}
		}
	case "esc":
		return fb, func() tea.Msg {
			return CloseFilterBuilderMsg{}
		}
	}
	return fb, nil
}

func (fb *FilterBuilder) handleColumnMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.editMode = ""
	case "up", "k":
		if fb.columnIndex > 0 {
			fb.columnIndex--
		}
	case "down", "j":
		if fb.columnIndex < len(models.ResultColumns)-1 {
			fb.columnIndex++
		}
	case "enter":
		fb.availableOps = filter.GetOperatorsForColumn(fb.column())
		fb.operatorIndex = 0
		fb.editMode = "operator"
	}
	return fb, nil
}

func (fb *FilterBuilder) handleOperatorMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.String() {
	case "esc":
		fb.editMode = "column"
	case "up", "k":
		if fb.operatorIndex > 0 {
			fb.operatorIndex--
		}
	case "down", "j":
		if fb.operatorIndex < len(fb.availableOps)-1 {
			fb.operatorIndex++
		}
	case "enter":
		op := fb.availableOps[fb.operatorIndex]
		if op == models.OpIsEmpty || op == models.OpIsNotEmpty {
			fb.addCondition(models.FilterCondition{Column: fb.column(), Operator: op})
		} else {
			fb.editMode = "value"
			fb.valueInput = ""
		}
	}
	return fb, nil
}

func (fb *FilterBuilder) handleValueMode(msg tea.KeyMsg) (*FilterBuilder, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		fb.editMode = "operator"
		fb.valueInput = ""
	case tea.KeyEnter:
		cond := models.FilterCondition{
			Column:   fb.column(),
			Operator: fb.availableOps[fb.operatorIndex],
			Value:    fb.valueInput,
		}
		single := models.Filter{RootGroup: models.FilterGroup{Conditions: []models.FilterCondition{cond}}}
		if _, err := fb.builder.Build(single); err != nil {
			fb.validationError = err.Error()
			return fb, nil
		}
		fb.addCondition(cond)
	case tea.KeyBackspace:
		if r := []rune(fb.valueInput); len(r) > 0 {
			fb.valueInput = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		fb.valueInput += " "
	case tea.KeyRunes:
		fb.valueInput += string(msg.Runes)
	}
	return fb, nil
}

func (fb *FilterBuilder) addCondition(cond models.FilterCondition) {
	fb.filter.RootGroup.Conditions = append(fb.filter.RootGroup.Conditions, cond)
	fb.currentIndex = len(fb.filter.RootGroup.Conditions) - 1
	fb.editMode = ""
	fb.valueInput = ""
	fb.validationError = ""
	fb.updatePreview()
}

func (fb *FilterBuilder) updatePreview() {
	if fb.filter.IsEmpty() {
		fb.preview = ""
		return
	}
	if _, err := fb.builder.Build(fb.filter); err != nil {
		fb.preview = fmt.Sprintf("Error: %s", err.Error())
		return
	}
	fb.preview = "WHERE " + fb.builder.Describe(fb.filter)
}

// View renders the filter builder
func (fb *FilterBuilder) View() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Background).
		Background(fb.Theme.Info).
		Padding(0, 1).
		Bold(true)
	sections = append(sections, titleStyle.Render("Row Filter"))

	instructionStyle := lipgloss.NewStyle().
		Foreground(fb.Theme.Metadata).
		Padding(0, 1)

	var instructions string
	switch fb.editMode {
	case "column":
		instructions = "↑↓ Select column, Enter to confirm, Esc to cancel"
	case "operator":
		instructions = "↑↓ Select operator, Enter to confirm, Esc to go back"
	case "value":
		instructions = "Type value, Enter to confirm, Esc to go back"
	default:
		instructions = fmt.Sprintf("a=Add d=Delete o=Logic (%s) Enter=Apply Esc=Cancel", fb.filter.RootGroup.Logic)
	}
	sections = append(sections, instructionStyle.Render(instructions))

	if fb.validationError != "" {
		errorStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Error).
			Padding(0, 1).
			Bold(true)
		sections = append(sections, errorStyle.Render("Error: "+fb.validationError))
	}

	selected := lipgloss.NewStyle().Padding(0, 1).Background(fb.Theme.Selection).Foreground(fb.Theme.Foreground)
	plain := lipgloss.NewStyle().Padding(0, 1)

	if len(fb.filter.RootGroup.Conditions) > 0 {
		sections = append(sections, "\nConditions:")
		for i, cond := range fb.filter.RootGroup.Conditions {
			condStr := fmt.Sprintf("%s %s %q", cond.Column, cond.Operator, cond.Value)
			if cond.Operator == models.OpIsEmpty || cond.Operator == models.OpIsNotEmpty {
				condStr = fmt.Sprintf("%s %s", cond.Column, cond.Operator)
			}
			style := plain
			if i == fb.currentIndex && fb.editMode == "" {
				style = selected
			}
			sections = append(sections, style.Render(fmt.Sprintf(" %d. %s", i+1, condStr)))
		}
	}

	switch fb.editMode {
	case "column":
		sections = append(sections, "", "Select column:")
		for i, col := range models.ResultColumns {
			style := plain
			if i == fb.columnIndex {
				style = selected
			}
			sections = append(sections, style.Render("  "+col))
		}
	case "operator":
		sections = append(sections, "", "Column: "+fb.column(), "Select operator:")
		for i, op := range fb.availableOps {
			style := plain
			if i == fb.operatorIndex {
				style = selected
			}
			sections = append(sections, style.Render(fmt.Sprintf("  %s", op)))
		}
	case "value":
		sections = append(sections, "",
			fmt.Sprintf("Column: %s %s", fb.column(), fb.availableOps[fb.operatorIndex]),
			fmt.Sprintf("Value: %s_", fb.valueInput))
	}

	if fb.preview != "" {
		sections = append(sections, "\nPreview:")
		previewStyle := lipgloss.NewStyle().
			Foreground(fb.Theme.Metadata).
			Padding(0, 1).
			Italic(true)
		sections = append(sections, previewStyle.Render(fb.preview))
	}

	content := strings.Join(sections, "\n")

	containerStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fb.Theme.BorderFocused).
		Foreground(fb.Theme.Foreground).
		Width(fb.Width).
		Padding(1)

	return containerStyle.Render(content)
}

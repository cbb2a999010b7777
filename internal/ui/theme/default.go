package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		TableHeader:      lipgloss.Color("62"),
		TableRowEven:     lipgloss.Color("235"),
		TableRowOdd:      lipgloss.Color("236"),
		TableRowSelected: lipgloss.Color("237"),
		StaleRow:         lipgloss.Color("244"),

		OID:         lipgloss.Color("117"),
		MIBName:     lipgloss.Color("75"),
		ValueType:   lipgloss.Color("244"),
		NumberValue: lipgloss.Color("150"),
		TextValue:   lipgloss.Color("180"),
		EmptyValue:  lipgloss.Color("240"),

		ModuleIcon:  lipgloss.Color("141"),
		SectionIcon: lipgloss.Color("75"),
		NodeIcon:    lipgloss.Color("114"),
		TypeIcon:    lipgloss.Color("220"),
		Metadata:    lipgloss.Color("244"),
		SearchMatch: lipgloss.Color("214"),

		GlamourStyle: "dark",
		ChromaStyle:  "monokai",
	}
}

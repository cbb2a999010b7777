package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Result table
	TableHeader      lipgloss.Color
	TableRowEven     lipgloss.Color
	TableRowOdd      lipgloss.Color
	TableRowSelected lipgloss.Color
	StaleRow         lipgloss.Color

	// Variable binding cells
	OID         lipgloss.Color
	MIBName     lipgloss.Color
	ValueType   lipgloss.Color
	NumberValue lipgloss.Color
	TextValue   lipgloss.Color
	EmptyValue  lipgloss.Color

	// Schema tree
	ModuleIcon  lipgloss.Color
	SectionIcon lipgloss.Color
	NodeIcon    lipgloss.Color
	TypeIcon    lipgloss.Color
	Metadata    lipgloss.Color
	SearchMatch lipgloss.Color

	// GlamourStyle names the glamour style used for module detail cards
	GlamourStyle string
	// ChromaStyle names the chroma style used for JSON previews
	ChromaStyle string
}

// Names lists the available themes
var Names = []string{"default", "catppuccin-mocha"}

// GetTheme returns a theme by name, falling back to the default
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha", "catppuccin":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}

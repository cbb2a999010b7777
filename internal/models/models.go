package models

// AppState holds the application state
type AppState struct {
	Width          int
	Height         int
	LeftPanelWidth int
	FocusedPanel   PanelType
	ViewMode       ViewMode

	// StatusMessage is the last transient note shown in the status bar
	StatusMessage string
}

// PanelType identifies which panel is focused
type PanelType int

const (
	LeftPanel PanelType = iota
	RightPanel
)

// ViewMode identifies the current view. Everything but NormalMode is a modal
// layer that takes all key input.
type ViewMode int

const (
	NormalMode ViewMode = iota
	HelpMode
	PickerMode
	ProfileFormMode
	PromptMode
	ConfirmSetMode
	SearchMode
	FilterMode
	BookmarksMode
	HistoryMode
)

// NewAppState creates a new AppState with defaults
func NewAppState() AppState {
	return AppState{
		Width:          80,
		Height:         24,
		LeftPanelWidth: 30,
		FocusedPanel:   RightPanel,
		ViewMode:       NormalMode,
	}
}

// Modal reports whether a modal layer owns the keyboard
func (s AppState) Modal() bool {
	return s.ViewMode != NormalMode
}

package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/rebeliceyang/lazysnmp/internal/ui/help"
)

type keyMap struct {
	Quit    key.Binding
	Help    key.Binding
	Switch  key.Binding
	Connect key.Binding
	Discon  key.Binding

	Get      key.Binding
	GetNext  key.Binding
	Continue key.Binding
	Walk     key.Binding
	Set      key.Binding
	History  key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Select   key.Binding
	Search   key.Binding
	Filter   key.Binding
	Unfilter key.Binding
	Facet    key.Binding
	Unfacet  key.Binding
	Sort     key.Binding
	SortDesc key.Binding
	Clear    key.Binding
	Preview  key.Binding
	Copy     key.Binding
	CopyAll  key.Binding
	CSV      key.Binding
	JSON     key.Binding

	Bookmarks   key.Binding
	AddBookmark key.Binding
	Detail      key.Binding
	JumpModule  key.Binding
	ReloadMIBs  key.Binding
}

func defaultKeyMap() keyMap {
	b := func(help, desc string, keys ...string) key.Binding {
		return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
	}
	return keyMap{
		Quit:    b("q, Ctrl+C", "Quit", "q", "ctrl+c"),
		Help:    b("?", "Toggle help", "?"),
		Switch:  b("Tab", "Switch panel focus", "tab"),
		Connect: b("c", "Connect to a profile", "c"),
		Discon:  b("d", "Disconnect", "d"),

		Get:      b("g", "Get OID", "g"),
		GetNext:  b("n", "GetNext from OID", "n"),
		Continue: b("N", "GetNext from last OID", "N"),
		Walk:     b("w", "Bulk walk subtree", "w"),
		Set:      b("s", "Set value", "s"),
		History:  b("H", "Operation history", "H"),

		Up:       b("↑/k", "Move up", "up", "k"),
		Down:     b("↓/j", "Move down", "down", "j"),
		PageUp:   b("Ctrl+U", "Page up", "ctrl+u", "pgup"),
		PageDown: b("Ctrl+D", "Page down", "ctrl+d", "pgdown"),
		Select:   b("Enter", "Use row as next target", "enter"),
		Search:   b("/", "Search rows or jump to module", "/"),
		Filter:   b("f", "Open filter builder", "f"),
		Unfilter: b("F", "Clear filter", "F"),
		Facet:    b("t", "Toggle type facet from row", "t"),
		Unfacet:  b("T", "Clear type facet", "T"),
		Sort:     b("o", "Cycle sort column", "o"),
		SortDesc: b("O", "Reverse sort", "O"),
		Clear:    b("Ctrl+L", "Clear results", "ctrl+l"),
		Preview:  b("p", "Toggle row detail", "p"),
		Copy:     b("y", "Copy row", "y"),
		CopyAll:  b("Y", "Copy visible rows", "Y"),
		CSV:      b("e", "Export rows to CSV", "e"),
		JSON:     b("E", "Export rows to JSON", "E"),

		Bookmarks:   b("b", "Bookmarks", "b"),
		AddBookmark: b("B", "Bookmark target OID", "B"),
		Detail:      b("i", "Toggle MIB detail", "i"),
		JumpModule:  b(":", "Jump to MIB module", ":"),
		ReloadMIBs:  b("r", "Reload MIB modules", "r"),
	}
}

// ShortHelp feeds the bottom bar
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.Get, k.Walk, k.Search, k.Filter, k.Help, k.Quit}
}

// FullHelp feeds bubbles/help when expanded
func (k keyMap) FullHelp() [][]key.Binding {
	var out [][]key.Binding
	for _, s := range k.sections() {
		out = append(out, s.Bindings)
	}
	return out
}

func (k keyMap) sections() []help.Section {
	return []help.Section{
		{Title: "Global", Bindings: []key.Binding{k.Help, k.Quit, k.Switch, k.Bookmarks, k.History}},
		{Title: "Session", Bindings: []key.Binding{k.Connect, k.Discon, k.Get, k.GetNext, k.Continue, k.Walk, k.Set}},
		{Title: "Results", Bindings: []key.Binding{
			k.Up, k.Down, k.PageUp, k.PageDown, k.Select, k.Search, k.Filter, k.Unfilter,
			k.Facet, k.Unfacet, k.Sort, k.SortDesc, k.Clear, k.Preview, k.Copy, k.CopyAll, k.CSV, k.JSON,
			k.AddBookmark,
		}},
		{Title: "MIB Tree", Bindings: []key.Binding{k.Detail, k.JumpModule, k.ReloadMIBs}},
	}
}

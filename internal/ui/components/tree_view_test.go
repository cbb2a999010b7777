package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/schema"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

func init() {
	// Initialize bubblezone for tests that call View() methods
	zone.NewGlobal()
}

// clickOn waits until a scanned frame has registered id and returns a left
// click on its first cell
func clickOn(t *testing.T, id string) tea.MouseMsg {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if z := zone.Get(id); !z.IsZero() {
			return tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
		}
		if time.Now().After(deadline) {
			t.Fatalf("zone %s was never registered", id)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testIndex(t *testing.T, names ...string) *schema.Index {
	t.Helper()
	modules := make(map[string]models.SchemaModule)
	for _, n := range names {
		modules[n] = models.SchemaModule{
			Name: n,
			Nodes: []models.SchemaNode{
				{Name: strings.ToLower(n[:2]) + "Descr", OID: "1.3.6.1.2.1.2.2.1.2"},
				{Name: strings.ToLower(n[:2]) + "Speed", OID: "1.3.6.1.2.1.2.2.1.5"},
			},
			Types: []models.SchemaType{{Name: "DisplayString", BaseType: "OctetString"}},
		}
	}
	idx, err := schema.NewIndexer(schema.SuffixPolicy()).Build(modules)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return idx
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestTreeView_EmptyState(t *testing.T) {
	tv := NewTreeView(nil, theme.DefaultTheme())
	if !strings.Contains(tv.View(), "Loading MIB modules") {
		t.Error("Expected loading message for nil index")
	}

	tv.SetIndex(testIndex(t))
	if !strings.Contains(tv.View(), "No MIB modules loaded") {
		t.Error("Expected empty message for empty index")
	}
}

func TestTreeView_NavigationUpDown(t *testing.T) {
	tv := NewTreeView(testIndex(t, "IF-MIB", "IP-MIB", "SNMPv2-MIB"), theme.DefaultTheme())

	tv, _ = tv.Update(key("down"))
	tv, _ = tv.Update(key("down"))
	if tv.CursorIndex != 2 {
		t.Errorf("Expected cursor at 2, got %d", tv.CursorIndex)
	}
	tv, _ = tv.Update(key("down"))
	if tv.CursorIndex != 2 {
		t.Errorf("Expected cursor to stay at bottom, got %d", tv.CursorIndex)
	}
	tv, _ = tv.Update(key("k"))
	if tv.CursorIndex != 1 {
		t.Errorf("Expected cursor at 1 after k, got %d", tv.CursorIndex)
	}
	tv, _ = tv.Update(key("G"))
	if tv.CursorIndex != 2 {
		t.Errorf("Expected G to jump to bottom, got %d", tv.CursorIndex)
	}
	tv, _ = tv.Update(key("g"))
	if tv.CursorIndex != 0 {
		t.Errorf("Expected g to jump to top, got %d", tv.CursorIndex)
	}
}

func TestTreeView_ExpandLoadsSections(t *testing.T) {
	tv := NewTreeView(testIndex(t, "IF-MIB"), theme.DefaultTheme())

	// module -> two sections
	tv, cmd := tv.Update(key("right"))
	if cmd == nil {
		t.Fatal("Expected expand message")
	}
	if msg, ok := cmd().(TreeNodeExpandedMsg); !ok || !msg.Expanded {
		t.Errorf("Unexpected message %#v", msg)
	}
	if n := len(tv.visibleNodes()); n != 3 {
		t.Fatalf("Expected module and 2 sections, got %d", n)
	}

	// first section is lazily filled on expand
	tv, _ = tv.Update(key("down"))
	section := tv.GetCurrentNode()
	if section.Loaded {
		t.Fatal("Section should not be loaded before expanding")
	}
	tv, _ = tv.Update(key("l"))
	if !section.Loaded || len(section.Children) != 2 {
		t.Errorf("Expected 2 loaded node children, got %d", len(section.Children))
	}

	view := tv.View()
	if !strings.Contains(view, "ifDescr (1.3.6.1.2.1.2.2.1.2)") {
		t.Errorf("Expected node label in view:\n%s", view)
	}
}

func TestTreeView_CollapseAndParent(t *testing.T) {
	tv := NewTreeView(testIndex(t, "IF-MIB"), theme.DefaultTheme())
	tv, _ = tv.Update(key("right"))
	tv, _ = tv.Update(key("down"))

	// a collapsed section moves the cursor to its module
	tv, _ = tv.Update(key("left"))
	if tv.GetCurrentNode().Type != models.TreeNodeTypeModule {
		t.Fatalf("Expected cursor on module, got %s", tv.GetCurrentNode().Type)
	}

	// the expanded module collapses
	tv, _ = tv.Update(key("h"))
	if tv.GetCurrentNode().Expanded {
		t.Error("Expected module to collapse")
	}
}

func TestTreeView_SelectNode(t *testing.T) {
	tv := NewTreeView(testIndex(t, "IF-MIB"), theme.DefaultTheme())
	_, cmd := tv.Update(key("enter"))
	if cmd == nil {
		t.Fatal("Expected select command")
	}
	msg, ok := cmd().(TreeNodeSelectedMsg)
	if !ok || msg.Node.Label != "IF-MIB" {
		t.Errorf("Unexpected message %#v", msg)
	}
}

func TestTreeView_GetNodeIcon(t *testing.T) {
	tv := NewTreeView(nil, theme.DefaultTheme())

	mod := models.NewTreeNode("MIB-x", models.TreeNodeTypeModule, "X")
	if tv.getNodeIcon(mod) != "▸" {
		t.Error("Expected collapsed icon")
	}
	mod.Expanded = true
	if tv.getNodeIcon(mod) != "▾" {
		t.Error("Expected expanded icon")
	}
	leaf := models.NewTreeNode("NODE-x-a", models.TreeNodeTypeNode, "a")
	if tv.getNodeIcon(leaf) != "•" {
		t.Error("Expected leaf icon")
	}
}

func TestTreeView_Search(t *testing.T) {
	tv := NewTreeView(testIndex(t, "IF-MIB", "IP-MIB"), theme.DefaultTheme())

	tv, _ = tv.Update(key("/"))
	if !tv.SearchActive || tv.SearchBarHeight() != 1 {
		t.Fatal("Expected search to activate")
	}

	for _, r := range "ifdescr" {
		tv, _ = tv.Update(key(string(r)))
	}
	if tv.SearchQuery != "ifdescr" {
		t.Errorf("Expected query 'ifdescr', got %q", tv.SearchQuery)
	}
	nodes := tv.visibleNodes()
	if len(nodes) != 1 || nodes[0].Label != "ifDescr (1.3.6.1.2.1.2.2.1.2)" {
		t.Fatalf("Unexpected matches: %d", len(nodes))
	}
	if !strings.Contains(tv.View(), "IF-MIB › ifDescr") {
		t.Errorf("Expected module path on match:\n%s", tv.View())
	}

	tv, _ = tv.Update(key("backspace"))
	if tv.SearchQuery != "ifdesc" {
		t.Errorf("Expected backspace to trim query, got %q", tv.SearchQuery)
	}

	// Enter confirms; the query stays applied
	tv, _ = tv.Update(key("enter"))
	if tv.SearchActive || tv.SearchQuery == "" {
		t.Error("Expected confirmed search to keep its query")
	}

	// Enter on a match reveals it in the tree
	tv, cmd := tv.Update(key("enter"))
	if tv.SearchQuery != "" {
		t.Error("Expected search to clear after jumping to a match")
	}
	if cmd == nil {
		t.Fatal("Expected select command")
	}
	current := tv.GetCurrentNode()
	if current == nil || current.Type != models.TreeNodeTypeNode {
		t.Fatalf("Expected cursor on the matched node, got %#v", current)
	}
	if !current.Parent.Expanded || !current.Parent.Parent.Expanded {
		t.Error("Expected ancestors to be expanded")
	}
}

func TestTreeView_SearchEscClears(t *testing.T) {
	tv := NewTreeView(testIndex(t, "IF-MIB"), theme.DefaultTheme())
	tv, _ = tv.Update(key("/"))
	tv, _ = tv.Update(key("x"))
	tv, _ = tv.Update(key("esc"))
	if tv.SearchActive || tv.SearchQuery != "" {
		t.Error("Expected esc to clear search while typing")
	}

	tv, _ = tv.Update(key("/"))
	tv, _ = tv.Update(key("m"))
	tv, _ = tv.Update(key("enter"))
	tv, _ = tv.Update(key("esc"))
	if tv.SearchQuery != "" {
		t.Error("Expected esc to clear a confirmed search")
	}
}

func TestTreeView_ViewportScrolling(t *testing.T) {
	names := []string{"A-MIB", "B-MIB", "C-MIB", "D-MIB", "E-MIB", "F-MIB", "G-MIB", "H-MIB"}
	tv := NewTreeView(testIndex(t, names...), theme.DefaultTheme())
	tv.Height = 3

	for i := 0; i < 5; i++ {
		tv, _ = tv.Update(key("down"))
	}
	view := tv.View()
	if tv.ScrollOffset != 3 {
		t.Errorf("Expected scroll offset 3, got %d", tv.ScrollOffset)
	}
	if strings.Contains(view, "A-MIB") || !strings.Contains(view, "F-MIB") {
		t.Errorf("Unexpected window:\n%s", view)
	}
}

func TestTreeView_FocusNode(t *testing.T) {
	idx := testIndex(t, "IF-MIB", "IP-MIB")
	tv := NewTreeView(idx, theme.DefaultTheme())

	node, err := idx.FocusByName("ip-mib")
	if err != nil {
		t.Fatalf("FocusByName() error: %v", err)
	}
	if !tv.FocusNode(node) {
		t.Fatal("Expected focus to succeed")
	}
	if tv.GetCurrentNode() != node {
		t.Error("Expected cursor on focused module")
	}
	if tv.FocusNode(nil) {
		t.Error("Expected nil focus to fail")
	}
}

func TestTreeView_ClickMovesCursor(t *testing.T) {
	tv := NewTreeView(testIndex(t, "IF-MIB", "IP-MIB", "TCP-MIB"), theme.DefaultTheme())
	zone.Scan(tv.View())

	click := clickOn(t, NodeZoneID(2))
	ok, node := tv.HandleMouseClick(click)
	if !ok || node == nil {
		t.Fatal("Expected click on the third node to hit")
	}
	if tv.CursorIndex != 2 || tv.GetCurrentNode() != node {
		t.Errorf("Expected cursor on clicked node, got index %d", tv.CursorIndex)
	}

	release := click
	release.Action = tea.MouseActionRelease
	if ok, _ := tv.HandleMouseClick(release); ok {
		t.Error("Expected release events to be ignored")
	}
}

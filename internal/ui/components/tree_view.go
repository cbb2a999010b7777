package components

// TreeView renders the MIB module tree with keyboard navigation, lazy section
// loading through the schema index, and an inline search bar.
//
// Usage:
//
//	idx, _ := schema.NewIndexer(policy).Load(ctx, loader)
//	treeView := components.NewTreeView(idx, theme)
//	treeView.Width = 40
//	treeView.Height = 20
//
//	// In your Update method:
//	treeView, cmd := treeView.Update(msg)

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/schema"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// ZoneTreeNodePrefix marks tree lines for mouse hit-testing; the index into
// the visible nodes is appended
const ZoneTreeNodePrefix = "tree-node-"

// TreeView represents the schema browser
type TreeView struct {
	Index        *schema.Index
	CursorIndex  int
	Width        int
	Height       int
	Theme        theme.Theme
	ScrollOffset int

	// Search state: SearchActive while typing, SearchQuery kept after Enter
	SearchActive bool
	SearchQuery  string
	matches      []*models.TreeNode
}

// TreeNodeSelectedMsg is sent when a node is selected (Enter key)
type TreeNodeSelectedMsg struct {
	Node *models.TreeNode
}

// TreeNodeExpandedMsg is sent when a node is expanded/collapsed
type TreeNodeExpandedMsg struct {
	Node     *models.TreeNode
	Expanded bool
}

// NewTreeView creates a tree over idx; idx may be nil until modules load
func NewTreeView(idx *schema.Index, th theme.Theme) *TreeView {
	return &TreeView{
		Index:  idx,
		Width:  40,
		Height: 20,
		Theme:  th,
	}
}

// SetIndex swaps in a freshly built index and resets the view
func (tv *TreeView) SetIndex(idx *schema.Index) {
	tv.Index = idx
	tv.CursorIndex = 0
	tv.ScrollOffset = 0
	tv.clearSearch()
}

func (tv *TreeView) root() *models.TreeNode {
	if tv.Index == nil {
		return nil
	}
	return tv.Index.Root
}

// visibleNodes is the flattened tree, or the search matches while a query is set
func (tv *TreeView) visibleNodes() []*models.TreeNode {
	if tv.SearchQuery != "" {
		return tv.matches
	}
	if root := tv.root(); root != nil {
		return root.Flatten()
	}
	return nil
}

// SearchBarHeight is the number of lines the search bar takes
func (tv *TreeView) SearchBarHeight() int {
	if tv.SearchActive || tv.SearchQuery != "" {
		return 1
	}
	return 0
}

// View renders the tree as a string
func (tv *TreeView) View() string {
	nodes := tv.visibleNodes()
	if len(nodes) == 0 && tv.SearchQuery == "" {
		return tv.emptyState()
	}

	if tv.CursorIndex >= len(nodes) {
		tv.CursorIndex = len(nodes) - 1
	}
	if tv.CursorIndex < 0 {
		tv.CursorIndex = 0
	}

	viewHeight := tv.Height - tv.SearchBarHeight()
	if viewHeight < 1 {
		viewHeight = 1
	}
	tv.adjustScrollOffset(len(nodes), viewHeight)

	var lines []string
	if tv.SearchBarHeight() > 0 {
		lines = append(lines, tv.renderSearchBar(len(nodes)))
	}

	startIdx := tv.ScrollOffset
	endIdx := tv.ScrollOffset + viewHeight
	if endIdx > len(nodes) {
		endIdx = len(nodes)
	}
	for i := startIdx; i < endIdx; i++ {
		lines = append(lines, zone.Mark(NodeZoneID(i), tv.renderNode(nodes[i], i == tv.CursorIndex)))
	}
	if len(nodes) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(tv.Theme.Metadata).Italic(true).Render("  no matches"))
	}

	return strings.Join(lines, "\n")
}

// Update handles keyboard input for tree navigation and search
func (tv *TreeView) Update(msg tea.KeyMsg) (*TreeView, tea.Cmd) {
	if tv.SearchActive {
		return tv.updateSearch(msg)
	}

	if msg.String() == "/" && tv.Index != nil {
		tv.SearchActive = true
		return tv, nil
	}
	if msg.String() == "esc" && tv.SearchQuery != "" {
		tv.clearSearch()
		return tv, nil
	}

	nodes := tv.visibleNodes()
	if len(nodes) == 0 {
		return tv, nil
	}

	var cmd tea.Cmd

	switch msg.String() {
	case "up", "k":
		if tv.CursorIndex > 0 {
			tv.CursorIndex--
		}

	case "down", "j":
		if tv.CursorIndex < len(nodes)-1 {
			tv.CursorIndex++
		}

	case "g", "home":
		tv.CursorIndex = 0
		tv.ScrollOffset = 0

	case "G", "end":
		tv.CursorIndex = len(nodes) - 1

	case "right", "l", " ":
		if tv.SearchQuery != "" {
			break
		}
		current := nodes[tv.CursorIndex]
		wasExpanded := current.Expanded
		tv.Index.Toggle(current)
		if current.Expanded != wasExpanded {
			cmd = expandedCmd(current)
		}

	case "left", "h":
		if tv.SearchQuery != "" {
			break
		}
		current := nodes[tv.CursorIndex]
		if current.Expanded {
			current.Toggle()
			cmd = expandedCmd(current)
		} else if current.Parent != nil && current.Parent.Type != models.TreeNodeTypeRoot {
			if i := tv.findNodeIndex(nodes, current.Parent); i >= 0 {
				tv.CursorIndex = i
			}
		}

	case "enter":
		current := nodes[tv.CursorIndex]
		if tv.SearchQuery != "" {
			tv.clearSearch()
			tv.FocusNode(current)
		}
		if current.Selectable {
			cmd = func() tea.Msg { return TreeNodeSelectedMsg{Node: current} }
		}
	}

	return tv, cmd
}

func expandedCmd(node *models.TreeNode) tea.Cmd {
	expanded := node.Expanded
	return func() tea.Msg {
		return TreeNodeExpandedMsg{Node: node, Expanded: expanded}
	}
}

func (tv *TreeView) updateSearch(msg tea.KeyMsg) (*TreeView, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		tv.clearSearch()
	case tea.KeyEnter:
		tv.SearchActive = false
	case tea.KeyBackspace:
		if q := []rune(tv.SearchQuery); len(q) > 0 {
			tv.setQuery(string(q[:len(q)-1]))
		}
	case tea.KeyRunes, tea.KeySpace:
		tv.setQuery(tv.SearchQuery + string(msg.Runes))
	}
	return tv, nil
}

func (tv *TreeView) setQuery(q string) {
	tv.SearchQuery = q
	tv.CursorIndex = 0
	tv.ScrollOffset = 0
	tv.matches = nil
	if q != "" && tv.Index != nil {
		tv.matches = tv.Index.Search(q)
	}
}

func (tv *TreeView) clearSearch() {
	tv.SearchActive = false
	tv.SearchQuery = ""
	tv.matches = nil
}

func (tv *TreeView) renderSearchBar(matches int) string {
	prompt := lipgloss.NewStyle().Foreground(tv.Theme.Info).Bold(true).Render("/")
	query := tv.SearchQuery
	if tv.SearchActive {
		query += "▏"
	}
	count := lipgloss.NewStyle().Foreground(tv.Theme.Metadata).Render(fmt.Sprintf(" (%d)", matches))
	return prompt + query + count
}

// renderNode renders a single tree node with appropriate styling
func (tv *TreeView) renderNode(node *models.TreeNode, selected bool) string {
	indent := ""
	if tv.SearchQuery == "" {
		depth := node.GetDepth() - 1
		if depth < 0 {
			depth = 0
		}
		indent = strings.Repeat("  ", depth)
	}

	content := fmt.Sprintf("%s%s %s", indent, tv.getNodeIcon(node), tv.buildNodeLabel(node))

	maxWidth := tv.Width - 2
	if maxWidth < 4 {
		maxWidth = 4
	}
	if runewidth.StringWidth(content) > maxWidth {
		content = runewidth.Truncate(content, maxWidth, "…")
	}

	style := lipgloss.NewStyle().Foreground(tv.nodeColor(node)).Width(maxWidth)
	if selected {
		style = style.Background(tv.Theme.Selection).Foreground(tv.Theme.Foreground).Bold(true)
	}
	return style.Render(content)
}

func (tv *TreeView) nodeColor(node *models.TreeNode) lipgloss.Color {
	switch node.Type {
	case models.TreeNodeTypeModule:
		return tv.Theme.ModuleIcon
	case models.TreeNodeTypeSection:
		return tv.Theme.SectionIcon
	case models.TreeNodeTypeNode:
		return tv.Theme.NodeIcon
	case models.TreeNodeTypeType:
		return tv.Theme.TypeIcon
	default:
		return tv.Theme.Foreground
	}
}

// getNodeIcon returns the appropriate icon for a node
func (tv *TreeView) getNodeIcon(node *models.TreeNode) string {
	if node.IsLeaf() {
		return "•"
	}
	if node.Expanded {
		return "▾"
	}
	return "▸"
}

// buildNodeLabel builds the display label; search results carry their module
func (tv *TreeView) buildNodeLabel(node *models.TreeNode) string {
	label := node.Label
	if tv.SearchQuery != "" && node.Type != models.TreeNodeTypeModule {
		if mod := models.GetModuleFromNode(node); mod != nil {
			label = mod.Label + " › " + label
		}
	}
	if node.Type == models.TreeNodeTypeType {
		if t, ok := node.Metadata.(models.SchemaType); ok && t.BaseType != "" {
			label += " [" + t.BaseType + "]"
		}
	}
	return label
}

// adjustScrollOffset adjusts the scroll offset to keep the cursor visible
func (tv *TreeView) adjustScrollOffset(totalNodes, viewHeight int) {
	if tv.CursorIndex < tv.ScrollOffset {
		tv.ScrollOffset = tv.CursorIndex
	}
	if tv.CursorIndex >= tv.ScrollOffset+viewHeight {
		tv.ScrollOffset = tv.CursorIndex - viewHeight + 1
	}

	if tv.ScrollOffset < 0 {
		tv.ScrollOffset = 0
	}
	maxScroll := totalNodes - viewHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if tv.ScrollOffset > maxScroll {
		tv.ScrollOffset = maxScroll
	}
}

// emptyState returns the empty state view
func (tv *TreeView) emptyState() string {
	msg := "No MIB modules loaded"
	if tv.Index == nil {
		msg = "Loading MIB modules…"
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Metadata).
		Italic(true).
		Width(max(tv.Width-2, 1)).
		Align(lipgloss.Center).
		Render(msg)
}

// findNodeIndex finds the index of a node in the flattened list
func (tv *TreeView) findNodeIndex(nodes []*models.TreeNode, target *models.TreeNode) int {
	for i, node := range nodes {
		if node == target {
			return i
		}
	}
	return -1
}

// NodeZoneID is the zone of the i-th visible node
func NodeZoneID(i int) string {
	return fmt.Sprintf("%s%d", ZoneTreeNodePrefix, i)
}

// HandleMouseClick moves the cursor to the node a left click landed on and
// returns it
func (tv *TreeView) HandleMouseClick(msg tea.MouseMsg) (bool, *models.TreeNode) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return false, nil
	}

	nodes := tv.visibleNodes()
	end := min(len(nodes), tv.ScrollOffset+max(tv.Height-tv.SearchBarHeight(), 1))
	for i := tv.ScrollOffset; i < end; i++ {
		if zone.Get(NodeZoneID(i)).InBounds(msg) {
			tv.CursorIndex = i
			return true, nodes[i]
		}
	}
	return false, nil
}

// GetCurrentNode returns the node under the cursor
func (tv *TreeView) GetCurrentNode() *models.TreeNode {
	nodes := tv.visibleNodes()
	if tv.CursorIndex < 0 || tv.CursorIndex >= len(nodes) {
		return nil
	}
	return nodes[tv.CursorIndex]
}

// SetCursorToNode sets the cursor to a visible node by ID
func (tv *TreeView) SetCursorToNode(nodeID string) bool {
	for i, node := range tv.visibleNodes() {
		if node.ID == nodeID {
			tv.CursorIndex = i
			return true
		}
	}
	return false
}

// FocusNode reveals node by expanding its ancestors and moves the cursor to it
func (tv *TreeView) FocusNode(node *models.TreeNode) bool {
	if node == nil {
		return false
	}
	node.ExpandAncestors()
	return tv.SetCursorToNode(node.ID)
}

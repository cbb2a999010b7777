package models

import (
	"strings"
)

// TreeNodeType represents the type of tree node
type TreeNodeType string

const (
	TreeNodeTypeRoot    TreeNodeType = "root"
	TreeNodeTypeModule  TreeNodeType = "module"
	TreeNodeTypeSection TreeNodeType = "section"
	TreeNodeTypeNode    TreeNodeType = "node"
	TreeNodeTypeType    TreeNodeType = "type"
)

// TreeNode represents a node in the schema tree
type TreeNode struct {
	ID         string       // Unique identifier (e.g., "MIB-IF-MIB", "NODES-IF-MIB")
	Type       TreeNodeType // Type of node
	Label      string       // Display text
	Parent     *TreeNode    // Parent node (nil for root)
	Children   []*TreeNode  // Child nodes
	Expanded   bool         // Whether node is expanded
	Selectable bool         // Whether node can be selected
	Metadata   interface{}  // SchemaModule, SchemaNode or SchemaType
	Loaded     bool         // Whether children have been loaded (for lazy loading)
}

// NewTreeNode creates a new tree node
func NewTreeNode(id string, nodeType TreeNodeType, label string) *TreeNode {
	return &TreeNode{
		ID:         id,
		Type:       nodeType,
		Label:      label,
		Children:   make([]*TreeNode, 0),
		Expanded:   false,
		Selectable: nodeType != TreeNodeTypeRoot, // Root is not selectable
		Loaded:     false,
	}
}

// AddChild adds a child node to this node
func (n *TreeNode) AddChild(child *TreeNode) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// IsLeaf reports whether the node can never have children
func (n *TreeNode) IsLeaf() bool {
	return n.Type == TreeNodeTypeNode || n.Type == TreeNodeTypeType
}

// Toggle toggles the expanded state of the node.
// A node can be toggled if it has children OR if it hasn't been loaded yet (lazy loading)
func (n *TreeNode) Toggle() {
	if n.IsLeaf() {
		return
	}

	if len(n.Children) > 0 || !n.Loaded {
		n.Expanded = !n.Expanded
	}
}

// Flatten returns a flat list of visible nodes for rendering
func (n *TreeNode) Flatten() []*TreeNode {
	return n.flattenHelper(true)
}

func (n *TreeNode) flattenHelper(visible bool) []*TreeNode {
	result := make([]*TreeNode, 0)

	// Skip root node in the flattened list (it's just a container)
	if n.Type != TreeNodeTypeRoot && visible {
		result = append(result, n)
	}

	if n.Expanded || n.Type == TreeNodeTypeRoot {
		for _, child := range n.Children {
			childVisible := visible && (n.Type == TreeNodeTypeRoot || n.Expanded)
			result = append(result, child.flattenHelper(childVisible)...)
		}
	}

	return result
}

// FindByID finds a node by ID in the tree (depth-first search)
func (n *TreeNode) FindByID(id string) *TreeNode {
	if n.ID == id {
		return n
	}

	for _, child := range n.Children {
		if found := child.FindByID(id); found != nil {
			return found
		}
	}

	return nil
}

// GetPath returns the labels from the root's first child down to this node
func (n *TreeNode) GetPath() []string {
	path := make([]string, 0)
	current := n

	for current != nil {
		if current.Type != TreeNodeTypeRoot {
			path = append([]string{current.Label}, path...)
		}
		current = current.Parent
	}

	return path
}

// GetDepth returns the depth of this node in the tree (root = 0)
func (n *TreeNode) GetDepth() int {
	depth := 0
	current := n.Parent

	for current != nil {
		depth++
		current = current.Parent
	}

	return depth
}

// IsAncestorOf checks if this node is an ancestor of the given node
func (n *TreeNode) IsAncestorOf(other *TreeNode) bool {
	current := other.Parent

	for current != nil {
		if current == n {
			return true
		}
		current = current.Parent
	}

	return false
}

// ExpandAncestors expands every ancestor so the node becomes visible
func (n *TreeNode) ExpandAncestors() {
	for p := n.Parent; p != nil; p = p.Parent {
		p.Expanded = true
	}
}

// RefreshTreeChildren replaces the node's children and marks it loaded.
// Used for lazy loading when a node is expanded
func RefreshTreeChildren(node *TreeNode, children []*TreeNode) {
	node.Children = make([]*TreeNode, 0, len(children))

	for _, child := range children {
		node.AddChild(child)
	}

	node.Loaded = true
}

// ParseNodeID splits an anchor id into its prefix and name.
// For example: "NODES-IF-MIB" -> ("NODES", "IF-MIB")
func ParseNodeID(id string) (prefix string, name string) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

// GetModuleFromNode returns the module node above (or at) any node in the tree
func GetModuleFromNode(node *TreeNode) *TreeNode {
	for current := node; current != nil; current = current.Parent {
		if current.Type == TreeNodeTypeModule {
			return current
		}
	}
	return nil
}

// Package schema builds the browsable MIB module tree and its name → anchor
// index.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

var (
	// ErrIndexConflict is wrapped by IndexConflictError
	ErrIndexConflict = errors.New("index conflict")
	// ErrNotFound is wrapped by NotFoundError
	ErrNotFound = errors.New("not found")
)

// IndexConflictError reports two modules that sanitize to the same anchor
type IndexConflictError struct {
	Anchor   string
	Existing string
	Incoming string
}

func (e *IndexConflictError) Error() string {
	return fmt.Sprintf("modules %q and %q both index as %q", e.Existing, e.Incoming, e.Anchor)
}

func (e *IndexConflictError) Unwrap() error {
	return ErrIndexConflict
}

// Fetcher returns the JSON-encoded module batch
type Fetcher interface {
	FetchModules(ctx context.Context) ([]byte, error)
}

var (
	separators = regexp.MustCompile(`[\s_]+`)
	unsafe     = regexp.MustCompile(`[^a-z0-9-]`)
)

// Sanitize turns a module name into its anchor: lower case, whitespace and
// underscores become '-', anything outside [a-z0-9-] is dropped.
// "Foo Bar!" and "foo-bar" both become "foo-bar".
func Sanitize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = separators.ReplaceAllString(s, "-")
	return unsafe.ReplaceAllString(s, "")
}

// Anchor IDs of the display tree
const (
	modulePrefix = "MIB-"
	nodesPrefix  = "NODES-"
	typesPrefix  = "TYPES-"
)

// Indexer builds an Index from a module batch
type Indexer struct {
	policy ConflictPolicy
	log    *slog.Logger
}

// NewIndexer creates an indexer that settles anchor collisions with policy.
// A nil policy rejects collisions.
func NewIndexer(policy ConflictPolicy) *Indexer {
	if policy == nil {
		policy = RejectPolicy()
	}
	return &Indexer{policy: policy, log: slog.Default().With("component", "schema")}
}

// Load fetches, decodes and indexes the module batch
func (ix *Indexer) Load(ctx context.Context, f Fetcher) (*Index, error) {
	data, err := f.FetchModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema modules: %w", err)
	}
	modules, err := models.DecodeSchemaModules(data)
	if err != nil {
		return nil, err
	}
	return ix.Build(modules)
}

// Build indexes modules in sorted key order so collisions resolve the same way
// every run
func (ix *Indexer) Build(modules map[string]models.SchemaModule) (*Index, error) {
	keys := make([]string, 0, len(modules))
	for k := range modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := &Index{
		Root:    models.NewTreeNode("root", models.TreeNodeTypeRoot, "MIB Modules"),
		anchors: make(map[string]*models.TreeNode, len(modules)),
		modules: make(map[string]models.SchemaModule, len(modules)),
		oids:    make(map[string]oidEntry),
	}
	idx.Root.Expanded = true
	idx.Root.Loaded = true

	for _, key := range keys {
		m := modules[key]
		anchor := Sanitize(m.Name)
		if anchor == "" {
			anchor = Sanitize(key)
		}
		if anchor == "" {
			ix.log.Warn("skipping module without an indexable name", "key", key, "name", m.Name)
			continue
		}

		if existing, taken := idx.modules[anchor]; taken {
			res, err := ix.policy.Resolve(Conflict{
				Anchor:   anchor,
				Existing: existing,
				Incoming: m,
				Taken:    idx.taken,
			})
			if err != nil {
				return nil, err
			}

			switch res.Action {
			case Keep:
				ix.log.Info("module anchor conflict, keeping first", "anchor", anchor, "dropped", m.Name)
				idx.Conflicts = append(idx.Conflicts, anchor)
				continue
			case Replace:
				ix.log.Info("module anchor conflict, replacing", "anchor", anchor, "with", m.Name)
				idx.Conflicts = append(idx.Conflicts, anchor)
				idx.replace(anchor, m)
				continue
			case Rename:
				if res.Anchor == "" || idx.taken(res.Anchor) {
					return nil, &IndexConflictError{Anchor: res.Anchor, Existing: existing.Name, Incoming: m.Name}
				}
				ix.log.Info("module anchor conflict, renaming", "anchor", anchor, "to", res.Anchor)
				idx.Conflicts = append(idx.Conflicts, anchor)
				anchor = res.Anchor
			}
		}

		idx.add(anchor, m)
	}

	idx.indexOIDs()
	return idx, nil
}

// Index is the built module tree plus its lookup tables. It is immutable
// after Build except for lazy section loading and expansion state.
type Index struct {
	Root *models.TreeNode
	// Conflicts lists anchors that hit the conflict policy, in build order
	Conflicts []string

	anchors map[string]*models.TreeNode
	modules map[string]models.SchemaModule
	oids    map[string]oidEntry
}

type oidEntry struct {
	Node   models.SchemaNode
	Module string
}

func (idx *Index) taken(anchor string) bool {
	_, ok := idx.modules[anchor]
	return ok
}

func (idx *Index) add(anchor string, m models.SchemaModule) {
	node := newModuleNode(anchor, m)
	idx.Root.AddChild(node)
	idx.anchors[anchor] = node
	idx.modules[anchor] = m
}

func (idx *Index) replace(anchor string, m models.SchemaModule) {
	old := idx.anchors[anchor]
	node := newModuleNode(anchor, m)
	node.Parent = idx.Root
	for i, child := range idx.Root.Children {
		if child == old {
			idx.Root.Children[i] = node
		}
	}
	idx.anchors[anchor] = node
	idx.modules[anchor] = m
}

func newModuleNode(anchor string, m models.SchemaModule) *models.TreeNode {
	node := models.NewTreeNode(modulePrefix+anchor, models.TreeNodeTypeModule, m.Name)
	node.Metadata = m
	node.Loaded = true

	nodes := models.NewTreeNode(nodesPrefix+anchor, models.TreeNodeTypeSection,
		fmt.Sprintf("Node Elements (%d)", len(m.Nodes)))
	types := models.NewTreeNode(typesPrefix+anchor, models.TreeNodeTypeSection,
		fmt.Sprintf("Type Elements (%d)", len(m.Types)))
	node.AddChild(nodes)
	node.AddChild(types)
	return node
}

func (idx *Index) indexOIDs() {
	for _, anchor := range idx.Names() {
		m := idx.modules[anchor]
		for _, n := range m.Nodes {
			oid, err := models.NormalizeOID(n.OID)
			if err != nil {
				continue
			}
			if _, dup := idx.oids[oid]; !dup {
				idx.oids[oid] = oidEntry{Node: n, Module: m.Name}
			}
		}
	}
}

// Len returns the number of indexed modules
func (idx *Index) Len() int {
	return len(idx.modules)
}

// Names returns the indexed anchors in sorted order
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.modules))
	for a := range idx.modules {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// Anchor returns the tree node ID a module name maps to
func (idx *Index) Anchor(name string) (string, bool) {
	node, ok := idx.anchors[Sanitize(name)]
	if !ok {
		return "", false
	}
	return node.ID, true
}

// Module returns the module indexed under name
func (idx *Index) Module(name string) (models.SchemaModule, bool) {
	m, ok := idx.modules[Sanitize(name)]
	return m, ok
}

// Load populates a section node from its module's collections. It is a no-op
// for anything else or for a section that is already loaded.
func (idx *Index) Load(node *models.TreeNode) {
	if node == nil || node.Type != models.TreeNodeTypeSection || node.Loaded {
		return
	}

	prefix, anchor := models.ParseNodeID(node.ID)
	m, ok := idx.modules[anchor]
	if !ok {
		return
	}

	var children []*models.TreeNode
	switch prefix + "-" {
	case nodesPrefix:
		for _, n := range m.Nodes {
			child := models.NewTreeNode(fmt.Sprintf("NODE-%s-%s", anchor, n.Name), models.TreeNodeTypeNode,
				fmt.Sprintf("%s (%s)", n.Name, n.OID))
			child.Metadata = n
			child.Loaded = true
			children = append(children, child)
		}
	case typesPrefix:
		for _, t := range m.Types {
			child := models.NewTreeNode(fmt.Sprintf("TYPE-%s-%s", anchor, t.Name), models.TreeNodeTypeType, t.Name)
			child.Metadata = t
			child.Loaded = true
			children = append(children, child)
		}
	}
	models.RefreshTreeChildren(node, children)
}

// Expand loads node if needed and expands it
func (idx *Index) Expand(node *models.TreeNode) {
	idx.Load(node)
	if node != nil && !node.IsLeaf() {
		node.Expanded = true
	}
}

// Toggle loads node if needed and flips its expansion
func (idx *Index) Toggle(node *models.TreeNode) {
	idx.Load(node)
	if node != nil {
		node.Toggle()
	}
}

// FocusByName returns the module node for name with its ancestors expanded.
// An unknown name yields a NotFoundError, never a panic.
func (idx *Index) FocusByName(name string) (*models.TreeNode, error) {
	anchor := Sanitize(name)
	if node, ok := idx.anchors[anchor]; ok && anchor != "" {
		node.ExpandAncestors()
		return node, nil
	}
	return nil, &NotFoundError{Name: name, Suggestions: suggest(anchor, idx.Names())}
}

// ResolveOID returns the name of the deepest MIB node that is a prefix of
// oid, with the remaining instance arcs appended (e.g. "ifDescr.3")
func (idx *Index) ResolveOID(oid string) (string, bool) {
	entry, rest, ok := idx.LookupOID(oid)
	if !ok {
		return "", false
	}
	if rest == "" {
		return entry.Name, true
	}
	return entry.Name + "." + rest, true
}

// LookupOID finds the deepest defining node of oid, its module and the
// unmatched instance suffix
func (idx *Index) LookupOID(oid string) (node models.SchemaNode, rest string, ok bool) {
	norm, err := models.NormalizeOID(oid)
	if err != nil {
		return models.SchemaNode{}, "", false
	}

	prefix := norm
	for {
		if e, found := idx.oids[prefix]; found {
			return e.Node, strings.TrimPrefix(strings.TrimPrefix(norm, prefix), "."), true
		}
		i := strings.LastIndexByte(prefix, '.')
		if i < 0 {
			return models.SchemaNode{}, "", false
		}
		prefix = prefix[:i]
	}
}

// ModuleOfOID returns the module defining the deepest node above oid
func (idx *Index) ModuleOfOID(oid string) (string, bool) {
	n, _, ok := idx.LookupOID(oid)
	if !ok {
		return "", false
	}
	norm, _ := models.NormalizeOID(n.OID)
	return idx.oids[norm].Module, true
}

// Search loads every section and returns the matching nodes in tree order
func (idx *Index) Search(query string) []*models.TreeNode {
	for _, mod := range idx.Root.Children {
		for _, section := range mod.Children {
			idx.Load(section)
		}
	}
	return FilterTree(idx.Root, ParseSearchQuery(query))
}

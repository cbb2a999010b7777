package schema

import (
	"strings"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// SearchQuery is a parsed tree search
type SearchQuery struct {
	Pattern    string // search pattern after the prefixes are removed
	Negate     bool   // query started with !
	TypeFilter string // "module", "node" or "type"
}

var typePrefixes = map[string]string{
	"m:":      "module",
	"n:":      "node",
	"t:":      "type",
	"mod:":    "module",
	"module:": "module",
	"node:":   "node",
	"type:":   "type",
}

// ParseSearchQuery parses a tree search string
// Examples:
//   - "ifTable" → {Pattern: "ifTable"}
//   - "!if" → {Pattern: "if", Negate: true}
//   - "m:snmpv2" → {Pattern: "snmpv2", TypeFilter: "module"}
//   - "!t:display" → {Pattern: "display", Negate: true, TypeFilter: "type"}
func ParseSearchQuery(query string) SearchQuery {
	q := SearchQuery{}

	if strings.HasPrefix(query, "!") {
		q.Negate = true
		query = query[1:]
	}

	lower := strings.ToLower(query)
	for prefix, typeName := range typePrefixes {
		if strings.HasPrefix(lower, prefix) {
			q.TypeFilter = typeName
			query = query[len(prefix):]
			break
		}
	}

	q.Pattern = query
	return q
}

// FuzzyMatch performs case-insensitive subsequence matching and returns the
// matched byte positions
func FuzzyMatch(pattern, target string) (bool, []int) {
	if pattern == "" {
		return true, []int{}
	}

	p := strings.ToLower(pattern)
	t := strings.ToLower(target)

	positions := make([]int, 0, len(p))
	pi := 0
	for i := 0; i < len(t) && pi < len(p); i++ {
		if t[i] == p[pi] {
			positions = append(positions, i)
			pi++
		}
	}

	if pi == len(p) {
		return true, positions
	}
	return false, nil
}

var nodeTypeMapping = map[string]models.TreeNodeType{
	"module": models.TreeNodeTypeModule,
	"node":   models.TreeNodeTypeNode,
	"type":   models.TreeNodeTypeType,
}

// NodeMatchesType reports whether node has the filtered type; an empty filter
// matches everything
func NodeMatchesType(node *models.TreeNode, typeFilter string) bool {
	if typeFilter == "" {
		return true
	}
	nt, ok := nodeTypeMapping[typeFilter]
	return ok && node.Type == nt
}

func isSearchableNode(node *models.TreeNode) bool {
	switch node.Type {
	case models.TreeNodeTypeModule, models.TreeNodeTypeNode, models.TreeNodeTypeType:
		return true
	default:
		return false
	}
}

// FilterTree returns the searchable nodes under root that satisfy query, in
// tree order
func FilterTree(root *models.TreeNode, query SearchQuery) []*models.TreeNode {
	var matches []*models.TreeNode

	var traverse func(node *models.TreeNode)
	traverse = func(node *models.TreeNode) {
		if node == nil {
			return
		}

		if isSearchableNode(node) {
			typeMatches := NodeMatchesType(node, query.TypeFilter)
			patternMatches := true
			if query.Pattern != "" {
				patternMatches, _ = FuzzyMatch(query.Pattern, node.Label)
			}

			include := typeMatches && patternMatches
			if query.Negate {
				// With a type filter, negation keeps that type and inverts the pattern
				include = typeMatches && !patternMatches
				if query.Pattern == "" {
					include = !typeMatches
				}
			}

			if include {
				matches = append(matches, node)
			}
		}

		for _, child := range node.Children {
			traverse(child)
		}
	}

	traverse(root)
	return matches
}

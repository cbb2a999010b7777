package models

// FilterOperator represents a filter comparison operator
type FilterOperator string

const (
	OpEqual          FilterOperator = "="
	OpNotEqual       FilterOperator = "!="
	OpGreaterThan    FilterOperator = ">"
	OpGreaterOrEqual FilterOperator = ">="
	OpLessThan       FilterOperator = "<"
	OpLessOrEqual    FilterOperator = "<="
	OpContains       FilterOperator = "CONTAINS"
	OpNotContains    FilterOperator = "NOT CONTAINS"
	OpPrefix         FilterOperator = "PREFIX"  // OID subtree / string prefix
	OpMatches        FilterOperator = "MATCHES" // regular expression
	OpIn             FilterOperator = "IN"      // comma separated values
	OpIsEmpty        FilterOperator = "IS EMPTY"
	OpIsNotEmpty     FilterOperator = "IS NOT EMPTY"
)

// FilterCondition represents a single filter condition on a result column
type FilterCondition struct {
	Column   string
	Operator FilterOperator
	Value    string
}

// FilterGroup represents a group of conditions with AND/OR logic
type FilterGroup struct {
	Conditions []FilterCondition
	Logic      string // "AND" or "OR"
	Groups     []FilterGroup
}

// Filter represents the complete filter state of the result view
type Filter struct {
	RootGroup FilterGroup
}

// IsEmpty reports whether the filter has no conditions at all
func (f Filter) IsEmpty() bool {
	return len(f.RootGroup.Conditions) == 0 && len(f.RootGroup.Groups) == 0
}

package filter

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// Predicate reports whether a result row passes a filter
type Predicate func(row models.ResultRow) bool

// Builder compiles Filter models into row predicates
type Builder struct{}

// NewBuilder creates a new filter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Build compiles a Filter. An empty filter matches every row.
func (b *Builder) Build(filter models.Filter) (Predicate, error) {
	if filter.IsEmpty() {
		return func(models.ResultRow) bool { return true }, nil
	}
	return b.buildGroup(filter.RootGroup)
}

// Describe renders the filter as a readable expression for previews
func (b *Builder) Describe(filter models.Filter) string {
	if filter.IsEmpty() {
		return ""
	}
	return describeGroup(filter.RootGroup)
}

// buildGroup recursively builds a filter group
func (b *Builder) buildGroup(group models.FilterGroup) (Predicate, error) {
	var preds []Predicate

	for _, cond := range group.Conditions {
		p, err := b.buildCondition(cond)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	for _, sub := range group.Groups {
		p, err := b.buildGroup(sub)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	logic := strings.ToUpper(group.Logic)
	if logic == "" {
		logic = "AND"
	}

	switch logic {
	case "AND":
		return func(row models.ResultRow) bool {
			for _, p := range preds {
				if !p(row) {
					return false
				}
			}
			return true
		}, nil
	case "OR":
		return func(row models.ResultRow) bool {
			for _, p := range preds {
				if p(row) {
					return true
				}
			}
			return len(preds) == 0
		}, nil
	default:
		return nil, fmt.Errorf("unsupported group logic: %s", group.Logic)
	}
}

// buildCondition builds a single filter condition
func (b *Builder) buildCondition(cond models.FilterCondition) (Predicate, error) {
	if !isColumn(cond.Column) {
		return nil, fmt.Errorf("unknown column: %s", cond.Column)
	}
	column := cond.Column
	value := cond.Value
	lowerValue := strings.ToLower(value)

	switch cond.Operator {
	case models.OpIsEmpty:
		return func(row models.ResultRow) bool { return row.Field(column) == "" }, nil
	case models.OpIsNotEmpty:
		return func(row models.ResultRow) bool { return row.Field(column) != "" }, nil
	case models.OpEqual:
		return func(row models.ResultRow) bool { return strings.EqualFold(row.Field(column), value) }, nil
	case models.OpNotEqual:
		return func(row models.ResultRow) bool { return !strings.EqualFold(row.Field(column), value) }, nil
	case models.OpContains:
		return func(row models.ResultRow) bool {
			return strings.Contains(strings.ToLower(row.Field(column)), lowerValue)
		}, nil
	case models.OpNotContains:
		return func(row models.ResultRow) bool {
			return !strings.Contains(strings.ToLower(row.Field(column)), lowerValue)
		}, nil
	case models.OpPrefix:
		if strings.EqualFold(column, "OID") {
			return func(row models.ResultRow) bool { return models.OIDHasPrefix(row.OID, value) }, nil
		}
		return func(row models.ResultRow) bool {
			return strings.HasPrefix(strings.ToLower(row.Field(column)), lowerValue)
		}, nil
	case models.OpMatches:
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", value, err)
		}
		return func(row models.ResultRow) bool { return re.MatchString(row.Field(column)) }, nil
	case models.OpIn:
		set := make(map[string]bool)
		for _, v := range strings.Split(value, ",") {
			set[strings.ToLower(strings.TrimSpace(v))] = true
		}
		return func(row models.ResultRow) bool { return set[strings.ToLower(row.Field(column))] }, nil
	case models.OpGreaterThan, models.OpGreaterOrEqual, models.OpLessThan, models.OpLessOrEqual:
		want, ok := new(big.Float).SetString(value)
		if !ok {
			return nil, fmt.Errorf("operator %s needs a number, got %q", cond.Operator, value)
		}
		op := cond.Operator
		return func(row models.ResultRow) bool {
			got, ok := new(big.Float).SetString(row.Field(column))
			if !ok {
				return false
			}
			c := got.Cmp(want)
			switch op {
			case models.OpGreaterThan:
				return c > 0
			case models.OpGreaterOrEqual:
				return c >= 0
			case models.OpLessThan:
				return c < 0
			default:
				return c <= 0
			}
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operator: %s", cond.Operator)
	}
}

func describeGroup(group models.FilterGroup) string {
	var parts []string
	for _, cond := range group.Conditions {
		if cond.Operator == models.OpIsEmpty || cond.Operator == models.OpIsNotEmpty {
			parts = append(parts, fmt.Sprintf("%s %s", cond.Column, cond.Operator))
		} else {
			parts = append(parts, fmt.Sprintf("%s %s %q", cond.Column, cond.Operator, cond.Value))
		}
	}
	for _, sub := range group.Groups {
		parts = append(parts, "("+describeGroup(sub)+")")
	}
	logic := group.Logic
	if logic == "" {
		logic = "AND"
	}
	return strings.Join(parts, " "+strings.ToUpper(logic)+" ")
}

func isColumn(name string) bool {
	for _, col := range models.ResultColumns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

// GetOperatorsForColumn returns the operators that make sense for a result column
func GetOperatorsForColumn(column string) []models.FilterOperator {
	switch strings.ToLower(column) {
	case "oid":
		return []models.FilterOperator{
			models.OpPrefix, models.OpEqual, models.OpNotEqual,
			models.OpContains, models.OpMatches,
		}
	case "type":
		return []models.FilterOperator{
			models.OpEqual, models.OpNotEqual, models.OpIn,
		}
	case "value":
		return []models.FilterOperator{
			models.OpContains, models.OpNotContains,
			models.OpEqual, models.OpNotEqual,
			models.OpGreaterThan, models.OpGreaterOrEqual,
			models.OpLessThan, models.OpLessOrEqual,
			models.OpMatches, models.OpIsEmpty, models.OpIsNotEmpty,
		}
	case "name":
		return []models.FilterOperator{
			models.OpContains, models.OpNotContains, models.OpPrefix,
			models.OpEqual, models.OpMatches,
			models.OpIsEmpty, models.OpIsNotEmpty,
		}
	default:
		return []models.FilterOperator{
			models.OpContains, models.OpPrefix, models.OpMatches,
		}
	}
}

package filter

import (
	"testing"
	"time"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

func testRow(oid, name, typ, value string) models.ResultRow {
	return models.ResultRow{
		Time:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		OID:   oid,
		Name:  name,
		Type:  typ,
		Value: value,
	}
}

func TestBuild_EmptyFilterMatchesAll(t *testing.T) {
	pred, err := NewBuilder().Build(models.Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pred(testRow("1.3", "", "", "")) {
		t.Error("empty filter should match every row")
	}
}

func TestBuild_Operators(t *testing.T) {
	r := testRow("1.3.6.1.2.1.1.5.0", "sysName", "OctetString", "core-sw-01")

	tests := []struct {
		name string
		cond models.FilterCondition
		want bool
	}{
		{"oid prefix", models.FilterCondition{Column: "OID", Operator: models.OpPrefix, Value: "1.3.6.1.2.1"}, true},
		{"oid prefix is arc aware", models.FilterCondition{Column: "OID", Operator: models.OpPrefix, Value: "1.3.6.1.2.11"}, false},
		{"equal ignores case", models.FilterCondition{Column: "Type", Operator: models.OpEqual, Value: "octetstring"}, true},
		{"not equal", models.FilterCondition{Column: "Type", Operator: models.OpNotEqual, Value: "Integer"}, true},
		{"contains", models.FilterCondition{Column: "Value", Operator: models.OpContains, Value: "SW"}, true},
		{"not contains", models.FilterCondition{Column: "Value", Operator: models.OpNotContains, Value: "sw"}, false},
		{"matches", models.FilterCondition{Column: "Value", Operator: models.OpMatches, Value: `^core-\w+-\d+$`}, true},
		{"in", models.FilterCondition{Column: "Type", Operator: models.OpIn, Value: "Integer, OctetString"}, true},
		{"is empty", models.FilterCondition{Column: "Name", Operator: models.OpIsEmpty}, false},
		{"is not empty", models.FilterCondition{Column: "Name", Operator: models.OpIsNotEmpty}, true},
		{"numeric on text", models.FilterCondition{Column: "Value", Operator: models.OpGreaterThan, Value: "3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := NewBuilder().Build(models.Filter{RootGroup: models.FilterGroup{
				Conditions: []models.FilterCondition{tt.cond},
			}})
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			if got := pred(r); got != tt.want {
				t.Errorf("pred() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuild_NumericComparison(t *testing.T) {
	pred, err := NewBuilder().Build(models.Filter{RootGroup: models.FilterGroup{
		Conditions: []models.FilterCondition{
			{Column: "Value", Operator: models.OpGreaterOrEqual, Value: "1000"},
		},
	}})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if !pred(testRow("1.3", "", "Counter64", "18446744073709551615")) {
		t.Error("expected large counter to pass")
	}
	if pred(testRow("1.3", "", "Gauge32", "999")) {
		t.Error("expected 999 to fail")
	}
}

func TestBuild_NestedGroups(t *testing.T) {
	f := models.Filter{RootGroup: models.FilterGroup{
		Logic: "AND",
		Conditions: []models.FilterCondition{
			{Column: "OID", Operator: models.OpPrefix, Value: "1.3.6.1.2.1.2"},
		},
		Groups: []models.FilterGroup{{
			Logic: "OR",
			Conditions: []models.FilterCondition{
				{Column: "Type", Operator: models.OpEqual, Value: "Counter32"},
				{Column: "Type", Operator: models.OpEqual, Value: "Counter64"},
			},
		}},
	}}

	b := NewBuilder()
	pred, err := b.Build(f)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if !pred(testRow("1.3.6.1.2.1.2.2.1.10.1", "ifInOctets", "Counter32", "5")) {
		t.Error("expected counter in ifTable to match")
	}
	if pred(testRow("1.3.6.1.2.1.2.2.1.2.1", "ifDescr", "OctetString", "eth0")) {
		t.Error("expected string in ifTable not to match")
	}
	if pred(testRow("1.3.6.1.2.1.4.3.0", "ipInReceives", "Counter32", "5")) {
		t.Error("expected counter outside ifTable not to match")
	}

	desc := b.Describe(f)
	want := `OID PREFIX "1.3.6.1.2.1.2" AND (Type = "Counter32" OR Type = "Counter64")`
	if desc != want {
		t.Errorf("Describe() = %s, want %s", desc, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	cases := []models.FilterCondition{
		{Column: "Color", Operator: models.OpEqual, Value: "red"},
		{Column: "Value", Operator: models.OpMatches, Value: "("},
		{Column: "Value", Operator: models.OpLessThan, Value: "ten"},
		{Column: "Value", Operator: "~~", Value: "x"},
	}
	for _, c := range cases {
		_, err := NewBuilder().Build(models.Filter{RootGroup: models.FilterGroup{
			Conditions: []models.FilterCondition{c},
		}})
		if err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}

func TestGetOperatorsForColumn(t *testing.T) {
	ops := GetOperatorsForColumn("OID")
	if len(ops) == 0 || ops[0] != models.OpPrefix {
		t.Errorf("expected PREFIX first for OID, got %v", ops)
	}
	if len(GetOperatorsForColumn("unknown")) == 0 {
		t.Error("expected fallback operators")
	}
}

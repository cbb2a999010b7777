package results

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

func row(t *testing.T, oid, name, typ, value string) models.ResultRow {
	t.Helper()
	r, err := models.NewResultRow(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), oid, name, typ, value)
	require.NoError(t, err)
	return r
}

func threeRows(t *testing.T) *Sink {
	s := NewSink(4)
	s.Append(row(t, "1.3.6.1.1", "first", "Integer", "10"))
	s.Append(row(t, "1.3.6.1.2", "second", "OctetString", "router"))
	s.Append(row(t, "1.3.6.1.3", "third", "Integer", "7"))
	return s
}

func oids(rows []models.ResultRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.OID
	}
	return out
}

func TestAppendKeepsCallOrder(t *testing.T) {
	s := threeRows(t)
	require.Equal(t, []string{"1.3.6.1.1", "1.3.6.1.2", "1.3.6.1.3"}, oids(s.Snapshot()))
	require.Equal(t, oids(s.Snapshot()), oids(s.View()))
}

func TestAppendRapidFromProducerKeepsOrder(t *testing.T) {
	s := NewSink(0)
	const n = 5000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.Append(row(t, fmt.Sprintf("1.3.6.1.2.1.%d", i), "", "Integer", "0"))
		}
	}()
	// Concurrent readers, like UI re-renders, must not disturb the order
	for i := 0; i < 50; i++ {
		_ = s.View()
		_ = s.Len()
	}
	wg.Wait()

	rows := s.Snapshot()
	require.Len(t, rows, n)
	for i, r := range rows {
		require.Equal(t, fmt.Sprintf("1.3.6.1.2.1.%d", i), r.OID)
	}
}

func TestSearchReturnsExactMatch(t *testing.T) {
	s := threeRows(t)

	got := s.Search("1.3.6.1.2")
	require.Len(t, got, 1)
	require.Equal(t, "1.3.6.1.2", got[0].OID)

	// The store itself is untouched
	require.Len(t, s.Snapshot(), 3)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	s := threeRows(t)
	got := s.Search("ROUTER")
	require.Equal(t, []string{"1.3.6.1.2"}, oids(got))
}

func TestSetSearchFiltersView(t *testing.T) {
	s := threeRows(t)
	s.SetSearch("integer")
	require.Equal(t, []string{"1.3.6.1.1", "1.3.6.1.3"}, oids(s.View()))

	s.SetSearch("")
	require.Len(t, s.View(), 3)
}

func TestClearEmptiesRowsAndSelection(t *testing.T) {
	s := threeRows(t)
	_, _, ok := s.Select(1)
	require.True(t, ok)

	s.Clear()
	require.Equal(t, 0, s.Len())
	_, ok = s.Selection()
	require.False(t, ok)
	require.Empty(t, s.DefaultTarget())
}

func TestSelectFeedsDefaultTarget(t *testing.T) {
	s := threeRows(t)

	oid, typ, ok := s.Select(1)
	require.True(t, ok)
	require.Equal(t, "1.3.6.1.2", oid)
	require.Equal(t, "OctetString", typ)
	require.Equal(t, "1.3.6.1.2", s.DefaultTarget())

	_, _, ok = s.Select(10)
	require.False(t, ok)
	require.Equal(t, "1.3.6.1.2", s.DefaultTarget(), "out of range select keeps previous selection")
}

func TestSelectUsesCurrentView(t *testing.T) {
	s := threeRows(t)
	s.SetSearch("third")

	oid, _, ok := s.Select(0)
	require.True(t, ok)
	require.Equal(t, "1.3.6.1.3", oid)
}

func TestStructuredFilter(t *testing.T) {
	s := threeRows(t)
	err := s.SetFilter(models.Filter{RootGroup: models.FilterGroup{
		Logic: "AND",
		Conditions: []models.FilterCondition{
			{Column: "Type", Operator: models.OpEqual, Value: "integer"},
			{Column: "Value", Operator: models.OpGreaterThan, Value: "8"},
		},
	}})
	require.NoError(t, err)
	require.Equal(t, []string{"1.3.6.1.1"}, oids(s.View()))
	require.Contains(t, s.FilterDescription(), "Type = \"integer\"")

	s.ClearFilter()
	require.Len(t, s.View(), 3)
}

func TestSetFilterRejectsUnknownColumn(t *testing.T) {
	s := threeRows(t)
	err := s.SetFilter(models.Filter{RootGroup: models.FilterGroup{
		Conditions: []models.FilterCondition{{Column: "Color", Operator: models.OpEqual, Value: "x"}},
	}})
	require.Error(t, err)
	require.Len(t, s.View(), 3)
}

func TestFacets(t *testing.T) {
	s := threeRows(t)

	facets := s.Facets("Type")
	require.Equal(t, []Facet{{Value: "Integer", Count: 2}, {Value: "OctetString", Count: 1}}, facets)

	s.SetFacet("Type", "OctetString")
	require.Equal(t, []string{"1.3.6.1.2"}, oids(s.View()))

	s.ToggleFacet("Type", "Integer")
	require.Len(t, s.View(), 3)

	s.SetFacet("Type")
	require.Len(t, s.View(), 3)
}

func TestSortByDoesNotMutateStore(t *testing.T) {
	s := NewSink(0)
	s.Append(row(t, "1.3.6.1.10", "", "Integer", "b"))
	s.Append(row(t, "1.3.6.1.9", "", "Integer", "a"))
	s.Append(row(t, "1.3.6.1.2", "", "Integer", "c"))

	require.NoError(t, s.SortBy("OID", false))
	require.Equal(t, []string{"1.3.6.1.2", "1.3.6.1.9", "1.3.6.1.10"}, oids(s.View()))

	require.NoError(t, s.SortBy("Value", true))
	require.Equal(t, []string{"1.3.6.1.2", "1.3.6.1.10", "1.3.6.1.9"}, oids(s.View()))

	require.Equal(t, []string{"1.3.6.1.10", "1.3.6.1.9", "1.3.6.1.2"}, oids(s.Snapshot()))
	require.Error(t, s.SortBy("Nope", false))
}

func TestResizeBoundsViewport(t *testing.T) {
	s := NewSink(10)
	s.Resize(40)
	require.Equal(t, 30, s.Viewport().VisibleRows)

	s.Resize(5)
	require.Equal(t, MinVisibleRows, s.Viewport().VisibleRows)
}

func TestCursorStaysVisible(t *testing.T) {
	s := NewSink(0)
	for i := 0; i < 20; i++ {
		s.Append(row(t, fmt.Sprintf("1.3.6.1.%d", i), "", "Integer", "0"))
	}
	s.Resize(5)

	s.MoveCursor(7)
	vp := s.Viewport()
	require.Equal(t, 7, vp.Cursor)
	require.Equal(t, 3, vp.Top)

	s.MoveCursor(100)
	require.Equal(t, 19, s.Viewport().Cursor)

	s.PageUp()
	require.Equal(t, 14, s.Viewport().Cursor)

	oid, _, ok := s.SelectCursor()
	require.True(t, ok)
	require.Equal(t, "1.3.6.1.14", oid)
}

// Package results holds the streaming result table: an append-only row store
// with derived search, filter, facet and sort views.
package results

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rebeliceyang/lazysnmp/internal/filter"
	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// Facet is one distinct column value and how many rows carry it
type Facet struct {
	Value string
	Count int
}

// Selection is the row the user picked; it seeds the next query
type Selection struct {
	OID  string
	Type string
	Row  models.ResultRow
}

// Sink is the append-only result store. Append is safe to call from the
// transport's goroutine; everything else is called from the UI loop but takes
// the same lock.
type Sink struct {
	mu   sync.RWMutex
	rows []models.ResultRow

	// View state, never applied to rows itself
	search   string
	filter   models.Filter
	pred     filter.Predicate
	facets   map[string]map[string]bool
	sortCol  string
	sortDesc bool

	selection *Selection
	viewport  *Viewport
	builder   *filter.Builder
}

// NewSink creates an empty sink whose viewport subtracts tableOffset lines
// from the container height
func NewSink(tableOffset int) *Sink {
	return &Sink{
		rows:     make([]models.ResultRow, 0, 256),
		facets:   make(map[string]map[string]bool),
		viewport: NewViewport(tableOffset),
		builder:  filter.NewBuilder(),
	}
}

// Append admits one row at the end of the store
func (s *Sink) Append(row models.ResultRow) {
	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
}

// Clear drops every row and the current selection. View settings are kept.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = make([]models.ResultRow, 0, 256)
	s.selection = nil
	s.viewport.Reset()
}

// Len returns the number of stored rows
func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Snapshot returns a copy of all rows in insertion order
func (s *Sink) Snapshot() []models.ResultRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ResultRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Search returns the rows whose displayed fields contain text, ignoring case,
// in insertion order. It does not change the active view.
func (s *Sink) Search(text string) []models.ResultRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.ResultRow
	for _, row := range s.rows {
		if matchesText(row, text) {
			out = append(out, row)
		}
	}
	return out
}

// SetSearch sets the free-text term applied to View
func (s *Sink) SetSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = text
	s.viewport.Reset()
}

// SearchTerm returns the active free-text term
func (s *Sink) SearchTerm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.search
}

// SetFilter compiles and applies a structured filter
func (s *Sink) SetFilter(f models.Filter) error {
	pred, err := s.builder.Build(f)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.pred = pred
	s.viewport.Reset()
	return nil
}

// Filter returns the active structured filter
func (s *Sink) Filter() models.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// FilterDescription renders the active filter for the status line
func (s *Sink) FilterDescription() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.builder.Describe(s.filter)
}

// ClearFilter removes the structured filter, facets and search term
func (s *Sink) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = models.Filter{}
	s.pred = nil
	s.facets = make(map[string]map[string]bool)
	s.search = ""
	s.viewport.Reset()
}

// Facets counts the distinct values of a column across all rows, most
// frequent first
func (s *Sink) Facets(column string) []Facet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, row := range s.rows {
		counts[row.Field(column)]++
	}

	facets := make([]Facet, 0, len(counts))
	for v, c := range counts {
		facets = append(facets, Facet{Value: v, Count: c})
	}
	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		return facets[i].Value < facets[j].Value
	})
	return facets
}

// SetFacet restricts a column to the given values. No values clears the facet.
func (s *Sink) SetFacet(column string, values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(column)
	if len(values) == 0 {
		delete(s.facets, key)
	} else {
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		s.facets[key] = set
	}
	s.viewport.Reset()
}

// ToggleFacet adds or removes one value from a column facet
func (s *Sink) ToggleFacet(column, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(column)
	set := s.facets[key]
	if set == nil {
		set = make(map[string]bool)
		s.facets[key] = set
	}
	if set[value] {
		delete(set, value)
		if len(set) == 0 {
			delete(s.facets, key)
		}
	} else {
		set[value] = true
	}
	s.viewport.Reset()
}

// SortBy orders the view by a column; an empty column restores insertion order
func (s *Sink) SortBy(column string, desc bool) error {
	if column != "" && !isColumn(column) {
		return fmt.Errorf("unknown column: %s", column)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortCol = column
	s.sortDesc = desc
	return nil
}

// View returns the rows that pass search, filter and facets, sorted if a sort
// column is set. The underlying order is untouched.
func (s *Sink) View() []models.ResultRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *Sink) viewLocked() []models.ResultRow {
	out := make([]models.ResultRow, 0, len(s.rows))
	for _, row := range s.rows {
		if s.search != "" && !matchesText(row, s.search) {
			continue
		}
		if s.pred != nil && !s.pred(row) {
			continue
		}
		if !s.matchesFacets(row) {
			continue
		}
		out = append(out, row)
	}

	if s.sortCol != "" {
		col, desc := s.sortCol, s.sortDesc
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].Field(col), out[j].Field(col)
			if strings.EqualFold(col, "OID") {
				if desc {
					return compareOID(b, a) < 0
				}
				return compareOID(a, b) < 0
			}
			if desc {
				return a > b
			}
			return a < b
		})
	}
	return out
}

func (s *Sink) matchesFacets(row models.ResultRow) bool {
	for col, set := range s.facets {
		if !set[row.Field(col)] {
			return false
		}
	}
	return true
}

// Select picks the i-th row of the current view and records it as the default
// target for the next query
func (s *Sink) Select(i int) (oid, typ string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked()
	if i < 0 || i >= len(view) {
		return "", "", false
	}
	row := view[i]
	s.selection = &Selection{OID: row.OID, Type: row.Type, Row: row}
	s.viewport.Cursor = i
	return row.OID, row.Type, true
}

// SelectCursor selects the row under the viewport cursor
func (s *Sink) SelectCursor() (oid, typ string, ok bool) {
	return s.Select(s.Viewport().Cursor)
}

// Selection returns the last selected row
func (s *Sink) Selection() (Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selection == nil {
		return Selection{}, false
	}
	return *s.selection, true
}

// DefaultTarget is the OID the next query should use, if a row was selected
func (s *Sink) DefaultTarget() string {
	sel, ok := s.Selection()
	if !ok {
		return ""
	}
	return sel.OID
}

// Resize recomputes the viewport from the container height
func (s *Sink) Resize(containerHeight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport.Resize(containerHeight)
}

// MoveCursor moves the view cursor and keeps it visible
func (s *Sink) MoveCursor(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport.Move(delta, len(s.viewLocked()))
}

// PageUp moves the cursor one viewport up
func (s *Sink) PageUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport.PageUp()
}

// PageDown moves the cursor one viewport down
func (s *Sink) PageDown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport.PageDown(len(s.viewLocked()))
}

// Viewport returns a copy of the viewport state
func (s *Sink) Viewport() Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.viewport
}

func matchesText(row models.ResultRow, text string) bool {
	if text == "" {
		return true
	}
	needle := strings.ToLower(text)
	for _, col := range models.ResultColumns {
		if strings.Contains(strings.ToLower(row.Field(col)), needle) {
			return true
		}
	}
	return false
}

func isColumn(name string) bool {
	for _, col := range models.ResultColumns {
		if strings.EqualFold(col, name) {
			return true
		}
	}
	return false
}

// compareOID orders dotted OIDs arc by arc numerically
func compareOID(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if len(as[i]) != len(bs[i]) {
			if len(as[i]) < len(bs[i]) {
				return -1
			}
			return 1
		}
		if as[i] != bs[i] {
			if as[i] < bs[i] {
				return -1
			}
			return 1
		}
	}
	return len(as) - len(bs)
}

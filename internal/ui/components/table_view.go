package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/results"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

const (
	maxColumnWidth = 60
	minColumnWidth = 6

	// ZoneResultRowPrefix marks result rows for mouse hit-testing; the view
	// index is appended
	ZoneResultRowPrefix = "result-row-"
)

// TableView renders the visible window of the result sink
type TableView struct {
	Width  int
	Height int
	Theme  theme.Theme
	Sink   *results.Sink
	Busy   bool

	// Column widths (calculated per frame)
	ColumnWidths []int
}

// NewTableView creates a table over sink
func NewTableView(sink *results.Sink, th theme.Theme) *TableView {
	return &TableView{Sink: sink, Theme: th}
}

// calculateColumnWidths fits the widest cell of each column, capped
func (tv *TableView) calculateColumnWidths(rows []models.ResultRow) {
	tv.ColumnWidths = make([]int, len(models.ResultColumns))
	for i, col := range models.ResultColumns {
		tv.ColumnWidths[i] = runewidth.StringWidth(col)
	}
	for _, row := range rows {
		for i, cell := range row.Cells() {
			if w := runewidth.StringWidth(cell); w > tv.ColumnWidths[i] {
				tv.ColumnWidths[i] = w
			}
		}
	}
	for i := range tv.ColumnWidths {
		if tv.ColumnWidths[i] > maxColumnWidth {
			tv.ColumnWidths[i] = maxColumnWidth
		}
		if tv.ColumnWidths[i] < minColumnWidth {
			tv.ColumnWidths[i] = minColumnWidth
		}
	}
	tv.fitValueColumn()
}

// fitValueColumn gives the Value column whatever width is left
func (tv *TableView) fitValueColumn() {
	if tv.Width <= 0 {
		return
	}
	last := len(tv.ColumnWidths) - 1
	used := 2 + 3*last
	for i := 0; i < last; i++ {
		used += tv.ColumnWidths[i]
	}
	if rest := tv.Width - used; rest >= minColumnWidth {
		tv.ColumnWidths[last] = rest
	}
}

// View renders the table
func (tv *TableView) View() string {
	view := tv.Sink.View()
	vp := tv.Sink.Viewport()

	if len(view) == 0 {
		msg := "No results. Run a query with g (get), n (next) or w (walk)."
		if tv.Sink.Len() > 0 {
			msg = fmt.Sprintf("No rows match (%d hidden by search/filter)", tv.Sink.Len())
		}
		return lipgloss.NewStyle().
			Foreground(tv.Theme.Metadata).
			Width(tv.Width).
			Height(tv.Height).
			Render(msg)
	}

	start, end := vp.Window(len(view))
	tv.calculateColumnWidths(view[start:end])

	var b strings.Builder
	b.WriteString(tv.renderHeader())
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator())
	b.WriteString("\n")

	for i := start; i < end; i++ {
		b.WriteString(zone.Mark(RowZoneID(i), tv.renderRow(view[i], i, i == vp.Cursor)))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(tv.renderStatus(start, end, len(view)))

	return lipgloss.NewStyle().Width(tv.Width).Height(tv.Height).Render(b.String())
}

// RowZoneID is the zone of the i-th row of the current view
func RowZoneID(i int) string {
	return fmt.Sprintf("%s%d", ZoneResultRowPrefix, i)
}

// HandleMouseClick reports the view index of the row a left click landed on
func (tv *TableView) HandleMouseClick(msg tea.MouseMsg) (bool, int) {
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return false, -1
	}

	total := len(tv.Sink.View())
	start, end := tv.Sink.Viewport().Window(total)
	for i := start; i < end; i++ {
		if zone.Get(RowZoneID(i)).InBounds(msg) {
			return true, i
		}
	}
	return false, -1
}

func (tv *TableView) renderHeader() string {
	var parts []string
	for i, col := range models.ResultColumns {
		parts = append(parts, pad(col, tv.ColumnWidths[i]))
	}
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.Selection)
	return headerStyle.Render(" " + strings.Join(parts, " │ ") + " ")
}

func (tv *TableView) renderSeparator() string {
	var parts []string
	for _, width := range tv.ColumnWidths {
		parts = append(parts, strings.Repeat("─", width))
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Border).
		Render("─" + strings.Join(parts, "─┼─") + "─")
}

func (tv *TableView) renderRow(row models.ResultRow, index int, selected bool) string {
	cells := row.Cells()
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = pad(cell, tv.ColumnWidths[i])
	}

	if selected {
		return lipgloss.NewStyle().
			Background(tv.Theme.TableRowSelected).
			Foreground(tv.Theme.Foreground).
			Bold(true).
			Render(" " + strings.Join(parts, " │ ") + " ")
	}

	bg := tv.Theme.TableRowEven
	if index%2 == 1 {
		bg = tv.Theme.TableRowOdd
	}
	if row.Stale {
		return lipgloss.NewStyle().Background(bg).Foreground(tv.Theme.StaleRow).Faint(true).
			Render(" " + strings.Join(parts, " │ ") + " ")
	}

	colors := []lipgloss.Color{tv.Theme.Metadata, tv.Theme.OID, tv.Theme.MIBName, tv.Theme.ValueType, tv.valueColor(row)}
	sep := lipgloss.NewStyle().Background(bg).Foreground(tv.Theme.Border).Render(" │ ")
	for i := range parts {
		parts[i] = lipgloss.NewStyle().Background(bg).Foreground(colors[i]).Render(parts[i])
	}
	edge := lipgloss.NewStyle().Background(bg).Render(" ")
	return edge + strings.Join(parts, sep) + edge
}

func (tv *TableView) valueColor(row models.ResultRow) lipgloss.Color {
	switch {
	case row.Value == "":
		return tv.Theme.EmptyValue
	case isNumericType(row.Type):
		return tv.Theme.NumberValue
	default:
		return tv.Theme.TextValue
	}
}

func isNumericType(t string) bool {
	switch t {
	case "Integer", "Counter32", "Counter64", "Gauge32", "TimeTicks", "Uinteger32", "OpaqueFloat", "OpaqueDouble":
		return true
	}
	return false
}

func (tv *TableView) renderStatus(start, end, total int) string {
	showing := fmt.Sprintf(" %d-%d of %d rows", start+1, end, total)
	if hidden := tv.Sink.Len() - total; hidden > 0 {
		showing += fmt.Sprintf(" (%d hidden)", hidden)
	}
	if term := tv.Sink.SearchTerm(); term != "" {
		showing += fmt.Sprintf("  search: %q", term)
	}
	if desc := tv.Sink.FilterDescription(); desc != "" {
		showing += "  filter: " + desc
	}
	if tv.Busy {
		showing += "  streaming…"
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Metadata).
		Italic(true).
		Render(runewidth.Truncate(showing, max(tv.Width, 10), "…"))
}

// pad truncates or right-pads s to exactly width terminal cells
func pad(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

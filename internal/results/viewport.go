package results

// MinVisibleRows is the smallest viewport the table shrinks to
const MinVisibleRows = 3

// Viewport is the bounded, scrollable window over the row view
type Viewport struct {
	Offset      int // lines reserved around the table
	VisibleRows int
	Top         int
	Cursor      int
}

// NewViewport creates a viewport reserving offset lines of its container
func NewViewport(offset int) *Viewport {
	return &Viewport{
		Offset:      offset,
		VisibleRows: MinVisibleRows,
	}
}

// Resize recomputes how many rows fit in the container
func (v *Viewport) Resize(containerHeight int) {
	v.VisibleRows = containerHeight - v.Offset
	if v.VisibleRows < MinVisibleRows {
		v.VisibleRows = MinVisibleRows
	}
	v.follow()
}

// Reset returns the cursor to the first row
func (v *Viewport) Reset() {
	v.Top = 0
	v.Cursor = 0
}

// Move shifts the cursor by delta within total rows
func (v *Viewport) Move(delta, total int) {
	v.Cursor += delta
	v.clamp(total)
	v.follow()
}

// PageUp moves the cursor one page up
func (v *Viewport) PageUp() {
	v.Cursor -= v.VisibleRows
	if v.Cursor < 0 {
		v.Cursor = 0
	}
	v.Top = v.Cursor
}

// PageDown moves the cursor one page down
func (v *Viewport) PageDown(total int) {
	v.Cursor += v.VisibleRows
	v.clamp(total)
	v.Top = v.Cursor
	if v.Top+v.VisibleRows > total {
		v.Top = total - v.VisibleRows
		if v.Top < 0 {
			v.Top = 0
		}
	}
}

// Window returns the [start, end) slice bounds of the visible rows
func (v Viewport) Window(total int) (int, int) {
	start := v.Top
	if start > total {
		start = total
	}
	end := start + v.VisibleRows
	if end > total {
		end = total
	}
	return start, end
}

func (v *Viewport) clamp(total int) {
	if v.Cursor >= total {
		v.Cursor = total - 1
	}
	if v.Cursor < 0 {
		v.Cursor = 0
	}
}

// follow scrolls so the cursor stays inside the window
func (v *Viewport) follow() {
	if v.Cursor < v.Top {
		v.Top = v.Cursor
	}
	if v.Cursor >= v.Top+v.VisibleRows {
		v.Top = v.Cursor - v.VisibleRows + 1
	}
}

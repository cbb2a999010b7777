package components

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysnmp/internal/export"
	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// RowDetail is what the preview pane shows for the selected row
type RowDetail struct {
	Row    models.ResultRow   `json:"row"`
	Node   *models.SchemaNode `json:"node,omitempty"`
	Module string             `json:"module,omitempty"`
}

// PreviewPane displays the selected row and its MIB definition as JSON
type PreviewPane struct {
	Width     int
	MaxHeight int
	Title     string

	Visible bool

	content      string // indented JSON
	scrollY      int
	contentLines []string

	Theme theme.Theme
	style lipgloss.Style
}

// NewPreviewPane creates a new preview pane
func NewPreviewPane(th theme.Theme) *PreviewPane {
	return &PreviewPane{
		Width:     80,
		MaxHeight: 12,
		Theme:     th,
		style: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(th.Border).
			Padding(0, 1),
	}
}

// SetDetail replaces the displayed detail
func (p *PreviewPane) SetDetail(d RowDetail) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		data = []byte(err.Error())
	}
	content := string(data)
	if content == p.content {
		return
	}
	p.content = content
	p.Title = d.Row.OID
	if d.Row.Name != "" {
		p.Title = d.Row.Name
	}
	p.scrollY = 0
	p.contentLines = nil
}

// Content returns the raw JSON
func (p *PreviewPane) Content() string {
	return p.content
}

// Toggle flips visibility; an empty pane stays hidden
func (p *PreviewPane) Toggle() {
	if p.Visible {
		p.Visible = false
		p.contentLines = nil
		return
	}
	if p.content != "" {
		p.Visible = true
	}
}

// Height returns the rendered height, 0 when hidden
func (p *PreviewPane) Height() int {
	if !p.Visible {
		return 0
	}
	return p.MaxHeight
}

func (p *PreviewPane) innerLines() int {
	return max(p.MaxHeight-p.style.GetVerticalFrameSize()-2, 1)
}

// ScrollUp scrolls content up
func (p *PreviewPane) ScrollUp() {
	if p.scrollY > 0 {
		p.scrollY--
	}
}

// ScrollDown scrolls content down
func (p *PreviewPane) ScrollDown() {
	if p.scrollY < max(len(p.lines())-p.innerLines(), 0) {
		p.scrollY++
	}
}

// CopyContent copies the JSON to the clipboard
func (p *PreviewPane) CopyContent() error {
	return export.CopyText(p.content)
}

// lines highlights the JSON once per content change
func (p *PreviewPane) lines() []string {
	if p.contentLines != nil {
		return p.contentLines
	}
	text := p.content
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, p.content, "json", "terminal256", p.Theme.ChromaStyle); err == nil {
		text = buf.String()
	}
	p.contentLines = strings.Split(strings.TrimRight(text, "\n"), "\n")
	return p.contentLines
}

// View renders the preview pane
func (p *PreviewPane) View() string {
	if !p.Visible {
		return ""
	}

	contentWidth := p.Width - p.style.GetHorizontalFrameSize()
	titleStyle := lipgloss.NewStyle().Foreground(p.Theme.Info).Bold(true)
	header := "Detail"
	if p.Title != "" {
		header = "Detail: " + runewidth.Truncate(p.Title, max(contentWidth-12, 4), "…")
	}

	parts := []string{titleStyle.Render(header)}
	lines := p.lines()
	end := min(p.scrollY+p.innerLines(), len(lines))
	clip := lipgloss.NewStyle().MaxWidth(contentWidth)
	for _, line := range lines[p.scrollY:end] {
		parts = append(parts, clip.Render(line))
	}

	help := "y: Copy │ p: Toggle"
	if len(lines) > p.innerLines() {
		help = "↑↓: Scroll │ " + help
	}
	helpStyle := lipgloss.NewStyle().Foreground(p.Theme.Metadata).Italic(true)
	pad := max(contentWidth-runewidth.StringWidth(help), 0)
	parts = append(parts, strings.Repeat(" ", pad)+helpStyle.Render(help))

	inner := max(p.MaxHeight-p.style.GetVerticalFrameSize(), 3)
	return p.style.
		Width(contentWidth).
		Height(inner).
		MaxHeight(p.MaxHeight).
		Render(strings.Join(parts, "\n"))
}

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// ModuleDetail renders the metadata of a MIB module, node or type as
// markdown in a scrollable viewport
type ModuleDetail struct {
	Theme theme.Theme

	viewport viewport.Model
	markdown string
	width    int
}

// NewModuleDetail creates an empty detail view
func NewModuleDetail(th theme.Theme) *ModuleDetail {
	return &ModuleDetail{Theme: th, viewport: viewport.New(60, 10)}
}

// SetSize resizes the viewport and re-renders at the new width
func (md *ModuleDetail) SetSize(width, height int) {
	md.viewport.Width = width
	md.viewport.Height = height
	if width != md.width {
		md.width = width
		md.render()
	}
}

// SetNode shows the detail of a tree node; nodes without metadata clear it
func (md *ModuleDetail) SetNode(node *models.TreeNode) {
	md.markdown = NodeMarkdown(node)
	md.render()
	md.viewport.GotoTop()
}

// Markdown returns the source of the current detail
func (md *ModuleDetail) Markdown() string {
	return md.markdown
}

func (md *ModuleDetail) render() {
	if md.markdown == "" {
		md.viewport.SetContent("")
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(md.Theme.GlamourStyle),
		glamour.WithWordWrap(max(md.width-4, 20)),
	)
	if err != nil {
		md.viewport.SetContent(md.markdown)
		return
	}
	out, err := r.Render(md.markdown)
	if err != nil {
		out = md.markdown
	}
	md.viewport.SetContent(out)
}

// Update scrolls the viewport
func (md *ModuleDetail) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	md.viewport, cmd = md.viewport.Update(msg)
	return cmd
}

// View renders the viewport
func (md *ModuleDetail) View() string {
	return md.viewport.View()
}

// NodeMarkdown describes a module, node or type tree node as markdown
func NodeMarkdown(node *models.TreeNode) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	switch meta := node.Metadata.(type) {
	case models.SchemaModule:
		fmt.Fprintf(&b, "# %s\n\n", meta.Name)
		row := func(k, v string) {
			if v != "" {
				fmt.Fprintf(&b, "- **%s:** %s\n", k, v)
			}
		}
		row("Language", meta.Language)
		row("Organization", meta.Organization)
		if meta.Path != "" {
			row("Path", "`"+meta.Path+"`")
		}
		row("Reference", meta.Reference)
		fmt.Fprintf(&b, "- **Nodes:** %d\n- **Types:** %d\n", len(meta.Nodes), len(meta.Types))
		if meta.ContactInfo != "" {
			fmt.Fprintf(&b, "\n## Contact\n\n%s\n", quote(meta.ContactInfo))
		}
		if meta.Description != "" {
			fmt.Fprintf(&b, "\n## Description\n\n%s\n", meta.Description)
		}
	case models.SchemaNode:
		fmt.Fprintf(&b, "# %s\n\n- **OID:** `%s`\n", meta.Name, meta.OID)
		if meta.Kind != "" {
			fmt.Fprintf(&b, "- **Kind:** %s\n", meta.Kind)
		}
		if meta.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", meta.Description)
		}
	case models.SchemaType:
		fmt.Fprintf(&b, "# %s\n\n", meta.Name)
		if meta.BaseType != "" {
			fmt.Fprintf(&b, "- **Base type:** %s\n", meta.BaseType)
		}
		if meta.Description != "" {
			fmt.Fprintf(&b, "\n%s\n", meta.Description)
		}
	default:
		return ""
	}
	return b.String()
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "> " + strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

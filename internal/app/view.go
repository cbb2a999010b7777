package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/ui/help"
)

// View implements tea.Model. Zone markers are resolved here, once per frame.
func (a *App) View() string {
	return zone.Scan(a.render())
}

func (a *App) render() string {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return "Loading…"
	}

	if a.showError {
		return a.place(a.errorOverlay.View())
	}

	switch a.state.ViewMode {
	case models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme, a.keys.sections())
	case models.PickerMode:
		a.profilePicker.Width = min(a.state.Width-4, 80)
		return a.place(a.profilePicker.View())
	case models.ProfileFormMode:
		a.profileForm.Width = min(a.state.Width-4, 72)
		a.profileForm.Height = a.state.Height - 2
		return a.place(a.profileForm.View())
	case models.FilterMode:
		a.filterBuilder.Width = min(a.state.Width-4, 90)
		a.filterBuilder.Height = a.state.Height - 4
		return a.place(a.filterBuilder.View())
	case models.BookmarksMode:
		a.bookmarksDlg.Width = min(a.state.Width-4, 90)
		a.bookmarksDlg.Height = a.state.Height - 4
		return a.place(a.bookmarksDlg.View())
	case models.HistoryMode:
		a.historyView.Width = min(a.state.Width-4, 110)
		a.historyView.Height = a.state.Height - 4
		return a.place(a.historyView.View())
	case models.ConfirmSetMode:
		return a.place(a.renderConfirmSet())
	}

	return a.renderNormalView()
}

func (a *App) place(content string) string {
	return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, content)
}

func (a *App) renderNormalView() string {
	a.statusBar.Width = a.state.Width
	a.statusBar.Message = a.state.StatusMessage
	a.statusBar.Rows = a.sink.Len()

	a.treeView.Width = a.leftPanel.Width
	a.treeView.Height = a.leftPanel.ContentHeight()
	a.leftPanel.Content = a.treeView.View()
	if a.index != nil {
		a.leftPanel.Badge = fmt.Sprintf("%d", a.index.Len())
	}

	a.rightPanel.Content = a.renderRight()
	a.rightPanel.Badge = a.resultsBadge()

	panels := lipgloss.JoinHorizontal(lipgloss.Top, a.leftPanel.View(), a.rightPanel.View())
	return lipgloss.JoinVertical(lipgloss.Left, a.statusBar.View(), panels, a.renderBottom())
}

func (a *App) renderRight() string {
	width := a.rightPanel.Width
	height := a.rightPanel.ContentHeight()

	if a.showDetail {
		a.rightPanel.Title = "MIB Detail"
		a.detail.SetSize(width, height)
		return a.detail.View()
	}

	a.rightPanel.Title = "Results"
	a.preview.Width = width
	a.preview.MaxHeight = min(12, height/2)
	tableHeight := height - a.preview.Height()
	a.tableView.Width = width
	a.tableView.Height = tableHeight
	a.sink.Resize(tableHeight)

	if !a.preview.Visible {
		return a.tableView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.tableView.View(), a.preview.View())
}

func (a *App) resultsBadge() string {
	if a.showDetail {
		return ""
	}
	var parts []string
	if desc := a.sink.FilterDescription(); desc != "" {
		parts = append(parts, "WHERE "+desc)
	}
	if term := a.sink.SearchTerm(); term != "" {
		parts = append(parts, fmt.Sprintf("/%s", term))
	}
	if col := sortColumns[a.sortCol]; col != "" {
		dir := "↑"
		if a.sortDesc {
			dir = "↓"
		}
		parts = append(parts, col+dir)
	}
	return strings.Join(parts, "  ")
}

func (a *App) renderBottom() string {
	switch a.state.ViewMode {
	case models.PromptMode:
		a.oidPrompt.Width = a.state.Width
		return a.oidPrompt.View()
	case models.SearchMode:
		a.searchInput.Width = a.state.Width
		return a.searchInput.View()
	}

	a.help.Width = a.state.Width - 4
	return lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Padding(0, 2).
		Render(a.help.View(a.keys))
}

func (a *App) renderConfirmSet() string {
	req := a.pendingSet
	if req == nil {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(a.theme.Warning).Render("Confirm SET")
	body := fmt.Sprintf("%s\n\n  OID:   %s\n  Type:  %s\n  Value: %s\n  Agent: %s\n\n%s",
		title, req.OID, req.Type, req.Value, a.controller.ActiveProfile(),
		lipgloss.NewStyle().Foreground(a.theme.Metadata).Render("y: write │ n/esc: cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(a.theme.Warning).
		Padding(1, 2).
		Render(body)
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Status bar on top, the bottom line below, two border rows per panel
	bottom := lipgloss.Height(a.renderBottom())
	contentHeight := max(a.state.Height-1-bottom-2, 5)

	// Each panel has a border (2 chars wide: left + right borders)
	leftWidth := max((a.state.Width*a.state.LeftPanelWidth)/100, 20)
	rightWidth := a.state.Width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = a.state.Width - rightWidth - 4
	}

	a.leftPanel.Width = leftWidth
	a.leftPanel.Height = contentHeight
	a.rightPanel.Width = rightWidth
	a.rightPanel.Height = contentHeight
	a.detail.SetSize(rightWidth, a.rightPanel.ContentHeight())
}

// updatePanelStyles updates panel styling based on focus
func (a *App) updatePanelStyles() {
	a.leftPanel.Focused = a.state.FocusedPanel == models.LeftPanel
	a.rightPanel.Focused = a.state.FocusedPanel == models.RightPanel
}

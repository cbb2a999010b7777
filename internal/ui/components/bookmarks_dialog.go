package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// BookmarksMode represents the dialog mode
type BookmarksMode int

const (
	BookmarksModeList BookmarksMode = iota
	BookmarksModeAdd
	BookmarksModeEdit
)

// ExecuteBookmarkMsg is sent when a bookmark should be run
type ExecuteBookmarkMsg struct {
	Bookmark models.Bookmark
}

// SaveBookmarkMsg asks the app to add (empty ID) or update a bookmark
type SaveBookmarkMsg struct {
	ID          string
	Name        string
	OID         string
	Operation   models.Operation
	Description string
	Tags        []string
}

// DeleteBookmarkMsg asks the app to delete a bookmark
type DeleteBookmarkMsg struct {
	ID string
}

// CloseBookmarksDialogMsg is sent when dialog should close
type CloseBookmarksDialogMsg struct{}

var bookmarkOps = []models.Operation{models.OpGet, models.OpGetNext, models.OpBulkWalk}

const (
	bmFieldName = iota
	bmFieldOID
	bmFieldOp
	bmFieldDesc
	bmFieldTags
	bmFieldCount
)

// BookmarksDialog lists saved OIDs and edits them
type BookmarksDialog struct {
	Width  int
	Height int
	Theme  theme.Theme

	mode      BookmarksMode
	bookmarks []models.Bookmark
	selected  int
	offset    int

	editID       string
	inputs       [bmFieldCount]string
	opIndex      int
	currentField int
	err          string
}

// NewBookmarksDialog creates a new bookmarks dialog
func NewBookmarksDialog(th theme.Theme) *BookmarksDialog {
	return &BookmarksDialog{
		Width:  80,
		Height: 24,
		Theme:  th,
		mode:   BookmarksModeList,
	}
}

// SetBookmarks updates the bookmark list
func (bd *BookmarksDialog) SetBookmarks(bookmarks []models.Bookmark) {
	bd.bookmarks = bookmarks
	if bd.selected >= len(bookmarks) {
		bd.selected = max(len(bookmarks)-1, 0)
	}
	bd.offset = min(bd.offset, bd.selected)
}

// Mode returns the dialog mode
func (bd *BookmarksDialog) Mode() BookmarksMode {
	return bd.mode
}

// StartAdd opens the add form prefilled with oid
func (bd *BookmarksDialog) StartAdd(oid string) {
	bd.mode = BookmarksModeAdd
	bd.editID = ""
	bd.inputs = [bmFieldCount]string{}
	bd.inputs[bmFieldOID] = oid
	bd.opIndex = 0
	bd.currentField = bmFieldName
	bd.err = ""
}

// SetError shows a save failure in the form
func (bd *BookmarksDialog) SetError(err error) {
	if err == nil {
		bd.err = ""
		return
	}
	bd.err = err.Error()
}

// FinishEdit returns to the list after a successful save
func (bd *BookmarksDialog) FinishEdit() {
	bd.mode = BookmarksModeList
	bd.err = ""
}

// Update handles keyboard input
func (bd *BookmarksDialog) Update(msg tea.KeyMsg) (*BookmarksDialog, tea.Cmd) {
	switch bd.mode {
	case BookmarksModeList:
		return bd.handleListMode(msg)
	case BookmarksModeAdd, BookmarksModeEdit:
		return bd.handleEditMode(msg)
	}
	return bd, nil
}

func (bd *BookmarksDialog) visibleHeight() int {
	return max((bd.Height-8)/2, 1)
}

func (bd *BookmarksDialog) handleListMode(msg tea.KeyMsg) (*BookmarksDialog, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return bd, func() tea.Msg {
			return CloseBookmarksDialogMsg{}
		}
	case "up", "k":
		if bd.selected > 0 {
			bd.selected--
			if bd.selected < bd.offset {
				bd.offset = bd.selected
			}
		}
	case "down", "j":
		if bd.selected < len(bd.bookmarks)-1 {
			bd.selected++
			if bd.selected >= bd.offset+bd.visibleHeight() {
				bd.offset = bd.selected - bd.visibleHeight() + 1
			}
		}
	case "enter":
		if bd.selected < len(bd.bookmarks) {
			b := bd.bookmarks[bd.selected]
			return bd, func() tea.Msg {
				return ExecuteBookmarkMsg{Bookmark: b}
			}
		}
	case "a", "n":
		bd.StartAdd("")
	case "e":
		if bd.selected < len(bd.bookmarks) {
			b := bd.bookmarks[bd.selected]
			bd.mode = BookmarksModeEdit
			bd.editID = b.ID
			bd.inputs = [bmFieldCount]string{
				bmFieldName: b.Name,
				bmFieldOID:  b.OID,
				bmFieldDesc: b.Description,
				bmFieldTags: strings.Join(b.Tags, ", "),
			}
			bd.opIndex = 0
			for i, op := range bookmarkOps {
				if op == b.Operation {
					bd.opIndex = i
				}
			}
			bd.currentField = bmFieldName
			bd.err = ""
		}
	case "d", "x":
		if bd.selected < len(bd.bookmarks) {
			id := bd.bookmarks[bd.selected].ID
			return bd, func() tea.Msg {
				return DeleteBookmarkMsg{ID: id}
			}
		}
	}
	return bd, nil
}

func (bd *BookmarksDialog) handleEditMode(msg tea.KeyMsg) (*BookmarksDialog, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		bd.mode = BookmarksModeList
		bd.err = ""
	case tea.KeyTab, tea.KeyDown:
		bd.currentField = (bd.currentField + 1) % bmFieldCount
	case tea.KeyShiftTab, tea.KeyUp:
		bd.currentField = (bd.currentField - 1 + bmFieldCount) % bmFieldCount
	case tea.KeyLeft, tea.KeyRight:
		if bd.currentField == bmFieldOp {
			delta := 1
			if msg.Type == tea.KeyLeft {
				delta = -1
			}
			bd.opIndex = (bd.opIndex + delta + len(bookmarkOps)) % len(bookmarkOps)
		}
	case tea.KeyBackspace:
		if bd.currentField != bmFieldOp {
			if r := []rune(bd.inputs[bd.currentField]); len(r) > 0 {
				bd.inputs[bd.currentField] = string(r[:len(r)-1])
			}
		}
	case tea.KeyEnter:
		if bd.currentField < bmFieldTags {
			bd.currentField++
			return bd, nil
		}
		save := bd.EditData()
		return bd, func() tea.Msg { return save }
	case tea.KeySpace:
		if bd.currentField == bmFieldOp {
			bd.opIndex = (bd.opIndex + 1) % len(bookmarkOps)
		} else {
			bd.inputs[bd.currentField] += " "
		}
	case tea.KeyRunes:
		if bd.currentField != bmFieldOp {
			bd.inputs[bd.currentField] += string(msg.Runes)
		}
	}
	return bd, nil
}

// EditData returns the form content as a save request
func (bd *BookmarksDialog) EditData() SaveBookmarkMsg {
	var tags []string
	for _, part := range strings.Split(bd.inputs[bmFieldTags], ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return SaveBookmarkMsg{
		ID:          bd.editID,
		Name:        strings.TrimSpace(bd.inputs[bmFieldName]),
		OID:         strings.TrimSpace(bd.inputs[bmFieldOID]),
		Operation:   bookmarkOps[bd.opIndex],
		Description: strings.TrimSpace(bd.inputs[bmFieldDesc]),
		Tags:        tags,
	}
}

// View renders the dialog
func (bd *BookmarksDialog) View() string {
	if bd.mode == BookmarksModeList {
		return bd.renderList()
	}
	return bd.renderEdit()
}

func (bd *BookmarksDialog) container(sections []string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(bd.Theme.BorderFocused).
		Width(bd.Width).
		Padding(1).
		Render(strings.Join(sections, "\n"))
}

func (bd *BookmarksDialog) title(text string) string {
	return lipgloss.NewStyle().
		Foreground(bd.Theme.Background).
		Background(bd.Theme.Info).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

func (bd *BookmarksDialog) renderList() string {
	instr := lipgloss.NewStyle().Foreground(bd.Theme.Metadata).Padding(0, 1)
	sections := []string{
		bd.title("Bookmarks"),
		instr.Render("↑↓: Navigate  Enter: Run  a: Add  e: Edit  d: Delete  Esc: Close"),
	}

	if len(bd.bookmarks) == 0 {
		sections = append(sections, "", "No bookmarks yet. Press 'a' to add one.")
		return bd.container(sections)
	}

	sections = append(sections, "")
	end := min(bd.offset+bd.visibleHeight(), len(bd.bookmarks))
	oidStyle := lipgloss.NewStyle().Foreground(bd.Theme.OID)
	meta := lipgloss.NewStyle().Foreground(bd.Theme.Metadata)

	for i := bd.offset; i < end; i++ {
		b := bd.bookmarks[i]
		line := fmt.Sprintf("%s  %s %s",
			runewidth.Truncate(b.Name, 32, "…"),
			meta.Render(string(b.Operation)),
			oidStyle.Render(b.OID))

		detail := runewidth.Truncate(b.Description, 50, "…")
		if len(b.Tags) > 0 {
			detail += fmt.Sprintf(" [%s]", strings.Join(b.Tags, ", "))
		}
		if b.UsageCount > 0 {
			detail += meta.Render(fmt.Sprintf(" · used %d×", b.UsageCount))
		}

		style := lipgloss.NewStyle().Padding(0, 1)
		if i == bd.selected {
			style = style.Background(bd.Theme.Selection).Foreground(bd.Theme.Foreground)
		}
		sections = append(sections, style.Render(line+"\n  "+detail))
	}
	return bd.container(sections)
}

func (bd *BookmarksDialog) renderEdit() string {
	title := "Add Bookmark"
	if bd.mode == BookmarksModeEdit {
		title = "Edit Bookmark"
	}
	instr := lipgloss.NewStyle().Foreground(bd.Theme.Metadata).Padding(0, 1)
	sections := []string{
		bd.title(title),
		instr.Render("Tab: Next field  ←/→: Operation  Enter on Tags: Save  Esc: Cancel"),
		"",
		bd.renderField("Name:", bd.inputs[bmFieldName], bmFieldName),
		bd.renderField("OID:", bd.inputs[bmFieldOID], bmFieldOID),
		bd.renderField("Operation:", "‹ "+string(bookmarkOps[bd.opIndex])+" ›", bmFieldOp),
		bd.renderField("Description:", bd.inputs[bmFieldDesc], bmFieldDesc),
		bd.renderField("Tags (comma separated):", bd.inputs[bmFieldTags], bmFieldTags),
	}
	if bd.err != "" {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(bd.Theme.Error).Render(bd.err))
	}
	return bd.container(sections)
}

func (bd *BookmarksDialog) renderField(label, value string, field int) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if bd.currentField == field {
		style = style.Background(bd.Theme.Selection).Foreground(bd.Theme.Foreground)
		if field != bmFieldOp {
			value += "_"
		}
	}
	return style.Render(fmt.Sprintf("%s %s", label, value))
}

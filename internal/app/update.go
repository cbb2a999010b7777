package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazysnmp/internal/export"
	"github.com/rebeliceyang/lazysnmp/internal/history"
	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/schema"
	"github.com/rebeliceyang/lazysnmp/internal/session"
	"github.com/rebeliceyang/lazysnmp/internal/ui/components"
)

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case spinner.TickMsg:
		return a, a.statusBar.Update(msg)

	case sessionEventMsg:
		return a, a.handleSessionEvent(msg.Event)

	case indexLoadedMsg:
		return a, a.handleIndexLoaded(msg)

	case statusMsg:
		a.setStatus("%s", string(msg))
		return a, nil

	case errorMsg:
		a.ShowError(msg.Title, msg.Err.Error())
		return a, nil

	case historyLoadedMsg:
		if msg.Err != nil {
			a.ShowError("History", msg.Err.Error())
			return a, nil
		}
		if msg.ForPrompt {
			a.oidPrompt.SetHistory(recentOIDs(msg.Entries))
			return a, nil
		}
		a.historyView.SetEntries(msg.Entries)
		a.state.ViewMode = models.HistoryMode
		return a, nil

	case profileSavedMsg:
		if msg.Err != nil {
			a.profileForm.SetError(msg.Err)
			return a, nil
		}
		a.profileForm = nil
		a.openPicker()
		a.setStatus("Saved profile %s", msg.Profile.Name)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	// Component requests
	case components.ConnectProfileMsg:
		a.state.ViewMode = models.NormalMode
		return a, a.connect(msg.Name)
	case components.NewProfileMsg:
		a.openProfileForm()
		return a, nil
	case components.DeleteProfileMsg:
		if a.deps.Profiles == nil {
			a.ShowError("Profiles", "no profile store configured")
			return a, nil
		}
		if err := a.deps.Profiles.Delete(msg.Name); err != nil {
			a.ShowError("Delete Profile", err.Error())
		}
		a.openPicker()
		return a, nil
	case components.CloseProfilePickerMsg, components.CloseBookmarksDialogMsg,
		components.CloseFilterBuilderMsg, components.CloseHistoryMsg:
		a.state.ViewMode = models.NormalMode
		return a, nil
	case components.CloseProfileFormMsg:
		a.profileForm = nil
		a.openPicker()
		return a, nil
	case components.ProfileSubmitMsg:
		return a, a.submitProfile(msg.Fields)

	case components.OIDSubmitMsg:
		a.state.ViewMode = models.NormalMode
		a.updatePanelDimensions()
		if msg.Kind == session.OpSet && a.config.General.ConfirmSet {
			a.pendingSet = &msg
			a.state.ViewMode = models.ConfirmSetMode
			return a, nil
		}
		return a, a.issue(msg)
	case components.CloseOIDPromptMsg:
		a.state.ViewMode = models.NormalMode
		a.updatePanelDimensions()
		return a, nil

	case components.SearchInputMsg:
		return a, a.handleSearch(msg)
	case components.CloseSearchMsg:
		a.sink.SetSearch("")
		a.state.ViewMode = models.NormalMode
		a.updatePanelDimensions()
		return a, nil

	case components.ApplyFilterMsg:
		if err := a.sink.SetFilter(msg.Filter); err != nil {
			a.ShowError("Filter", err.Error())
			return a, nil
		}
		a.state.ViewMode = models.NormalMode
		a.refreshPreview()
		return a, nil

	case components.ExecuteBookmarkMsg:
		a.state.ViewMode = models.NormalMode
		if err := a.deps.Bookmarks.RecordUsage(msg.Bookmark.ID); err != nil {
			a.log.Warn("failed to record bookmark usage", "id", msg.Bookmark.ID, "err", err)
		}
		return a, a.issue(components.OIDSubmitMsg{Kind: session.OpKind(msg.Bookmark.Operation), OID: msg.Bookmark.OID})
	case components.SaveBookmarkMsg:
		a.saveBookmark(msg)
		return a, nil
	case components.DeleteBookmarkMsg:
		if err := a.deps.Bookmarks.Delete(msg.ID); err != nil {
			a.ShowError("Delete Bookmark", err.Error())
		}
		a.bookmarksDlg.SetBookmarks(a.deps.Bookmarks.GetAll())
		return a, nil

	case components.RerunHistoryMsg:
		a.state.ViewMode = models.NormalMode
		return a, a.issue(components.OIDSubmitMsg{Kind: session.OpKind(msg.Entry.Kind), OID: msg.Entry.OID})

	case components.TreeNodeSelectedMsg:
		a.detail.SetNode(msg.Node)
		a.showDetail = a.detail.Markdown() != ""
		a.updatePanelStyles()
		return a, nil
	case components.TreeNodeExpandedMsg:
		return a, nil
	}
	return a, a.forward(msg)
}

// forward hands anything else (cursor blinks) to the focused text input
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.state.ViewMode {
	case models.PromptMode:
		a.oidPrompt, cmd = a.oidPrompt.Update(msg)
	case models.SearchMode:
		a.searchInput, cmd = a.searchInput.Update(msg)
	case models.ProfileFormMode:
		if a.profileForm != nil {
			a.profileForm, cmd = a.profileForm.Update(msg)
		}
	}
	return cmd
}

func (a *App) handleSessionEvent(ev session.Event) tea.Cmd {
	var cmds []tea.Cmd

	wasActive := a.statusBar.Active()
	a.statusBar.Busy = ev.Busy
	a.statusBar.Connecting = a.controller.Connecting()
	a.statusBar.Connected = ev.State == session.Connected
	a.statusBar.Profile = a.controller.ActiveProfile()
	if a.statusBar.Connecting && ev.Op != nil {
		a.statusBar.Profile = ev.Op.Target
	}

	switch ev.Kind {
	case session.EventStateChanged:
		if ev.State == session.Connected {
			name := a.controller.ActiveProfile()
			if a.deps.Profiles != nil {
				if err := a.deps.Profiles.Touch(name); err != nil {
					a.log.Warn("failed to record profile use", "profile", name, "err", err)
				}
			}
			if t, ok := a.deps.Transport.(interface{ ConnectedAt() time.Time }); ok {
				a.statusBar.ConnectedAt = t.ConnectedAt()
			}
			a.setStatus("Connected to %s", name)
		} else {
			a.setStatus("%s", orDefault(ev.Message, "Disconnected"))
		}
	case session.EventOperationDone:
		if ev.Op != nil && isQuery(ev.Op.Kind) {
			a.setStatus("%s %s: %d rows in %s", ev.Op.Kind, ev.Op.Target, ev.Op.Rows(), ev.Op.Duration().Round(time.Millisecond))
			cmds = append(cmds, a.recordHistory(ev.Op, nil))
		}
	case session.EventError:
		title := "SNMP Error"
		if ev.Op != nil {
			if isQuery(ev.Op.Kind) {
				cmds = append(cmds, a.recordHistory(ev.Op, ev.Err))
			} else {
				title = "Connection Failed"
			}
		}
		a.ShowError(title, ev.Message)
	}

	a.refreshPreview()
	if a.statusBar.Active() && !wasActive {
		cmds = append(cmds, a.statusBar.Tick())
	}
	return tea.Batch(cmds...)
}

func isQuery(k session.OpKind) bool {
	return k != session.OpConnect && k != session.OpDisconnect
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (a *App) handleIndexLoaded(msg indexLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		a.ShowError("MIB Load Failed", msg.Err.Error())
		return nil
	}
	a.index = msg.Index
	a.treeView.SetIndex(msg.Index)
	a.controller.SetResolver(msg.Index)

	status := fmt.Sprintf("Loaded %d MIB modules", msg.Index.Len())
	if msg.Failed > 0 {
		status += fmt.Sprintf(" (%d files failed)", msg.Failed)
	}
	if n := len(msg.Index.Conflicts); n > 0 {
		status += fmt.Sprintf(", %d name conflicts", n)
	}
	a.setStatus("%s", status)
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showError {
		switch msg.String() {
		case "esc", "enter":
			a.DismissError()
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	switch a.state.ViewMode {
	case models.HelpMode:
		if key.Matches(msg, a.keys.Help) || msg.String() == "esc" || msg.String() == "q" {
			a.state.ViewMode = models.NormalMode
		}
		return a, nil
	case models.PickerMode:
		var cmd tea.Cmd
		a.profilePicker, cmd = a.profilePicker.Update(msg)
		return a, cmd
	case models.ProfileFormMode:
		var cmd tea.Cmd
		a.profileForm, cmd = a.profileForm.Update(msg)
		return a, cmd
	case models.PromptMode:
		var cmd tea.Cmd
		a.oidPrompt, cmd = a.oidPrompt.Update(msg)
		return a, cmd
	case models.ConfirmSetMode:
		return a, a.handleConfirmSet(msg)
	case models.SearchMode:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	case models.FilterMode:
		var cmd tea.Cmd
		a.filterBuilder, cmd = a.filterBuilder.Update(msg)
		return a, cmd
	case models.BookmarksMode:
		var cmd tea.Cmd
		a.bookmarksDlg, cmd = a.bookmarksDlg.Update(msg)
		return a, cmd
	case models.HistoryMode:
		var cmd tea.Cmd
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd
	}

	// The tree's inline search owns the keyboard while active
	if a.state.FocusedPanel == models.LeftPanel && a.treeView.SearchActive {
		var cmd tea.Cmd
		a.treeView, cmd = a.treeView.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Help):
		a.state.ViewMode = models.HelpMode
		return a, nil
	case key.Matches(msg, a.keys.Switch):
		if a.state.FocusedPanel == models.LeftPanel {
			a.state.FocusedPanel = models.RightPanel
		} else {
			a.state.FocusedPanel = models.LeftPanel
		}
		a.updatePanelStyles()
		return a, nil
	case key.Matches(msg, a.keys.Connect):
		a.openPicker()
		return a, nil
	case key.Matches(msg, a.keys.Discon):
		return a, a.disconnect()
	case key.Matches(msg, a.keys.GetNext):
		return a, a.openPrompt(session.OpGetNext)
	case key.Matches(msg, a.keys.Continue):
		return a, a.issue(components.OIDSubmitMsg{Kind: session.OpGetNext})
	case key.Matches(msg, a.keys.Walk):
		return a, a.openPrompt(session.OpBulkWalk)
	case key.Matches(msg, a.keys.Set):
		return a, a.openPrompt(session.OpSet)
	case key.Matches(msg, a.keys.History):
		return a, a.loadHistory(false)
	case (key.Matches(msg, a.keys.Bookmarks) || key.Matches(msg, a.keys.AddBookmark)) && a.deps.Bookmarks == nil:
		a.setStatus("Bookmarks are unavailable")
		return a, nil
	case key.Matches(msg, a.keys.Bookmarks):
		a.bookmarksDlg.SetBookmarks(a.deps.Bookmarks.GetAll())
		a.state.ViewMode = models.BookmarksMode
		return a, nil
	case key.Matches(msg, a.keys.AddBookmark):
		oid, _ := a.target()
		a.bookmarksDlg.SetBookmarks(a.deps.Bookmarks.GetAll())
		a.bookmarksDlg.StartAdd(oid)
		a.state.ViewMode = models.BookmarksMode
		return a, nil
	case key.Matches(msg, a.keys.Detail):
		a.showDetail = !a.showDetail
		a.updatePanelStyles()
		return a, nil
	case key.Matches(msg, a.keys.JumpModule):
		a.openSearch(components.SearchModule)
		return a, nil
	case key.Matches(msg, a.keys.ReloadMIBs):
		a.setStatus("Loading MIB modules…")
		return a, a.loadIndex()
	case key.Matches(msg, a.keys.Clear):
		a.sink.Clear()
		a.refreshPreview()
		return a, nil
	}

	if a.state.FocusedPanel == models.LeftPanel {
		var cmd tea.Cmd
		a.treeView, cmd = a.treeView.Update(msg)
		return a, cmd
	}
	if a.showDetail {
		if key.Matches(msg, a.keys.Get) {
			return a, a.openPrompt(session.OpGet)
		}
		return a, a.detail.Update(msg)
	}
	return a, a.handleTableKey(msg)
}

// handleMouse maps clicks on marked zones and wheel scrolls onto the panels.
// Dialogs and overlays ignore the mouse.
func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if a.showError || a.state.ViewMode != models.NormalMode || msg.Action != tea.MouseActionPress {
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		up := msg.Button == tea.MouseButtonWheelUp
		if a.state.FocusedPanel == models.LeftPanel {
			k := tea.KeyMsg{Type: tea.KeyDown}
			if up {
				k.Type = tea.KeyUp
			}
			var cmd tea.Cmd
			a.treeView, cmd = a.treeView.Update(k)
			return cmd
		}
		if !a.showDetail {
			if up {
				a.sink.MoveCursor(-1)
			} else {
				a.sink.MoveCursor(1)
			}
			a.refreshPreview()
		}
		return nil

	case tea.MouseButtonLeft:
		if ok, node := a.treeView.HandleMouseClick(msg); ok {
			a.state.FocusedPanel = models.LeftPanel
			a.updatePanelStyles()
			return func() tea.Msg { return components.TreeNodeSelectedMsg{Node: node} }
		}
		if a.showDetail {
			return nil
		}
		if ok, i := a.tableView.HandleMouseClick(msg); ok {
			a.state.FocusedPanel = models.RightPanel
			a.updatePanelStyles()
			if oid, _, ok := a.sink.Select(i); ok {
				a.setStatus("Next target: %s", oid)
			}
			a.refreshPreview()
		}
	}
	return nil
}

func (a *App) handleTableKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Get):
		return a.openPrompt(session.OpGet)
	case key.Matches(msg, a.keys.Up):
		a.sink.MoveCursor(-1)
	case key.Matches(msg, a.keys.Down):
		a.sink.MoveCursor(1)
	case key.Matches(msg, a.keys.PageUp):
		a.sink.PageUp()
	case key.Matches(msg, a.keys.PageDown):
		a.sink.PageDown()
	case key.Matches(msg, a.keys.Select):
		if oid, _, ok := a.sink.SelectCursor(); ok {
			a.setStatus("Next target: %s", oid)
		}
	case key.Matches(msg, a.keys.Search):
		a.openSearch(components.SearchRows)
	case key.Matches(msg, a.keys.Filter):
		a.filterBuilder.SetFilter(a.sink.Filter())
		a.state.ViewMode = models.FilterMode
	case key.Matches(msg, a.keys.Unfilter):
		a.sink.ClearFilter()
	case key.Matches(msg, a.keys.Facet):
		if row, ok := a.cursorRow(); ok {
			a.sink.ToggleFacet("Type", row.Type)
		}
	case key.Matches(msg, a.keys.Unfacet):
		a.sink.SetFacet("Type")
	case key.Matches(msg, a.keys.Sort):
		a.sortCol = (a.sortCol + 1) % len(sortColumns)
		if err := a.sink.SortBy(sortColumns[a.sortCol], a.sortDesc); err != nil {
			a.ShowError("Sort", err.Error())
		}
		a.setStatus("Sort: %s", orDefault(sortColumns[a.sortCol], "arrival"))
	case key.Matches(msg, a.keys.SortDesc):
		a.sortDesc = !a.sortDesc
		if err := a.sink.SortBy(sortColumns[a.sortCol], a.sortDesc); err != nil {
			a.ShowError("Sort", err.Error())
		}
	case key.Matches(msg, a.keys.Preview):
		a.refreshPreview()
		a.preview.Toggle()
	case key.Matches(msg, a.keys.Copy):
		if row, ok := a.cursorRow(); ok {
			return a.copyRows([]models.ResultRow{row})
		}
	case key.Matches(msg, a.keys.CopyAll):
		return a.copyRows(a.sink.View())
	case key.Matches(msg, a.keys.CSV):
		return a.exportRows("csv")
	case key.Matches(msg, a.keys.JSON):
		return a.exportRows("json")
	}
	a.refreshPreview()
	return nil
}

func (a *App) handleConfirmSet(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		req := *a.pendingSet
		a.pendingSet = nil
		a.state.ViewMode = models.NormalMode
		return a.issue(req)
	case "n", "N", "esc":
		a.pendingSet = nil
		a.state.ViewMode = models.NormalMode
		a.setStatus("Set cancelled")
	}
	return nil
}

func (a *App) handleSearch(msg components.SearchInputMsg) tea.Cmd {
	if msg.Mode == components.SearchRows {
		a.sink.SetSearch(msg.Query)
		if msg.Final {
			a.state.ViewMode = models.NormalMode
			a.updatePanelDimensions()
		}
		return nil
	}

	a.state.ViewMode = models.NormalMode
	a.updatePanelDimensions()
	if a.index == nil {
		a.setStatus("MIB modules are not loaded yet")
		return nil
	}
	node, err := a.index.FocusByName(msg.Query)
	if err != nil {
		var nf *schema.NotFoundError
		if errors.As(err, &nf) {
			a.setStatus("%s", err.Error())
			return nil
		}
		a.ShowError("MIB Lookup", err.Error())
		return nil
	}
	a.treeView.FocusNode(node)
	a.state.FocusedPanel = models.LeftPanel
	a.detail.SetNode(node)
	a.showDetail = true
	a.updatePanelStyles()
	return nil
}

func (a *App) openSearch(mode string) {
	a.searchInput.Reset()
	if mode != a.searchInput.Mode {
		a.searchInput.ToggleMode()
	}
	if mode == components.SearchRows {
		a.searchInput.Input.SetValue(a.sink.SearchTerm())
	}
	a.searchInput.Input.Focus()
	a.state.ViewMode = models.SearchMode
	a.updatePanelDimensions()
}

func (a *App) openPicker() {
	if a.deps.Profiles == nil {
		a.ShowError("Profiles", "no profile store configured")
		return
	}
	a.profilePicker.SetEntries(a.deps.Profiles.GetRecent(0))
	a.state.ViewMode = models.PickerMode
}

func (a *App) openProfileForm() {
	if a.builder == nil {
		a.ShowError("Profiles", "no profile store configured")
		return
	}
	a.profileForm = components.NewProfileForm(a.builder, a.theme)
	a.state.ViewMode = models.ProfileFormMode
}

// openPrompt asks for the target of kind, seeded from the current selection
func (a *App) openPrompt(kind session.OpKind) tea.Cmd {
	if !a.controller.ControlsEnabled() {
		a.setStatus("%s needs a connection; press c to connect", kind)
		return nil
	}
	oid, typ := a.target()
	if kind == session.OpGetNext && oid == "" {
		oid = a.controller.LastOID()
	}
	a.state.ViewMode = models.PromptMode
	a.updatePanelDimensions()
	return tea.Batch(a.oidPrompt.Open(kind, oid, typ), a.loadHistory(true))
}

// target is the OID the next query defaults to: the focused MIB node, else
// the last selected row
func (a *App) target() (oid, typ string) {
	if a.state.FocusedPanel == models.LeftPanel {
		if n := a.treeView.GetCurrentNode(); n != nil {
			if sn, ok := n.Metadata.(models.SchemaNode); ok {
				return sn.OID, ""
			}
		}
	}
	if sel, ok := a.sink.Selection(); ok {
		return sel.OID, sel.Type
	}
	return "", ""
}

func (a *App) cursorRow() (models.ResultRow, bool) {
	view := a.sink.View()
	cur := a.sink.Viewport().Cursor
	if cur < 0 || cur >= len(view) {
		return models.ResultRow{}, false
	}
	return view[cur], true
}

// refreshPreview points the detail pane at the row under the cursor
func (a *App) refreshPreview() {
	row, ok := a.cursorRow()
	if !ok {
		return
	}
	d := components.RowDetail{Row: row}
	if a.index != nil {
		if n, _, found := a.index.LookupOID(row.OID); found {
			d.Node = &n
			d.Module, _ = a.index.ModuleOfOID(row.OID)
		}
	}
	a.preview.SetDetail(d)
}

func (a *App) saveBookmark(msg components.SaveBookmarkMsg) {
	var err error
	if msg.ID == "" {
		_, err = a.deps.Bookmarks.Add(msg.Name, msg.OID, msg.Operation, msg.Description, msg.Tags)
	} else {
		err = a.deps.Bookmarks.Update(msg.ID, msg.Name, msg.OID, msg.Operation, msg.Description, msg.Tags)
	}
	if err != nil {
		a.bookmarksDlg.SetError(err)
		return
	}
	a.bookmarksDlg.FinishEdit()
	a.bookmarksDlg.SetBookmarks(a.deps.Bookmarks.GetAll())
	a.setStatus("Saved bookmark %s", msg.Name)
}

func (a *App) copyRows(rows []models.ResultRow) tea.Cmd {
	if err := export.CopyRows(rows); err != nil {
		a.ShowError("Copy", err.Error())
		return nil
	}
	a.setStatus("Copied %d %s", len(rows), plural(len(rows), "row", "rows"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func recentOIDs(entries []history.Entry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		oid := strings.TrimSpace(e.OID)
		if oid == "" || seen[oid] {
			continue
		}
		seen[oid] = true
		out = append(out, oid)
	}
	return out
}

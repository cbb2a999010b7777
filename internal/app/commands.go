package app

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazysnmp/internal/export"
	"github.com/rebeliceyang/lazysnmp/internal/history"
	"github.com/rebeliceyang/lazysnmp/internal/mib"
	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/profile"
	"github.com/rebeliceyang/lazysnmp/internal/schema"
	"github.com/rebeliceyang/lazysnmp/internal/session"
	"github.com/rebeliceyang/lazysnmp/internal/ui/components"
)

// indexLoadedMsg carries a freshly built MIB index
type indexLoadedMsg struct {
	Index  *schema.Index
	Failed int
	Err    error
}

// statusMsg replaces the status line
type statusMsg string

// errorMsg opens the error overlay
type errorMsg struct {
	Title string
	Err   error
}

// historyLoadedMsg carries recent history for the history list or the prompt
type historyLoadedMsg struct {
	Entries   []history.Entry
	ForPrompt bool
	Err       error
}

// profileSavedMsg reports the outcome of a profile form submit
type profileSavedMsg struct {
	Profile models.ConnectionProfile
	Err     error
}

const mibLoadTimeout = 2 * time.Minute

func (a *App) loadIndex() tea.Cmd {
	if a.deps.Fetcher == nil {
		return nil
	}
	fetcher := a.deps.Fetcher
	indexer := a.indexer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mibLoadTimeout)
		defer cancel()

		idx, err := indexer.Load(ctx, fetcher)
		if err != nil {
			return indexLoadedMsg{Err: err}
		}
		var failed int
		if l, ok := fetcher.(interface{ Failed() []mib.LoadError }); ok {
			failed = len(l.Failed())
		}
		return indexLoadedMsg{Index: idx, Failed: failed}
	}
}

func (a *App) pruneHistory() tea.Cmd {
	store := a.deps.History
	days := a.config.History.RetentionDays
	log := a.log
	return func() tea.Msg {
		cutoff := time.Now().AddDate(0, 0, -days)
		n, err := store.Prune(cutoff)
		if err != nil {
			log.Warn("failed to prune history", "err", err)
			return nil
		}
		if n > 0 {
			log.Info("pruned history", "entries", n, "cutoff", cutoff)
		}
		return nil
	}
}

func (a *App) loadHistory(forPrompt bool) tea.Cmd {
	if a.deps.History == nil {
		if !forPrompt {
			a.setStatus("History is disabled")
		}
		return nil
	}
	store := a.deps.History
	limit := a.config.History.MaxEntries
	if limit <= 0 {
		limit = 100
	}
	return func() tea.Msg {
		entries, err := store.GetRecent(limit)
		return historyLoadedMsg{Entries: entries, ForPrompt: forPrompt, Err: err}
	}
}

func (a *App) recordHistory(op *session.Operation, opErr error) tea.Cmd {
	profileName := a.opProfiles[op.ID]
	delete(a.opProfiles, op.ID)
	if a.deps.History == nil {
		return nil
	}

	entry := history.Entry{
		OperationID: op.ID,
		ProfileName: profileName,
		Kind:        string(op.Kind),
		OID:         op.Target,
		ExecutedAt:  op.Started,
		Duration:    op.Duration(),
		Rows:        op.Rows(),
		Dropped:     op.Dropped(),
		Success:     opErr == nil,
	}
	if opErr != nil {
		entry.ErrorMessage = opErr.Error()
	}

	store := a.deps.History
	log := a.log
	return func() tea.Msg {
		if _, err := store.Add(entry); err != nil {
			log.Warn("failed to record history", "op", entry.OperationID, "err", err)
		}
		return nil
	}
}

func (a *App) connect(name string) tea.Cmd {
	if _, err := a.controller.Connect(a.ctx(), name); err != nil {
		a.setStatus("%s", err.Error())
	}
	return nil
}

func (a *App) disconnect() tea.Cmd {
	if _, err := a.controller.Disconnect(a.ctx()); err != nil {
		a.setStatus("%s", err.Error())
	}
	return nil
}

// issue starts the query req describes. Rejections land in the status line;
// outcomes arrive as session events.
func (a *App) issue(req components.OIDSubmitMsg) tea.Cmd {
	var (
		op  *session.Operation
		err error
	)
	switch req.Kind {
	case session.OpGet:
		op, err = a.controller.Get(a.ctx(), req.OID)
	case session.OpGetNext:
		op, err = a.controller.GetNext(a.ctx(), req.OID)
	case session.OpBulkWalk:
		op, err = a.controller.BulkWalk(a.ctx(), req.OID)
	case session.OpSet:
		op, err = a.controller.Set(a.ctx(), req.OID, req.Type, req.Value)
	default:
		a.setStatus("Unknown operation %q", req.Kind)
		return nil
	}
	if err != nil {
		if errors.Is(err, session.ErrRejected) {
			a.setStatus("%s", err.Error())
			return nil
		}
		a.ShowError("SNMP Error", err.Error())
		return nil
	}
	a.opProfiles[op.ID] = a.controller.ActiveProfile()
	return nil
}

func (a *App) submitProfile(f profile.Fields) tea.Cmd {
	builder := a.builder
	return func() tea.Msg {
		p, err := builder.Submit(context.Background(), f)
		return profileSavedMsg{Profile: p, Err: err}
	}
}

// exportRows writes the current view to a timestamped file in the export
// directory
func (a *App) exportRows(ext string) tea.Cmd {
	rows := a.sink.View()
	if len(rows) == 0 {
		a.setStatus("Nothing to export")
		return nil
	}
	path := filepath.Join(a.deps.ExportDir, exportName(ext))
	return func() tea.Msg {
		var err error
		switch ext {
		case "csv":
			err = export.RowsToCSV(rows, path)
		default:
			err = export.RowsToJSON(rows, path)
		}
		if err != nil {
			return errorMsg{Title: "Export Failed", Err: err}
		}
		return statusMsg("Exported " + path)
	}
}

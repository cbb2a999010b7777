package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazysnmp/internal/bookmarks"
	"github.com/rebeliceyang/lazysnmp/internal/config"
	"github.com/rebeliceyang/lazysnmp/internal/history"
	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/profile"
	"github.com/rebeliceyang/lazysnmp/internal/results"
	"github.com/rebeliceyang/lazysnmp/internal/schema"
	"github.com/rebeliceyang/lazysnmp/internal/session"
	"github.com/rebeliceyang/lazysnmp/internal/snmp"
	"github.com/rebeliceyang/lazysnmp/internal/ui/components"
	"github.com/rebeliceyang/lazysnmp/internal/ui/theme"
)

// Deps are the collaborators the console drives
type Deps struct {
	Transport session.Transport
	Profiles  *profile.Store
	Bookmarks *bookmarks.Manager
	// History may be nil, which disables operation history
	History *history.Store
	// Fetcher supplies the MIB module batch; nil leaves the tree empty
	Fetcher   schema.Fetcher
	ExportDir string
	Logger    *slog.Logger
}

// App is the main application model
type App struct {
	state  models.AppState
	config *config.Config
	theme  theme.Theme
	keys   keyMap
	help   help.Model
	log    *slog.Logger
	deps   Deps
	events *eventQueue

	controller *session.Controller
	sink       *results.Sink
	builder    *profile.Builder
	indexer    *schema.Indexer
	index      *schema.Index

	leftPanel  components.Panel
	rightPanel components.Panel
	showDetail bool

	treeView      *components.TreeView
	tableView     *components.TableView
	statusBar     *components.StatusBar
	preview       *components.PreviewPane
	detail        *components.ModuleDetail
	oidPrompt     *components.OIDPrompt
	searchInput   *components.SearchInput
	filterBuilder *components.FilterBuilder
	bookmarksDlg  *components.BookmarksDialog
	profileForm   *components.ProfileForm
	profilePicker *components.ProfilePicker
	historyView   *components.HistoryView

	showError    bool
	errorOverlay *components.ErrorOverlay
	pendingSet   *components.OIDSubmitMsg

	// opProfiles remembers which profile each query ran against
	opProfiles map[string]string
	sortCol    int
	sortDesc   bool
}

// sortColumns is the cycle of the sort key; "" is insertion order
var sortColumns = append([]string{""}, models.ResultColumns...)

// New creates the console over deps
func New(cfg *config.Config, deps Deps) (*App, error) {
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lateRows, err := session.ParseLateRowPolicy(cfg.Session.LateRows)
	if err != nil {
		return nil, err
	}
	policy, err := schema.PolicyByName(cfg.Schema.ConflictPolicy)
	if err != nil {
		return nil, err
	}

	state := models.NewAppState()
	if cfg.UI.PanelWidthRatio > 0 && cfg.UI.PanelWidthRatio < 100 {
		state.LeftPanelWidth = cfg.UI.PanelWidthRatio
	}
	th := theme.GetTheme(cfg.UI.Theme)

	a := &App{
		state:      state,
		config:     cfg,
		theme:      th,
		keys:       defaultKeyMap(),
		help:       help.New(),
		log:        logger.With("component", "app"),
		deps:       deps,
		events:     newEventQueue(),
		sink:       results.NewSink(cfg.Results.TableOffset),
		indexer:    schema.NewIndexer(policy),
		opProfiles: make(map[string]string),
	}
	if deps.Profiles != nil {
		a.builder = profile.NewBuilder(deps.Profiles, deps.Profiles)
	}

	var profiles session.ProfileSource
	if deps.Profiles != nil {
		profiles = deps.Profiles
	}
	a.controller = session.NewController(deps.Transport, profiles, a.sink, session.Options{
		ConnectTimeout:    cfg.SNMP.ConnectTimeoutDuration(),
		DisconnectTimeout: cfg.SNMP.DisconnectTimeoutDuration(),
		QueryTimeout:      cfg.SNMP.QueryTimeoutDuration(),
		LateRows:          lateRows,
		Notifier:          func(ev session.Event) { a.events.push(sessionEventMsg{ev}) },
		Logger:            logger,
	})
	if t, ok := deps.Transport.(*snmp.Transport); ok {
		t.OnStatusChange = a.controller.HandleStatusChange
	}

	a.treeView = components.NewTreeView(nil, th)
	a.tableView = components.NewTableView(a.sink, th)
	a.statusBar = components.NewStatusBar(th)
	a.preview = components.NewPreviewPane(th)
	a.detail = components.NewModuleDetail(th)
	a.oidPrompt = components.NewOIDPrompt(th)
	a.searchInput = components.NewSearchInput(th)
	a.filterBuilder = components.NewFilterBuilder(th)
	a.bookmarksDlg = components.NewBookmarksDialog(th)
	a.profilePicker = components.NewProfilePicker(th)
	a.historyView = components.NewHistoryView(th)
	a.errorOverlay = components.NewErrorOverlay(th)

	a.help.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Warning)
	a.help.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Metadata)
	a.leftPanel = components.Panel{Title: "MIB Modules", Theme: th}
	a.rightPanel = components.Panel{Title: "Results", Theme: th}

	a.updatePanelDimensions()
	a.updatePanelStyles()
	return a, nil
}

// Controller exposes the session controller
func (a *App) Controller() *session.Controller {
	return a.controller
}

// Sink exposes the result store
func (a *App) Sink() *results.Sink {
	return a.sink
}

// Run starts forwarding controller events to p. It returns a stop function.
func (a *App) Run(p *tea.Program) func() {
	go a.events.run(p.Send)
	return a.events.stop
}

// Close ends the session once the program has exited. With nothing
// connected it still releases whatever the transport holds.
func (a *App) Close(ctx context.Context) error {
	op, err := a.controller.Disconnect(ctx)
	if err != nil {
		return a.deps.Transport.Disconnect(ctx)
	}
	select {
	case <-op.Done():
		return op.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.config.Schema.LoadOnStart {
		cmds = append(cmds, a.loadIndex())
	}
	if a.config.General.AutoConnectLast && a.deps.Profiles != nil {
		if recent := a.deps.Profiles.GetRecent(1); len(recent) > 0 && !recent[0].LastUsed.IsZero() {
			name := recent[0].Name
			cmds = append(cmds, func() tea.Msg { return components.ConnectProfileMsg{Name: name} })
		}
	}
	if a.deps.History != nil && a.config.History.RetentionDays > 0 {
		cmds = append(cmds, a.pruneHistory())
	}
	return tea.Batch(cmds...)
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}

func (a *App) setStatus(format string, args ...any) {
	a.state.StatusMessage = fmt.Sprintf(format, args...)
}

// context for collaborator calls started from the UI; the controller bounds
// them with its own timeouts
func (a *App) ctx() context.Context {
	return context.Background()
}

// exportName builds a timestamped export file name
func exportName(ext string) string {
	return fmt.Sprintf("lazysnmp-%s.%s", time.Now().Format("20060102-150405"), ext)
}

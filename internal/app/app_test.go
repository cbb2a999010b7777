package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazysnmp/internal/bookmarks"
	"github.com/rebeliceyang/lazysnmp/internal/config"
	"github.com/rebeliceyang/lazysnmp/internal/history"
	"github.com/rebeliceyang/lazysnmp/internal/models"
	"github.com/rebeliceyang/lazysnmp/internal/profile"
	"github.com/rebeliceyang/lazysnmp/internal/session"
	"github.com/rebeliceyang/lazysnmp/internal/ui/components"
)

func init() {
	zone.NewGlobal()
}

type fakeTransport struct {
	mu          sync.Mutex
	connectErr  error
	queries     []string
	walkRows    int
	disconnects int
}

func (f *fakeTransport) Connect(context.Context, models.ConnectionProfile) error {
	return f.connectErr
}

func (f *fakeTransport) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeTransport) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

func (f *fakeTransport) record(kind, oid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, kind+" "+oid)
}

func (f *fakeTransport) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func row(oid, typ, value string) models.ResultRow {
	r, err := models.NewResultRow(time.Now(), oid, "", typ, value)
	if err != nil {
		panic(err)
	}
	return r
}

func (f *fakeTransport) Get(_ context.Context, oid string, emit func(models.ResultRow)) error {
	f.record("get", oid)
	emit(row(oid, "OctetString", "router"))
	return nil
}

func (f *fakeTransport) GetNext(_ context.Context, oid string, emit func(models.ResultRow)) error {
	f.record("getnext", oid)
	emit(row(oid+".1", "OctetString", "next"))
	return nil
}

func (f *fakeTransport) BulkWalk(_ context.Context, oid string, emit func(models.ResultRow)) error {
	f.record("bulkwalk", oid)
	for i := 1; i <= f.walkRows; i++ {
		emit(row(oid+"."+string(rune('0'+i)), "Integer", "1"))
	}
	return nil
}

func (f *fakeTransport) Set(_ context.Context, oid, typ, value string, emit func(models.ResultRow)) error {
	f.record("set", oid)
	emit(row(oid, typ, value))
	return nil
}

type staticFetcher map[string]models.SchemaModule

func (s staticFetcher) FetchModules(context.Context) ([]byte, error) {
	return models.EncodeSchemaModules(s)
}

// harness drives the model the way a tea.Program would: commands run on
// their own goroutines and feed their messages back through msgs
type harness struct {
	t    *testing.T
	app  *App
	msgs chan tea.Msg
}

func (h *harness) exec(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	go func() {
		if msg := cmd(); msg != nil {
			h.msgs <- msg
		}
	}()
}

func (h *harness) send(msg tea.Msg) {
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, cmd := range batch {
			h.exec(cmd)
		}
		return
	}
	_, cmd := h.app.Update(msg)
	h.exec(cmd)
}

func (h *harness) key(k string) {
	switch k {
	case "esc":
		h.send(tea.KeyMsg{Type: tea.KeyEsc})
	default:
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	}
}

// until processes messages until cond holds
func (h *harness) until(cond func() bool) {
	h.t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond() {
		select {
		case msg := <-h.msgs:
			h.send(msg)
		case <-deadline:
			h.t.Fatal("timed out waiting for condition")
		}
	}
}

type options struct {
	cfg       *config.Config
	transport *fakeTransport
	history   bool
	fetcher   staticFetcher
}

func newHarness(t *testing.T, opts options) (*harness, *profile.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := profile.NewStore(dir, nil)
	require.NoError(t, err)
	data, err := models.EncodeConnectionProfile(models.ConnectionProfile{
		Name: "lab", Target: "127.0.0.1", Version: models.Version2c, Community: "public",
	})
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), data))

	marks, err := bookmarks.NewManager(dir)
	require.NoError(t, err)

	cfg := opts.cfg
	if cfg == nil {
		cfg = config.GetDefaults()
		cfg.Schema.LoadOnStart = false
	}
	if opts.transport == nil {
		opts.transport = &fakeTransport{}
	}

	deps := Deps{
		Transport: opts.transport,
		Profiles:  store,
		Bookmarks: marks,
		ExportDir: dir,
	}
	if opts.history {
		hist, err := history.NewStore(filepath.Join(dir, "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { hist.Close() })
		deps.History = hist
	}
	if opts.fetcher != nil {
		deps.Fetcher = opts.fetcher
	}

	a, err := New(cfg, deps)
	require.NoError(t, err)

	h := &harness{t: t, app: a, msgs: make(chan tea.Msg, 256)}
	go a.events.run(func(m tea.Msg) { h.msgs <- m })
	t.Cleanup(a.events.stop)

	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h, store
}

func (h *harness) connect() {
	h.t.Helper()
	h.send(components.ConnectProfileMsg{Name: "lab"})
	h.until(func() bool { return h.app.statusBar.Connected && !h.app.controller.Busy() })
}

func TestConnectEnablesControlsAndRecordsUse(t *testing.T) {
	h, store := newHarness(t, options{})
	h.connect()

	require.True(t, h.app.Controller().ControlsEnabled())
	require.Equal(t, "lab", h.app.statusBar.Profile)
	require.Contains(t, h.app.state.StatusMessage, "Connected to lab")

	recent := store.GetRecent(1)
	require.Len(t, recent, 1)
	require.Equal(t, 1, recent[0].UsageCount)
	require.False(t, recent[0].LastUsed.IsZero())
}

func TestQueryKeysNeedConnection(t *testing.T) {
	h, _ := newHarness(t, options{})

	h.key("w")
	require.Equal(t, models.NormalMode, h.app.state.ViewMode)
	require.Contains(t, h.app.state.StatusMessage, "needs a connection")

	// A query issued directly is rejected into the status line
	h.send(components.OIDSubmitMsg{Kind: session.OpGet, OID: "1.3.6.1.2.1.1.1.0"})
	require.Contains(t, h.app.state.StatusMessage, "no connection available")
	require.False(t, h.app.showError)
}

func TestWalkStreamsRowsAndRecordsHistory(t *testing.T) {
	tr := &fakeTransport{walkRows: 3}
	h, _ := newHarness(t, options{transport: tr, history: true})
	h.connect()

	h.key("w")
	require.Equal(t, models.PromptMode, h.app.state.ViewMode)

	h.send(components.OIDSubmitMsg{Kind: session.OpBulkWalk, OID: "1.3.6.1.2.1.1"})
	require.Equal(t, models.NormalMode, h.app.state.ViewMode)

	var entries []history.Entry
	h.until(func() bool {
		var err error
		entries, err = h.app.deps.History.GetRecent(10)
		require.NoError(t, err)
		return len(entries) == 1
	})

	require.Equal(t, 3, h.app.Sink().Len())
	require.Equal(t, []string{"bulkwalk 1.3.6.1.2.1.1"}, tr.Queries())
	require.Contains(t, h.app.state.StatusMessage, "3 rows")

	e := entries[0]
	require.Equal(t, "lab", e.ProfileName)
	require.Equal(t, "bulkwalk", e.Kind)
	require.Equal(t, "1.3.6.1.2.1.1", e.OID)
	require.Equal(t, 3, e.Rows)
	require.True(t, e.Success)
	require.Empty(t, h.app.opProfiles)
}

func TestSetAsksForConfirmation(t *testing.T) {
	tr := &fakeTransport{}
	h, _ := newHarness(t, options{transport: tr})
	h.connect()

	req := components.OIDSubmitMsg{Kind: session.OpSet, OID: "1.3.6.1.2.1.1.5.0", Type: "OctetString", Value: "core-1"}

	h.send(req)
	require.Equal(t, models.ConfirmSetMode, h.app.state.ViewMode)
	require.Contains(t, h.app.View(), "Confirm SET")

	h.key("n")
	require.Equal(t, models.NormalMode, h.app.state.ViewMode)
	require.Empty(t, tr.Queries())

	h.send(req)
	h.key("y")
	h.until(func() bool { return h.app.Sink().Len() == 1 })
	require.Equal(t, []string{"set 1.3.6.1.2.1.1.5.0"}, tr.Queries())
}

func TestSetWithoutConfirmation(t *testing.T) {
	cfg := config.GetDefaults()
	cfg.Schema.LoadOnStart = false
	cfg.General.ConfirmSet = false
	tr := &fakeTransport{}
	h, _ := newHarness(t, options{cfg: cfg, transport: tr})
	h.connect()

	h.send(components.OIDSubmitMsg{Kind: session.OpSet, OID: "1.3.6.1.2.1.1.5.0", Type: "OctetString", Value: "x"})
	require.Equal(t, models.NormalMode, h.app.state.ViewMode)
	h.until(func() bool { return h.app.Sink().Len() == 1 })
}

func TestConnectFailureShowsErrorOverlay(t *testing.T) {
	tr := &fakeTransport{connectErr: errors.New("no route to host")}
	h, _ := newHarness(t, options{transport: tr})

	h.send(components.ConnectProfileMsg{Name: "lab"})
	h.until(func() bool { return h.app.showError })

	view := h.app.View()
	require.Contains(t, view, "Connection Failed")
	require.False(t, h.app.Controller().ControlsEnabled())

	h.key("esc")
	require.False(t, h.app.showError)
}

func TestModuleJumpFocusesTree(t *testing.T) {
	cfg := config.GetDefaults()
	fetcher := staticFetcher{
		"IF-MIB": {Name: "IF-MIB", Nodes: []models.SchemaNode{{Name: "ifDescr", OID: "1.3.6.1.2.1.2.2.1.2"}}},
		"SNMPv2-MIB": {Name: "SNMPv2-MIB", Nodes: []models.SchemaNode{
			{Name: "sysDescr", OID: "1.3.6.1.2.1.1.1"},
		}},
	}
	h, _ := newHarness(t, options{cfg: cfg, fetcher: fetcher})

	h.exec(h.app.Init())
	h.until(func() bool { return h.app.index != nil })
	require.Contains(t, h.app.state.StatusMessage, "Loaded 2 MIB modules")

	h.send(components.SearchInputMsg{Query: "if mib", Mode: components.SearchModule, Final: true})
	require.True(t, h.app.showDetail)
	require.Equal(t, models.LeftPanel, h.app.state.FocusedPanel)
	require.Equal(t, "IF-MIB", h.app.treeView.GetCurrentNode().Label)

	h.send(components.SearchInputMsg{Query: "nope", Mode: components.SearchModule, Final: true})
	require.Contains(t, h.app.state.StatusMessage, `"nope" not found`)
	require.False(t, h.app.showError)
}

func TestHelpToggle(t *testing.T) {
	h, _ := newHarness(t, options{})

	h.key("?")
	require.Equal(t, models.HelpMode, h.app.state.ViewMode)
	require.NotEmpty(t, h.app.View())

	h.key("?")
	require.Equal(t, models.NormalMode, h.app.state.ViewMode)
}

func TestViewRendersPanels(t *testing.T) {
	h, _ := newHarness(t, options{})
	view := h.app.View()

	require.Contains(t, view, "MIB Modules")
	require.Contains(t, view, "Results")
	require.Contains(t, view, "disconnected")
	require.LessOrEqual(t, len(strings.Split(view, "\n")), 40)
}

// clickOn waits until a rendered frame has registered id and returns a left
// click on its first cell
func clickOn(t *testing.T, id string) tea.MouseMsg {
	t.Helper()
	var z *zone.ZoneInfo
	require.Eventually(t, func() bool {
		z = zone.Get(id)
		return !z.IsZero()
	}, 2*time.Second, 5*time.Millisecond, "zone %s never registered", id)
	return tea.MouseMsg{X: z.StartX, Y: z.StartY, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
}

func TestClickOnRowSelectsNextTarget(t *testing.T) {
	tr := &fakeTransport{walkRows: 3}
	h, _ := newHarness(t, options{transport: tr})
	h.connect()

	h.send(components.OIDSubmitMsg{Kind: session.OpBulkWalk, OID: "1.3.6.1.2.1.1"})
	h.until(func() bool { return h.app.Sink().Len() == 3 && !h.app.controller.Busy() })

	h.app.state.FocusedPanel = models.LeftPanel
	h.app.View()
	h.send(clickOn(t, components.RowZoneID(1)))

	sel, ok := h.app.Sink().Selection()
	require.True(t, ok)
	require.Equal(t, "1.3.6.1.2.1.1.2", sel.OID)
	require.Equal(t, models.RightPanel, h.app.state.FocusedPanel)
	require.Contains(t, h.app.state.StatusMessage, "Next target: 1.3.6.1.2.1.1.2")

	// The next query defaults to the clicked row
	oid, typ := h.app.target()
	require.Equal(t, "1.3.6.1.2.1.1.2", oid)
	require.Equal(t, "Integer", typ)
}

func TestClickOnTreeNodeFocusesTree(t *testing.T) {
	fetcher := staticFetcher{
		"IF-MIB":     {Name: "IF-MIB", Nodes: []models.SchemaNode{{Name: "ifDescr", OID: "1.3.6.1.2.1.2.2.1.2"}}},
		"SNMPv2-MIB": {Name: "SNMPv2-MIB", Nodes: []models.SchemaNode{{Name: "sysDescr", OID: "1.3.6.1.2.1.1.1"}}},
	}
	h, _ := newHarness(t, options{cfg: config.GetDefaults(), fetcher: fetcher})
	h.exec(h.app.Init())
	h.until(func() bool { return h.app.index != nil })

	h.app.state.FocusedPanel = models.RightPanel
	h.app.View()
	h.send(clickOn(t, components.NodeZoneID(1)))

	require.Equal(t, models.LeftPanel, h.app.state.FocusedPanel)
	require.Equal(t, 1, h.app.treeView.CursorIndex)
	require.Equal(t, "SNMPv2-MIB", h.app.treeView.GetCurrentNode().Label)
}

func TestMouseIgnoredUnderOverlay(t *testing.T) {
	h, _ := newHarness(t, options{})
	h.app.ShowError("SNMP Error", "timeout")
	focused := h.app.state.FocusedPanel

	h.send(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	h.send(tea.MouseMsg{Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	require.True(t, h.app.showError)
	require.Equal(t, focused, h.app.state.FocusedPanel)
}

func TestMissingProfileStore(t *testing.T) {
	cfg := config.GetDefaults()
	cfg.Schema.LoadOnStart = false
	a, err := New(cfg, Deps{Transport: &fakeTransport{}})
	require.NoError(t, err)
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	a.Update(components.ConnectProfileMsg{Name: "lab"})
	require.Contains(t, a.state.StatusMessage, "no profile store configured")
	require.False(t, a.Controller().Connecting())

	// A Connected event still renders without a store to record use in
	a.Update(sessionEventMsg{session.Event{Kind: session.EventStateChanged, State: session.Connected}})
	require.True(t, a.statusBar.Connected)

	a.Update(components.DeleteProfileMsg{Name: "lab"})
	require.True(t, a.showError)
	require.Contains(t, a.View(), "no profile store configured")
}

func TestCloseReleasesTransport(t *testing.T) {
	tr := &fakeTransport{}
	h, _ := newHarness(t, options{transport: tr})
	h.connect()

	require.NoError(t, h.app.Close(context.Background()))
	require.Equal(t, 1, tr.disconnectCount())
	require.Equal(t, session.Disconnected, h.app.Controller().State())
}

func TestCloseWithoutSessionStillReleasesTransport(t *testing.T) {
	tr := &fakeTransport{}
	h, _ := newHarness(t, options{transport: tr})

	require.NoError(t, h.app.Close(context.Background()))
	require.Equal(t, 1, tr.disconnectCount())
}

// Package session owns the connection state machine and dispatches queries to
// the SNMP transport, streaming their rows into the result sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// State of the single session slot
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "Connected"
	}
	return "Disconnected"
}

// InitialGetNextOID is where GetNext starts before any row was seen
const InitialGetNextOID = "1.1.0"

// Transport speaks SNMP to one agent. Query methods call emit once per
// variable binding, in delivery order, from the calling goroutine.
type Transport interface {
	Connect(ctx context.Context, profile models.ConnectionProfile) error
	Disconnect(ctx context.Context) error
	Get(ctx context.Context, oid string, emit func(models.ResultRow)) error
	GetNext(ctx context.Context, oid string, emit func(models.ResultRow)) error
	BulkWalk(ctx context.Context, oid string, emit func(models.ResultRow)) error
	Set(ctx context.Context, oid, typ, value string, emit func(models.ResultRow)) error
}

// ProfileSource resolves a profile name to its full parameters
type ProfileSource interface {
	Profile(ctx context.Context, name string) (models.ConnectionProfile, error)
}

// RowSink receives the rows the controller admits
type RowSink interface {
	Append(row models.ResultRow)
	Clear()
}

// Resolver maps an OID to the name of the MIB node that defines it
type Resolver interface {
	ResolveOID(oid string) (string, bool)
}

// LateRowPolicy decides what happens to rows that arrive after the session
// that requested them has ended
type LateRowPolicy string

const (
	LateRowsDrop LateRowPolicy = "drop"
	LateRowsTag  LateRowPolicy = "tag"
)

// ParseLateRowPolicy accepts "drop" or "tag"; empty means drop
func ParseLateRowPolicy(s string) (LateRowPolicy, error) {
	switch LateRowPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", LateRowsDrop:
		return LateRowsDrop, nil
	case LateRowsTag:
		return LateRowsTag, nil
	default:
		return "", fmt.Errorf("unknown late row policy %q", s)
	}
}

// Options tune the controller
type Options struct {
	// ConnectTimeout bounds a connect call even if the transport ignores ctx
	ConnectTimeout time.Duration
	// DisconnectTimeout bounds the best-effort disconnect call
	DisconnectTimeout time.Duration
	// QueryTimeout bounds Get, GetNext and Set; zero leaves them to the transport.
	// Walks are only bounded by the session.
	QueryTimeout time.Duration
	LateRows     LateRowPolicy
	Notifier     Notifier
	Resolver     Resolver
	Logger       *slog.Logger
}

// Controller is the session state machine. All methods are safe for
// concurrent use.
type Controller struct {
	transport Transport
	profiles  ProfileSource
	sink      RowSink
	opts      Options
	log       *slog.Logger

	mu      sync.Mutex
	state   State
	active  string
	gen     uint64
	pending *Operation // connect in flight and not abandoned
	busy    int
	lastOID string

	connectCancel context.CancelFunc

	sessCtx    context.Context
	sessCancel context.CancelFunc
}

// NewController creates a disconnected controller
func NewController(transport Transport, profiles ProfileSource, sink RowSink, opts Options) *Controller {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 15 * time.Second
	}
	if opts.DisconnectTimeout <= 0 {
		opts.DisconnectTimeout = 5 * time.Second
	}
	if opts.LateRows == "" {
		opts.LateRows = LateRowsDrop
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		transport: transport,
		profiles:  profiles,
		sink:      sink,
		opts:      opts,
		log:       logger.With("component", "session"),
		lastOID:   InitialGetNextOID,
	}
}

// SetResolver installs the OID name resolver once the MIB index is built
func (c *Controller) SetResolver(r Resolver) {
	c.mu.Lock()
	c.opts.Resolver = r
	c.mu.Unlock()
}

// State returns the current session state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveProfile returns the connected profile name, empty when disconnected
func (c *Controller) ActiveProfile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// ControlsEnabled reports whether query controls should be enabled. It depends
// on the state alone.
func (c *Controller) ControlsEnabled() bool {
	return c.State() == Connected
}

// Busy reports whether any collaborator call is outstanding
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy > 0
}

// Connecting reports whether a connect is in flight and not abandoned
func (c *Controller) Connecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// LastOID is the OID GetNext continues from
func (c *Controller) LastOID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOID
}

// Connect starts connecting to the named profile. It is valid only while
// disconnected with no connect in flight.
func (c *Controller) Connect(ctx context.Context, name string) (*Operation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, rejected("no profile selected")
	}

	if c.profiles == nil {
		return nil, rejected("no profile store configured")
	}

	c.mu.Lock()
	if c.state == Connected {
		c.mu.Unlock()
		return nil, rejected("already connected to %s", c.active)
	}
	if c.pending != nil {
		c.mu.Unlock()
		return nil, rejected("a connect is still in flight")
	}
	c.gen++
	gen := c.gen
	op := newOperation(OpConnect, name)
	cctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	c.pending = op
	c.connectCancel = cancel
	c.busy++
	c.mu.Unlock()

	c.log.Info("connecting", "profile", name, "op", op.ID)
	c.emit(Event{Kind: EventBusy, State: Disconnected, Busy: true, Op: op, Message: "Connecting to " + name + "..."})

	go func() {
		defer cancel()

		result := make(chan error, 1)
		go func() {
			p, err := c.profiles.Profile(cctx, name)
			if err != nil {
				result <- err
				return
			}
			result <- c.transport.Connect(cctx, p.WithDefaults())
		}()

		var err error
		select {
		case err = <-result:
		case <-cctx.Done():
			err = cctx.Err()
			go func() { c.reapLateConnect(name, <-result) }()
		}
		if c.settleConnect(op, gen, name, err) && err == nil {
			c.reapLateConnect(name, nil)
		}
	}()

	return op, nil
}

// reapLateConnect closes a connection the transport opened after its connect
// was given up on. A newer session owns the transport once one is pending or
// connected, so it is left alone then.
func (c *Controller) reapLateConnect(name string, err error) {
	if err != nil {
		return
	}

	c.mu.Lock()
	owned := c.state == Connected || c.pending != nil
	c.mu.Unlock()
	if owned {
		c.log.Warn("late connect finished under a newer session", "profile", name)
		return
	}

	c.log.Info("closing late connection", "profile", name)
	if err := bounded(context.Background(), c.opts.DisconnectTimeout, c.transport.Disconnect); err != nil {
		c.log.Warn("closing late connection failed", "profile", name, "err", err)
	}
}

// settleConnect publishes the outcome of a connect and reports whether it had
// been abandoned
func (c *Controller) settleConnect(op *Operation, gen uint64, name string, err error) bool {
	c.mu.Lock()
	if c.pending == op {
		c.pending = nil
		c.connectCancel = nil
	}
	c.busy--
	busy := c.busy > 0

	if gen != c.gen {
		c.mu.Unlock()

		c.log.Info("connect abandoned", "profile", name, "op", op.ID, "err", err)
		c.emit(Event{Kind: EventOperationDone, State: Disconnected, Busy: busy, Op: op, Err: ErrAbandoned})
		op.finish(ErrAbandoned)
		return true
	}

	if err != nil {
		c.mu.Unlock()

		cerr := &ConnectionError{Op: "connect", Profile: name, Err: err}
		c.log.Error("connect failed", "profile", name, "op", op.ID, "err", err)
		c.emit(Event{Kind: EventError, State: Disconnected, Busy: busy, Op: op, Err: cerr, Message: cerr.Error()})
		op.finish(cerr)
		return false
	}

	// The previous session's rows go before any query can see Connected
	c.sink.Clear()
	c.state = Connected
	c.active = name
	c.lastOID = InitialGetNextOID
	c.sessCtx, c.sessCancel = context.WithCancel(context.Background())
	c.mu.Unlock()

	c.log.Info("connected", "profile", name, "op", op.ID, "took", op.Duration())
	c.emit(Event{Kind: EventStateChanged, State: Connected, Busy: busy, Op: op, Message: "Connected to " + name})
	op.finish(nil)
	return false
}

// Disconnect leaves the Connected state immediately and closes the transport
// best-effort. While a connect is in flight it abandons that connect and
// cancels its context, so a new Connect is accepted right away.
func (c *Controller) Disconnect(ctx context.Context) (*Operation, error) {
	c.mu.Lock()
	if c.pending != nil {
		c.gen++
		name := c.pending.Target
		cancel := c.connectCancel
		c.pending = nil
		c.connectCancel = nil
		busy := c.busy > 0
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		op := newOperation(OpDisconnect, name)
		c.log.Info("abandoning connect", "profile", name)
		c.emit(Event{Kind: EventStateChanged, State: Disconnected, Busy: busy, Op: op, Message: "Connect to " + name + " cancelled"})
		op.finish(nil)
		return op, nil
	}
	if c.state != Connected {
		c.mu.Unlock()
		return nil, rejected("not connected")
	}

	name := c.active
	c.leaveLocked()
	op := newOperation(OpDisconnect, name)
	c.busy++
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, State: Disconnected, Busy: true, Op: op, Message: "Disconnected from " + name})

	go func() {
		err := bounded(ctx, c.opts.DisconnectTimeout, c.transport.Disconnect)

		c.mu.Lock()
		c.busy--
		busy := c.busy > 0
		c.mu.Unlock()

		if err != nil {
			cerr := &ConnectionError{Op: "disconnect", Profile: name, Err: err}
			c.log.Warn("disconnect failed", "profile", name, "err", err)
			c.emit(Event{Kind: EventError, State: Disconnected, Busy: busy, Op: op, Err: cerr, Message: cerr.Error()})
			op.finish(cerr)
			return
		}
		c.emit(Event{Kind: EventOperationDone, State: Disconnected, Busy: busy, Op: op})
		op.finish(nil)
	}()

	return op, nil
}

// bounded runs call under a timeout and returns when either finishes, so a
// transport that ignores its context cannot hold the caller past the deadline
func bounded(parent context.Context, timeout time.Duration, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- call(ctx) }()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// leaveLocked moves to Disconnected and ends the current session's context
func (c *Controller) leaveLocked() {
	c.state = Disconnected
	c.active = ""
	c.gen++
	if c.sessCancel != nil {
		c.sessCancel()
		c.sessCancel = nil
	}
}

// HandleStatusChange applies a connection status reported by the transport.
// A lost connection forces Disconnected; a reported connection is ignored
// unless it results from a Connect call.
func (c *Controller) HandleStatusChange(connected bool) {
	c.mu.Lock()
	if connected || c.state != Connected {
		c.mu.Unlock()
		if connected {
			c.log.Debug("ignoring unsolicited connected status")
		}
		return
	}
	name := c.active
	c.leaveLocked()
	busy := c.busy > 0
	c.mu.Unlock()

	c.log.Warn("connection lost", "profile", name)
	c.emit(Event{Kind: EventStateChanged, State: Disconnected, Busy: busy, Message: "Connection to " + name + " lost"})
}

// Get requests a single OID
func (c *Controller) Get(ctx context.Context, oid string) (*Operation, error) {
	return c.issue(ctx, OpGet, oid, c.opts.QueryTimeout, func(ctx context.Context, oid string, emit func(models.ResultRow)) error {
		return c.transport.Get(ctx, oid, emit)
	})
}

// GetNext requests the successor of oid. An empty oid continues from the
// last OID seen in this session.
func (c *Controller) GetNext(ctx context.Context, oid string) (*Operation, error) {
	if strings.TrimSpace(oid) == "" {
		oid = c.LastOID()
	}
	return c.issue(ctx, OpGetNext, oid, c.opts.QueryTimeout, func(ctx context.Context, oid string, emit func(models.ResultRow)) error {
		return c.transport.GetNext(ctx, oid, emit)
	})
}

// BulkWalk streams the subtree rooted at oid
func (c *Controller) BulkWalk(ctx context.Context, oid string) (*Operation, error) {
	return c.issue(ctx, OpBulkWalk, oid, 0, func(ctx context.Context, oid string, emit func(models.ResultRow)) error {
		return c.transport.BulkWalk(ctx, oid, emit)
	})
}

// Set writes one value; the agent's response rows are appended like a Get
func (c *Controller) Set(ctx context.Context, oid, typ, value string) (*Operation, error) {
	if strings.TrimSpace(typ) == "" {
		return nil, rejected("set needs a value type")
	}
	return c.issue(ctx, OpSet, oid, c.opts.QueryTimeout, func(ctx context.Context, oid string, emit func(models.ResultRow)) error {
		return c.transport.Set(ctx, oid, typ, value, emit)
	})
}

type queryFunc func(ctx context.Context, oid string, emit func(models.ResultRow)) error

func (c *Controller) issue(ctx context.Context, kind OpKind, oid string, timeout time.Duration, call queryFunc) (*Operation, error) {
	norm, err := models.NormalizeOID(oid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	c.mu.Lock()
	if c.state != Connected {
		c.mu.Unlock()
		return nil, rejected("%s called, but no connection available", kind)
	}
	gen := c.gen
	sess := c.sessCtx
	op := newOperation(kind, norm)
	c.busy++
	c.mu.Unlock()

	c.log.Info("query", "kind", kind, "oid", norm, "op", op.ID)
	c.emit(Event{Kind: EventBusy, State: Connected, Busy: true, Op: op})

	go func() {
		qctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(sess, cancel)
		defer stop()
		if timeout > 0 {
			var tcancel context.CancelFunc
			qctx, tcancel = context.WithTimeout(qctx, timeout)
			defer tcancel()
		}

		err := call(qctx, norm, func(row models.ResultRow) {
			c.ingest(op, gen, row)
		})
		c.settleQuery(op, err)
	}()

	return op, nil
}

func (c *Controller) settleQuery(op *Operation, err error) {
	c.mu.Lock()
	c.busy--
	busy := c.busy > 0
	state := c.state
	c.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Error("query failed", "kind", op.Kind, "oid", op.Target, "op", op.ID, "err", err)
		c.emit(Event{Kind: EventError, State: state, Busy: busy, Op: op, Err: err,
			Message: fmt.Sprintf("SNMP %s %s failed: %v", op.Kind, op.Target, err)})
		op.finish(err)
		return
	}

	c.log.Info("query done", "kind", op.Kind, "oid", op.Target, "op", op.ID,
		"rows", op.Rows(), "dropped", op.Dropped(), "took", op.Duration())
	c.emit(Event{Kind: EventOperationDone, State: state, Busy: busy, Op: op})
	op.finish(err)
}

// PushRow decodes a JSON row pushed by the transport and admits it to the sink
func (c *Controller) PushRow(data []byte) error {
	row, err := models.DecodeResultRow(data)
	if err != nil {
		c.log.Warn("rejected pushed row", "err", err)
		return err
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	c.ingest(nil, gen, row)
	return nil
}

// ingest applies the late-row policy, resolves the row name and appends
func (c *Controller) ingest(op *Operation, gen uint64, row models.ResultRow) {
	c.mu.Lock()
	late := gen != c.gen || c.state != Connected
	if !late {
		c.lastOID = row.OID
	}
	resolver := c.opts.Resolver
	c.mu.Unlock()

	if op != nil {
		row.Op = op.ID
	}
	if late {
		if c.opts.LateRows == LateRowsDrop {
			if op != nil {
				op.countRow(true)
			}
			return
		}
		row.Stale = true
	}
	if row.Name == "" && resolver != nil {
		if name, ok := resolver.ResolveOID(row.OID); ok {
			row.Name = name
		}
	}

	c.sink.Append(row)
	if op != nil {
		op.countRow(false)
	}
}

func (c *Controller) emit(ev Event) {
	if c.opts.Notifier != nil {
		c.opts.Notifier(ev)
	}
}

package snmp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/rebeliceyang/lazysnmp/internal/models"
)

// ErrNotConnected is returned by queries issued without an open client
var ErrNotConnected = errors.New("no active SNMP connection")

// Transport holds at most one open client. Queries are serialized because a
// gosnmp handle is not safe for concurrent requests; Disconnect does not wait
// for them and closes the socket underneath.
type Transport struct {
	opts Options
	log  *slog.Logger

	// OnStatusChange, if set, is told when a stream transport drops
	OnStatusChange func(connected bool)

	mu          sync.RWMutex
	client      *Client
	connectedAt time.Time

	callMu sync.Mutex
	now    func() time.Time
}

// NewTransport creates a disconnected transport
func NewTransport(opts Options) *Transport {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		opts: opts,
		log:  logger.With("component", "snmp"),
		now:  time.Now,
	}
}

// Connect opens a client for profile, replacing any previous one
func (t *Transport) Connect(ctx context.Context, profile models.ConnectionProfile) error {
	client, err := NewClient(ctx, profile, t.opts)
	if err != nil {
		return err
	}

	t.mu.Lock()
	old := t.client
	t.client = client
	t.connectedAt = t.now()
	t.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	t.log.Info("snmp client open", "target", profile.Address(), "version", profile.Version)
	return nil
}

// Disconnect closes the open client
func (t *Transport) Disconnect(_ context.Context) error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close snmp client: %w", err)
	}
	return nil
}

// Connected reports whether a client is open
func (t *Transport) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.client != nil
}

// ConnectedAt returns when the current client was opened
func (t *Transport) ConnectedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connectedAt
}

func (t *Transport) active() (*Client, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.client == nil {
		return nil, ErrNotConnected
	}
	return t.client, nil
}

// call runs fn with the active client under the call lock
func (t *Transport) call(ctx context.Context, fn func(*Client) error) error {
	t.callMu.Lock()
	defer t.callMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	client, err := t.active()
	if err != nil {
		return err
	}

	err = fn(client)
	if err != nil && client.profile.Transport == models.TransportTCP && isClosed(err) {
		t.mu.Lock()
		lost := t.client == client
		if lost {
			t.client = nil
		}
		t.mu.Unlock()
		if lost && t.OnStatusChange != nil {
			t.OnStatusChange(false)
		}
	}
	return err
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

func (t *Transport) emitAll(pdus []gosnmp.SnmpPDU, emit func(models.ResultRow)) {
	for _, pdu := range pdus {
		row, err := ToRow(pdu, t.now())
		if err != nil {
			t.log.Warn("skipping variable with bad name", "name", pdu.Name, "err", err)
			continue
		}
		emit(row)
	}
}

// Get fetches one OID
func (t *Transport) Get(ctx context.Context, oid string, emit func(models.ResultRow)) error {
	return t.call(ctx, func(c *Client) error {
		pdus, err := c.Get([]string{oid})
		t.emitAll(pdus, emit)
		return err
	})
}

// GetNext fetches the successor of one OID
func (t *Transport) GetNext(ctx context.Context, oid string, emit func(models.ResultRow)) error {
	return t.call(ctx, func(c *Client) error {
		pdus, err := c.GetNext([]string{oid})
		t.emitAll(pdus, emit)
		return err
	})
}

// BulkWalk streams every variable under oid; it stops early when ctx ends
func (t *Transport) BulkWalk(ctx context.Context, oid string, emit func(models.ResultRow)) error {
	return t.call(ctx, func(c *Client) error {
		return c.BulkWalk(oid, func(pdu gosnmp.SnmpPDU) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := ToRow(pdu, t.now())
			if err != nil {
				t.log.Warn("skipping variable with bad name", "name", pdu.Name, "err", err)
				return nil
			}
			emit(row)
			return nil
		})
	})
}

// Set writes one value and emits the agent's response bindings
func (t *Transport) Set(ctx context.Context, oid, typ, value string, emit func(models.ResultRow)) error {
	pdu, err := ParseSetValue(oid, typ, value)
	if err != nil {
		return err
	}
	return t.call(ctx, func(c *Client) error {
		pdus, err := c.Set([]gosnmp.SnmpPDU{pdu})
		t.emitAll(pdus, emit)
		return err
	})
}

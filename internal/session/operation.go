package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OpKind names the collaborator call behind an Operation
type OpKind string

const (
	OpConnect    OpKind = "connect"
	OpDisconnect OpKind = "disconnect"
	OpGet        OpKind = "get"
	OpGetNext    OpKind = "getnext"
	OpBulkWalk   OpKind = "bulkwalk"
	OpSet        OpKind = "set"
)

// Operation is the future for one asynchronous collaborator call. It settles
// exactly once.
type Operation struct {
	ID      string
	Kind    OpKind
	Target  string // profile name or OID
	Started time.Time

	done chan struct{}

	mu       sync.Mutex
	err      error
	rows     int
	dropped  int
	finished time.Time
}

func newOperation(kind OpKind, target string) *Operation {
	return &Operation{
		ID:      uuid.New().String(),
		Kind:    kind,
		Target:  target,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Done is closed when the operation settles
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Err returns the settled error, nil while pending or on success
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Wait blocks until the operation settles or ctx ends
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settled reports whether the operation has completed
func (o *Operation) Settled() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Rows is the number of rows the operation delivered to the sink
func (o *Operation) Rows() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rows
}

// Dropped is the number of late rows discarded by the late-row policy
func (o *Operation) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Duration is the time from start to settle, or until now while pending
func (o *Operation) Duration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.finished.IsZero() {
		return time.Since(o.Started)
	}
	return o.finished.Sub(o.Started)
}

func (o *Operation) countRow(dropped bool) {
	o.mu.Lock()
	if dropped {
		o.dropped++
	} else {
		o.rows++
	}
	o.mu.Unlock()
}

func (o *Operation) finish(err error) {
	o.mu.Lock()
	if o.finished.IsZero() {
		o.err = err
		o.finished = time.Now()
		close(o.done)
	}
	o.mu.Unlock()
}

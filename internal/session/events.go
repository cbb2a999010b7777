package session

// EventKind classifies controller notifications
type EventKind int

const (
	// EventStateChanged follows every Connected/Disconnected transition
	EventStateChanged EventKind = iota
	// EventBusy is sent when a collaborator call starts
	EventBusy
	// EventOperationDone is sent when a call settles without error
	EventOperationDone
	// EventError is sent when a call settles with an error
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state"
	case EventBusy:
		return "busy"
	case EventOperationDone:
		return "done"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a snapshot of the controller after something happened. State and
// Busy are the values at the time the event was produced.
type Event struct {
	Kind    EventKind
	State   State
	Busy    bool
	Op      *Operation
	Message string
	Err     error
}

// Notifier receives controller events. It is called from the controller's
// goroutines and must not block.
type Notifier func(Event)

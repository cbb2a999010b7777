package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazysnmp/internal/session"
)

// sessionEventMsg carries one controller event into the update loop
type sessionEventMsg struct {
	session.Event
}

// eventQueue forwards controller events to the program in order. The
// controller may notify from inside Update, so push never blocks.
type eventQueue struct {
	mu      sync.Mutex
	pending []tea.Msg
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (q *eventQueue) push(msg tea.Msg) {
	q.mu.Lock()
	q.pending = append(q.pending, msg)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run delivers queued messages with send until stop is called
func (q *eventQueue) run(send func(tea.Msg)) {
	for {
		select {
		case <-q.done:
			return
		case <-q.wake:
		}

		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, msg := range batch {
			send(msg)
		}
	}
}

func (q *eventQueue) stop() {
	q.once.Do(func() { close(q.done) })
}

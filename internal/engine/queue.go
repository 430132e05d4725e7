package engine

import (
	"sync"

	"github.com/roach88/dobble/internal/session"
)

// envelope carries one event through the queue. reply is set for
// ActionIssued events whose caller waits for the gate's verdict.
type envelope struct {
	event session.Event
	reply chan<- admission
}

// admission is the gate's verdict on an issued action, plus the state it
// was judged against so the caller can read request arguments from it.
type admission struct {
	state session.State
	err   error
}

// eventQueue is a thread-safe FIFO queue of session events.
//
// The queue is unbounded so push frames and action results never block the
// goroutines that produce them.
//
// Thread-safety is provided for external enqueuing (push pump, action
// calls) while the Engine's Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	items  []envelope
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		items:  make([]envelope, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an envelope to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, e)

	// Non-blocking; the buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front envelope without blocking.
// Returns false if the queue is empty.
func (q *eventQueue) TryDequeue() (envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return envelope{}, false
	}

	e := q.items[0]

	// Clear the slot so the backing array does not pin the event.
	q.items[0] = envelope{}

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return e, true
}

// Wait returns a channel that signals when envelopes may be available.
// The channel is closed once the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drained reports whether the queue is closed and empty.
func (q *eventQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Close signals that no more envelopes will be enqueued and wakes the
// waiter. Envelopes already queued are still delivered.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

package ipc

import "sync"

// Queue is the FIFO between connection workers and the event loop. Push
// never blocks; every push leaves a token on Wake so the loop cannot miss
// one.
type Queue struct {
	mu    sync.Mutex
	items []Command
	wake  chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Push appends cmd and wakes the consumer.
func (q *Queue) Push(cmd Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wake is signalled after a push.
func (q *Queue) Wake() <-chan struct{} { return q.wake }

// Drain removes and returns every queued command in insertion order.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued commands.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

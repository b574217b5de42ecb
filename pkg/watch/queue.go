package watch

import "sync"

// Queue is an unbounded FIFO of Messages between watch goroutines and the
// Consumer. Push never blocks; a consumer that never drains grows memory.
type Queue struct {
	mu     sync.Mutex
	msgs   []Message
	closed bool
	ready  chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends msg. It fails with ErrQueueClosed after Close.
func (q *Queue) Push(msg Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.msgs = append(q.msgs, msg)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Drain returns all queued messages in arrival order and empties the queue.
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	return out
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

// Ready receives a value after one or more Pushes. It may fire when the
// queue has already been drained.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Close rejects further pushes. Queued messages remain drainable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

package watch

import (
	"time"

	"folderwatch/pkg/sampler"
)

// handle is the running watch of one entry. The registry holds at most one
// per entry.
type handle struct {
	entryID string
	path    string
	gen     uint64
	sub     sampler.Subscription
	started time.Time
}

// stop releases the subscription without waiting for its goroutine.
func (h *handle) stop() {
	h.sub.Unsubscribe()
}

// sink adapts a Queue to sampler.Sink for one handle.
type sink struct {
	entryID string
	gen     uint64
	queue   *Queue
	now     func() time.Time
}

func (s *sink) Changed(c sampler.Change) error {
	return s.queue.Push(Message{
		EntryID: s.entryID,
		Change:  c,
		At:      s.now(),
		gen:     s.gen,
	})
}

func (s *sink) Terminated(err error) {
	// A closed queue means the session is shutting down; nothing to stop.
	_ = s.queue.Push(Message{
		EntryID:    s.entryID,
		At:         s.now(),
		Terminated: true,
		Err:        err,
		gen:        s.gen,
	})
}

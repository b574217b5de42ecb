package watch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for an unknown entry ID.
	ErrNotFound = errors.New("entry not found")
	// ErrQueueClosed is returned by Queue.Push after Close.
	ErrQueueClosed = errors.New("trigger queue closed")
	// ErrClosed is returned by Start after the registry was closed.
	ErrClosed = errors.New("registry closed")
)

// StartError reports a watch that could not be started. The entry stays
// stopped.
type StartError struct {
	EntryID string
	Path    string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start watch on %q: %v", e.Path, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

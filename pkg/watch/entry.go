// Package watch runs one change watch per configured directory and turns
// detected changes into command launches.
//
// The Registry is owned by a single control loop (the TUI update loop or the
// headless loop) and is not safe for concurrent use. Watch goroutines never
// touch it; they only push Messages onto the Queue, which the Consumer drains
// on the control loop.
package watch

import (
	"time"

	"folderwatch/pkg/sampler"
)

// State is the lifecycle state of an entry's watch.
type State int

const (
	// Stopped means no watch goroutine exists for the entry.
	Stopped State = iota
	// Starting is held while the sampler subscription is being set up.
	Starting
	// Watching means a live handle exists.
	Watching
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Watching:
		return "watching"
	default:
		return "stopped"
	}
}

// Entry is one watched directory and its commands.
type Entry struct {
	// ID is generated when the entry is created or loaded; not persisted.
	ID       string
	Path     string
	Commands []string
	// IsWatching is true iff the registry holds a live handle for the entry.
	IsWatching bool
	State      State

	// LastTriggered is zero until the first executed trigger.
	LastTriggered time.Time
	// LastChange summarizes the most recent trigger.
	LastChange string
	// LastError holds the most recent start or termination failure.
	LastError string
	// Triggers counts executed triggers in this session.
	Triggers int
}

func (e *Entry) clone() Entry {
	c := *e
	c.Commands = append([]string(nil), e.Commands...)
	return c
}

// Message travels from a watch goroutine to the Consumer. It is either a
// trigger carrying Change, or a termination notice when the subscription
// ended on its own.
type Message struct {
	EntryID string
	Change  sampler.Change
	At      time.Time

	Terminated bool
	Err        error

	// gen identifies the handle that produced the message so a late
	// termination notice cannot stop a newer watch of the same entry.
	gen uint64
}

// TriggerRecord describes one executed trigger for the journal.
type TriggerRecord struct {
	EntryID  string
	Path     string
	Change   string
	Commands []string
	Launched int
	Failed   int
	At       time.Time
}

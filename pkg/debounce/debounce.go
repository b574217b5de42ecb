// Package debounce coalesces bursts of raw filesystem change events into a
// single batch once the burst goes quiet.
//
// The Debouncer is a plain state machine driven by explicit timestamps, so the
// caller owns the clock and the timer. A burst of events arriving faster than
// the window keeps postponing emission until a gap of at least Window appears;
// there is no periodic flush.
package debounce

import (
	"sort"
	"time"
)

// DefaultWindow is the quiet period used by the event-driven sampler.
const DefaultWindow = 500 * time.Millisecond

// Batch is one coalesced trigger.
type Batch struct {
	// Paths holds the distinct affected paths, sorted.
	Paths []string
	// Count equals len(Paths).
	Count int
}

// Debouncer accumulates distinct paths between emissions. It is not safe for
// concurrent use; the owning goroutine serializes Observe and Flush.
type Debouncer struct {
	window    time.Duration
	pending   map[string]struct{}
	lastEvent time.Time
	lastEmit  time.Time
}

// New returns a Debouncer with the given window. A non-positive window
// selects DefaultWindow.
func New(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{
		window:  window,
		pending: make(map[string]struct{}),
	}
}

// Window returns the configured quiet period.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Observe records a raw event affecting paths at time now. Empty path strings
// are ignored; an event with no usable path still extends the quiet period.
func (d *Debouncer) Observe(now time.Time, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		d.pending[p] = struct{}{}
	}
	d.lastEvent = now
}

// Pending returns the number of distinct paths accumulated since the last
// emission.
func (d *Debouncer) Pending() int {
	return len(d.pending)
}

// Remaining returns how long until the current quiet period closes. It is
// zero when the window has already elapsed or nothing is pending.
func (d *Debouncer) Remaining(now time.Time) time.Duration {
	if len(d.pending) == 0 {
		return 0
	}
	left := d.window - now.Sub(d.lastEvent)
	if left < 0 {
		return 0
	}
	return left
}

// Flush emits the accumulated batch if at least one path is pending and no
// event has been observed for a full window. The pending set is cleared on
// emission.
func (d *Debouncer) Flush(now time.Time) (Batch, bool) {
	if len(d.pending) == 0 || now.Sub(d.lastEvent) < d.window {
		return Batch{}, false
	}

	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	d.pending = make(map[string]struct{})
	d.lastEmit = now

	return Batch{Paths: paths, Count: len(paths)}, true
}

// LastEmit returns the time of the most recent emission, zero if none.
func (d *Debouncer) LastEmit() time.Time {
	return d.lastEmit
}

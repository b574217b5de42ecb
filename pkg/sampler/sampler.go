// Package sampler detects changes in a watched directory.
//
// Two strategies implement Strategy: Poller re-counts the directory's
// immediate entries on a fixed cadence, Notifier subscribes to native
// filesystem events (fsnotify) recursively and debounces them. Both run one
// goroutine per subscription and report through a Sink; neither touches
// caller state directly.
package sampler

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Change describes one detected change.
type Change struct {
	// Count is the new entry count (Poller) or the number of distinct
	// affected paths (Notifier).
	Count int
	// Paths lists the affected paths. Empty for the Poller.
	Paths []string
	// Description is a short human-readable summary.
	Description string
}

// Sink receives the output of a subscription. Calls arrive on the
// subscription's goroutine and must not block.
type Sink interface {
	// Changed reports a detected change. A non-nil error means the receiver
	// is gone; the subscription stops.
	Changed(c Change) error
	// Terminated reports that the subscription ended on its own (event
	// stream closed, watched root removed). It is never called after
	// Unsubscribe.
	Terminated(err error)
}

// Subscription is the explicit unsubscribe capability returned by
// Strategy.Subscribe.
type Subscription interface {
	// Unsubscribe releases the subscription. It is idempotent and does not
	// wait for the goroutine to exit. No Sink method is called once it has
	// returned.
	Unsubscribe()
	// Done is closed when the subscription's goroutine has exited.
	Done() <-chan struct{}
}

// Strategy starts change detection for a directory.
type Strategy interface {
	Name() string
	Subscribe(path string, sink Sink) (Subscription, error)
}

// Strategy names accepted by ParseStrategy.
const (
	StrategyPoll   = "poll"
	StrategyEvents = "events"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case StrategyPoll, "polling":
		return StrategyPoll, nil
	case StrategyEvents, "event", "fsnotify", "notify":
		return StrategyEvents, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want %s or %s)", name, StrategyPoll, StrategyEvents)
	}
}

// subscription is shared by both strategies. The mutex is held only while a
// Sink method runs, so Unsubscribe returning guarantees no further calls.
type subscription struct {
	mu       sync.Mutex
	released bool
	cancel   context.CancelFunc
	done     chan struct{}
}

func newSubscription() (*subscription, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	return &subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}, ctx
}

func (s *subscription) Unsubscribe() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
	s.cancel()
}

func (s *subscription) Done() <-chan struct{} {
	return s.done
}

// changed forwards c to sink unless the subscription has been released.
func (s *subscription) changed(sink Sink, c Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	return sink.Changed(c)
}

// terminated forwards err to sink unless the subscription has been released.
func (s *subscription) terminated(sink Sink, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	sink.Terminated(err)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

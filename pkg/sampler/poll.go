package sampler

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"folderwatch/internal/logging"
)

// DefaultPollInterval is the Poller's sampling cadence.
const DefaultPollInterval = time.Second

// Poller detects changes by comparing the number of immediate entries in the
// directory between consecutive samples.
//
// Only the net count is compared: adding one file and removing another within
// the same interval leaves the count unchanged and goes unnoticed.
type Poller struct {
	interval time.Duration
	logger   *zap.Logger

	// newTicker is swapped in tests to drive samples by hand.
	newTicker func(time.Duration) (<-chan time.Time, func())
}

// NewPoller returns a Poller sampling every interval. A non-positive
// interval selects DefaultPollInterval.
func NewPoller(interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		interval:  interval,
		logger:    logging.OrNop(logger),
		newTicker: realTicker,
	}
}

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Name implements Strategy.
func (p *Poller) Name() string { return StrategyPoll }

// Interval returns the sampling cadence.
func (p *Poller) Interval() time.Duration { return p.interval }

// Subscribe implements Strategy. The directory must be openable at start.
func (p *Poller) Subscribe(path string, sink Sink) (Subscription, error) {
	if err := openDir(path); err != nil {
		return nil, err
	}

	baseline := CountEntries(path, p.logger)
	p.logger.Info("polling started",
		zap.String("path", path),
		zap.Int("entries", baseline),
		zap.Duration("interval", p.interval))

	sub, ctx := newSubscription()
	ticks, stop := p.newTicker(p.interval)
	go p.run(ctx, sub, path, baseline, sink, ticks, stop)
	return sub, nil
}

func (p *Poller) run(ctx context.Context, sub *subscription, path string, last int, sink Sink, ticks <-chan time.Time, stop func()) {
	defer close(sub.done)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}
		// Stop wins over a tick that arrived at the same time.
		if ctx.Err() != nil {
			return
		}

		current := CountEntries(path, p.logger)
		if current == last {
			// Net count only: an add and a remove in one interval cancel out.
			p.logger.Debug("count unchanged", zap.String("path", path), zap.Int("entries", current))
			continue
		}

		p.logger.Info("change detected",
			zap.String("path", path),
			zap.Int("previous", last),
			zap.Int("entries", current))

		err := sub.changed(sink, Change{
			Count:       current,
			Description: plural(current, "entry", "entries"),
		})
		if err != nil {
			p.logger.Error("report change", zap.String("path", path), zap.Error(err))
			return
		}
		last = current
	}
}

// CountEntries returns the number of immediate children of path. A directory
// that cannot be read counts as 0 and a warning is logged.
func CountEntries(path string, logger *zap.Logger) int {
	entries, err := os.ReadDir(path)
	if err != nil {
		logging.OrNop(logger).Warn("read directory", zap.String("path", path), zap.Error(err))
		return 0
	}
	return len(entries)
}

// openDir checks that path can be opened and is a directory.
func openDir(path string) error {
	if path == "" {
		return fmt.Errorf("open directory: empty path")
	}
	f, err := os.Open(path) //nolint:gosec // path is user configuration
	if err != nil {
		return fmt.Errorf("open directory: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only probe

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

package sampler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"folderwatch/internal/logging"
	"folderwatch/pkg/debounce"
)

// errStreamClosed is reported when fsnotify closes its channels underneath us.
var errStreamClosed = errors.New("event stream closed")

// Notifier detects changes through native filesystem notifications. Every
// directory under the watched root is subscribed, including directories
// created later. Raw events are coalesced by a debounce.Debouncer, since
// editors often emit several events for one save.
type Notifier struct {
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewNotifier returns a Notifier with the given debounce window. A
// non-positive window selects debounce.DefaultWindow.
func NewNotifier(window time.Duration, logger *zap.Logger) *Notifier {
	if window <= 0 {
		window = debounce.DefaultWindow
	}
	return &Notifier{
		window: window,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Name implements Strategy.
func (n *Notifier) Name() string { return StrategyEvents }

// Window returns the debounce window.
func (n *Notifier) Window() time.Duration { return n.window }

// Subscribe implements Strategy.
func (n *Notifier) Subscribe(path string, sink Sink) (Subscription, error) {
	if err := openDir(path); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dirs, err := addTree(fw, root)
	if err != nil {
		_ = fw.Close() // best effort
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	n.logger.Info("event watch started",
		zap.String("path", root),
		zap.Int("directories", dirs),
		zap.Duration("window", n.window))

	sub, ctx := newSubscription()
	go n.run(ctx, sub, fw, root, sink)
	return sub, nil
}

func (n *Notifier) run(ctx context.Context, sub *subscription, fw *fsnotify.Watcher, root string, sink Sink) {
	defer close(sub.done)
	defer func() { _ = fw.Close() }()

	d := debounce.New(n.window)
	timer := newDebounceTimer()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				sub.terminated(sink, errStreamClosed)
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				n.addCreatedDir(fw, event.Name)
			}
			if event.Name == root && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				n.logger.Warn("watched directory removed", zap.String("path", root))
				sub.terminated(sink, fmt.Errorf("watched directory %s removed", root))
				return
			}
			now := n.now()
			d.Observe(now, event.Name)
			resetDebounceTimer(timer, d.Remaining(now))

		case <-timer.C:
			now := n.now()
			batch, ok := d.Flush(now)
			if !ok {
				if d.Pending() > 0 {
					resetDebounceTimer(timer, d.Remaining(now))
				}
				continue
			}
			n.logger.Info("change detected", zap.String("path", root), zap.Int("paths", batch.Count))
			err := sub.changed(sink, Change{
				Count:       batch.Count,
				Paths:       batch.Paths,
				Description: plural(batch.Count, "path changed", "paths changed"),
			})
			if err != nil {
				n.logger.Error("report change", zap.String("path", root), zap.Error(err))
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				sub.terminated(sink, errStreamClosed)
				return
			}
			// Overflow and similar errors are transient; keep watching.
			n.logger.Warn("watcher error", zap.String("path", root), zap.Error(err))
		}
	}
}

// addCreatedDir subscribes a directory that appeared after Subscribe.
func (n *Notifier) addCreatedDir(fw *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if _, err := addTree(fw, path); err != nil {
		n.logger.Warn("watch new directory", zap.String("path", path), zap.Error(err))
	}
}

// addTree adds root and every directory beneath it. Inaccessible
// subdirectories are skipped; failing to add root itself is an error.
func addTree(fw *fsnotify.Watcher, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			if path == root {
				return err
			}
			return nil
		}
		count++
		return nil
	})
	return count, err
}

// newDebounceTimer returns a stopped timer.
func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

// resetDebounceTimer rearms timer to fire after d.
func resetDebounceTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}

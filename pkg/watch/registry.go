package watch

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"folderwatch/internal/logging"
	"folderwatch/pkg/config"
	"folderwatch/pkg/sampler"
)

// Saver persists the entry list after every mutation.
type Saver interface {
	Save(entries []config.Entry) error
}

// Options configures a Registry.
type Options struct {
	// Strategy starts change detection. Required.
	Strategy sampler.Strategy
	// Saver persists configuration; nil disables persistence.
	Saver Saver
	// Queue receives messages from watch goroutines; nil creates one.
	Queue  *Queue
	Logger *zap.Logger
	// Now is the clock used to stamp messages; nil means time.Now.
	Now func() time.Time
}

// Registry holds the ordered entries and their running handles. The two are
// kept in lock-step: an entry has IsWatching set iff a handle exists.
type Registry struct {
	strategy sampler.Strategy
	saver    Saver
	queue    *Queue
	logger   *zap.Logger
	now      func() time.Time

	entries []*Entry
	handles map[string]*handle
	gen     uint64
	closed  bool

	// bulkIntent records the last StartAll/StopAll/ToggleAll direction.
	bulkIntent bool
	// resume holds the entries stopped by the last StopAll while no other
	// lifecycle change has happened since.
	resume        []string
	resumePending bool

	// restore lists entries loaded with is_watching set and not yet
	// restored. They persist as watching until Restore runs.
	restore []string
}

// NewRegistry returns a registry populated from persisted entries. Entries
// persisted as watching are started by Restore, not here.
func NewRegistry(opts Options, entries []config.Entry) *Registry {
	r := &Registry{
		strategy: opts.Strategy,
		saver:    opts.Saver,
		queue:    opts.Queue,
		logger:   logging.OrNop(opts.Logger),
		now:      opts.Now,
		handles:  make(map[string]*handle),
	}
	if r.queue == nil {
		r.queue = NewQueue()
	}
	if r.now == nil {
		r.now = time.Now
	}

	for _, ce := range config.Normalize(entries) {
		e := &Entry{
			ID:       uuid.New().String(),
			Path:     ce.Path,
			Commands: ce.Commands,
			State:    Stopped,
		}
		r.entries = append(r.entries, e)
		if ce.IsWatching {
			r.restore = append(r.restore, e.ID)
		}
	}
	return r
}

// Queue returns the queue watch goroutines report to.
func (r *Registry) Queue() *Queue { return r.queue }

// Strategy returns the sampler strategy in use.
func (r *Registry) Strategy() sampler.Strategy { return r.strategy }

// Len returns the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a snapshot of all entries in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.clone())
	}
	return out
}

// Entry returns a snapshot of one entry.
func (r *Registry) Entry(id string) (Entry, bool) {
	e, _ := r.find(id)
	if e == nil {
		return Entry{}, false
	}
	return e.clone(), true
}

// IDAt returns the ID of the entry at index i.
func (r *Registry) IDAt(i int) (string, bool) {
	if i < 0 || i >= len(r.entries) {
		return "", false
	}
	return r.entries[i].ID, true
}

// Watching returns the number of live handles.
func (r *Registry) Watching() int { return len(r.handles) }

// AllWatching reports whether there is at least one entry and every entry is
// watching. It is derived from per-entry state.
func (r *Registry) AllWatching() bool {
	return len(r.entries) > 0 && len(r.handles) == len(r.entries)
}

// BulkIntent returns the direction of the last bulk action: true after
// StartAll, false after StopAll. It can disagree with AllWatching when an
// individual start failed or entries changed since.
func (r *Registry) BulkIntent() bool { return r.bulkIntent }

// Add appends a new stopped entry and returns its ID. Without commands the
// entry gets config.DefaultCommand.
func (r *Registry) Add(path string, commands ...string) string {
	if len(commands) == 0 {
		commands = []string{config.DefaultCommand}
	}
	e := &Entry{
		ID:       uuid.New().String(),
		Path:     path,
		Commands: append([]string(nil), commands...),
		State:    Stopped,
	}
	r.entries = append(r.entries, e)
	r.clearResume()
	r.persist()
	return e.ID
}

// SetPath changes an entry's directory. A running watch keeps its old
// path until restarted.
func (r *Registry) SetPath(id, path string) error {
	e, _ := r.find(id)
	if e == nil {
		return fmt.Errorf("set path %s: %w", id, ErrNotFound)
	}
	e.Path = path
	r.persist()
	return nil
}

// SetCommands replaces an entry's commands. An empty list is replaced by
// config.DefaultCommand. Changes apply to the next trigger.
func (r *Registry) SetCommands(id string, commands []string) error {
	e, _ := r.find(id)
	if e == nil {
		return fmt.Errorf("set commands %s: %w", id, ErrNotFound)
	}
	if len(commands) == 0 {
		commands = []string{config.DefaultCommand}
	}
	e.Commands = append([]string(nil), commands...)
	r.persist()
	return nil
}

// SetCommand replaces the i-th command of an entry.
func (r *Registry) SetCommand(id string, i int, command string) error {
	e, _ := r.find(id)
	if e == nil {
		return fmt.Errorf("set command %s: %w", id, ErrNotFound)
	}
	if i < 0 || i >= len(e.Commands) {
		return fmt.Errorf("set command %s: index %d out of range", id, i)
	}
	e.Commands[i] = command
	r.persist()
	return nil
}

// AddCommand appends an empty command to an entry.
func (r *Registry) AddCommand(id string) error {
	e, _ := r.find(id)
	if e == nil {
		return fmt.Errorf("add command %s: %w", id, ErrNotFound)
	}
	e.Commands = append(e.Commands, "")
	r.persist()
	return nil
}

// RemoveCommand deletes the i-th command. The last remaining command is
// never removed.
func (r *Registry) RemoveCommand(id string, i int) error {
	e, _ := r.find(id)
	if e == nil {
		return fmt.Errorf("remove command %s: %w", id, ErrNotFound)
	}
	if i < 0 || i >= len(e.Commands) {
		return fmt.Errorf("remove command %s: index %d out of range", id, i)
	}
	if len(e.Commands) == 1 {
		return nil
	}
	e.Commands = append(e.Commands[:i], e.Commands[i+1:]...)
	r.persist()
	return nil
}

// Start begins watching an entry. Starting a watching entry is a no-op.
// On failure the entry stays stopped and a *StartError is returned.
func (r *Registry) Start(id string) error {
	r.clearResume()
	started, err := r.start(id)
	if err != nil {
		return err
	}
	if started {
		r.persist()
	}
	return nil
}

// Stop ends an entry's watch without waiting for its goroutine to exit.
// Stopping a stopped entry is a no-op.
func (r *Registry) Stop(id string) error {
	r.clearResume()
	stopped, err := r.stop(id)
	if err != nil {
		return err
	}
	if stopped {
		r.persist()
	}
	return nil
}

// StartAll starts every stopped entry, or, directly after a StopAll, exactly
// the entries that StopAll stopped. Failures are joined; the remaining
// entries are still started.
func (r *Registry) StartAll() error {
	r.bulkIntent = true

	var targets []string
	if r.resumePending {
		targets = r.resume
	} else {
		for _, e := range r.entries {
			targets = append(targets, e.ID)
		}
	}
	r.clearResume()

	var errs []error
	changed := false
	for _, id := range targets {
		started, err := r.start(id)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				errs = append(errs, err)
			}
			continue
		}
		changed = changed || started
	}
	if changed {
		r.persist()
	}
	return errors.Join(errs...)
}

// StopAll stops every watching entry and remembers which ones it stopped.
func (r *Registry) StopAll() error {
	r.bulkIntent = false

	stopped := make([]string, 0, len(r.handles))
	var errs []error
	for _, e := range r.entries {
		ok, err := r.stop(e.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			stopped = append(stopped, e.ID)
		}
	}
	r.resume = stopped
	r.resumePending = true

	if len(stopped) > 0 {
		r.persist()
	}
	return errors.Join(errs...)
}

// ToggleAll flips the bulk intent and applies it.
func (r *Registry) ToggleAll() error {
	if r.bulkIntent {
		return r.StopAll()
	}
	return r.StartAll()
}

// Remove stops the entry's watch, then deletes the entry.
func (r *Registry) Remove(id string) error {
	e, i := r.find(id)
	if e == nil {
		return fmt.Errorf("remove %s: %w", id, ErrNotFound)
	}
	if _, err := r.stop(id); err != nil {
		return err
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	r.dropRestore(id)
	r.clearResume()
	r.logger.Info("entry removed", zap.String("path", e.Path))
	r.persist()
	return nil
}

// Restore starts the entries that were persisted as watching. Failures are
// logged, joined and returned; those entries stay stopped.
func (r *Registry) Restore() error {
	ids := r.restore
	r.restore = nil

	var errs []error
	for _, id := range ids {
		if _, err := r.start(id); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(ids) > 0 {
		r.persist()
	}
	return errors.Join(errs...)
}

// Close stops every watch without touching persisted state, then closes the
// queue. Entries keep IsWatching so the next session restores them.
func (r *Registry) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for id, h := range r.handles {
		h.stop()
		delete(r.handles, id)
	}
	r.queue.Close()
}

// start reports whether a new handle was created.
func (r *Registry) start(id string) (bool, error) {
	e, _ := r.find(id)
	if e == nil {
		return false, fmt.Errorf("start %s: %w", id, ErrNotFound)
	}
	if _, ok := r.handles[id]; ok {
		return false, nil
	}
	if r.closed {
		return false, ErrClosed
	}
	if r.strategy == nil {
		return false, &StartError{EntryID: id, Path: e.Path, Err: errors.New("no sampler strategy configured")}
	}

	e.State = Starting
	r.gen++
	gen := r.gen
	sub, err := r.strategy.Subscribe(e.Path, &sink{entryID: id, gen: gen, queue: r.queue, now: r.now})
	if err != nil {
		e.State = Stopped
		e.IsWatching = false
		e.LastError = err.Error()
		r.dropRestore(id)
		r.logger.Error("start watch", zap.String("path", e.Path), zap.Error(err))
		return false, &StartError{EntryID: id, Path: e.Path, Err: err}
	}

	r.handles[id] = &handle{entryID: id, path: e.Path, gen: gen, sub: sub, started: r.now()}
	e.State = Watching
	e.IsWatching = true
	e.LastError = ""
	r.logger.Info("watch started", zap.String("path", e.Path), zap.String("strategy", r.strategy.Name()))
	return true, nil
}

// stop reports whether a handle was released.
func (r *Registry) stop(id string) (bool, error) {
	e, _ := r.find(id)
	if e == nil {
		return false, fmt.Errorf("stop %s: %w", id, ErrNotFound)
	}
	h, ok := r.handles[id]
	if !ok {
		e.IsWatching = false
		e.State = Stopped
		return r.dropRestore(id), nil
	}
	h.stop()
	delete(r.handles, id)
	e.IsWatching = false
	e.State = Stopped
	r.logger.Info("watch stopped", zap.String("path", h.path))
	return true, nil
}

// terminated stops an entry whose subscription ended on its own. Notices from
// an older handle are ignored.
func (r *Registry) terminated(id string, gen uint64, cause error) bool {
	h, ok := r.handles[id]
	if !ok || h.gen != gen {
		return false
	}
	e, _ := r.find(id)
	h.stop()
	delete(r.handles, id)
	if e != nil {
		e.IsWatching = false
		e.State = Stopped
		if cause != nil {
			e.LastError = cause.Error()
		}
	}
	r.logger.Warn("watch terminated", zap.String("path", h.path), zap.Error(cause))
	r.persist()
	return true
}

// markTriggered stamps an executed trigger and returns the updated entry.
func (r *Registry) markTriggered(id string, at time.Time, change string) (Entry, bool) {
	e, _ := r.find(id)
	if e == nil {
		return Entry{}, false
	}
	e.LastTriggered = at
	e.LastChange = change
	e.Triggers++
	return e.clone(), true
}

func (r *Registry) find(id string) (*Entry, int) {
	for i, e := range r.entries {
		if e.ID == id {
			return e, i
		}
	}
	return nil, -1
}

// dropRestore reports whether id was still waiting for Restore.
func (r *Registry) dropRestore(id string) bool {
	for i, rid := range r.restore {
		if rid == id {
			r.restore = append(r.restore[:i], r.restore[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) clearResume() {
	r.resume = nil
	r.resumePending = false
}

// persist writes the current entries. Failures are logged, never fatal.
func (r *Registry) persist() {
	if r.saver == nil {
		return
	}
	pending := make(map[string]bool, len(r.restore))
	for _, id := range r.restore {
		pending[id] = true
	}
	out := make([]config.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, config.Entry{
			Path:       e.Path,
			Commands:   append([]string(nil), e.Commands...),
			IsWatching: e.IsWatching || pending[e.ID],
		})
	}
	if err := r.saver.Save(out); err != nil {
		r.logger.Error("save config", zap.Error(err))
	}
}

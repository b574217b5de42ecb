package sampler

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// recorder is a Sink that keeps everything it receives.
type recorder struct {
	mu      sync.Mutex
	changes []Change
	terms   []error
	fail    error
	ch      chan Change
	termCh  chan error
}

func newRecorder() *recorder {
	return &recorder{
		ch:     make(chan Change, 64),
		termCh: make(chan error, 4),
	}
}

func (r *recorder) Changed(c Change) error {
	r.mu.Lock()
	r.changes = append(r.changes, c)
	fail := r.fail
	r.mu.Unlock()
	select {
	case r.ch <- c:
	default:
	}
	return fail
}

func (r *recorder) Terminated(err error) {
	r.mu.Lock()
	r.terms = append(r.terms, err)
	r.mu.Unlock()
	select {
	case r.termCh <- err:
	default:
	}
}

func (r *recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Change(nil), r.changes...)
}

// manualPoller returns a Poller whose samples are driven by sending on the
// returned channel. Sending blocks until the poll goroutine receives, and
// sending twice guarantees the first sample has been fully processed.
func manualPoller(t *testing.T) (*Poller, chan time.Time) {
	t.Helper()
	ticks := make(chan time.Time)
	p := NewPoller(time.Second, zaptest.NewLogger(t))
	p.newTicker = func(time.Duration) (<-chan time.Time, func()) {
		return ticks, func() {}
	}
	return p, ticks
}

func sample(t *testing.T, ticks chan time.Time) {
	t.Helper()
	for i := 0; i < 2; i++ {
		select {
		case ticks <- time.Now():
		case <-time.After(2 * time.Second):
			t.Fatal("poll goroutine not receiving ticks")
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestPoller_AddAndRemoveInOneIntervalIsInvisible(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		touch(t, filepath.Join(dir, name))
	}

	p, ticks := manualPoller(t)
	rec := newRecorder()
	sub, err := p.Subscribe(dir, rec)
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)

	touch(t, filepath.Join(dir, "d.txt"))
	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	sample(t, ticks)

	assert.Empty(t, rec.Changes(), "net count stayed 3, polling cannot see the change")
	assert.Equal(t, 3, CountEntries(dir, nil))

	touch(t, filepath.Join(dir, "e.txt"))
	sample(t, ticks)

	changes := rec.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, 4, changes[0].Count)
	assert.Equal(t, "4 entries", changes[0].Description)
}

func TestPoller_ReportsEachCountChangeOnce(t *testing.T) {
	dir := t.TempDir()
	p, ticks := manualPoller(t)
	rec := newRecorder()
	sub, err := p.Subscribe(dir, rec)
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)

	touch(t, filepath.Join(dir, "one"))
	sample(t, ticks)
	sample(t, ticks)

	changes := rec.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, "1 entry", changes[0].Description)
}

func TestPoller_UnsubscribeStopsGoroutine(t *testing.T) {
	dir := t.TempDir()
	p, ticks := manualPoller(t)
	rec := newRecorder()
	sub, err := p.Subscribe(dir, rec)
	require.NoError(t, err)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll goroutine did not exit after Unsubscribe")
	}

	touch(t, filepath.Join(dir, "late"))
	select {
	case ticks <- time.Now():
		t.Fatal("stopped poller still sampling")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Empty(t, rec.Changes())
}

func TestPoller_StopsWhenSinkFails(t *testing.T) {
	dir := t.TempDir()
	p, ticks := manualPoller(t)
	rec := newRecorder()
	rec.fail = errors.New("queue closed")
	sub, err := p.Subscribe(dir, rec)
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)

	touch(t, filepath.Join(dir, "x"))
	select {
	case ticks <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("poll goroutine not receiving ticks")
	}

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poll goroutine kept running after the sink failed")
	}
}

func TestPoller_DeletedDirectoryReadsAsZero(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "watched")
	require.NoError(t, os.Mkdir(dir, 0o750))
	touch(t, filepath.Join(dir, "a"))
	touch(t, filepath.Join(dir, "b"))

	p, ticks := manualPoller(t)
	rec := newRecorder()
	sub, err := p.Subscribe(dir, rec)
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)

	require.NoError(t, os.RemoveAll(dir))
	sample(t, ticks)

	changes := rec.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, 0, changes[0].Count)

	select {
	case <-sub.Done():
		t.Fatal("read failure must not end the watch")
	default:
	}
}

func TestPoller_SubscribeRejectsBadPaths(t *testing.T) {
	p := NewPoller(0, nil)
	assert.Equal(t, DefaultPollInterval, p.Interval())

	_, err := p.Subscribe(filepath.Join(t.TempDir(), "missing"), newRecorder())
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	touch(t, file)
	_, err = p.Subscribe(file, newRecorder())
	require.Error(t, err)

	_, err = p.Subscribe("", newRecorder())
	require.Error(t, err)
}

func TestCountEntries_LogsWarningOnFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	n := CountEntries(filepath.Join(t.TempDir(), "gone"), zap.New(core))

	assert.Equal(t, 0, n)
	assert.Equal(t, 1, logs.FilterMessage("read directory").Len())
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "poll", want: StrategyPoll},
		{in: "Polling", want: StrategyPoll},
		{in: "events", want: StrategyEvents},
		{in: " fsnotify ", want: StrategyEvents},
		{in: "inotify", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folderwatch/pkg/sampler"
	"folderwatch/pkg/watch"
)

type stubStrategy struct{}

func (stubStrategy) Name() string { return "stub" }

func (stubStrategy) Subscribe(string, sampler.Sink) (sampler.Subscription, error) {
	return nil, errors.New("not supported")
}

type nopLauncher struct{}

func (nopLauncher) Launch(string, ...string) error { return nil }

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, path := range []string{"/tmp/a", "/tmp/b", "/tmp/a"} {
		require.NoError(t, j.Record(ctx, watch.TriggerRecord{
			Path:     path,
			Change:   "1 entry",
			Commands: []string{"echo a", "echo b"},
			Launched: 2,
			At:       base.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "/tmp/a", rows[0].Path)
	assert.True(t, base.Add(2*time.Second).Equal(rows[0].CreatedAt))
	assert.Equal(t, []string{"echo a", "echo b"}, rows[0].Commands)
	assert.Equal(t, 2, rows[0].Launched)
	assert.Equal(t, "/tmp/b", rows[1].Path)

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestQuery_Filters(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, path := range []string{"/tmp/a", "/tmp/b", "/tmp/a", "/tmp/a"} {
		require.NoError(t, j.Record(ctx, watch.TriggerRecord{
			Path: path,
			At:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	tests := []struct {
		name string
		opts QueryOpts
		want int
	}{
		{"all", QueryOpts{}, 4},
		{"by path", QueryOpts{Path: "/tmp/a"}, 3},
		{"after", QueryOpts{After: ptr(base.Add(90 * time.Second))}, 2},
		{"path and limit", QueryOpts{Path: "/tmp/a", Limit: 1}, 1},
		{"no match", QueryOpts{Path: "/nowhere"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := j.Query(ctx, tt.opts)
			require.NoError(t, err)
			assert.Len(t, rows, tt.want)
			assert.NotNil(t, rows)
		})
	}
}

func TestRecord_NilCommands(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	require.NoError(t, j.Record(ctx, watch.TriggerRecord{Path: "/tmp/a"}))

	rows, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].Commands)
	assert.False(t, rows[0].CreatedAt.IsZero())
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(ctx, watch.TriggerRecord{Path: "/tmp/a"}))
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	j, err = OpenExisting(path)
	require.NoError(t, err)
	defer j.Close()
	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenExisting_Missing(t *testing.T) {
	_, err := OpenExisting(filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
}

func TestClosedJournal(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Close())

	require.Error(t, j.Record(context.Background(), watch.TriggerRecord{Path: "/tmp/a"}))
	_, err := j.Recent(context.Background(), 1)
	require.Error(t, err)
}

func TestJournal_WithConsumer(t *testing.T) {
	j := openTestJournal(t)
	reg := watch.NewRegistry(watch.Options{Strategy: stubStrategy{}}, nil)
	defer reg.Close()
	id := reg.Add("/tmp/x", "echo hi")
	consumer := watch.NewConsumer(reg, nopLauncher{}, watch.WithJournal(j))

	require.NoError(t, reg.Queue().Push(watch.Message{EntryID: id}))
	assert.Equal(t, 1, consumer.Drain())

	rows, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "/tmp/x", rows[0].Path)
	assert.Equal(t, 1, rows[0].Launched)
}

func ptr[T any](v T) *T { return &v }

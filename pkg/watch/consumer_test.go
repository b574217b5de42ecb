package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeJournal struct {
	recs []TriggerRecord
	err  error
}

func (j *fakeJournal) Record(_ context.Context, rec TriggerRecord) error {
	j.recs = append(j.recs, rec)
	return j.err
}

func TestDrain_ProcessesEveryQueuedMessage(t *testing.T) {
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x", "echo hi")
	require.NoError(t, reg.Start(id))
	sub := strategy.active("/tmp/x")[0]
	launcher := &fakeLauncher{}
	consumer := NewConsumer(reg, launcher)

	for range 5 {
		sub.fire("change")
	}

	assert.Equal(t, 5, consumer.Drain())
	assert.Len(t, launcher.commands(), 5)
	assert.Zero(t, reg.Queue().Len())
	assert.Zero(t, consumer.Drain())

	e, _ := reg.Entry(id)
	assert.Equal(t, 5, e.Triggers)
}

func TestDrain_StampsEntry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x", "echo hi")
	require.NoError(t, reg.Start(id))
	consumer := NewConsumer(reg, &fakeLauncher{}, WithClock(func() time.Time { return now }))

	e, _ := reg.Entry(id)
	assert.True(t, e.LastTriggered.IsZero())

	strategy.active("/tmp/x")[0].fire("4 entries")
	consumer.Drain()

	e, _ = reg.Entry(id)
	assert.Equal(t, now, e.LastTriggered)
	assert.Equal(t, "4 entries", e.LastChange)
}

func TestDrain_LaunchFailureContinues(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x", "first", "broken", "", "last")
	require.NoError(t, reg.Start(id))
	launcher := &fakeLauncher{fail: map[string]bool{"broken": true}}
	journal := &fakeJournal{}
	consumer := NewConsumer(reg, launcher, WithJournal(journal), WithLogger(zap.New(core)))

	strategy.active("/tmp/x")[0].fire("1 entry")

	assert.Equal(t, 1, consumer.Drain())
	assert.Equal(t, []string{"first", "last"}, launcher.commands())
	assert.Equal(t, 1, logs.FilterMessage("launch command").Len())
	require.Len(t, journal.recs, 1)
	assert.Equal(t, 2, journal.recs[0].Launched)
	assert.Equal(t, 1, journal.recs[0].Failed)
	assert.Equal(t, "/tmp/x", journal.recs[0].Path)
}

func TestDrain_SetsEnvironment(t *testing.T) {
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x", "echo hi")
	require.NoError(t, reg.Start(id))
	launcher := &fakeLauncher{}
	consumer := NewConsumer(reg, launcher)

	strategy.active("/tmp/x")[0].fire("2 paths changed")
	consumer.Drain()

	require.Len(t, launcher.launched, 1)
	assert.Equal(t, []string{
		"FOLDERWATCH_PATH=/tmp/x",
		"FOLDERWATCH_CHANGE=2 paths changed",
	}, launcher.launched[0].env)
}

func TestDrain_CommandEditsApplyAtTrigger(t *testing.T) {
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x", "old")
	require.NoError(t, reg.Start(id))
	launcher := &fakeLauncher{}
	consumer := NewConsumer(reg, launcher)

	strategy.active("/tmp/x")[0].fire("1 entry")
	require.NoError(t, reg.SetCommands(id, []string{"new"}))
	consumer.Drain()

	assert.Equal(t, []string{"new"}, launcher.commands())
}

func TestDrain_RemovedEntryDropped(t *testing.T) {
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x", "echo hi")
	require.NoError(t, reg.Start(id))
	launcher := &fakeLauncher{}
	consumer := NewConsumer(reg, launcher)

	strategy.active("/tmp/x")[0].fire("queued before removal")
	require.NoError(t, reg.Remove(id))

	assert.Zero(t, consumer.Drain())
	assert.Empty(t, launcher.commands())
}

func TestDrain_TerminationStopsEntry(t *testing.T) {
	reg, strategy, saver := newTestRegistry(t)
	id := reg.Add("/tmp/x")
	require.NoError(t, reg.Start(id))
	consumer := NewConsumer(reg, &fakeLauncher{})

	strategy.active("/tmp/x")[0].terminate(errors.New("watched directory removed"))

	assert.Zero(t, consumer.Drain())
	e, _ := reg.Entry(id)
	assert.False(t, e.IsWatching)
	assert.Equal(t, Stopped, e.State)
	assert.Equal(t, "watched directory removed", e.LastError)
	assert.Zero(t, reg.Watching())
	assert.False(t, saver.last[0].IsWatching)
}

func TestDrain_StaleTerminationIgnored(t *testing.T) {
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x")
	require.NoError(t, reg.Start(id))
	old := strategy.active("/tmp/x")[0]
	consumer := NewConsumer(reg, &fakeLauncher{})

	// The old handle reports termination after the entry was restarted.
	oldSink := old.sink
	require.NoError(t, reg.Stop(id))
	require.NoError(t, reg.Start(id))
	oldSink.Terminated(errors.New("stream closed"))

	consumer.Drain()

	e, _ := reg.Entry(id)
	assert.True(t, e.IsWatching)
	assert.Len(t, strategy.active("/tmp/x"), 1)
}

func TestDrain_JournalErrorLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x", "echo hi")
	require.NoError(t, reg.Start(id))
	journal := &fakeJournal{err: errors.New("database is locked")}
	consumer := NewConsumer(reg, &fakeLauncher{}, WithJournal(journal), WithLogger(zap.New(core)))

	strategy.active("/tmp/x")[0].fire("1 entry")

	assert.Equal(t, 1, consumer.Drain())
	assert.Equal(t, 1, logs.FilterMessage("record trigger").Len())
}

func TestWait_SignalsAfterPush(t *testing.T) {
	reg, strategy, _ := newTestRegistry(t)
	id := reg.Add("/tmp/x")
	require.NoError(t, reg.Start(id))
	consumer := NewConsumer(reg, &fakeLauncher{})

	strategy.active("/tmp/x")[0].fire("1 entry")

	select {
	case <-consumer.Wait():
	case <-time.After(time.Second):
		t.Fatal("no ready signal after push")
	}
	assert.Equal(t, 1, consumer.Drain())
}

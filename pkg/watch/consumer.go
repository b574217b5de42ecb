package watch

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"folderwatch/internal/logging"
	"folderwatch/pkg/runner"
)

// Environment variables set for every launched command.
const (
	EnvPath   = "FOLDERWATCH_PATH"
	EnvChange = "FOLDERWATCH_CHANGE"
)

// Journal records executed triggers.
type Journal interface {
	Record(ctx context.Context, rec TriggerRecord) error
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithJournal records every executed trigger in j.
func WithJournal(j Journal) ConsumerOption {
	return func(c *Consumer) { c.journal = j }
}

// WithClock overrides the clock used to stamp LastTriggered.
func WithClock(now func() time.Time) ConsumerOption {
	return func(c *Consumer) { c.now = now }
}

// WithLogger sets the consumer's logger.
func WithLogger(l *zap.Logger) ConsumerOption {
	return func(c *Consumer) { c.logger = logging.OrNop(l) }
}

// Consumer applies queued messages to a Registry on the control loop.
type Consumer struct {
	reg      *Registry
	launcher runner.Launcher
	journal  Journal
	logger   *zap.Logger
	now      func() time.Time
}

// NewConsumer returns a Consumer draining reg's queue.
func NewConsumer(reg *Registry, launcher runner.Launcher, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reg:      reg,
		launcher: launcher,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wait returns a channel that receives after new messages were queued.
func (c *Consumer) Wait() <-chan struct{} {
	return c.reg.Queue().Ready()
}

// Drain processes every queued message and returns the number of triggers
// executed.
func (c *Consumer) Drain() int {
	msgs := c.reg.Queue().Drain()
	executed := 0
	for _, msg := range msgs {
		if msg.Terminated {
			c.reg.terminated(msg.EntryID, msg.gen, msg.Err)
			continue
		}
		if c.trigger(msg) {
			executed++
		}
	}
	return executed
}

func (c *Consumer) trigger(msg Message) bool {
	entry, ok := c.reg.markTriggered(msg.EntryID, c.now(), msg.Change.Description)
	if !ok {
		c.logger.Debug("trigger for removed entry dropped", zap.String("entry", msg.EntryID))
		return false
	}

	env := []string{
		EnvPath + "=" + entry.Path,
		EnvChange + "=" + msg.Change.Description,
	}
	rec := TriggerRecord{
		EntryID:  entry.ID,
		Path:     entry.Path,
		Change:   msg.Change.Description,
		Commands: entry.Commands,
		At:       entry.LastTriggered,
	}
	for _, command := range entry.Commands {
		if strings.TrimSpace(command) == "" {
			continue
		}
		if err := c.launcher.Launch(command, env...); err != nil {
			rec.Failed++
			c.logger.Error("launch command",
				zap.String("path", entry.Path),
				zap.String("command", command),
				zap.Error(err))
			continue
		}
		rec.Launched++
	}
	c.logger.Info("change detected",
		zap.String("path", entry.Path),
		zap.String("change", msg.Change.Description),
		zap.Int("launched", rec.Launched),
		zap.Int("failed", rec.Failed))

	if c.journal != nil {
		if err := c.journal.Record(context.Background(), rec); err != nil {
			c.logger.Warn("record trigger", zap.Error(err))
		}
	}
	return true
}

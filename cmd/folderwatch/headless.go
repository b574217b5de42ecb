package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// runHeadless drains triggers until ctx is cancelled or the process receives
// SIGINT or SIGTERM.
func runHeadless(ctx context.Context, s *session, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newStartupLog(out)
	log.Step("loaded %d %s from %s", s.reg.Len(), plural(s.reg.Len(), "entry", "entries"), s.store.Path())
	for _, e := range s.reg.Entries() {
		if e.LastError != "" {
			log.Fail("%s: %s", e.Path, e.LastError)
		}
	}
	if s.reg.Watching() == 0 {
		log.Note("no active watches; start entries in the interactive view or set is_watching in the config")
	} else {
		log.Step("watching %d %s (%s)", s.reg.Watching(), plural(s.reg.Watching(), "directory", "directories"), s.reg.Strategy().Name())
	}

	for {
		select {
		case <-ctx.Done():
			s.consumer.Drain()
			s.logger.Info("shutting down")
			return nil
		case <-s.consumer.Wait():
			if n := s.consumer.Drain(); n > 0 {
				s.logger.Debug("drained triggers", zap.Int("count", n))
			}
		}
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

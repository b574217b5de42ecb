package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"folderwatch/internal/logging"
	"folderwatch/pkg/config"
	"folderwatch/pkg/debounce"
	"folderwatch/pkg/journal"
	"folderwatch/pkg/runner"
	"folderwatch/pkg/sampler"
	"folderwatch/pkg/watch"
)

// session wires the registry, consumer and journal for one run.
type session struct {
	store    *config.Store
	reg      *watch.Registry
	consumer *watch.Consumer
	journal  *journal.Journal
	logger   *zap.Logger
}

// newSession loads the config and builds the watch stack. A nil launcher
// means the platform shell.
func newSession(opts *rootOptions, logger *zap.Logger, launcher runner.Launcher) (*session, error) {
	logger = logging.OrNop(logger)

	strategy, err := newStrategy(opts.strategy, logger)
	if err != nil {
		return nil, err
	}

	store := config.NewStore(opts.configPath)
	entries, err := store.Load()
	if err != nil {
		logger.Warn("load config, starting empty", zap.String("path", store.Path()), zap.Error(err))
	}

	s := &session{
		store:  store,
		logger: logger,
		reg: watch.NewRegistry(watch.Options{
			Strategy: strategy,
			Saver:    store,
			Logger:   logger,
		}, entries),
	}

	consumerOpts := []watch.ConsumerOption{watch.WithLogger(logger)}
	if opts.journalPath != "" {
		j, err := journal.Open(opts.journalPath)
		if err != nil {
			s.reg.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		s.journal = j
		consumerOpts = append(consumerOpts, watch.WithJournal(j))
	}

	if launcher == nil {
		launcher = runner.NewShell(logger)
	}
	s.consumer = watch.NewConsumer(s.reg, launcher, consumerOpts...)
	return s, nil
}

// Close stops every watch and releases the journal. Persisted watch intent is
// left untouched so the next run restores it.
func (s *session) Close() error {
	s.reg.Close()
	var errs []error
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	return errors.Join(errs...)
}

// newStrategy returns the sampler for a strategy name.
func newStrategy(name string, logger *zap.Logger) (sampler.Strategy, error) {
	n, err := sampler.ParseStrategy(name)
	if err != nil {
		return nil, err
	}
	if n == sampler.StrategyPoll {
		return sampler.NewPoller(sampler.DefaultPollInterval, logger), nil
	}
	return sampler.NewNotifier(debounce.DefaultWindow, logger), nil
}

// runSession is the root command: the interactive view on a terminal,
// otherwise the headless loop.
func runSession(cmd *cobra.Command, opts *rootOptions) error {
	interactive := !opts.headless && isTerminal(os.Stdout)

	logOpts := logging.Options{File: opts.logFile, Debug: opts.debug}
	switch {
	case interactive && logOpts.File == "":
		logOpts.File = defaultLogFile()
	case !interactive && logOpts.File == "":
		logOpts.Console = true
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, err := newSession(opts, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("close session", zap.Error(err))
		}
	}()

	if err := s.reg.Restore(); err != nil {
		logger.Warn("restore watches", zap.Error(err))
	}

	if interactive {
		return runInteractive(s)
	}
	return runHeadless(cmd.Context(), s, cmd.OutOrStdout())
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// defaultLogFile returns the interactive log file under the user cache dir.
func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "folderwatch", "folderwatch.log")
}

// Package logging builds the zap loggers used by folderwatch.
//
// The TUI owns the terminal, so interactive sessions log JSON lines to a file.
// Headless sessions log human-readable lines to stderr.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// File is the log file path. Empty means stderr.
	File string
	// Debug lowers the level to debug.
	Debug bool
	// Console selects the console encoder instead of JSON.
	Console bool
}

// New returns a logger configured from opts.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if opts.Debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Sampling = nil
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	if opts.Console {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	out := "stderr"
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create log dir %s: %w", dir, err)
			}
		}
		out = opts.File
	}
	cfg.OutputPaths = []string{out}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

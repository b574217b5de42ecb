package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folderwatch/internal/logging"
)

func TestNewWritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "folderwatch.log")
	logger, err := logging.New(logging.Options{File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("watch started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "watch started") {
		t.Errorf("log file missing message, got: %s", data)
	}
}

func TestNewDebugLevel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{File: path, Debug: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("count unchanged")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "count unchanged") {
		t.Errorf("debug message not written, got: %s", data)
	}
}

func TestOrNop(t *testing.T) {
	t.Parallel()

	if logging.OrNop(nil) == nil {
		t.Fatal("OrNop(nil) must return a usable logger")
	}
}

package main

import (
	"fmt"
	"io"
	"sync"
)

// startupLog prints headless startup progress.
type startupLog struct {
	w  io.Writer
	mu sync.Mutex
}

func newStartupLog(w io.Writer) *startupLog {
	return &startupLog{w: w}
}

// Step prints a completed step with a checkmark.
func (s *startupLog) Step(format string, args ...any) {
	s.line("✓", format, args...)
}

// Fail prints a failed step.
func (s *startupLog) Fail(format string, args ...any) {
	s.line("✗", format, args...)
}

// Note prints an informational line.
func (s *startupLog) Note(format string, args ...any) {
	s.line("·", format, args...)
}

func (s *startupLog) line(mark, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%s %s\n", mark, fmt.Sprintf(format, args...))
}

// Package runner launches configured shell commands.
//
// Commands are handed verbatim to the platform shell. The configuration file
// is trusted input: arbitrary shell syntax is a feature, so nothing is escaped
// or validated here.
package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"folderwatch/internal/logging"
)

// Launcher starts a command without waiting for it.
type Launcher interface {
	// Launch starts command and returns once the process is running. The
	// error reports only a failure to start it.
	Launch(command string, env ...string) error
}

// Shell implements Launcher with sh -c (cmd /C on Windows).
type Shell struct {
	// Interpreter and Flag override the platform shell (for testing).
	Interpreter string
	Flag        string
	// Dir is the working directory; empty means the current directory.
	Dir string

	logger *zap.Logger
}

// NewShell returns a Shell using the platform interpreter.
func NewShell(logger *zap.Logger) *Shell {
	interp, flag := platformShell()
	return &Shell{
		Interpreter: interp,
		Flag:        flag,
		logger:      logging.OrNop(logger),
	}
}

func platformShell() (string, string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}

// Launch implements Launcher. Output is discarded and the exit status is
// reaped on a background goroutine, logged at debug level.
func (s *Shell) Launch(command string, env ...string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("launch: empty command")
	}

	cmd := exec.Command(s.Interpreter, s.Flag, command) //nolint:gosec,noctx // G204: commands come from the trusted config file
	cmd.Dir = s.Dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s %s %q: %w", s.Interpreter, s.Flag, command, err)
	}

	logger := logging.OrNop(s.logger)
	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			logger.Debug("command finished", zap.String("command", command), zap.Int("pid", pid))
		case errors.As(err, &exitErr):
			logger.Debug("command failed",
				zap.String("command", command),
				zap.Int("pid", pid),
				zap.Int("exit_code", exitErr.ExitCode()))
		default:
			logger.Debug("command wait", zap.String("command", command), zap.Error(err))
		}
	}()
	return nil
}

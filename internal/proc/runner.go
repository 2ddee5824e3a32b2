// Package proc runs external tools with a hard wall-clock timeout.
//
// Every capture and window-management tool EVE-Overview shells out to goes
// through Runner, so a hung tool can never stall a refresh tick for longer
// than the configured timeout, and no child process survives one.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = time.Second

var (
	// ErrTimeout is returned when the child did not finish within the
	// timeout. The whole process group has been killed by then.
	ErrTimeout = errors.New("process timed out")

	// ErrToolNotFound is returned when the tool is not installed.
	ErrToolNotFound = errors.New("tool not found")
)

// ExitError is returned when the tool ran but exited non-zero.
type ExitError struct {
	Tool   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.Code)
}

// Runner executes external commands with a per-invocation timeout.
// The zero value uses DefaultTimeout.
type Runner struct {
	Timeout time.Duration
}

// NewRunner creates a Runner with the given timeout. A non-positive timeout
// falls back to DefaultTimeout.
func NewRunner(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run executes name with args and returns its stdout. Timeouts, missing
// tools, and non-zero exits are distinguishable via errors.Is/errors.As;
// all of them are recoverable from the caller's point of view.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)

	// The child gets its own process group so a timeout kills the whole
	// tree, not just the direct handle. convert and import both fork.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	log := logger.WithComponent("proc")
	if ctx.Err() == context.DeadlineExceeded {
		log.Debug().
			Str("tool", name).
			Dur("elapsed", time.Since(start)).
			Msg("Killed process group after timeout")
		return nil, fmt.Errorf("%s: %w", name, ErrTimeout)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrToolNotFound)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &ExitError{
			Tool:   name,
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr.String()),
		}
	}
	return nil, fmt.Errorf("%s: %w", name, err)
}

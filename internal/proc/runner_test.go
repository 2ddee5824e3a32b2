package proc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRun_CapturesStdout(t *testing.T) {
	r := NewRunner(2 * time.Second)
	out, err := r.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Errorf("expected 'hello', got %q", string(out))
	}
}

func TestRun_TimeoutKillsChild(t *testing.T) {
	r := NewRunner(100 * time.Millisecond)
	start := time.Now()
	_, err := r.Run(context.Background(), "sleep", "10")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}
	// The hard timeout plus the wait grace period, with headroom for a
	// loaded test machine.
	if elapsed > time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	// sh spawns sleep as a child; killing only sh would orphan it.
	r := NewRunner(100 * time.Millisecond)
	_, err := r.Run(context.Background(), "sh", "-c", "sleep 10")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}
	// If the group kill failed, Wait would block on the inherited pipe
	// until the grandchild exits, and the test would have hung above.
}

func TestRun_NonZeroExit(t *testing.T) {
	r := NewRunner(2 * time.Second)
	_, err := r.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got: %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("expected exit code 3, got %d", exitErr.Code)
	}
	if exitErr.Stderr != "oops" {
		t.Errorf("expected stderr 'oops', got %q", exitErr.Stderr)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("exit error must not compare equal to ErrTimeout")
	}
}

func TestRun_ToolNotFound(t *testing.T) {
	r := NewRunner(2 * time.Second)
	_, err := r.Run(context.Background(), "definitely-not-a-real-tool-xyz")
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got: %v", err)
	}
}

func TestRun_ZeroTimeoutUsesDefault(t *testing.T) {
	var r Runner
	out, err := r.Run(context.Background(), "echo", "ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(string(out)) != "ok" {
		t.Errorf("expected 'ok', got %q", string(out))
	}
}

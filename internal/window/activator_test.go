package window

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/AreteDriver/EVE-Overview/internal/proc"
)

func TestActivate_WmctrlSucceeds(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		"wmctrl -i -a 0x100": {out: nil},
	}}
	a := NewActivator(runner)

	if err := a.Activate(context.Background(), Handle{ID: 256}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("expected single wmctrl call, got %v", runner.calls)
	}
}

func TestActivate_FallsBackToXdotool(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		"wmctrl -i -a 0x100":        {err: fmt.Errorf("wmctrl: %w", proc.ErrToolNotFound)},
		"xdotool windowactivate 256": {out: nil},
	}}
	a := NewActivator(runner)

	if err := a.Activate(context.Background(), Handle{ID: 256}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActivate_StaleHandle(t *testing.T) {
	exitErr := &proc.ExitError{Tool: "wmctrl", Code: 1}
	runner := &fakeRunner{responses: map[string]fakeResponse{
		"wmctrl -i -a 0x100":        {err: exitErr},
		"xdotool windowactivate 256": {err: &proc.ExitError{Tool: "xdotool", Code: 1}},
	}}
	a := NewActivator(runner)

	err := a.Activate(context.Background(), Handle{ID: 256})
	if !errors.Is(err, ErrWindowGone) {
		t.Fatalf("expected ErrWindowGone, got: %v", err)
	}
}

func TestActivate_NoTool(t *testing.T) {
	runner := &fakeRunner{responses: map[string]fakeResponse{
		"wmctrl -i -a 0x100":        {err: fmt.Errorf("wmctrl: %w", proc.ErrToolNotFound)},
		"xdotool windowactivate 256": {err: fmt.Errorf("xdotool: %w", proc.ErrToolNotFound)},
	}}
	a := NewActivator(runner)

	err := a.Activate(context.Background(), Handle{ID: 256})
	if !errors.Is(err, ErrNoTool) {
		t.Fatalf("expected ErrNoTool, got: %v", err)
	}
}

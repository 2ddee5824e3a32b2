package window

import (
	"context"
	"errors"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
	"github.com/AreteDriver/EVE-Overview/internal/proc"
)

// ErrWindowGone is returned when the handle no longer resolves to a live
// window. Expected and recoverable: the caller drops the session or no-ops.
var ErrWindowGone = errors.New("window no longer exists")

// Activator focuses and raises a window, trying wmctrl first and falling
// back to xdotool, the same tool pattern the enumerator uses.
type Activator struct {
	runner Runner
}

// NewActivator creates an Activator backed by the given runner.
func NewActivator(runner Runner) *Activator {
	return &Activator{runner: runner}
}

// Activate focuses the window behind h. A stale handle yields ErrWindowGone;
// no usable tool yields ErrNoTool. Never fatal to the caller.
func (a *Activator) Activate(ctx context.Context, h Handle) error {
	log := logger.WithComponent("activator")

	_, wmErr := a.runner.Run(ctx, "wmctrl", "-i", "-a", FormatHex(h.ID))
	if wmErr == nil {
		log.Debug().Str("id", FormatHex(h.ID)).Str("tool", "wmctrl").Msg("Activated window")
		return nil
	}

	_, xdErr := a.runner.Run(ctx, "xdotool", "windowactivate", FormatDec(h.ID))
	if xdErr == nil {
		log.Debug().Str("id", FormatHex(h.ID)).Str("tool", "xdotool").Msg("Activated window")
		return nil
	}

	if errors.Is(wmErr, proc.ErrToolNotFound) && errors.Is(xdErr, proc.ErrToolNotFound) {
		return ErrNoTool
	}

	// Both tools ran and refused the ID: the window is gone.
	var wmExit, xdExit *proc.ExitError
	if errors.As(wmErr, &wmExit) || errors.As(xdErr, &xdExit) {
		log.Debug().Str("id", FormatHex(h.ID)).Msg("Window handle is stale")
		return ErrWindowGone
	}
	return xdErr
}

// Package capture produces screenshots of individual X11 windows.
//
// No single screenshot tool works on every desktop, so capture is an
// ordered chain of strategies behind one interface: ImageMagick's import is
// tried first, then the legacy xwd + convert pair. Each attempt is bounded
// by the process runner's timeout, and a fully failed chain is an ordinary
// error the refresh loop absorbs rather than a crash.
package capture

import (
	"context"
	"errors"
	"image"
)

// Runner executes an external tool and returns its stdout.
// *proc.Runner satisfies it; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Strategy is one method of producing a screenshot of a window.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string

	// Available reports whether the strategy's tools are installed.
	Available() bool

	// Capture screenshots the window with the given X11 id.
	Capture(ctx context.Context, id uint32) (image.Image, error)
}

// ErrAllFailed is returned by the chain when every strategy failed or none
// was available. The scheduler treats it as "no update this tick".
var ErrAllFailed = errors.New("all capture strategies failed")

package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"sync"

	"github.com/AreteDriver/EVE-Overview/internal/window"
)

// xwdStrategy is the fallback path: xwd dumps the window in its native
// format, then ImageMagick's convert turns the dump into PNG. Two processes
// and a temp file make it slower than import, but xwd ships with X itself
// and works on setups where import does not.
type xwdStrategy struct {
	runner Runner

	availOnce sync.Once
	avail     bool
}

// NewXwdStrategy creates the xwd + convert capture strategy.
func NewXwdStrategy(runner Runner) Strategy {
	return &xwdStrategy{runner: runner}
}

func (s *xwdStrategy) Name() string { return "xwd" }

func (s *xwdStrategy) Available() bool {
	s.availOnce.Do(func() {
		if _, err := exec.LookPath("xwd"); err != nil {
			return
		}
		if _, err := exec.LookPath("convert"); err != nil {
			return
		}
		s.avail = true
	})
	return s.avail
}

func (s *xwdStrategy) Capture(ctx context.Context, id uint32) (image.Image, error) {
	dump, err := s.runner.Run(ctx, "xwd", "-id", window.FormatHex(id), "-silent")
	if err != nil {
		return nil, err
	}
	if len(dump) == 0 {
		return nil, fmt.Errorf("xwd: empty dump for window %s", window.FormatHex(id))
	}

	tmp, err := os.CreateTemp("", "eve-overview-*.xwd")
	if err != nil {
		return nil, fmt.Errorf("xwd: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(dump); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("xwd: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("xwd: close temp file: %w", err)
	}

	out, err := s.runner.Run(ctx, "convert", "xwd:"+tmp.Name(), "png:-")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("convert: empty output for window %s", window.FormatHex(id))
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("convert: corrupt output for window %s: %w", window.FormatHex(id), err)
	}
	return img, nil
}

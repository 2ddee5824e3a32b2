package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"sync"

	"github.com/AreteDriver/EVE-Overview/internal/window"
)

// importStrategy captures via ImageMagick's import tool, the fastest and
// most reliable single-step path: it writes PNG straight to stdout.
type importStrategy struct {
	runner Runner

	availOnce sync.Once
	avail     bool
}

// NewImportStrategy creates the import-based capture strategy.
func NewImportStrategy(runner Runner) Strategy {
	return &importStrategy{runner: runner}
}

func (s *importStrategy) Name() string { return "import" }

func (s *importStrategy) Available() bool {
	s.availOnce.Do(func() {
		_, err := exec.LookPath("import")
		s.avail = err == nil
	})
	return s.avail
}

func (s *importStrategy) Capture(ctx context.Context, id uint32) (image.Image, error) {
	out, err := s.runner.Run(ctx, "import", "-window", window.FormatHex(id), "-silent", "png:-")
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, fmt.Errorf("import: empty output for window %s", window.FormatHex(id))
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("import: corrupt output for window %s: %w", window.FormatHex(id), err)
	}
	return img, nil
}

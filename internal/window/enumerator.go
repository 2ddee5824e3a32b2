package window

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
	"github.com/AreteDriver/EVE-Overview/internal/proc"
)

// Runner executes an external tool and returns its stdout.
// *proc.Runner satisfies it; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ErrNoTool is returned when neither wmctrl nor xdotool is usable.
// Callers show "no windows found" instead of failing the refresh path.
var ErrNoTool = errors.New("no window listing tool available (wmctrl, xdotool)")

// Enumerator lists visible top-level windows. wmctrl is the primary tool;
// xdotool is the fallback when wmctrl is absent or produces unparseable
// output. Once wmctrl is known to be missing the enumerator stops retrying
// it; tool availability is discovered once and then treated as fixed.
type Enumerator struct {
	runner Runner

	mu            sync.Mutex
	wmctrlMissing bool
}

// NewEnumerator creates an Enumerator backed by the given runner.
func NewEnumerator(runner Runner) *Enumerator {
	return &Enumerator{runner: runner}
}

// List returns the visible top-level windows, deduplicated by normalized ID.
// It never returns a partial error: either a (possibly empty) list, or
// ErrNoTool when no tool is usable.
func (e *Enumerator) List(ctx context.Context) ([]Handle, error) {
	log := logger.WithComponent("enumerator")

	e.mu.Lock()
	skipWmctrl := e.wmctrlMissing
	e.mu.Unlock()

	if !skipWmctrl {
		handles, err := e.listWmctrl(ctx)
		if err == nil {
			return handles, nil
		}
		if errors.Is(err, proc.ErrToolNotFound) {
			e.mu.Lock()
			e.wmctrlMissing = true
			e.mu.Unlock()
		}
		log.Debug().Err(err).Msg("wmctrl listing failed, falling back to xdotool")
	}

	handles, err := e.listXdotool(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("No window listing tool available")
		return nil, ErrNoTool
	}
	return handles, nil
}

// listWmctrl parses `wmctrl -l -G` output:
//
//	0x03a00041  0 3440 1397 1442  806 host Window Title
//
// Fields: id, desktop, x, y, width, height, hostname, title.
func (e *Enumerator) listWmctrl(ctx context.Context) ([]Handle, error) {
	out, err := e.runner.Run(ctx, "wmctrl", "-l", "-G")
	if err != nil {
		return nil, err
	}

	handles := parseWmctrlList(out)
	if len(handles) == 0 && len(bytes.TrimSpace(out)) > 0 {
		// Output present but nothing parsed: treat like a broken tool
		// so the caller falls back.
		return nil, fmt.Errorf("wmctrl: unparseable output")
	}
	return dedupe(handles), nil
}

func parseWmctrlList(out []byte) []Handle {
	var handles []Handle
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 8 {
			continue
		}
		id, err := ParseID(fields[0])
		if err != nil {
			continue
		}
		x, _ := strconv.Atoi(fields[2])
		y, _ := strconv.Atoi(fields[3])
		w, _ := strconv.Atoi(fields[4])
		h, _ := strconv.Atoi(fields[5])
		handles = append(handles, Handle{
			ID:       id,
			Title:    strings.Join(fields[7:], " "),
			Geometry: Geometry{X: x, Y: y, Width: w, Height: h},
		})
	}
	return handles
}

// listXdotool searches visible windows and resolves each title with a
// separate getwindowname call, mirroring how xdotool is actually used.
func (e *Enumerator) listXdotool(ctx context.Context) ([]Handle, error) {
	out, err := e.runner.Run(ctx, "xdotool", "search", "--onlyvisible", "--name", "")
	if err != nil {
		return nil, err
	}

	var handles []Handle
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := ParseID(line)
		if err != nil {
			continue
		}
		handles = append(handles, Handle{ID: id, Title: e.windowName(ctx, id)})
	}
	return dedupe(handles), nil
}

func (e *Enumerator) windowName(ctx context.Context, id uint32) string {
	out, err := e.runner.Run(ctx, "xdotool", "getwindowname", FormatDec(id))
	if err != nil {
		return "Unknown"
	}
	return strings.TrimSpace(string(out))
}

// dedupe keeps the first handle seen for each normalized ID, preserving
// order. Tools occasionally report the same window twice, and the same
// window reported in hex and decimal must collapse to one entry.
func dedupe(handles []Handle) []Handle {
	seen := make(map[uint32]bool, len(handles))
	out := handles[:0]
	for _, h := range handles {
		if seen[h.ID] {
			continue
		}
		seen[h.ID] = true
		out = append(out, h)
	}
	return out
}

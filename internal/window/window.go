// Package window lists, identifies, and activates top-level X11 windows by
// shelling out to wmctrl and xdotool, whichever is installed.
package window

import (
	"fmt"
	"strconv"
	"strings"
)

// Geometry describes a window's on-screen placement.
type Geometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Handle identifies a top-level window. Identity is the normalized ID:
// wmctrl prints hex IDs and xdotool prints decimal, so both text forms of
// the same window must compare equal after ParseID. A handle goes stale the
// moment the window closes; every operation taking one tolerates that.
type Handle struct {
	ID       uint32   `json:"id"`
	Title    string   `json:"title"`
	Geometry Geometry `json:"geometry"`
}

// ParseID normalizes a window ID in hex ("0x1a3") or decimal ("419") text
// form to the canonical uint32.
func ParseID(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty window id")
	}
	var (
		id  uint64
		err error
	)
	if rest, ok := cutHexPrefix(s); ok {
		id, err = strconv.ParseUint(rest, 16, 32)
	} else {
		id, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	return uint32(id), nil
}

func cutHexPrefix(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return rest, true
	}
	return strings.CutPrefix(s, "0X")
}

// FormatHex renders an ID the way wmctrl, import, and xwd expect it.
func FormatHex(id uint32) string {
	return fmt.Sprintf("0x%x", id)
}

// FormatDec renders an ID the way xdotool expects it.
func FormatDec(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}

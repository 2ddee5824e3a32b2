// Package hotkey parses keyboard shortcut strings and binds them to
// actions through a pluggable listener backend.
package hotkey

import (
	"fmt"
	"sort"
	"strings"
)

// Combo is a normalized key combination: zero or more modifiers plus one
// key, both lowercase. Two combos written differently ("Ctrl+Alt+1",
// "alt+control+1") normalize to the same Combo.
type Combo struct {
	Mods []string
	Key  string
}

var modAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
	"super":   "super",
	"win":     "super",
	"cmd":     "super",
	"meta":    "super",
}

// ParseCombo parses a combination like "Ctrl+Alt+1" or "shift+F5". The
// last segment is the key; everything before it must be a modifier.
func ParseCombo(s string) (Combo, error) {
	parts := strings.Split(s, "+")
	if len(parts) == 0 || strings.TrimSpace(s) == "" {
		return Combo{}, fmt.Errorf("empty hotkey")
	}

	seen := make(map[string]bool)
	var mods []string
	for _, part := range parts[:len(parts)-1] {
		name := strings.ToLower(strings.TrimSpace(part))
		mod, ok := modAliases[name]
		if !ok {
			return Combo{}, fmt.Errorf("unknown modifier %q in %q", part, s)
		}
		if !seen[mod] {
			seen[mod] = true
			mods = append(mods, mod)
		}
	}
	sort.Strings(mods)

	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if key == "" {
		return Combo{}, fmt.Errorf("missing key in %q", s)
	}
	if _, isMod := modAliases[key]; isMod {
		return Combo{}, fmt.Errorf("hotkey %q has no key, only modifiers", s)
	}
	return Combo{Mods: mods, Key: key}, nil
}

// String returns the canonical lowercase form, e.g. "alt+ctrl+1". Combos
// compare equal exactly when their String values do.
func (c Combo) String() string {
	if len(c.Mods) == 0 {
		return c.Key
	}
	return strings.Join(c.Mods, "+") + "+" + c.Key
}

// Format returns a human-readable form, e.g. "Alt+Ctrl+F5".
func (c Combo) Format() string {
	parts := make([]string, 0, len(c.Mods)+1)
	for _, m := range c.Mods {
		parts = append(parts, capitalize(m))
	}
	key := c.Key
	if len(key) == 1 {
		key = strings.ToUpper(key)
	} else if isFunctionKey(key) {
		key = "F" + key[1:]
	} else {
		key = capitalize(key)
	}
	return strings.Join(append(parts, key), "+")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isFunctionKey(key string) bool {
	if len(key) < 2 || key[0] != 'f' {
		return false
	}
	for _, r := range key[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

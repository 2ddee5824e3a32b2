package hotkey

import (
	"sync"
	"testing"
)

func TestParseCombo_Canonicalizes(t *testing.T) {
	a, err := ParseCombo("Ctrl+Alt+1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ParseCombo("alt+control+1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.String() != b.String() {
		t.Errorf("equivalent combos differ: %q != %q", a.String(), b.String())
	}
	if a.String() != "alt+ctrl+1" {
		t.Errorf("unexpected canonical form: %q", a.String())
	}
}

func TestParseCombo_Aliases(t *testing.T) {
	for _, in := range []string{"Win+E", "cmd+e", "super+E", "meta+e"} {
		c, err := ParseCombo(in)
		if err != nil {
			t.Fatalf("ParseCombo(%q): %v", in, err)
		}
		if c.String() != "super+e" {
			t.Errorf("ParseCombo(%q) = %q, want super+e", in, c.String())
		}
	}
}

func TestParseCombo_BareKey(t *testing.T) {
	c, err := ParseCombo("F5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.String() != "f5" || len(c.Mods) != 0 {
		t.Errorf("unexpected combo: %+v", c)
	}
}

func TestParseCombo_DuplicateModifiersCollapse(t *testing.T) {
	c, err := ParseCombo("ctrl+control+x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Mods) != 1 {
		t.Errorf("expected single modifier, got %v", c.Mods)
	}
}

func TestParseCombo_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "ctrl+", "bogus+x", "ctrl+shift"} {
		if _, err := ParseCombo(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestFormat_HumanReadable(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ctrl+alt+1", "Alt+Ctrl+1"},
		{"shift+f5", "Shift+F5"},
		{"super+space", "Super+Space"},
		{"x", "X"},
	}
	for _, tt := range tests {
		c, err := ParseCombo(tt.in)
		if err != nil {
			t.Fatalf("ParseCombo(%q): %v", tt.in, err)
		}
		if got := c.Format(); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringParseRoundTrip(t *testing.T) {
	for _, in := range []string{"alt+ctrl+1", "shift+super+f12", "space"} {
		c, err := ParseCombo(in)
		if err != nil {
			t.Fatalf("ParseCombo(%q): %v", in, err)
		}
		again, err := ParseCombo(c.String())
		if err != nil {
			t.Fatalf("re-parse %q: %v", c.String(), err)
		}
		if again.String() != c.String() {
			t.Errorf("round trip changed combo: %q -> %q", c.String(), again.String())
		}
	}
}

type fakeListener struct {
	mu     sync.Mutex
	starts int
	stops  int
	last   map[string]func()
}

func (f *fakeListener) Start(bindings map[string]func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.last = bindings
	return nil
}

func (f *fakeListener) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func TestManager_RestartsOnRegister(t *testing.T) {
	l := &fakeListener{}
	m := NewManager(l)

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Register("ctrl+alt+1", func() {}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if l.starts != 2 {
		t.Errorf("expected listener restart on register, starts = %d", l.starts)
	}
	if _, ok := l.last["alt+ctrl+1"]; !ok {
		t.Errorf("binding missing from listener, got %v", keysOf(l.last))
	}
}

func TestManager_RegisterBeforeStartDoesNotTouchListener(t *testing.T) {
	l := &fakeListener{}
	m := NewManager(l)

	if err := m.Register("ctrl+alt+1", func() {}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if l.starts != 0 {
		t.Errorf("listener started before Start was called")
	}

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(l.last) != 1 {
		t.Errorf("expected 1 binding at start, got %d", len(l.last))
	}
}

func TestManager_UnregisterRemovesBinding(t *testing.T) {
	l := &fakeListener{}
	m := NewManager(l)

	if err := m.Register("ctrl+alt+1", func() {}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	m.Unregister("Alt+Control+1")
	if len(l.last) != 0 {
		t.Errorf("binding should be gone after unregister, got %v", keysOf(l.last))
	}
}

func TestManager_InvalidComboRejected(t *testing.T) {
	m := NewManager(&fakeListener{})

	if err := m.Register("notamod+x", func() {}); err == nil {
		t.Fatal("expected error for invalid combo")
	}
}

func TestManager_NilListenerIsSafe(t *testing.T) {
	m := NewManager(nil)

	if err := m.Register("ctrl+alt+1", func() {}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Stop()
}

func keysOf(m map[string]func()) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

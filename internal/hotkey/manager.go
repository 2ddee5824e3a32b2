package hotkey

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
)

// Listener is the OS-level backend that watches for key combinations.
// Start receives the full binding set, keyed by canonical combo string.
type Listener interface {
	Start(bindings map[string]func()) error
	Stop()
}

// Manager keeps the registered bindings and restarts the listener whenever
// they change, since most grab backends cannot rebind in place.
type Manager struct {
	mu       sync.Mutex
	listener Listener
	bindings map[string]func()
	started  bool
	log      *zerolog.Logger
}

// NewManager wraps a listener backend. A nil listener disables hotkeys
// without disturbing callers.
func NewManager(l Listener) *Manager {
	if l == nil {
		l = nopListener{}
	}
	return &Manager{
		listener: l,
		bindings: make(map[string]func()),
		log:      logger.WithComponent("hotkey"),
	}
}

// Register binds a combination to an action, replacing any existing
// binding for the same combination.
func (m *Manager) Register(combo string, action func()) error {
	c, err := ParseCombo(combo)
	if err != nil {
		return fmt.Errorf("register hotkey: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[c.String()] = action
	m.log.Debug().Str("combo", c.String()).Msg("Hotkey registered")
	return m.restartLocked()
}

// Unregister removes a binding. Unknown combinations are ignored.
func (m *Manager) Unregister(combo string) {
	c, err := ParseCombo(combo)
	if err != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[c.String()]; !ok {
		return
	}
	delete(m.bindings, c.String())
	if err := m.restartLocked(); err != nil {
		m.log.Warn().Err(err).Msg("Listener restart failed after unregister")
	}
}

// Start begins listening with the current bindings.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	if err := m.listener.Start(m.snapshot()); err != nil {
		return fmt.Errorf("start hotkey listener: %w", err)
	}
	m.started = true
	return nil
}

// Stop halts the listener. Bindings are kept for a later Start.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	m.listener.Stop()
	m.started = false
}

func (m *Manager) restartLocked() error {
	if !m.started {
		return nil
	}
	m.listener.Stop()
	if err := m.listener.Start(m.snapshot()); err != nil {
		m.started = false
		return fmt.Errorf("restart hotkey listener: %w", err)
	}
	return nil
}

func (m *Manager) snapshot() map[string]func() {
	out := make(map[string]func(), len(m.bindings))
	for k, v := range m.bindings {
		out[k] = v
	}
	return out
}

type nopListener struct{}

func (nopListener) Start(map[string]func()) error { return nil }
func (nopListener) Stop()                         {}

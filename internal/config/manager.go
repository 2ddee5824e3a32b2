package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
)

const (
	settingsFile = "config.yaml"
	profilesDir  = "profiles"
)

// Settings are the application-level options stored in config.yaml.
type Settings struct {
	CurrentProfile string `yaml:"current_profile"`
	Theme          string `yaml:"theme"`
	LogLevel       string `yaml:"log_level"`
	ServerPort     int    `yaml:"server_port"`
}

// DefaultSettings returns the settings used when no config.yaml exists.
func DefaultSettings() Settings {
	return Settings{
		CurrentProfile: DefaultProfileName,
		Theme:          "dark",
		LogLevel:       "info",
		ServerPort:     8089,
	}
}

// Manager owns the configuration directory: application settings plus the
// profile store. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	dir      string
	settings Settings
	log      *zerolog.Logger
}

// NewManager opens the configuration directory, creating it and the
// Default profile on first run. An empty dir selects the per-user default
// under ~/.config/eve-overview.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "eve-overview")
	}
	if err := os.MkdirAll(filepath.Join(dir, profilesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	m := &Manager{
		dir:      dir,
		settings: DefaultSettings(),
		log:      logger.WithComponent("config"),
	}
	if err := m.loadSettings(); err != nil {
		return nil, err
	}
	if err := m.ensureDefaultProfile(); err != nil {
		return nil, err
	}
	return m, nil
}

// Dir returns the configuration directory in use.
func (m *Manager) Dir() string { return m.dir }

// Settings returns a copy of the current application settings.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetCurrentProfile records which profile loads on startup and persists
// the change. The profile must exist.
func (m *Manager) SetCurrentProfile(name string) error {
	if _, err := m.LoadProfile(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.CurrentProfile = name
	return m.saveSettingsLocked()
}

// UpdateSettings replaces the application settings and persists them.
func (m *Manager) UpdateSettings(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
	return m.saveSettingsLocked()
}

// LoadProfile reads and validates a profile by name. Numeric fields are
// clamped into range; unknown JSON fields are ignored.
func (m *Manager) LoadProfile(name string) (*Profile, error) {
	path, err := m.profilePath(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, readErr := os.ReadFile(path)
	m.mu.RUnlock()
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		return nil, fmt.Errorf("read profile %s: %w", path, readErr)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("profile %s is missing a name", path)
	}
	p.Clamp()
	return &p, nil
}

// SaveProfile validates, clamps and writes the profile to disk, replacing
// any existing profile of the same name.
func (m *Manager) SaveProfile(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Clamp()

	path, err := m.profilePath(p.Name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write profile %s: %w", path, err)
	}
	m.log.Debug().Str("profile", p.Name).Msg("Profile saved")
	return nil
}

// DeleteProfile removes a profile from disk. The Default profile is
// protected and cannot be deleted.
func (m *Manager) DeleteProfile(name string) error {
	if name == DefaultProfileName {
		return ErrProtectedProfile
	}
	path, err := m.profilePath(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		return fmt.Errorf("delete profile %s: %w", path, err)
	}
	if m.settings.CurrentProfile == name {
		m.settings.CurrentProfile = DefaultProfileName
		if err := m.saveSettingsLocked(); err != nil {
			return err
		}
	}
	return nil
}

// ListProfiles returns the names of all stored profiles, sorted.
func (m *Manager) ListProfiles() ([]string, error) {
	m.mu.RLock()
	entries, err := os.ReadDir(filepath.Join(m.dir, profilesDir))
	m.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) profilePath(name string) (string, error) {
	p := Profile{Name: name}
	if err := p.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(m.dir, profilesDir, strings.TrimSpace(name)+".json"), nil
}

func (m *Manager) ensureDefaultProfile() error {
	path, err := m.profilePath(DefaultProfileName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat default profile: %w", err)
	}
	m.log.Info().Str("dir", m.dir).Msg("Creating default profile")
	return m.SaveProfile(DefaultProfile())
}

func (m *Manager) loadSettings() error {
	path := filepath.Join(m.dir, settingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m.settings); err != nil {
		return fmt.Errorf("parse settings %s: %w", path, err)
	}
	if m.settings.CurrentProfile == "" {
		m.settings.CurrentProfile = DefaultProfileName
	}
	return nil
}

func (m *Manager) saveSettingsLocked() error {
	data, err := yaml.Marshal(m.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	path := filepath.Join(m.dir, settingsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %s: %w", path, err)
	}
	return nil
}

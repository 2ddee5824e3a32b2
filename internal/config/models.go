// Package config manages preview profiles and application settings.
//
// Profiles are JSON documents under ~/.config/eve-overview/profiles, one
// file per profile. Application settings live alongside them in
// config.yaml. Out-of-range numeric fields are clamped on both load and
// save so hand-edited files never produce an unusable layout.
package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinScale and MaxScale bound the preview scale factor.
	MinScale = 0.1
	MaxScale = 1.0

	// MinRefreshRate and MaxRefreshRate bound the profile refresh rate
	// in frames per second.
	MinRefreshRate = 1
	MaxRefreshRate = 60
)

// ErrProtectedProfile is returned when deleting the Default profile.
var ErrProtectedProfile = errors.New("the Default profile cannot be deleted")

// ErrProfileNotFound is returned when a named profile has no file on disk.
var ErrProfileNotFound = errors.New("profile not found")

// DefaultProfileName is the profile that always exists.
const DefaultProfileName = "Default"

// WindowConfig describes one preview: which window it mirrors and where
// the preview sits on screen.
type WindowConfig struct {
	WindowID    string  `json:"window_id"`
	WindowTitle string  `json:"window_title"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Scale       float64 `json:"scale"`
	Hotkey      string  `json:"hotkey,omitempty"`
	Enabled     bool    `json:"enabled"`
}

// Profile is a named arrangement of previews plus the display options
// shared by all of them.
type Profile struct {
	Name         string         `json:"name"`
	Windows      []WindowConfig `json:"windows"`
	RefreshRate  int            `json:"refresh_rate"`
	AlwaysOnTop  bool           `json:"always_on_top"`
	ClickThrough bool           `json:"click_through"`
}

// DefaultProfile returns the built-in profile used when none exists yet.
func DefaultProfile() *Profile {
	return &Profile{
		Name:        DefaultProfileName,
		Windows:     []WindowConfig{},
		RefreshRate: 10,
		AlwaysOnTop: true,
	}
}

// Validate reports whether the profile can be persisted and referenced.
func (p *Profile) Validate() error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return errors.New("profile name is required")
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid profile name %q", p.Name)
	}
	return nil
}

// Clamp forces numeric fields into their valid ranges, in place.
func (p *Profile) Clamp() {
	if p.RefreshRate < MinRefreshRate {
		p.RefreshRate = MinRefreshRate
	}
	if p.RefreshRate > MaxRefreshRate {
		p.RefreshRate = MaxRefreshRate
	}
	for i := range p.Windows {
		w := &p.Windows[i]
		if w.Scale < MinScale {
			w.Scale = MinScale
		}
		if w.Scale > MaxScale {
			w.Scale = MaxScale
		}
		if w.Width < 1 {
			w.Width = 1
		}
		if w.Height < 1 {
			w.Height = 1
		}
	}
}

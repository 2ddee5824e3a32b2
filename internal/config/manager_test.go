package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManager_CreatesDefaultProfile(t *testing.T) {
	m := newTestManager(t)

	p, err := m.LoadProfile(DefaultProfileName)
	if err != nil {
		t.Fatalf("default profile should exist: %v", err)
	}
	if p.Name != DefaultProfileName {
		t.Errorf("unexpected name: %s", p.Name)
	}
}

func TestSaveAndLoadProfile(t *testing.T) {
	m := newTestManager(t)

	in := &Profile{
		Name:        "mining",
		RefreshRate: 15,
		AlwaysOnTop: true,
		Windows: []WindowConfig{
			{
				WindowID:    "0x03a00041",
				WindowTitle: "EVE - Pilot One",
				X:           100, Y: 200, Width: 320, Height: 180,
				Scale:   0.25,
				Hotkey:  "ctrl+alt+1",
				Enabled: true,
			},
		},
	}
	if err := m.SaveProfile(in); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	out, err := m.LoadProfile("mining")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if out.RefreshRate != 15 || len(out.Windows) != 1 {
		t.Fatalf("unexpected profile: %+v", out)
	}
	if out.Windows[0] != in.Windows[0] {
		t.Errorf("window config changed across save/load:\n got %+v\nwant %+v", out.Windows[0], in.Windows[0])
	}
}

func TestSaveProfile_ClampsOnSave(t *testing.T) {
	m := newTestManager(t)

	p := &Profile{Name: "wild", RefreshRate: 999, Windows: []WindowConfig{{Scale: 3, Width: 10, Height: 10}}}
	if err := m.SaveProfile(p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	out, err := m.LoadProfile("wild")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if out.RefreshRate != MaxRefreshRate {
		t.Errorf("expected clamped refresh rate, got %d", out.RefreshRate)
	}
	if out.Windows[0].Scale != MaxScale {
		t.Errorf("expected clamped scale, got %v", out.Windows[0].Scale)
	}
}

func TestLoadProfile_ClampsHandEditedFile(t *testing.T) {
	m := newTestManager(t)

	raw := `{"name": "edited", "refresh_rate": 500, "windows": [{"window_id": "0x1", "scale": 0.01, "width": 100, "height": 100}]}`
	path := filepath.Join(m.Dir(), "profiles", "edited.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := m.LoadProfile("edited")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.RefreshRate != MaxRefreshRate {
		t.Errorf("expected clamped refresh rate, got %d", p.RefreshRate)
	}
	if p.Windows[0].Scale != MinScale {
		t.Errorf("expected clamped scale, got %v", p.Windows[0].Scale)
	}
}

func TestLoadProfile_MissingNameIsError(t *testing.T) {
	m := newTestManager(t)

	path := filepath.Join(m.Dir(), "profiles", "anonymous.json")
	if err := os.WriteFile(path, []byte(`{"refresh_rate": 10}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := m.LoadProfile("anonymous"); err == nil {
		t.Fatal("expected error for profile without a name")
	}
}

func TestLoadProfile_CorruptFileIsError(t *testing.T) {
	m := newTestManager(t)

	path := filepath.Join(m.Dir(), "profiles", "broken.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := m.LoadProfile("broken"); err == nil {
		t.Fatal("expected error for corrupt profile")
	}
}

func TestLoadProfile_NotFound(t *testing.T) {
	m := newTestManager(t)

	_, err := m.LoadProfile("ghost")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got: %v", err)
	}
}

func TestDeleteProfile_ProtectsDefault(t *testing.T) {
	m := newTestManager(t)

	if err := m.DeleteProfile(DefaultProfileName); !errors.Is(err, ErrProtectedProfile) {
		t.Fatalf("expected ErrProtectedProfile, got: %v", err)
	}
	if _, err := m.LoadProfile(DefaultProfileName); err != nil {
		t.Errorf("default profile should survive delete attempt: %v", err)
	}
}

func TestDeleteProfile_ResetsCurrentProfile(t *testing.T) {
	m := newTestManager(t)

	if err := m.SaveProfile(&Profile{Name: "temp", RefreshRate: 10}); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	if err := m.SetCurrentProfile("temp"); err != nil {
		t.Fatalf("SetCurrentProfile: %v", err)
	}
	if err := m.DeleteProfile("temp"); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if got := m.Settings().CurrentProfile; got != DefaultProfileName {
		t.Errorf("current profile should fall back to Default, got %q", got)
	}
}

func TestListProfiles(t *testing.T) {
	m := newTestManager(t)

	for _, name := range []string{"mining", "abyssal"} {
		if err := m.SaveProfile(&Profile{Name: name, RefreshRate: 10}); err != nil {
			t.Fatalf("SaveProfile(%s): %v", name, err)
		}
	}

	names, err := m.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	want := []string{"Default", "abyssal", "mining"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
			break
		}
	}
}

func TestSettings_PersistAcrossManagers(t *testing.T) {
	dir := t.TempDir()
	m1, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	s := m1.Settings()
	s.ServerPort = 9000
	s.LogLevel = "debug"
	if err := m1.UpdateSettings(s); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	m2, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	got := m2.Settings()
	if got.ServerPort != 9000 || got.LogLevel != "debug" {
		t.Errorf("settings did not persist: %+v", got)
	}
}

func TestSetCurrentProfile_RequiresExistingProfile(t *testing.T) {
	m := newTestManager(t)

	if err := m.SetCurrentProfile("ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got: %v", err)
	}
}

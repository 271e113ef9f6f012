package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewSettings(t *testing.T) {
	s := NewSettings()

	if s.Build.Mode != ModeWebpack {
		t.Errorf("default mode = %q, want %q", s.Build.Mode, ModeWebpack)
	}
	if s.Build.Engine != EngineEsbuild {
		t.Errorf("default engine = %q, want %q", s.Build.Engine, EngineEsbuild)
	}
	if s.Delay() != 200*time.Millisecond {
		t.Errorf("default delay = %v, want 200ms", s.Delay())
	}
	if !s.BannerEnabled() {
		t.Error("banner should be enabled by default")
	}
	if s.LogVerbosity() != 1 {
		t.Errorf("default verbosity = %d, want 1", s.LogVerbosity())
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	s := NewSettings()
	s.Build.Mode = "rollup"
	if err := s.Validate(); err == nil {
		t.Error("unknown mode should fail validation")
	}

	s = NewSettings()
	s.Build.Engine = "bun"
	if err := s.Validate(); err == nil {
		t.Error("unknown engine should fail validation")
	}
}

func TestDelayNegative(t *testing.T) {
	s := NewSettings()
	neg := -5
	s.Build.DelayMS = &neg
	if s.Delay() != 0 {
		t.Errorf("negative delay should clamp to 0, got %v", s.Delay())
	}
}

func TestMerge(t *testing.T) {
	base := NewSettings()
	zero := 0
	off := false
	other := &Settings{
		Build: BuildSettings{Mode: ModeParcel, DelayMS: &zero, Banner: &off},
		Watch: WatchSettings{DebounceMS: 750},
	}

	base.Merge(other)

	if base.Build.Mode != ModeParcel {
		t.Errorf("mode = %q, want parcel", base.Build.Mode)
	}
	if base.Build.Engine != EngineEsbuild {
		t.Errorf("engine should be untouched, got %q", base.Build.Engine)
	}
	if base.Delay() != 0 {
		t.Errorf("delay = %v, want 0", base.Delay())
	}
	if base.BannerEnabled() {
		t.Error("banner should be disabled after merge")
	}
	if base.Watch.DebounceMS != 750 {
		t.Errorf("debounce = %d, want 750", base.Watch.DebounceMS)
	}

	base.Merge(nil)
}

func TestLoadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
verbosity = 3
format = "json"

[build]
mode = "parcel"
engine = "node"
delay_ms = 0
banner = false

[watch]
debounce_ms = 1000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := loadSettingsFile(path)
	if s == nil {
		t.Fatal("loadSettingsFile returned nil")
	}
	if s.LogVerbosity() != 3 || s.Log.Format != "json" {
		t.Errorf("log settings = %+v", s.Log)
	}
	if s.Build.Mode != ModeParcel || s.Build.Engine != EngineNode {
		t.Errorf("build settings = %+v", s.Build)
	}
	if s.Delay() != 0 || s.BannerEnabled() {
		t.Errorf("delay/banner not decoded: %+v", s.Build)
	}
	if s.Watch.DebounceMS != 1000 {
		t.Errorf("debounce = %d", s.Watch.DebounceMS)
	}
}

func TestLoadSettingsFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[build\nmode="), 0o644); err != nil {
		t.Fatal(err)
	}
	if s := loadSettingsFile(path); s != nil {
		t.Errorf("invalid TOML should be ignored, got %+v", s)
	}
	if s := loadSettingsFile(filepath.Join(t.TempDir(), "missing.toml")); s != nil {
		t.Error("missing file should return nil")
	}
}

func TestApplyEnvironmentVariables(t *testing.T) {
	s := NewSettings()

	t.Setenv("UBC_MODE", "PARCEL")
	t.Setenv("UBC_ENGINE", "node")
	t.Setenv("UBC_DELAY_MS", "50")
	t.Setenv("UBC_BANNER", "no")
	t.Setenv("UBC_VERBOSITY", "4")
	t.Setenv("UBC_WATCH_DEBOUNCE_MS", "not-a-number")

	applyEnvironmentVariables(s)

	if s.Build.Mode != ModeParcel {
		t.Errorf("mode = %q, want parcel", s.Build.Mode)
	}
	if s.Build.Engine != EngineNode {
		t.Errorf("engine = %q, want node", s.Build.Engine)
	}
	if s.Delay() != 50*time.Millisecond {
		t.Errorf("delay = %v, want 50ms", s.Delay())
	}
	if s.BannerEnabled() {
		t.Error("banner should be disabled via env var")
	}
	if s.LogVerbosity() != 4 {
		t.Errorf("verbosity = %d, want 4", s.LogVerbosity())
	}
	if s.Watch.DebounceMS != 300 {
		t.Errorf("invalid debounce env should be ignored, got %d", s.Watch.DebounceMS)
	}
}

func TestProjectSettingsSearch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "app")
	sub := filepath.Join(root, "src", "components")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, SettingsFileName), []byte("[build]\nmode = \"parcel\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := loadProjectSettingsFrom(sub)
	if s == nil {
		t.Fatal("loadProjectSettingsFrom returned nil")
	}
	if s.Build.Mode != ModeParcel {
		t.Errorf("mode = %q, want parcel", s.Build.Mode)
	}
}

func TestProjectSettingsDirWins(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, SettingsDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, SettingsDirName, "config.toml"), []byte("[build]\nengine = \"node\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, SettingsFileName), []byte("[build]\nengine = \"esbuild\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := loadProjectSettingsFrom(root)
	if s == nil || s.Build.Engine != EngineNode {
		t.Errorf(".ubc/config.toml should take precedence, got %+v", s)
	}
}

func TestWorkspaceRootDetection(t *testing.T) {
	for _, marker := range []string{".git", "package.json", BuildConfigFileName} {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, marker), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		if !isWorkspaceRoot(dir) {
			t.Errorf("directory with %s should be a workspace root", marker)
		}
	}

	if isWorkspaceRoot(t.TempDir()) {
		t.Error("empty directory should not be a workspace root")
	}
}

func TestLoadFrom(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("[build]\nmode = \"parcel\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UBC_ENGINE", "node")

	s := LoadFrom(dir)
	if s.Build.Mode != ModeParcel {
		t.Errorf("project layer not applied: mode = %q", s.Build.Mode)
	}
	if s.Build.Engine != EngineNode {
		t.Errorf("env layer not applied: engine = %q", s.Build.Engine)
	}
}

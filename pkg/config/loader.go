package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// SettingsFileName is the name of the project-level settings file.
const SettingsFileName = "ubc.toml"

// SettingsDirName is the name of the project-level settings directory.
const SettingsDirName = ".ubc"

// GlobalSettingsDir is the directory inside the user's config dir.
const GlobalSettingsDir = "ubc"

// Load loads settings from all layers for the current directory.
// CLI flags are applied separately after Load returns.
func Load() *Settings {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return LoadFrom(wd)
}

// LoadFrom loads settings starting the project search at dir.
func LoadFrom(dir string) *Settings {
	s := NewSettings()

	if global := loadSettingsFile(GlobalSettingsPath()); global != nil {
		s.Merge(global)
	}

	if project := loadProjectSettingsFrom(dir); project != nil {
		s.Merge(project)
	}

	applyEnvironmentVariables(s)
	return s
}

// loadProjectSettingsFrom searches dir and its parents for project settings,
// stopping at the first workspace root.
func loadProjectSettingsFrom(dir string) *Settings {
	current := dir
	for {
		for _, p := range ProjectSettingsPaths(current) {
			if s := loadSettingsFile(p); s != nil {
				return s
			}
		}

		if isWorkspaceRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return nil
}

// isWorkspaceRoot reports whether dir looks like the top of a JS project.
func isWorkspaceRoot(dir string) bool {
	markers := []string{".git", "package.json", BuildConfigFileName}
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

func loadSettingsFile(path string) *Settings {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var s Settings
	if _, err := toml.Decode(string(data), &s); err != nil {
		return nil
	}
	return &s
}

// applyEnvironmentVariables applies UBC_* variables.
func applyEnvironmentVariables(s *Settings) {
	if v, ok := intEnv("UBC_VERBOSITY"); ok {
		s.Log.Verbosity = &v
	}
	if v := os.Getenv("UBC_LOG_FORMAT"); v != "" {
		s.Log.Format = v
	}
	if v := os.Getenv("UBC_MODE"); v != "" {
		s.Build.Mode = strings.ToLower(v)
	}
	if v := os.Getenv("UBC_ENGINE"); v != "" {
		s.Build.Engine = strings.ToLower(v)
	}
	if v, ok := intEnv("UBC_DELAY_MS"); ok {
		s.Build.DelayMS = &v
	}
	applyBoolEnv("UBC_BANNER", &s.Build.Banner)
	if v, ok := intEnv("UBC_WATCH_DEBOUNCE_MS"); ok && v > 0 {
		s.Watch.DebounceMS = v
	}
}

func intEnv(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

func applyBoolEnv(envVar string, target **bool) {
	switch strings.ToLower(os.Getenv(envVar)) {
	case "true", "1", "yes":
		t := true
		*target = &t
	case "false", "0", "no":
		f := false
		*target = &f
	}
}

// GlobalSettingsPath returns the path of the global settings file, or ""
// when the user config dir is unknown.
func GlobalSettingsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalSettingsDir, "config.toml")
}

// ProjectSettingsPaths returns candidate project settings paths for dir.
func ProjectSettingsPaths(dir string) []string {
	return []string{
		filepath.Join(dir, SettingsDirName, "config.toml"),
		filepath.Join(dir, SettingsFileName),
	}
}

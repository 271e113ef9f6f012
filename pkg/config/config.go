// Package config provides configuration management for ubc.
//
// Two unrelated documents live here:
//
//   - BuildConfig is the user's ubc.yaml: the ordered list of modules to
//     bundle. It never influences bundler options.
//   - Settings is tool behaviour (logging, default mode, engine, delays),
//     layered with precedence:
//     1. Built-in defaults (lowest priority)
//     2. Global user config (~/.config/ubc/config.toml)
//     3. Project config (.ubc/config.toml or ubc.toml)
//     4. Environment variables (UBC_*)
//     5. CLI flags (highest priority)
package config

import (
	"fmt"
	"slices"
	"time"
)

// Build modes.
const (
	ModeParcel  = "parcel"
	ModeWebpack = "webpack"
)

// Engines that can execute a bundle job.
const (
	EngineEsbuild = "esbuild"
	EngineNode    = "node"
)

// Modes lists the supported build modes.
var Modes = []string{ModeParcel, ModeWebpack}

// Engines lists the supported engines.
var Engines = []string{EngineEsbuild, EngineNode}

// Settings is the tool configuration for ubc.
type Settings struct {
	// Log configures diagnostic output.
	Log LogSettings `toml:"log"`

	// Build configures the default build invocation.
	Build BuildSettings `toml:"build"`

	// Watch configures `ubc watch`.
	Watch WatchSettings `toml:"watch"`
}

// LogSettings configures the logger.
type LogSettings struct {
	// Verbosity is the -v level (0=error .. 4=trace).
	Verbosity *int `toml:"verbosity"`

	// Format is "text", "json" or "console".
	Format string `toml:"format"`
}

// BuildSettings configures how builds are started.
type BuildSettings struct {
	// Mode is the default mode for `ubc build` ("parcel" or "webpack").
	Mode string `toml:"mode"`

	// Engine selects the bundler implementation ("esbuild" or "node").
	Engine string `toml:"engine"`

	// DelayMS is the pause between the banner and loading ubc.yaml.
	DelayMS *int `toml:"delay_ms"`

	// Banner toggles the startup banner.
	Banner *bool `toml:"banner"`
}

// WatchSettings configures watch mode.
type WatchSettings struct {
	// DebounceMS is the debounce window for file events.
	DebounceMS int `toml:"debounce_ms"`
}

// NewSettings returns the built-in defaults.
func NewSettings() *Settings {
	verbosity := 1
	delay := 200
	banner := true
	return &Settings{
		Log: LogSettings{
			Verbosity: &verbosity,
			Format:    "console",
		},
		Build: BuildSettings{
			Mode:    ModeWebpack,
			Engine:  EngineEsbuild,
			DelayMS: &delay,
			Banner:  &banner,
		},
		Watch: WatchSettings{
			DebounceMS: 300,
		},
	}
}

// Delay returns the configured pre-load delay.
func (s *Settings) Delay() time.Duration {
	if s.Build.DelayMS == nil || *s.Build.DelayMS < 0 {
		return 0
	}
	return time.Duration(*s.Build.DelayMS) * time.Millisecond
}

// BannerEnabled reports whether the startup banner should print.
func (s *Settings) BannerEnabled() bool {
	return s.Build.Banner == nil || *s.Build.Banner
}

// LogVerbosity returns the configured verbosity, defaulting to warn.
func (s *Settings) LogVerbosity() int {
	if s.Log.Verbosity == nil {
		return 1
	}
	return *s.Log.Verbosity
}

// Validate checks enumerated fields.
func (s *Settings) Validate() error {
	if !slices.Contains(Modes, s.Build.Mode) {
		return fmt.Errorf("unknown build mode %q (want one of %v)", s.Build.Mode, Modes)
	}
	if !slices.Contains(Engines, s.Build.Engine) {
		return fmt.Errorf("unknown engine %q (want one of %v)", s.Build.Engine, Engines)
	}
	return nil
}

// Merge merges another settings value into this one (other takes precedence).
func (s *Settings) Merge(other *Settings) {
	if other == nil {
		return
	}

	if other.Log.Verbosity != nil {
		s.Log.Verbosity = other.Log.Verbosity
	}
	if other.Log.Format != "" {
		s.Log.Format = other.Log.Format
	}

	if other.Build.Mode != "" {
		s.Build.Mode = other.Build.Mode
	}
	if other.Build.Engine != "" {
		s.Build.Engine = other.Build.Engine
	}
	if other.Build.DelayMS != nil {
		s.Build.DelayMS = other.Build.DelayMS
	}
	if other.Build.Banner != nil {
		s.Build.Banner = other.Build.Banner
	}

	if other.Watch.DebounceMS > 0 {
		s.Watch.DebounceMS = other.Watch.DebounceMS
	}
}

// Package bundler hands a build job to a bundler engine.
//
// ubc does not bundle anything itself. A Job names the entry points and
// carries one of the fixed option literals (ParcelOptions, WebpackOptions);
// an engine translates that literal into its own configuration and runs a
// single build. The in-process engine is esbuild's Go API.
package bundler

import (
	"context"
	"errors"
	"time"
)

// ErrBuildFailed is returned when the engine reports errors.
var ErrBuildFailed = errors.New("build failed")

// Job is one bundler invocation.
type Job struct {
	// WorkDir is the project root. Entry points and OutDir are relative to it.
	WorkDir string

	// EntryPoints are the modules that seed the dependency graph: the raw
	// imports in Parcel mode, the generated entry file in Webpack mode.
	EntryPoints []string

	// Options is the static option literal for the job's mode.
	Options Options
}

// Result describes a finished build.
type Result struct {
	// Outputs are the written files, relative to WorkDir.
	Outputs []string

	// Inputs are the source files that went into the bundle, relative to
	// WorkDir. Engines that cannot report inputs leave this empty.
	Inputs []string

	Warnings int
	Duration time.Duration
}

// Bundler runs a single build.
type Bundler interface {
	Bundle(ctx context.Context, job Job) (*Result, error)
}

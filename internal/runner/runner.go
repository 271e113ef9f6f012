// Package runner finds and executes the Node bundler CLIs (parcel, webpack)
// for the node engine.
package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrBundlerNotFound is returned when a bundler CLI cannot be located.
var ErrBundlerNotFound = errors.New("bundler binary not found")

// Runner locates bundler binaries.
type Runner struct {
	executablePath string // path to the ubc executable (for finding siblings)
	workDir        string // project root holding node_modules
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutablePath sets the path to the ubc executable.
// Used primarily for testing.
func WithExecutablePath(path string) Option {
	return func(r *Runner) {
		r.executablePath = path
	}
}

// WithWorkDir sets the project directory searched for node_modules/.bin.
func WithWorkDir(dir string) Option {
	return func(r *Runner) {
		r.workDir = dir
	}
}

// New creates a new Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindBinary locates a bundler CLI using the following search order:
// 1. The project's node_modules/.bin
// 2. Sibling binary (next to ubc)
// 3. PATH lookup
func (r *Runner) FindBinary(tool string) (string, error) {
	if path := r.findInNodeModules(tool); path != "" {
		return path, nil
	}

	exe := r.executablePath
	if exe == "" {
		var err error
		exe, err = os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to get executable path: %w", err)
		}
	}
	if path := findSibling(exe, tool); path != "" {
		return path, nil
	}

	if path, err := exec.LookPath(tool); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %s", ErrBundlerNotFound, tool)
}

func (r *Runner) findInNodeModules(tool string) string {
	dir := r.workDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}
	for _, name := range binaryNames(tool) {
		candidate := filepath.Join(dir, "node_modules", ".bin", name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func findSibling(exe, tool string) string {
	dir := filepath.Dir(exe)
	for _, name := range binaryNames(tool) {
		sibling := filepath.Join(dir, name)
		if fileExists(sibling) {
			return sibling
		}
	}
	return ""
}

// binaryNames lists the file names npm installs a bin shim under.
func binaryNames(tool string) []string {
	if runtime.GOOS == "windows" {
		return []string{tool + ".cmd", tool + ".exe", tool}
	}
	return []string{tool}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

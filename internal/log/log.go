// Package log is the process-wide structured logger for ubc.
//
// It wraps log/slog with kubectl-style verbosity (-v=0..4). Diagnostics go
// to stderr; bundler progress and the banner are written to stdout by their
// owners and never pass through here.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger    atomic.Pointer[slog.Logger]
	level     = new(slog.LevelVar)
	verbosity atomic.Int32
)

func init() {
	level.Set(slog.LevelWarn)
	verbosity.Store(VerbosityWarn)
	logger.Store(slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: FormatConsole,
	})))
}

// Init configures the global logger. Call once after flags are parsed.
func Init(v int, format string) {
	InitWithOutput(v, format, os.Stderr)
}

// InitWithOutput is Init with an explicit destination, used by tests.
func InitWithOutput(v int, format string, w io.Writer) {
	SetVerbosity(v)
	l := slog.New(NewHandler(HandlerOptions{
		Level:  level,
		Format: format,
		Output: w,
	}))
	logger.Store(l)
	slog.SetDefault(l)
}

// SetVerbosity changes verbosity at runtime.
func SetVerbosity(v int) {
	verbosity.Store(int32(v))
	level.Set(VerbosityToLevel(v))
}

// Verbosity returns the current verbosity level.
func Verbosity() int {
	return int(verbosity.Load())
}

// Trace logs at trace level (v=4).
func Trace(msg string, args ...any) {
	logger.Load().Log(context.Background(), LevelTrace, msg, args...)
}

// V returns a logger that only logs if verbosity >= v.
//
//	log.V(3).Info("cache hit", "inputs", n)
func V(v int) *slog.Logger {
	if int(verbosity.Load()) >= v {
		return logger.Load()
	}
	return slog.New(discardHandler{})
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return logger.Load().With("component", name)
}

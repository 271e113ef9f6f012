package log

import "log/slog"

// LevelTrace sits below slog.LevelDebug and is only emitted at -v=4.
const LevelTrace = slog.Level(-8)

// Verbosity levels accepted by --verbosity.
const (
	VerbosityError = 0 // build failures only
	VerbosityWarn  = 1 // + missing ubc.yaml, cleanup problems
	VerbosityInfo  = 2 // + config loaded, mode, entry points, timings
	VerbosityDebug = 3 // + resolved options, cache decisions, watch events
	VerbosityTrace = 4 // + esbuild plugin callbacks, full option dumps
)

// VerbosityToLevel maps -v=N to a slog level.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= VerbosityError:
		return slog.LevelError
	case v == VerbosityWarn:
		return slog.LevelWarn
	case v == VerbosityInfo:
		return slog.LevelInfo
	case v == VerbosityDebug:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelName returns the display name of a level, including TRACE.
func LevelName(l slog.Level) string {
	if l == LevelTrace {
		return "TRACE"
	}
	return l.String()
}

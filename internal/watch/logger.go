package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// ChangeType represents the type of file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Logger prints watch session events as text lines or JSON objects.
type Logger struct {
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	statsMu sync.Mutex
	stats   Stats
}

// Stats tracks a watch session.
type Stats struct {
	Builds    int
	Errors    int
	StartTime time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a logger writing to cfg.Writer (stdout by default).
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats:   Stats{StartTime: time.Now()},
	}
}

// Ready reports that watching has started.
func (l *Logger) Ready(dirCount int, mode, path string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "ready",
			"dirs":  dirCount,
			"mode":  mode,
			"path":  path,
		})
		return
	}
	l.printf("ubc: watching %d directories in %s (%s mode)\n", dirCount, path, mode)
	l.println("ubc: ready")
	l.println()
}

// FileChanged reports a relevant file event. Text output only shows it when
// verbose.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}
	if l.verbose {
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Rebuilding reports that a batch of changes triggered a build.
func (l *Logger) Rebuilding(paths []string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "rebuilding",
			"paths": paths,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}
	switch len(paths) {
	case 0:
		l.printf("[%s] building...\n", l.timestamp())
	case 1:
		l.printf("[%s] %s changed, rebuilding...\n", l.timestamp(), paths[0])
	default:
		l.printf("[%s] %d files changed, rebuilding...\n", l.timestamp(), len(paths))
	}
}

// Built reports a finished build.
func (l *Logger) Built(outputs int, took time.Duration, cached bool) {
	l.statsMu.Lock()
	l.stats.Builds++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":   "built",
			"outputs": outputs,
			"cached":  cached,
			"took":    took.String(),
			"time":    time.Now().Format(time.RFC3339),
		})
		return
	}
	checkmark := l.colorize("✓", ChangeAdded)
	if cached {
		l.printf("[%s] %s up to date\n", l.timestamp(), checkmark)
		return
	}
	l.printf("[%s] %s built %d file(s) in %s\n", l.timestamp(), checkmark, outputs, took.Round(time.Millisecond))
}

// Skipped reports a run that had nothing to build.
func (l *Logger) Skipped(reason string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "skipped",
			"reason": reason,
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}
	l.printf("[%s] skipped: %s\n", l.timestamp(), reason)
}

// Error reports a failed build or watcher error.
func (l *Logger) Error(err error) {
	l.statsMu.Lock()
	l.stats.Errors++
	l.statsMu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}
	xmark := l.colorize("✗", ChangeDeleted)
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Shutdown prints the session summary.
func (l *Logger) Shutdown() {
	stats := l.Stats()
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":    "shutdown",
			"builds":   stats.Builds,
			"errors":   stats.Errors,
			"duration": time.Since(stats.StartTime).String(),
		})
		return
	}
	l.println()
	l.printf("ubc: shutting down (%d builds, %d errors)\n", stats.Builds, stats.Errors)
}

// Stats returns the current session statistics.
func (l *Logger) Stats() Stats {
	l.statsMu.Lock()
	defer l.statsMu.Unlock()
	return l.stats
}

func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

func (l *Logger) colorize(s string, change ChangeType) string {
	if l.noColor || !l.isTTY {
		return s
	}
	var color string
	switch change {
	case ChangeAdded:
		color = "\033[32m"
	case ChangeModified:
		color = "\033[33m"
	case ChangeDeleted:
		color = "\033[31m"
	default:
		return s
	}
	return color + s + "\033[0m"
}

func (l *Logger) writeJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.println(`{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.println(string(data))
}

func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}

func (l *Logger) println(args ...any) {
	_, _ = fmt.Fprintln(l.writer, args...)
}

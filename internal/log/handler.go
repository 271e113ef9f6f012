package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// Log formats accepted by --log-format.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatConsole = "console"
)

// HandlerOptions configures the log handler.
type HandlerOptions struct {
	Level     slog.Leveler
	Format    string // text, json or console
	Output    io.Writer
	AddSource bool
	NoColor   bool
}

// NewHandler creates a handler for the requested format. Output defaults to
// stderr so it never interleaves with bundler output on stdout.
func NewHandler(opts HandlerOptions) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       opts.Level,
		AddSource:   opts.AddSource,
		ReplaceAttr: replaceLevelNames,
	}

	switch opts.Format {
	case FormatJSON:
		return slog.NewJSONHandler(opts.Output, handlerOpts)
	case FormatConsole:
		return newConsoleHandler(opts)
	default:
		return slog.NewTextHandler(opts.Output, handlerOpts)
	}
}

func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(level))
		}
	}
	return a
}

// consoleHandler prints "ubc: <level> msg key=value" lines, coloured by
// level when writing to a terminal.
type consoleHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Leveler
	color bool
	attrs []slog.Attr
}

func newConsoleHandler(opts HandlerOptions) *consoleHandler {
	color := false
	if f, ok := opts.Output.(*os.File); ok && !opts.NoColor {
		color = term.IsTerminal(int(f.Fd()))
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &consoleHandler{mu: &sync.Mutex{}, out: opts.Output, level: level, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString("ubc: ")
	if r.Level != slog.LevelInfo {
		b.WriteString(h.paint(r.Level, strings.ToLower(LevelName(r.Level))))
		b.WriteString(": ")
	}
	b.WriteString(r.Message)
	write := func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// Groups are flattened; console output is for humans.
func (h *consoleHandler) WithGroup(string) slog.Handler { return h }

func (h *consoleHandler) paint(l slog.Level, s string) string {
	if !h.color {
		return s
	}
	switch {
	case l >= slog.LevelError:
		return "\033[31m" + s + "\033[0m"
	case l >= slog.LevelWarn:
		return "\033[33m" + s + "\033[0m"
	default:
		return "\033[2m" + s + "\033[0m"
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

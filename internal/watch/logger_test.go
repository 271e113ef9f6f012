package watch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Ready(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LoggerConfig{Writer: &buf}).Ready(12, "webpack", "/work/site")

	out := buf.String()
	for _, want := range []string{"12 directories", "/work/site", "webpack mode", "ubc: ready"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output: %s", want, out)
		}
	}
}

func TestLogger_FileChanged(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LoggerConfig{Writer: &buf, Verbose: true, NoColor: true}).FileChanged("src/app.js", ChangeModified)
	if !strings.Contains(buf.String(), "~ src/app.js") {
		t.Errorf("unexpected output: %s", buf.String())
	}

	buf.Reset()
	NewLogger(LoggerConfig{Writer: &buf}).FileChanged("src/app.js", ChangeModified)
	if buf.Len() != 0 {
		t.Errorf("expected no output when not verbose, got: %s", buf.String())
	}
}

func TestLogger_Rebuilding(t *testing.T) {
	tests := []struct {
		paths []string
		want  string
	}{
		{nil, "building..."},
		{[]string{"ubc.yaml"}, "ubc.yaml changed, rebuilding..."},
		{[]string{"a.js", "b.scss", "c.png"}, "3 files changed, rebuilding..."},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		NewLogger(LoggerConfig{Writer: &buf}).Rebuilding(tt.paths)
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("Rebuilding(%v) = %q, want %q", tt.paths, buf.String(), tt.want)
		}
	}
}

func TestLogger_BuiltAndErrorsCount(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf, NoColor: true})

	l.Built(3, 1500*time.Millisecond, false)
	l.Built(0, time.Millisecond, true)
	l.Error(errors.New("Could not resolve \"./missing.js\""))
	l.Skipped("no ubc.yaml")

	out := buf.String()
	for _, want := range []string{"✓ built 3 file(s) in 1.5s", "✓ up to date", "✗ error: Could not resolve", "skipped: no ubc.yaml"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output: %s", want, out)
		}
	}

	stats := l.Stats()
	if stats.Builds != 2 || stats.Errors != 1 {
		t.Errorf("Stats() = %+v", stats)
	}

	buf.Reset()
	l.Shutdown()
	if !strings.Contains(buf.String(), "(2 builds, 1 errors)") {
		t.Errorf("unexpected shutdown line: %s", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LoggerConfig{Writer: &buf, JSON: true})

	l.Ready(1, "parcel", "/p")
	l.FileChanged("a.js", ChangeAdded)
	l.Rebuilding([]string{"a.js"})
	l.Built(2, time.Second, false)
	l.Error(errors.New("boom"))
	l.Shutdown()

	var events []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %q", sc.Text())
		}
		events = append(events, m["event"].(string))
	}

	want := []string{"ready", "file_changed", "rebuilding", "built", "error", "shutdown"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestLogger_NoColorWhenNotTTY(t *testing.T) {
	l := NewLogger(LoggerConfig{Writer: &bytes.Buffer{}})
	if got := l.colorize("+", ChangeAdded); got != "+" {
		t.Errorf("colorize on a buffer = %q", got)
	}
}

package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/albertocavalcante/ubc/internal/pipeline"
	"github.com/albertocavalcante/ubc/pkg/bundler"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"ubc.yaml", true},
		{"ubc.js", false},
		{"src/app.js", true},
		{"src/App.TSX", true},
		{"styles/main.scss", true},
		{"fonts/inter.woff2", true},
		{"img/logo.svg", true},
		{"README.md", false},
		{"package.json", false},
		{"node_modules/lodash/index.js", false},
		{"dist/main.js", false},
		{".cache/state.json", false},
		{"src/.hidden/x.js", false},
	}
	for _, tt := range tests {
		if got := Relevant(tt.rel); got != tt.want {
			t.Errorf("Relevant(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestIsWatchLimitError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{os.ErrPermission, false},
		{errors.New("inotify_add_watch: no space left on device"), true},
		{errors.New("too many open files"), true},
	}
	for _, tt := range tests {
		if got := isWatchLimitError(tt.err); got != tt.want {
			t.Errorf("isWatchLimitError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestNewRequiresBuild(t *testing.T) {
	if _, err := New(Config{Root: t.TempDir()}, nil); err == nil {
		t.Error("New() without a build function should fail")
	}
}

func TestWatcherCloseNilFsWatcher(t *testing.T) {
	w := &Watcher{}
	if err := w.Close(); err != nil {
		t.Errorf("Close() on nil fsWatcher error = %v", err)
	}
}

// syncBuffer is a bytes.Buffer safe for the watcher goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"src", "dist", "node_modules"} {
		if err := os.Mkdir(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	var builds atomic.Int32
	build := func(context.Context) (*pipeline.Outcome, error) {
		builds.Add(1)
		return &pipeline.Outcome{Result: &bundler.Result{Outputs: []string{"dist/main.js"}}}, nil
	}

	out := &syncBuffer{}
	w, err := New(Config{Root: root, Mode: "webpack", Debounce: 20 * time.Millisecond, Writer: out, NoColor: true}, build)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return builds.Load() == 1 })

	// Give Run a moment to enter its event loop after the initial build.
	time.Sleep(50 * time.Millisecond)

	// Ignored paths never trigger a build.
	write(t, filepath.Join(root, "ubc.js"), "generated")
	write(t, filepath.Join(root, "dist", "main.js"), "bundle")
	write(t, filepath.Join(root, "node_modules", "x.js"), "dep")
	write(t, filepath.Join(root, "notes.txt"), "text")
	time.Sleep(150 * time.Millisecond)
	if n := builds.Load(); n != 1 {
		t.Fatalf("ignored changes triggered %d builds", n-1)
	}

	write(t, filepath.Join(root, "src", "app.js"), "console.log(1)")
	waitFor(t, func() bool { return builds.Load() >= 2 })

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
	if stats := w.Stats(); stats.Builds < 2 || stats.Errors != 0 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

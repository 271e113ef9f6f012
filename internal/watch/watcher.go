package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/ubc/internal/log"
	"github.com/albertocavalcante/ubc/internal/pipeline"
	"github.com/albertocavalcante/ubc/pkg/assets"
	"github.com/albertocavalcante/ubc/pkg/config"
	"github.com/albertocavalcante/ubc/pkg/entry"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")

// BuildFunc runs one build of the project.
type BuildFunc func(ctx context.Context) (*pipeline.Outcome, error)

// Config configures the watcher.
type Config struct {
	Root     string
	Mode     string
	Debounce time.Duration
	Verbose  bool
	NoColor  bool
	JSON     bool
	Writer   io.Writer
}

// Watcher rebuilds the project whenever a source, asset or ubc.yaml changes.
type Watcher struct {
	config    Config
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *Logger
	build     BuildFunc
	dirs      int

	// buildMu serialises builds.
	buildMu sync.Mutex
	ctx     context.Context
}

// New creates a watcher. It does not start watching until Run.
func New(cfg Config, build BuildFunc) (*Watcher, error) {
	if build == nil {
		return nil, errors.New("watch: no build function")
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &Watcher{
		config:    cfg,
		fsWatcher: fsWatcher,
		build:     build,
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Writer,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
	}, nil
}

// Run builds once, then rebuilds on change until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.ctx = ctx
	w.debouncer = NewDebouncer(w.config.Debounce, w.rebuild)
	defer w.debouncer.Discard()

	if err := w.addRecursive(w.config.Root); err != nil {
		return fmt.Errorf("failed to watch project: %w", err)
	}

	w.rebuild(nil)
	w.logger.Ready(w.dirs, w.config.Mode, w.config.Root)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// Stats returns the session statistics.
func (w *Watcher) Stats() Stats {
	return w.logger.Stats()
}

// Relevant reports whether a change to rel (relative to the project root)
// should trigger a rebuild.
func Relevant(rel string) bool {
	rel = filepath.ToSlash(rel)
	switch rel {
	case config.BuildConfigFileName:
		return true
	case entry.FileName:
		// Written and removed by every webpack build.
		return false
	}
	if assets.InIgnoredDir(rel) {
		return false
	}
	return assets.MatchAny(rel)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				if w.config.Verbose {
					w.logger.Error(fmt.Errorf("permission denied: %s", path))
				}
				return nil
			}
			w.logger.Error(fmt.Errorf("walk error at %s: %w", path, err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && assets.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}

		if err := w.fsWatcher.Add(path); err != nil {
			if isWatchLimitError(err) {
				return fmt.Errorf("%w at %s: %w\n"+
					"Increase limit with: sudo sysctl fs.inotify.max_user_watches=524288", ErrWatchLimitReached, path, err)
			}
			if w.config.Verbose {
				w.logger.Error(fmt.Errorf("failed to watch %s: %w", path, err))
			}
			return nil
		}
		w.dirs++
		return nil
	})
}

func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no space left on device") ||
		strings.Contains(msg, "too many open files")
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if assets.IsIgnoredDir(filepath.Base(path)) {
				return
			}
			if err := w.addRecursive(path); err != nil {
				w.logger.Error(fmt.Errorf("failed to watch new directory %s: %w", path, err))
			}
			return
		}
	}

	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil || !Relevant(rel) {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		change = ChangeDeleted
	default:
		return
	}

	w.logger.FileChanged(rel, change)
	w.debouncer.Add(filepath.ToSlash(rel))
}

// rebuild runs the build function. paths is nil for the initial build.
func (w *Watcher) rebuild(paths []string) {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	if w.ctx.Err() != nil {
		return
	}
	w.logger.Rebuilding(paths)

	start := time.Now()
	outcome, err := w.build(w.ctx)
	switch {
	case err != nil:
		if w.ctx.Err() != nil {
			return
		}
		w.logger.Error(err)
	case outcome == nil || outcome.Skipped:
		w.logger.Skipped("no " + config.BuildConfigFileName)
	case outcome.Cached:
		w.logger.Built(0, time.Since(start), true)
	default:
		n := 0
		if outcome.Result != nil {
			n = len(outcome.Result.Outputs)
		}
		w.logger.Built(n, time.Since(start), false)
	}
	log.Component("watch").Debug("build finished", "paths", len(paths), "err", err)
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

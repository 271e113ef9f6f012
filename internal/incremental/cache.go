package incremental

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/albertocavalcante/ubc/internal/log"
	"github.com/albertocavalcante/ubc/pkg/bundler"
)

// Key identifies what a build was made from besides its input files.
type Key struct {
	Mode    string
	Imports []string
	Options bundler.Options
}

// Status describes whether a recorded build is still current.
type Status struct {
	Fresh   bool       `json:"fresh"`
	Reason  string     `json:"reason"`
	Changes *ChangeSet `json:"changes,omitempty"`
	Tracked int        `json:"tracked"`
}

// Cache decides whether a build can be skipped.
type Cache struct {
	root  string
	store Store
	jobs  int
}

// New creates a cache for the project at root, storing state under cacheDir.
func New(root, cacheDir string) *Cache {
	return NewWithStore(root, NewJSONStore(root, cacheDir))
}

// NewWithStore creates a cache backed by an arbitrary store.
func NewWithStore(root string, store Store) *Cache {
	return &Cache{root: root, store: store, jobs: runtime.GOMAXPROCS(0)}
}

// Status compares the recorded build against the project on disk without
// modifying state.
func (c *Cache) Status(ctx context.Context, key Key) (*Status, error) {
	old, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	st := &Status{Tracked: len(old.Inputs)}

	configHash, optionsHash, err := key.hashes()
	if err != nil {
		return nil, err
	}

	switch {
	case old.Empty():
		st.Reason = "no previous build"
		return st, nil
	case old.Mode != key.Mode:
		st.Reason = "mode changed"
		return st, nil
	case old.ConfigHash != configHash:
		st.Reason = "ubc.yaml imports changed"
		return st, nil
	case old.OptionsHash != optionsHash:
		st.Reason = "bundler options changed"
		return st, nil
	case len(old.Inputs) == 0:
		st.Reason = "no tracked inputs"
		return st, nil
	}

	for _, out := range old.Outputs {
		if _, err := os.Stat(c.abs(out)); err != nil {
			st.Reason = "output missing: " + out
			return st, nil
		}
	}

	cs, err := c.changes(ctx, old)
	if err != nil {
		return nil, err
	}
	st.Changes = cs
	if !cs.IsEmpty() {
		st.Reason = fmt.Sprintf("%d input(s) changed", cs.TotalChanges())
		return st, nil
	}

	st.Fresh = true
	st.Reason = "up to date"
	return st, nil
}

// changes re-stats every recorded input, hashing only those whose mtime or
// size moved, and diffs the result against the recorded index.
func (c *Cache) changes(ctx context.Context, old *Index) (*ChangeSet, error) {
	current := NewIndex()
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)
	for path, prev := range old.Inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			e, err := statEntry(path, c.abs(path), prev)
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			if err != nil {
				// Unreadable inputs count as modified.
				e = &Entry{Path: path}
			}
			mu.Lock()
			current.Add(e)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return old.Diff(current), nil
}

// Record fingerprints a successful build's inputs and saves the index. Inputs
// whose mtime and size match the previous record keep their hash.
func (c *Cache) Record(ctx context.Context, key Key, res *bundler.Result) error {
	configHash, optionsHash, err := key.hashes()
	if err != nil {
		return err
	}
	prev, err := c.store.Load()
	if err != nil {
		log.Component("cache").Warn("ignoring unreadable state", "err", err)
		prev = NewIndex()
	}

	idx := NewIndex()
	idx.Mode = key.Mode
	idx.ConfigHash = configHash
	idx.OptionsHash = optionsHash
	idx.Outputs = append([]string(nil), res.Outputs...)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)
	for _, path := range res.Inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			old, _ := prev.Get(path)
			e, err := statEntry(path, c.abs(path), old)
			if err != nil {
				// Virtual modules have no file behind them.
				log.Trace("cache skips input", "path", path, "err", err)
				return nil
			}
			mu.Lock()
			idx.Add(e)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := c.store.Save(idx); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	delta := prev.Diff(idx)
	log.Component("cache").Debug("recorded build",
		"inputs", len(idx.Inputs), "outputs", len(idx.Outputs),
		"added", len(delta.Added), "modified", len(delta.Modified), "deleted", len(delta.Deleted))
	return nil
}

// HasState returns true if a previous build was recorded.
func (c *Cache) HasState() bool {
	return c.store.Exists()
}

// Clear forgets the recorded build.
func (c *Cache) Clear() error {
	return c.store.Clear()
}

// StatePath returns where the recorded build is kept.
func (c *Cache) StatePath() string {
	return c.store.Path()
}

func (c *Cache) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.root, filepath.FromSlash(path))
}

func (k Key) hashes() (configHash, optionsHash string, err error) {
	if configHash, err = HashJSON(k.Imports); err != nil {
		return "", "", err
	}
	if optionsHash, err = HashJSON(k.Options); err != nil {
		return "", "", err
	}
	return configHash, optionsHash, nil
}

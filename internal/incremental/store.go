package incremental

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// StateFileName is the name of the state file inside the cache directory.
const StateFileName = "state.json"

// Store defines the interface for index persistence.
type Store interface {
	Load() (*Index, error)
	Save(idx *Index) error
	Exists() bool
	Clear() error
	Path() string
}

// JSONStore implements Store with a JSON file.
type JSONStore struct {
	dir  string
	path string
}

// NewJSONStore creates a store writing <cacheDir>/state.json. A relative
// cacheDir is resolved against root.
func NewJSONStore(root, cacheDir string) *JSONStore {
	dir := cacheDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, cacheDir)
	}
	return &JSONStore{
		dir:  dir,
		path: filepath.Join(dir, StateFileName),
	}
}

// Path returns the state file path.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the index from disk. A missing state file gives an empty index.
func (s *JSONStore) Load() (*Index, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if idx.Version > IndexVersion {
		return nil, fmt.Errorf("state file version %d is newer than supported version %d", idx.Version, IndexVersion)
	}
	if idx.Inputs == nil {
		idx.Inputs = make(map[string]*Entry)
	}
	return &idx, nil
}

// Save writes the index to disk atomically.
func (s *JSONStore) Save(idx *Index) error {
	if idx == nil {
		return errors.New("cannot save nil index")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	idx.UpdatedAt = time.Now()
	idx.Version = IndexVersion

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, StateFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// Exists returns true if the state file exists.
func (s *JSONStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Clear removes the state file. The cache directory itself is left alone
// since other tools may share it.
func (s *JSONStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

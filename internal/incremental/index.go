package incremental

import (
	"time"
)

// IndexVersion is the current version of the index format.
const IndexVersion = 1

// Index is the fingerprint of the last successful build.
type Index struct {
	Version     int               `json:"version"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Mode        string            `json:"mode"`
	ConfigHash  string            `json:"config_hash"`
	OptionsHash string            `json:"options_hash"`
	Inputs      map[string]*Entry `json:"inputs"`
	Outputs     []string          `json:"outputs"`
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		Version:   IndexVersion,
		UpdatedAt: time.Now(),
		Inputs:    make(map[string]*Entry),
	}
}

// Add adds or updates an input.
func (idx *Index) Add(e *Entry) {
	if idx == nil || e == nil {
		return
	}
	if idx.Inputs == nil {
		idx.Inputs = make(map[string]*Entry)
	}
	idx.Inputs[e.Path] = e
}

// Get retrieves an input by path.
func (idx *Index) Get(path string) (*Entry, bool) {
	if idx == nil || idx.Inputs == nil {
		return nil, false
	}
	e, ok := idx.Inputs[path]
	return e, ok
}

// Empty reports whether no build has been recorded.
func (idx *Index) Empty() bool {
	return idx == nil || idx.Mode == ""
}

// Diff compares this index's inputs against another's.
// The receiver (idx) is the "old" state, other is the "new" state.
func (idx *Index) Diff(other *Index) *ChangeSet {
	cs := NewChangeSet()

	var oldInputs, newInputs map[string]*Entry
	if idx != nil {
		oldInputs = idx.Inputs
	}
	if other != nil {
		newInputs = other.Inputs
	}

	for path, newEntry := range newInputs {
		oldEntry, exists := oldInputs[path]
		if !exists {
			cs.Added = append(cs.Added, path)
			continue
		}
		if oldEntry.Hash != newEntry.Hash {
			cs.Modified = append(cs.Modified, path)
		}
	}
	for path := range oldInputs {
		if _, exists := newInputs[path]; !exists {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	cs.sort()
	return cs
}

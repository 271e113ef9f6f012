// Package incremental skips bundler runs whose inputs have not changed since
// the last successful build.
package incremental

import (
	"fmt"
	"os"
)

// Entry is a bundle input's metadata and content hash.
type Entry struct {
	Path    string `json:"path"`
	Hash    string `json:"hash"`     // xxHash64 hex
	ModTime int64  `json:"mtime_ns"` // UnixNano
	Size    int64  `json:"size"`
}

// statEntry records path's metadata and hashes its content. The hash of prev
// is reused when its size and mtime still match.
func statEntry(path, abs string, prev *Entry) (*Entry, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	e := &Entry{
		Path:    path,
		ModTime: info.ModTime().UnixNano(),
		Size:    info.Size(),
	}
	if prev != nil && prev.ModTime == e.ModTime && prev.Size == e.Size {
		e.Hash = prev.Hash
		return e, nil
	}
	if e.Hash, err = HashFile(abs); err != nil {
		return nil, err
	}
	return e, nil
}

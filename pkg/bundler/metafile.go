package bundler

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Metafile is the subset of esbuild's metafile JSON that ubc reads.
type Metafile struct {
	Inputs  map[string]MetafileInput  `json:"inputs"`
	Outputs map[string]MetafileOutput `json:"outputs"`
}

// MetafileInput is an input file in the metafile.
type MetafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []MetafileImport `json:"imports"`
}

// MetafileImport is an import edge in the metafile.
type MetafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

// MetafileOutput is an output file in the metafile.
type MetafileOutput struct {
	Bytes      int    `json:"bytes"`
	EntryPoint string `json:"entryPoint,omitempty"`
}

// ParseMetafile decodes esbuild's metafile JSON. An empty string yields an
// empty metafile.
func ParseMetafile(data string) (*Metafile, error) {
	m := &Metafile{}
	if data == "" {
		return m, nil
	}
	if err := json.Unmarshal([]byte(data), m); err != nil {
		return nil, fmt.Errorf("parse metafile: %w", err)
	}
	return m, nil
}

// InputFiles returns on-disk inputs sorted by path. Inputs that live in a
// plugin namespace ("ns:path") are reported by their path part.
func (m *Metafile) InputFiles() []string {
	seen := make(map[string]bool, len(m.Inputs))
	files := make([]string, 0, len(m.Inputs))
	for p := range m.Inputs {
		if ns, rest, ok := strings.Cut(p, ":"); ok && isNamespace(ns) {
			p = rest
		}
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}
	slices.Sort(files)
	return files
}

// OutputFiles returns output paths sorted.
func (m *Metafile) OutputFiles() []string {
	files := make([]string, 0, len(m.Outputs))
	for p := range m.Outputs {
		files = append(files, p)
	}
	slices.Sort(files)
	return files
}

// isNamespace distinguishes "ubc-asset:src/a.png" from "C:\src\a.png".
func isNamespace(s string) bool {
	return len(s) > 1 && !strings.ContainsAny(s, `/\.`)
}

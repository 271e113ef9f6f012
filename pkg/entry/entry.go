// Package entry renders the synthetic entry file that seeds a bundler's
// dependency graph from the imports listed in ubc.yaml.
//
// The file looks like:
//
//	/** ubc.js autogenerated file **/
//	import './src/index.js'
//	import 'lodash'
//
// Import paths are written verbatim. Nothing is validated or escaped here; a
// bad path surfaces as a bundler error.
package entry

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// FileName is the generated entry file, relative to the project root.
const FileName = "ubc.js"

// Marker is always the first line of a generated entry file.
const Marker = "/** ubc.js autogenerated file **/"

// Line returns the import statement for a single module path.
func Line(path string) string {
	return "import '" + path + "'"
}

// Render writes the marker followed by one import line per path, in order.
func Render(w io.Writer, imports []string) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Marker + "\n"); err != nil {
		return err
	}
	for _, imp := range imports {
		if _, err := bw.WriteString(Line(imp) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write renders imports to path, replacing any existing file.
func Write(path string, imports []string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create entry file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close entry file: %w", cerr)
		}
	}()

	if err := Render(f, imports); err != nil {
		return fmt.Errorf("write entry file: %w", err)
	}
	return nil
}

// Remove deletes the entry file. A file that is already gone is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove entry file: %w", err)
	}
	return nil
}

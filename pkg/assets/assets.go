// Package assets is the single table mapping asset kinds to file extensions
// and glob patterns.
//
// The bundler loader map, the asset plugin and the watcher filter all read
// from here instead of keeping their own lists.
package assets

import (
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Asset kinds.
const (
	Script = "script"
	Style  = "style"
	Font   = "font"
	Image  = "image"
)

// Kinds lists every kind in a stable order.
var Kinds = []string{Script, Style, Font, Image}

// Extensions maps a kind to its lower-case extensions.
var Extensions = map[string][]string{
	Script: {".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"},
	Style:  {".css", ".scss"},
	Font:   {".woff", ".woff2", ".eot", ".ttf", ".otf"},
	Image:  {".gif", ".png", ".jpg", ".jpeg", ".svg"},
}

// Patterns are doublestar globs, relative to the project root, that select
// files of a kind.
var Patterns = map[string]string{
	Script: "**/*.{js,jsx,mjs,cjs,ts,tsx}",
	Style:  "**/*.{css,scss}",
	Font:   "**/*.{woff,woff2,eot,ttf,otf}",
	Image:  "**/*.{gif,png,jpg,jpeg,svg}",
}

// StylelintPattern is the file set the style linter is configured for.
const StylelintPattern = "**/*.scss"

// IgnoredDirs are directory name prefixes skipped by scanning and watching.
var IgnoredDirs = []string{
	".",            // hidden directories, including .cache and .git
	"node_modules", // installed packages
	"dist",         // build output
}

// ExtensionSet returns the extensions for the given kinds, or for all kinds
// when kinds is empty.
func ExtensionSet(kinds []string) map[string]bool {
	if len(kinds) == 0 {
		kinds = Kinds
	}
	set := make(map[string]bool)
	for _, kind := range kinds {
		for _, ext := range Extensions[kind] {
			set[ext] = true
		}
	}
	return set
}

// Match reports whether rel (a slash or OS separated path relative to the
// project root) matches the glob for kind.
func Match(kind, rel string) bool {
	pattern, ok := Patterns[kind]
	if !ok {
		return false
	}
	matched, err := doublestar.Match(pattern, strings.ToLower(filepath.ToSlash(rel)))
	return err == nil && matched
}

// MatchAny reports whether rel matches any kind's glob.
func MatchAny(rel string) bool {
	for _, kind := range Kinds {
		if Match(kind, rel) {
			return true
		}
	}
	return false
}

// IsIgnoredDir reports whether a directory with this base name is skipped.
// The project root itself (".") is never ignored.
func IsIgnoredDir(name string) bool {
	if name == "." || name == "" {
		return false
	}
	for _, prefix := range IgnoredDirs {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// InIgnoredDir reports whether any directory component of rel is ignored.
func InIgnoredDir(rel string) bool {
	dir := path.Dir(filepath.ToSlash(rel))
	if dir == "." {
		return false
	}
	for _, part := range strings.Split(dir, "/") {
		if IsIgnoredDir(part) {
			return true
		}
	}
	return false
}

// FilterRegexp returns an esbuild plugin filter matching a kind's extensions
// case-insensitively. When only is given, the filter is narrowed to those of
// the kind's extensions.
func FilterRegexp(kind string, only ...string) string {
	var names []string
	for _, ext := range Extensions[kind] {
		if len(only) > 0 && !slices.Contains(only, ext) {
			continue
		}
		names = append(names, regexp.QuoteMeta(strings.TrimPrefix(ext, ".")))
	}
	return `(?i)\.(` + strings.Join(names, "|") + `)$`
}

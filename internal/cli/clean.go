package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ubc/internal/incremental"
	"github.com/albertocavalcante/ubc/pkg/bundler"
	"github.com/albertocavalcante/ubc/pkg/config"
	"github.com/albertocavalcante/ubc/pkg/entry"
)

var cleanFlags struct {
	dryRun bool
}

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build output, the build cache and a leftover ubc.js",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanFlags.dryRun, "dry-run", false,
		"List what would be removed")

	rootCmd.AddCommand(cleanCmd)
}

// cleanTargets lists the paths ubc creates, relative to the project.
func cleanTargets() []string {
	var targets []string
	for _, mode := range config.Modes {
		o, _ := bundler.OptionsFor(mode)
		for _, p := range []string{o.OutDir, o.CacheDir} {
			if p != "" && !slices.Contains(targets, p) {
				targets = append(targets, p)
			}
		}
	}
	return append(targets, entry.FileName)
}

func runClean(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	dryRun := cleanFlags.dryRun

	cache := newCache(dir, config.ModeParcel)
	if cache.HasState() {
		rel := relPath(dir, cache.StatePath())
		if dryRun {
			_, _ = fmt.Fprintf(out, "would remove %s\n", rel)
		} else {
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("failed to clear build state: %w", err)
			}
			_, _ = fmt.Fprintf(out, "removed %s\n", rel)
		}
	}
	cacheDir := filepath.Dir(cache.StatePath())

	for _, rel := range cleanTargets() {
		path := filepath.Join(dir, rel)
		if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		// The cache directory may hold other tools' files; only an emptied one goes.
		if path == cacheDir && !onlyState(path) {
			_, _ = fmt.Fprintf(out, "kept %s (not empty)\n", rel)
			continue
		}
		if dryRun {
			_, _ = fmt.Fprintf(out, "would remove %s\n", rel)
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", rel, err)
		}
		_, _ = fmt.Fprintf(out, "removed %s\n", rel)
	}
	return nil
}

// onlyState reports whether dir holds nothing but ubc's build state.
func onlyState(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() != incremental.StateFileName {
			return false
		}
	}
	return true
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

package cli

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ubc/internal/pipeline"
	"github.com/albertocavalcante/ubc/internal/watch"
)

var watchFlags struct {
	mode     string
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Rebuild whenever sources, assets or ubc.yaml change",
	Long: `Builds once, then watches the project and rebuilds on change.

node_modules, dist and hidden directories (including .cache) are not
watched. Bursts of changes are debounced into a single rebuild.

Example output:

  $ ubc watch

  [14:32:15] building...
  [14:32:15] ✓ built 2 file(s) in 41ms
  ubc: watching 6 directories in /path/to/site (webpack mode)
  ubc: ready

  [14:32:40] src/app.js changed, rebuilding...
  [14:32:40] ✓ built 2 file(s) in 38ms

Press Ctrl+C to stop watching.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.mode, "mode", "",
		"Build mode (parcel, webpack); defaults to the configured mode")
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 300,
		"Debounce window in milliseconds")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show file-level changes")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")
	addBuildFlags(watchCmd)

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	s, err := buildSettings(cmd)
	if err != nil {
		return err
	}
	mode := s.Build.Mode
	if watchFlags.mode != "" {
		mode = watchFlags.mode
	}
	debounce := s.Watch.DebounceMS
	if cmd.Flags().Changed("debounce") {
		debounce = watchFlags.debounce
	}
	out := cmd.OutOrStdout()

	ctx, cancel := signalContext()
	defer cancel()

	if s.BannerEnabled() && !watchFlags.json {
		printBanner(out)
	}

	// JSON consumers get watcher events only.
	buildOut := out
	if watchFlags.json {
		buildOut = io.Discard
	}
	b, err := newBundler(s.Build.Engine, buildOut)
	if err != nil {
		return err
	}
	// Rebuilds react to edits, so only the first build waits.
	p := &pipeline.Pipeline{Dir: dir, Mode: mode, Delay: s.Delay(), Bundler: b, Out: buildOut}
	if !buildFlags.noCache {
		p.Cache = newCache(dir, mode)
	}
	build := func(ctx context.Context) (*pipeline.Outcome, error) {
		outcome, err := p.Run(ctx)
		p.Delay = 0
		return outcome, err
	}

	w, err := watch.New(watch.Config{
		Root:     dir,
		Mode:     mode,
		Debounce: time.Duration(debounce) * time.Millisecond,
		Verbose:  watchFlags.verbose,
		NoColor:  watchFlags.noColor,
		JSON:     watchFlags.json,
		Writer:   out,
	}, build)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}

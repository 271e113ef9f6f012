package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ubc/internal/incremental"
	"github.com/albertocavalcante/ubc/internal/pipeline"
	"github.com/albertocavalcante/ubc/internal/runner"
	"github.com/albertocavalcante/ubc/pkg/bundler"
	"github.com/albertocavalcante/ubc/pkg/config"
)

// bannerText is rendered with figlet's standard font before every build.
const bannerText = "Universal Build Chain"

var buildFlags struct {
	mode     string
	engine   string
	delay    time.Duration
	noBanner bool
	noCache  bool
}

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Bundle the imports listed in ubc.yaml",
	Long: `Reads ubc.yaml and hands its imports to the bundler.

In webpack mode a ubc.js entry file importing every module in order is
generated, bundled into dist/main.js and removed after a successful build.
In parcel mode every import is its own entry point.

Without ubc.yaml nothing is built and the command exits successfully.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := settings.Build.Mode
		if cmd.Flags().Changed("mode") {
			mode = buildFlags.mode
		}
		return runBuild(cmd, args, mode)
	},
}

var parcelCmd = &cobra.Command{
	Use:   "parcel [path]",
	Short: "Bundle every import as its own entry point",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args, config.ModeParcel)
	},
}

var webpackCmd = &cobra.Command{
	Use:   "webpack [path]",
	Short: "Bundle a generated ubc.js importing every module",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args, config.ModeWebpack)
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildFlags.mode, "mode", config.ModeWebpack,
		"Build mode (parcel, webpack); defaults to the configured mode")
	for _, cmd := range []*cobra.Command{buildCmd, parcelCmd, webpackCmd} {
		addBuildFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

// addBuildFlags registers the flags shared by every building command.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&buildFlags.engine, "engine", config.EngineEsbuild,
		"Bundler engine (esbuild, node)")
	cmd.Flags().DurationVar(&buildFlags.delay, "delay", 200*time.Millisecond,
		"Pause before reading ubc.yaml")
	cmd.Flags().BoolVar(&buildFlags.noBanner, "no-banner", false,
		"Do not print the startup banner")
	cmd.Flags().BoolVar(&buildFlags.noCache, "no-cache", false,
		"Rebuild even when the build cache is current")
}

// buildSettings returns the settings with this command's flags applied.
func buildSettings(cmd *cobra.Command) (*config.Settings, error) {
	s := *settings
	flags := cmd.Flags()
	if flags.Changed("engine") {
		s.Build.Engine = buildFlags.engine
	}
	if flags.Changed("delay") {
		ms := int(buildFlags.delay / time.Millisecond)
		s.Build.DelayMS = &ms
	}
	if flags.Changed("no-banner") {
		banner := !buildFlags.noBanner
		s.Build.Banner = &banner
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func runBuild(cmd *cobra.Command, args []string, mode string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	s, err := buildSettings(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	ctx, cancel := signalContext()
	defer cancel()

	if s.BannerEnabled() {
		printBanner(out)
	}

	b, err := newBundler(s.Build.Engine, out)
	if err != nil {
		return err
	}
	p := &pipeline.Pipeline{
		Dir:     dir,
		Mode:    mode,
		Delay:   s.Delay(),
		Bundler: b,
		Out:     out,
	}
	if !buildFlags.noCache {
		p.Cache = newCache(dir, mode)
	}

	_, err = p.Run(ctx)
	return err
}

func printBanner(w io.Writer) {
	_, _ = fmt.Fprintln(w, figure.NewFigure(bannerText, "", true).String())
}

// newBundler returns the engine named in settings.
func newBundler(engine string, out io.Writer) (bundler.Bundler, error) {
	switch engine {
	case config.EngineEsbuild:
		return bundler.NewEsbuild(out), nil
	case config.EngineNode:
		return runner.NewNode(out, os.Stderr), nil
	}
	return nil, fmt.Errorf("unknown engine %q (want one of %v)", engine, config.Engines)
}

// newCache returns the build cache in the mode's cache directory.
func newCache(dir, mode string) *incremental.Cache {
	opts, _ := bundler.OptionsFor(mode)
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = bundler.ParcelOptions().CacheDir
	}
	return incremental.New(dir, cacheDir)
}

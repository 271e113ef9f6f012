package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ubc/internal/pipeline"
	"github.com/albertocavalcante/ubc/pkg/bundler"
)

var serveFlags struct {
	mode string
}

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve dist with live rebuilds",
	Long: `Builds the project with the in-process engine, serves the output
directory and rebuilds when sources change.

The host and port come from the mode's hmrHostname and hmrPort options; port
0 picks a free port. In webpack mode ubc.js stays on disk while serving and
is removed on exit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.mode, "mode", "",
		"Build mode (parcel, webpack); defaults to the configured mode")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	mode := settings.Build.Mode
	if serveFlags.mode != "" {
		mode = serveFlags.mode
	}
	out := cmd.OutOrStdout()

	ctx, cancel := signalContext()
	defer cancel()

	if settings.BannerEnabled() {
		printBanner(out)
	}

	p := &pipeline.Pipeline{Dir: dir, Mode: mode, Out: out}
	_, err = p.Serve(ctx, bundler.NewEsbuild(out), func(info bundler.ServeInfo) {
		_, _ = fmt.Fprintf(out, "Serving on %s (Ctrl+C to stop)\n", info.URL())
	})
	return err
}

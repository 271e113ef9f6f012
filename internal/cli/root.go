// Package cli implements the ubc command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ubc/internal/log"
	"github.com/albertocavalcante/ubc/pkg/config"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity int
	logFormat string
}

// settings is the layered tool configuration, loaded before any command runs.
var settings = config.NewSettings()

// defaultMode is what a bare invocation builds.
var defaultMode = config.ModeWebpack

var rootCmd = &cobra.Command{
	Use:   "ubc [path]",
	Short: "Universal Build Chain",
	Long: `ubc bundles the modules listed in ubc.yaml with a fixed, opinionated
set of loaders, plugins and optimizations.

  imports:
    - ./src/index.js
    - ./src/styles/main.scss

Run without a subcommand to build in the default mode. 'ubc parcel' bundles
each import as its own entry point; 'ubc webpack' bundles a generated ubc.js
that imports them all, in order.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args, defaultMode)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ubc %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.logFormat, "log-format", "",
		"Log format (console, text, json); defaults to the configured format")
	addBuildFlags(rootCmd)

	cobra.OnInitialize(initSettings)
}

// initSettings loads layered settings and applies the logging flags.
// This runs after flags are parsed but before command execution.
func initSettings() {
	settings = config.Load()

	flags := rootCmd.PersistentFlags()
	if flags.Changed("verbosity") {
		v := globalFlags.verbosity
		settings.Log.Verbosity = &v
	}
	if flags.Changed("log-format") {
		settings.Log.Format = globalFlags.logFormat
	}
	log.Init(settings.LogVerbosity(), settings.Log.Format)
}

// signalContext is cancelled on Ctrl+C, SIGTERM or terminal hangup.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

// projectDir returns the optional [path] argument, defaulting to the working
// directory.
func projectDir(args []string) (string, error) {
	if len(args) == 0 {
		return os.Getwd()
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", args[0], err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path must be a directory: %s", args[0])
	}
	return args[0], nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ExecuteMode runs the CLI as a single-mode binary: a bare invocation builds
// in mode instead of the default.
func ExecuteMode(name, mode string) {
	defaultMode = mode
	rootCmd.Use = name + " [path]"
	Execute()
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/ubc/internal/incremental"
	"github.com/albertocavalcante/ubc/pkg/bundler"
	"github.com/albertocavalcante/ubc/pkg/config"
)

var statusFlags struct {
	mode    string
	verbose bool
	json    bool
}

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show whether the last cached build is still current",
	Long: `Compares the project against the build cache written by the last
successful build.

The build is stale when ubc.yaml's imports, the mode or the bundler options
changed, when an output is missing, or when an input file changed. Only modes
whose options enable caching (parcel) record builds.

The --verbose flag lists changed inputs and the state file.
The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFlags.mode, "mode", config.ModeParcel,
		"Build mode to check")
	statusCmd.Flags().BoolVar(&statusFlags.verbose, "verbose", false,
		"List changed inputs")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the JSON output format for ubc status.
type StatusOutput struct {
	Mode     string   `json:"mode"`
	Stale    bool     `json:"stale"`
	Reason   string   `json:"reason"`
	Tracked  int      `json:"tracked"`
	State    string   `json:"state,omitempty"`
	Added    []string `json:"added,omitempty"`
	Modified []string `json:"modified,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(args)
	if err != nil {
		return err
	}
	mode := statusFlags.mode
	opts, ok := bundler.OptionsFor(mode)
	if !ok {
		return fmt.Errorf("unknown mode %q (want one of %v)", mode, config.Modes)
	}
	out := cmd.OutOrStdout()

	result := StatusOutput{Mode: mode, Stale: true}
	cfg, err := config.LoadBuildConfigFrom(dir)
	switch {
	case errors.Is(err, config.ErrBuildConfigNotFound):
		result.Reason = "no " + config.BuildConfigFileName
	case err != nil:
		return err
	case !opts.Cache:
		result.Reason = mode + " mode does not cache builds"
	default:
		ctx, cancel := signalContext()
		defer cancel()

		cache := newCache(dir, mode)
		result.State = relPath(dir, cache.StatePath())
		st, err := cache.Status(ctx, incremental.Key{Mode: mode, Imports: cfg.Imports, Options: opts})
		if err != nil {
			return fmt.Errorf("failed to detect staleness: %w", err)
		}
		result.Stale = !st.Fresh
		result.Reason = st.Reason
		result.Tracked = st.Tracked
		if st.Changes != nil {
			result.Added = st.Changes.Added
			result.Modified = st.Changes.Modified
			result.Deleted = st.Changes.Deleted
		}
	}

	if statusFlags.json {
		return outputJSON(out, result)
	}
	printStatus(out, result)
	return nil
}

func printStatus(w io.Writer, s StatusOutput) {
	state := "up to date"
	if s.Stale {
		state = "stale"
	}
	_, _ = fmt.Fprintf(w, "%s build is %s: %s\n", s.Mode, state, s.Reason)
	if s.Tracked > 0 {
		_, _ = fmt.Fprintf(w, "tracking %d input(s)\n", s.Tracked)
	}
	if !statusFlags.verbose {
		return
	}
	if s.State != "" {
		_, _ = fmt.Fprintf(w, "state: %s\n", s.State)
	}
	for _, group := range []struct {
		sign  string
		paths []string
	}{{"+", s.Added}, {"~", s.Modified}, {"-", s.Deleted}} {
		for _, p := range group.paths {
			_, _ = fmt.Fprintf(w, "  %s %s\n", group.sign, p)
		}
	}
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Package pipeline runs one ubc build: wait, load ubc.yaml, generate the
// entry file, hand the job to a bundler and clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/albertocavalcante/ubc/internal/incremental"
	"github.com/albertocavalcante/ubc/internal/log"
	"github.com/albertocavalcante/ubc/pkg/bundler"
	"github.com/albertocavalcante/ubc/pkg/config"
	"github.com/albertocavalcante/ubc/pkg/entry"
)

// NoConfigMessage is printed when the project has no ubc.yaml.
const NoConfigMessage = "Sorry - no ubc.yaml config found in your project"

// Pipeline is a single build invocation.
type Pipeline struct {
	// Dir is the project root holding ubc.yaml.
	Dir string

	// Mode is config.ModeParcel or config.ModeWebpack.
	Mode string

	// Delay is waited before anything else happens.
	Delay time.Duration

	Bundler bundler.Bundler

	// Cache, when set and the mode's options enable caching, skips builds
	// whose inputs are unchanged.
	Cache *incremental.Cache

	// Out receives user-facing progress lines. Defaults to stdout.
	Out io.Writer
}

// Outcome reports what a run did.
type Outcome struct {
	// Skipped is set when there was no ubc.yaml.
	Skipped bool

	// Cached is set when the cache found the previous build current.
	Cached bool

	Config      *config.BuildConfig
	EntryPoints []string

	// EntryFile is the generated entry file path, "" in parcel mode.
	EntryFile string

	// EntryKept is set when the entry file was left on disk after a failed
	// build.
	EntryKept bool

	Result *bundler.Result
}

// Run executes the pipeline. A missing ubc.yaml is not an error: it prints a
// notice and returns a skipped outcome without touching the bundler.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	if p.Bundler == nil {
		return nil, errors.New("pipeline: no bundler")
	}
	st, err := p.start(ctx)
	if err != nil || st.outcome.Skipped {
		return st.outcome, err
	}
	outcome, opts := st.outcome, st.opts

	key := incremental.Key{Mode: p.Mode, Imports: outcome.Config.Imports, Options: opts}
	useCache := p.Cache != nil && opts.Cache
	if useCache {
		cs, err := p.Cache.Status(ctx, key)
		switch {
		case err != nil:
			st.logger.Warn("cache unreadable, rebuilding", "err", err)
		case cs.Fresh:
			_, _ = fmt.Fprintln(st.out, "Build is up to date.")
			outcome.Cached = true
			return outcome, nil
		default:
			st.logger.Debug("cache stale", "reason", cs.Reason)
		}
	}

	if err := p.generate(st); err != nil {
		return nil, err
	}

	res, err := p.Bundler.Bundle(ctx, bundler.Job{
		WorkDir:     st.dir,
		EntryPoints: outcome.EntryPoints,
		Options:     opts,
	})
	if err != nil {
		if outcome.EntryFile != "" {
			outcome.EntryKept = true
			st.logger.Warn("build failed, keeping entry file", "path", outcome.EntryFile)
		}
		return outcome, err
	}
	outcome.Result = res
	p.cleanup(st)

	if useCache {
		if err := p.Cache.Record(ctx, key, res); err != nil {
			st.logger.Warn("could not record build in cache", "err", err)
		}
	}
	return outcome, nil
}

// Server runs a long-lived build that serves its output.
type Server interface {
	Serve(ctx context.Context, job bundler.Job, ready func(bundler.ServeInfo)) error
}

// Serve prepares the job like Run and hands it to srv until ctx ends. In
// webpack mode the entry file lives as long as the server and is removed
// afterwards.
func (p *Pipeline) Serve(ctx context.Context, srv Server, ready func(bundler.ServeInfo)) (*Outcome, error) {
	st, err := p.start(ctx)
	if err != nil || st.outcome.Skipped {
		return st.outcome, err
	}
	if err := p.generate(st); err != nil {
		return nil, err
	}
	defer p.cleanup(st)

	err = srv.Serve(ctx, bundler.Job{
		WorkDir:     st.dir,
		EntryPoints: st.outcome.EntryPoints,
		Options:     st.opts,
	}, ready)
	return st.outcome, err
}

// state carries one run between its steps.
type state struct {
	dir     string
	out     io.Writer
	logger  *slog.Logger
	opts    bundler.Options
	outcome *Outcome
}

// start waits out the delay and loads ubc.yaml.
func (p *Pipeline) start(ctx context.Context) (*state, error) {
	opts, ok := bundler.OptionsFor(p.Mode)
	if !ok {
		return &state{}, fmt.Errorf("unknown mode %q (expected one of %v)", p.Mode, config.Modes)
	}
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	dir, err := filepath.Abs(p.Dir)
	if err != nil {
		return &state{}, fmt.Errorf("resolve project dir: %w", err)
	}
	st := &state{
		dir:     dir,
		out:     out,
		logger:  log.Component("pipeline").With("mode", p.Mode),
		opts:    opts,
		outcome: &Outcome{},
	}
	log.V(log.VerbosityDebug).Info("resolved options", "mode", p.Mode, "outdir", opts.OutDir, "cache", opts.Cache, "rules", len(opts.Rules), "plugins", opts.Plugins)

	if err := wait(ctx, p.Delay); err != nil {
		return st, err
	}
	_, _ = fmt.Fprintln(out, dir)

	cfg, err := config.LoadBuildConfigFrom(dir)
	if errors.Is(err, config.ErrBuildConfigNotFound) {
		_, _ = fmt.Fprintln(out, NoConfigMessage)
		st.logger.Debug("build config not loaded", "err", err)
		st.outcome.Skipped = true
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.logger.Debug("build config loaded", "imports", len(cfg.Imports))
	st.outcome.Config = cfg
	return st, nil
}

// generate picks the entry points, writing the entry file in webpack mode.
func (p *Pipeline) generate(st *state) error {
	imports := st.outcome.Config.Imports
	if p.Mode != config.ModeWebpack {
		st.outcome.EntryPoints = imports
		return nil
	}

	path := filepath.Join(st.dir, entry.FileName)
	if err := entry.Write(path, imports); err != nil {
		return fmt.Errorf("generate %s: %w", entry.FileName, err)
	}
	_, _ = fmt.Fprintf(st.out, "Created %s file\n", entry.FileName)
	for _, imp := range imports {
		_, _ = fmt.Fprintf(st.out, "Add >> %s << to %s\n", imp, entry.FileName)
	}
	st.outcome.EntryFile = path
	st.outcome.EntryPoints = []string{"./" + entry.FileName}
	return nil
}

// cleanup removes the generated entry file. Failure is only logged.
func (p *Pipeline) cleanup(st *state) {
	if st.outcome.EntryFile == "" {
		return
	}
	if err := entry.Remove(st.outcome.EntryFile); err != nil {
		st.outcome.EntryKept = true
		st.logger.Warn("could not remove entry file", "path", st.outcome.EntryFile, "err", err)
	}
}

// wait sleeps for d unless ctx ends first.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

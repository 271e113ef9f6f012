package bundler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/albertocavalcante/ubc/internal/log"
	"github.com/albertocavalcante/ubc/pkg/assets"
)

const legalSuffix = ".LEGAL.txt"

// Esbuild runs jobs in process with esbuild's Go API.
type Esbuild struct {
	out io.Writer
}

// NewEsbuild returns an engine that reports progress and diagnostics to out
// (stdout when nil).
func NewEsbuild(out io.Writer) *Esbuild {
	if out == nil {
		out = os.Stdout
	}
	return &Esbuild{out: out}
}

// Bundle runs one build. Cancelling ctx cancels the build in flight.
func (e *Esbuild) Bundle(ctx context.Context, job Job) (*Result, error) {
	if len(job.EntryPoints) == 0 {
		return nil, fmt.Errorf("%w: no entry points", ErrBuildFailed)
	}
	if err := compileRules(job.Options.Rules); err != nil {
		return nil, err
	}

	opts := e.BuildOptions(job)
	logger := log.Component("esbuild")
	logger.Debug("starting build", "mode", job.Options.Mode, "entries", len(job.EntryPoints), "outdir", opts.Outdir)

	bc, cerr := api.Context(opts)
	if cerr != nil {
		newReporter(e.out, job.Options).errors(cerr.Errors)
		return nil, fmt.Errorf("%w: %s", ErrBuildFailed, firstText(cerr.Errors))
	}
	defer bc.Dispose()

	stop := context.AfterFunc(ctx, bc.Cancel)
	defer stop()

	start := time.Now()
	res := bc.Rebuild()
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := newReporter(e.out, job.Options)
	rep.warnings(res.Warnings)
	if len(res.Errors) > 0 {
		rep.errors(res.Errors)
		return nil, fmt.Errorf("%w: %d error(s), first: %s", ErrBuildFailed, len(res.Errors), firstText(res.Errors))
	}

	meta, err := ParseMetafile(res.Metafile)
	if err != nil {
		return nil, err
	}
	if err := removeEmptyLegal(job.WorkDir, meta); err != nil {
		return nil, err
	}

	result := &Result{
		Outputs:  meta.OutputFiles(),
		Inputs:   meta.InputFiles(),
		Warnings: len(res.Warnings),
		Duration: elapsed,
	}
	rep.summary(result, meta)
	logger.Info("build finished", "outputs", len(result.Outputs), "inputs", len(result.Inputs), "took", elapsed)
	return result, nil
}

// BuildOptions translates a job into esbuild options. The translation is a
// pure function of the job.
func (e *Esbuild) BuildOptions(job Job) api.BuildOptions {
	o := job.Options
	outDir := filepath.Join(job.WorkDir, o.OutDir)

	opts := api.BuildOptions{
		AbsWorkingDir: job.WorkDir,
		EntryPoints:   job.EntryPoints,
		Outdir:        outDir,
		Bundle:        true,
		Write:         true,
		Metafile:      true,
		LogLevel:      api.LogLevelSilent,
		Loader:        loaderMap(),
		Format:        api.FormatIIFE,
		GlobalName:    o.Global,
		EntryNames:    "[dir]/[name]",
		AssetNames:    "[dir]/[name]",
	}

	switch {
	case o.OutputName != "":
		opts.EntryNames = o.OutputName
	case o.ContentHash:
		opts.EntryNames = "[dir]/[name]-[hash]"
		opts.AssetNames = "[dir]/[name]-[hash]"
	}

	switch o.Target {
	case "node", "electron":
		opts.Platform = api.PlatformNode
	default:
		opts.Platform = api.PlatformBrowser
	}
	if !o.BundleNodeModules {
		opts.Packages = api.PackagesExternal
	}
	if o.Language == "es2015" {
		opts.Target = api.ES2015
	}

	if o.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
	if o.ExtractComments {
		opts.LegalComments = api.LegalCommentsExternal
	}
	if !o.ScopeHoist {
		opts.TreeShaking = api.TreeShakingFalse
	}

	switch {
	case o.Devtool == DevtoolInline:
		opts.Sourcemap = api.SourceMapInline
	case o.SourceMaps:
		opts.Sourcemap = api.SourceMapLinked
	default:
		opts.Sourcemap = api.SourceMapNone
	}

	if o.HasPlugin(PluginProgress) {
		opts.Plugins = append(opts.Plugins, progressPlugin(e.out, o.Mode, o.HasPlugin(PluginBuildBar)))
	}
	if hasOutputRules(o.Rules) {
		opts.Plugins = append(opts.Plugins, fileLoaderPlugin(job.WorkDir, outDir, o.Rules))
	}
	return opts
}

// loaderMap assigns loaders by extension from the shared assets table.
// Sass syntax beyond plain CSS is not compiled.
func loaderMap() map[string]api.Loader {
	m := make(map[string]api.Loader)
	for ext := range assets.ExtensionSet([]string{assets.Style}) {
		m[ext] = api.LoaderCSS
	}
	for ext := range assets.ExtensionSet([]string{assets.Font, assets.Image}) {
		m[ext] = api.LoaderFile
	}
	return m
}

// removeEmptyLegal deletes the .LEGAL.txt files esbuild writes for outputs
// without legal comments and drops them from meta.
func removeEmptyLegal(workDir string, meta *Metafile) error {
	for p, out := range meta.Outputs {
		if out.Bytes != 0 || !strings.HasSuffix(p, legalSuffix) {
			continue
		}
		err := os.Remove(filepath.Join(workDir, filepath.FromSlash(p)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
		delete(meta.Outputs, p)
	}
	return nil
}

func hasOutputRules(rules []Rule) bool {
	for _, r := range rules {
		if r.OutputPath != "" {
			return true
		}
	}
	return false
}

func firstText(msgs []api.Message) string {
	if len(msgs) == 0 {
		return "unknown error"
	}
	m := msgs[0]
	if m.Location != nil {
		return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, strings.TrimSpace(m.Text))
	}
	return strings.TrimSpace(m.Text)
}

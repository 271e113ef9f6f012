package runner

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/albertocavalcante/ubc/internal/log"
	"github.com/albertocavalcante/ubc/pkg/bundler"
	"github.com/albertocavalcante/ubc/pkg/config"
)

// Node runs jobs through the parcel or webpack CLI installed in the project.
type Node struct {
	opts   []Option
	stdout io.Writer
	stderr io.Writer
}

// NewNode returns the node engine. Runner options are applied per job, with
// the job's WorkDir as the node_modules root.
func NewNode(stdout, stderr io.Writer, opts ...Option) *Node {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Node{opts: opts, stdout: stdout, stderr: stderr}
}

// Bundle runs the mode's CLI and waits for it. Cancelling ctx kills the
// process.
func (n *Node) Bundle(ctx context.Context, job bundler.Job) (*bundler.Result, error) {
	if len(job.EntryPoints) == 0 {
		return nil, fmt.Errorf("%w: no entry points", bundler.ErrBuildFailed)
	}
	tool := job.Options.Mode
	r := New(append([]Option{WithWorkDir(job.WorkDir)}, n.opts...)...)
	bin, err := r.FindBinary(tool)
	if err != nil {
		return nil, err
	}

	args, err := Args(job)
	if err != nil {
		return nil, err
	}
	log.Component("runner").Debug("exec", "bin", bin, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = job.WorkDir
	cmd.Stdout = n.stdout
	cmd.Stderr = n.stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", bundler.ErrBuildFailed, tool, err)
	}

	outputs, err := listOutputs(job.WorkDir, job.Options.OutDir)
	if err != nil {
		return nil, err
	}
	return &bundler.Result{Outputs: outputs, Duration: time.Since(start)}, nil
}

// Args translates a job into command-line arguments for its mode's CLI.
func Args(job bundler.Job) ([]string, error) {
	o := job.Options
	switch o.Mode {
	case config.ModeParcel:
		return parcelArgs(job.EntryPoints, o), nil
	case config.ModeWebpack:
		return webpackArgs(job.EntryPoints, o), nil
	}
	return nil, fmt.Errorf("unknown mode %q", o.Mode)
}

func parcelArgs(entries []string, o bundler.Options) []string {
	args := []string{"build"}
	if o.Watch {
		args = []string{"watch"}
	}
	args = append(args, entries...)
	args = append(args, "--out-dir", o.OutDir, "--target", o.Target, "--log-level", strconv.Itoa(o.LogLevel))
	if o.Cache {
		args = append(args, "--cache-dir", o.CacheDir)
	} else {
		args = append(args, "--no-cache")
	}
	if o.Global != "" {
		args = append(args, "--global", o.Global)
	}
	if !o.Minify {
		args = append(args, "--no-minify")
	}
	if !o.ContentHash {
		args = append(args, "--no-content-hash")
	}
	if !o.SourceMaps {
		args = append(args, "--no-source-maps")
	}
	if o.ScopeHoist {
		args = append(args, "--experimental-scope-hoisting")
	}
	if o.BundleNodeModules {
		args = append(args, "--bundle-node-modules")
	}
	if o.DetailedReport {
		args = append(args, "--detailed-report")
	}
	if !o.AutoInstall {
		args = append(args, "--no-autoinstall")
	}
	if o.HMRPort != 0 {
		args = append(args, "--hmr-port", strconv.Itoa(o.HMRPort))
	}
	if o.HMRHostname != "" {
		args = append(args, "--hmr-hostname", o.HMRHostname)
	}
	return args
}

func webpackArgs(entries []string, o bundler.Options) []string {
	args := []string{"--mode", "development"}
	for _, e := range entries {
		args = append(args, "--entry", e)
	}
	args = append(args, "--output-path", o.OutDir)
	if o.OutputName != "" {
		args = append(args, "--output-filename", o.OutputName+".js")
	}
	if o.Devtool != "" {
		args = append(args, "--devtool", o.Devtool)
	}
	if o.Stats != "" {
		args = append(args, "--stats", o.Stats)
	}
	switch o.Target {
	case "browser":
		args = append(args, "--target", "web")
	case "node", "electron":
		args = append(args, "--target", o.Target)
	}
	if o.HasPlugin(bundler.PluginProgress) {
		args = append(args, "--progress")
	}
	if o.Watch {
		args = append(args, "--watch")
	}
	return args
}

func listOutputs(workDir, outDir string) ([]string, error) {
	root := filepath.Join(workDir, outDir)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

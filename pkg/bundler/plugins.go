package bundler

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/albertocavalcante/ubc/internal/log"
)

const assetNamespace = "ubc-asset"

// progressPlugin prints a start line and a timed completion line for every
// build, including rebuilds in serve mode.
func progressPlugin(out io.Writer, label string, profile bool) api.Plugin {
	var (
		mu    sync.Mutex
		start time.Time
	)
	return api.Plugin{
		Name: PluginProgress,
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				mu.Lock()
				start = time.Now()
				mu.Unlock()
				_, _ = fmt.Fprintf(out, "[%s] building...\n", label)
				return api.OnStartResult{}, nil
			})
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				mu.Lock()
				elapsed := time.Since(start)
				mu.Unlock()
				status := "done"
				if len(result.Errors) > 0 {
					status = "failed"
				}
				if profile {
					_, _ = fmt.Fprintf(out, "[%s] %s in %s (%d errors, %d warnings)\n",
						label, status, elapsed.Round(time.Millisecond), len(result.Errors), len(result.Warnings))
				} else {
					_, _ = fmt.Fprintf(out, "[%s] %s\n", label, status)
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

// fileLoaderPlugin emits assets matched by rules with an OutputPath as
// standalone files under outDir. A JS import of such a file becomes a module
// exporting its public path; a CSS url() is rewritten to that path.
func fileLoaderPlugin(workDir, outDir string, rules []Rule) api.Plugin {
	return api.Plugin{
		Name: "file-loader",
		Setup: func(build api.PluginBuild) {
			for i := range rules {
				rule := rules[i]
				if rule.OutputPath == "" {
					continue
				}
				var exclude *regexp.Regexp
				if rule.Exclude != "" {
					// Validated by compileRules before the build starts.
					exclude = regexp.MustCompile(rule.Exclude)
				}
				build.OnResolve(api.OnResolveOptions{Filter: rule.Test},
					func(args api.OnResolveArgs) (api.OnResolveResult, error) {
						p, ok := localPath(args)
						if !ok || (exclude != nil && exclude.MatchString(filepath.ToSlash(p))) {
							return api.OnResolveResult{}, nil
						}
						log.Trace("file-loader resolve", "path", p, "rule", rule.Kind, "kind", args.Kind)
						if args.Kind != api.ResolveCSSURLToken {
							return api.OnResolveResult{Path: p, Namespace: assetNamespace, PluginData: rule}, nil
						}
						if _, err := os.Stat(p); err != nil {
							// Unresolvable; esbuild reports it.
							return api.OnResolveResult{}, nil
						}
						name, err := emitAsset(workDir, outDir, p, rule)
						if err != nil {
							return api.OnResolveResult{}, err
						}
						return api.OnResolveResult{Path: name, External: true, WatchFiles: []string{p}}, nil
					})
			}

			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: assetNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					rule, ok := args.PluginData.(Rule)
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("file-loader: missing rule for %s", args.Path)
					}
					name, err := emitAsset(workDir, outDir, args.Path, rule)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := "export default " + strconv.Quote(name) + ";\n"
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderJS,
						ResolveDir: filepath.Dir(args.Path),
						WatchFiles: []string{args.Path},
					}, nil
				})
		},
	}
}

// localPath returns the file an import refers to when it names a project
// file. Bare, remote and root-relative specifiers are left to esbuild. CSS
// url() paths are relative even without a leading "./".
func localPath(args api.OnResolveArgs) (string, bool) {
	p := args.Path
	switch args.Kind {
	case api.ResolveJSImportStatement, api.ResolveJSRequireCall:
		if filepath.IsAbs(p) {
			return p, true
		}
		if !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") {
			return "", false
		}
	case api.ResolveCSSURLToken:
		if p == "" || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "#") || strings.Contains(p, ":") {
			return "", false
		}
	default:
		return "", false
	}
	return filepath.Join(args.ResolveDir, filepath.FromSlash(p)), true
}

// emitAsset copies file to its rule's public name under outDir and returns
// that name.
func emitAsset(workDir, outDir, file string, rule Rule) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	name := assetName(workDir, file, rule, data)
	dst := filepath.Join(outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// assetName expands a rule's Name template into a slash separated path under
// the rule's OutputPath.
func assetName(workDir, file string, rule Rule, data []byte) string {
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	dir := ""
	if rel, err := filepath.Rel(workDir, filepath.Dir(file)); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		dir = filepath.ToSlash(rel) + "/"
	}

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64(data))
	hash := hex.EncodeToString(sum[:])

	tmpl := rule.Name
	if tmpl == "" {
		tmpl = "[hash].[ext]"
	}
	name := strings.NewReplacer(
		"[path]", dir,
		"[name]", base,
		"[ext]", ext,
		"[hash]", hash,
	).Replace(tmpl)
	return strings.TrimSuffix(rule.OutputPath, "/") + "/" + name
}

// compileRules checks that every rule expression is valid for esbuild's
// filter syntax (Go regexp).
func compileRules(rules []Rule) error {
	for _, r := range rules {
		if _, err := regexp.Compile(r.Test); err != nil {
			return fmt.Errorf("rule %s: test: %w", r.Kind, err)
		}
		if r.Exclude != "" {
			if _, err := regexp.Compile(r.Exclude); err != nil {
				return fmt.Errorf("rule %s: exclude: %w", r.Kind, err)
			}
		}
	}
	return nil
}

package bundler

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/ubc/pkg/assets"
	"github.com/albertocavalcante/ubc/pkg/config"
)

func TestParcelOptionsLiteral(t *testing.T) {
	want := Options{
		Mode:              config.ModeParcel,
		OutDir:            "dist",
		Watch:             false,
		Cache:             true,
		CacheDir:          ".cache",
		ContentHash:       false,
		Global:            "moduleName",
		Minify:            false,
		ScopeHoist:        false,
		Target:            "browser",
		BundleNodeModules: true,
		LogLevel:          ReportInfo,
		HMR:               true,
		HMRPort:           0,
		SourceMaps:        true,
		HMRHostname:       "",
		DetailedReport:    false,
		AutoInstall:       true,
	}
	if diff := cmp.Diff(want, ParcelOptions()); diff != "" {
		t.Errorf("ParcelOptions() mismatch (-want +got):\n%s", diff)
	}
}

func TestWebpackOptionsLiteral(t *testing.T) {
	o := WebpackOptions()

	if o.Mode != config.ModeWebpack {
		t.Errorf("Mode = %q", o.Mode)
	}
	if o.Devtool != DevtoolInline {
		t.Errorf("Devtool = %q, want %q", o.Devtool, DevtoolInline)
	}
	if o.Stats != "errors-only" || o.LogLevel != ReportErrors {
		t.Errorf("Stats/LogLevel = %q/%d", o.Stats, o.LogLevel)
	}
	if o.OutDir != "dist" || o.OutputName != "main" {
		t.Errorf("output = %s/%s", o.OutDir, o.OutputName)
	}
	if !o.Minify || !o.ExtractComments {
		t.Error("webpack literal minimizes and extracts comments")
	}

	var outputs []string
	for _, r := range o.Rules {
		if r.OutputPath != "" {
			outputs = append(outputs, r.OutputPath+r.Name)
		}
	}
	if diff := cmp.Diff([]string{"Fonts/[hash].[ext]", "Images/[path][name].[ext]"}, outputs); diff != "" {
		t.Errorf("file-loader outputs mismatch (-want +got):\n%s", diff)
	}

	for _, p := range []string{PluginProgress, PluginBuildBar, PluginFriendlyErrors, PluginCSSExtract} {
		if !o.HasPlugin(p) {
			t.Errorf("missing plugin %q", p)
		}
	}
}

func TestOptionsAreStable(t *testing.T) {
	if diff := cmp.Diff(WebpackOptions(), WebpackOptions()); diff != "" {
		t.Errorf("WebpackOptions() is not deterministic:\n%s", diff)
	}

	a := WebpackOptions()
	a.Rules[0].Test = "mutated"
	a.Plugins[0] = "mutated"
	if WebpackOptions().Rules[0].Test != assets.FilterRegexp(assets.Script, ".js") || WebpackOptions().Plugins[0] != PluginProgress {
		t.Error("mutating a returned literal leaked into the next call")
	}
}

func TestSharedBase(t *testing.T) {
	p, w := ParcelOptions(), WebpackOptions()
	if p.OutDir != w.OutDir || p.Target != w.Target || p.SourceMaps != w.SourceMaps {
		t.Errorf("parcel and webpack literals drifted on shared fields: %+v vs %+v", p, w)
	}
}

func TestOptionsFor(t *testing.T) {
	if _, ok := OptionsFor("rollup"); ok {
		t.Error("unknown mode should not resolve")
	}
	o, ok := OptionsFor(config.ModeParcel)
	if !ok || o.Mode != config.ModeParcel {
		t.Errorf("OptionsFor(parcel) = %+v, %v", o, ok)
	}
}

func TestRuleExpressionsCompile(t *testing.T) {
	if err := compileRules(WebpackOptions().Rules); err != nil {
		t.Fatal(err)
	}

	tests := map[string]map[string]bool{
		assets.Script: {"src/index.js": true, "src/INDEX.JS": true, "src/index.jsx": false},
		assets.Style:  {"main.scss": true, "main.css": false},
		assets.Font:   {"Inter.woff2": true, "x.woff": true, "x.woff.js": false},
		assets.Image:  {"LOGO.JPG": true, "bg.jpeg": true, "logo.webp": false},
	}
	for _, r := range WebpackOptions().Rules {
		for name, want := range tests[r.Kind] {
			if got := regexp.MustCompile(r.Test).MatchString(name); got != want {
				t.Errorf("%s rule %s on %q = %v, want %v", r.Kind, r.Test, name, got, want)
			}
		}
	}
	if got, want := ruleFor(t, assets.Font).Test, assets.FilterRegexp(assets.Font); got != want {
		t.Errorf("font rule test = %q, want the assets filter %q", got, want)
	}

	if err := compileRules([]Rule{{Kind: "bad", Test: "("}}); err == nil {
		t.Error("invalid expression should fail")
	}
}

func ruleFor(t *testing.T, kind string) Rule {
	t.Helper()
	for _, r := range WebpackOptions().Rules {
		if r.Kind == kind {
			return r
		}
	}
	t.Fatalf("no %s rule", kind)
	return Rule{}
}

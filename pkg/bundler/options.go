package bundler

import (
	"github.com/albertocavalcante/ubc/pkg/assets"
	"github.com/albertocavalcante/ubc/pkg/config"
)

// Report levels, using the Parcel numbering.
const (
	ReportNothing  = 0
	ReportErrors   = 1
	ReportWarnings = 2
	ReportInfo     = 3
)

// Source map styles.
const (
	DevtoolInline = "inline-source-map"
)

// Plugins that can be named in Options.Plugins.
const (
	PluginProgress       = "progress"
	PluginBuildBar       = "build-bar"
	PluginFriendlyErrors = "friendly-errors"
	PluginCSSExtract     = "css-extract"
)

// Rule routes files matching Test through a loader chain. Rules with an
// OutputPath are emitted as standalone files under that directory of OutDir
// and referenced by their public path, from JS imports and CSS url() alike.
// Loaders and, for rules without an OutputPath, Exclude are informational for
// the esbuild engine.
type Rule struct {
	Kind       string   // assets kind the rule covers
	Test       string   // regular expression on the import path
	Exclude    string   // regular expression on the resolved path; matches are left alone
	Loaders    []string // loader chain, informational for the esbuild engine
	OutputPath string   // e.g. "Fonts/"
	Name       string   // file name template: [path] [name] [ext] [hash]
}

// Options is the static option record handed to a bundler. Values come only
// from ParcelOptions or WebpackOptions and never from ubc.yaml.
type Options struct {
	Mode string // build mode this literal belongs to

	OutDir      string
	OutputName  string // fixed entry output name; "" keeps the entry's own name
	ContentHash bool
	Global      string // IIFE global name; "" for none
	Target      string // browser, node or electron
	Language    string // syntax target for transpilation, e.g. es2015

	Minify          bool
	ExtractComments bool
	ScopeHoist      bool

	SourceMaps bool
	Devtool    string

	Cache    bool
	CacheDir string

	BundleNodeModules bool
	AutoInstall       bool
	Watch             bool

	LogLevel       int
	Stats          string
	DetailedReport bool

	HMR         bool
	HMRPort     int
	HMRHostname string

	Rules   []Rule
	Plugins []string
}

// base holds what both modes share.
func base() Options {
	return Options{
		OutDir:            "dist",
		Target:            "browser",
		SourceMaps:        true,
		BundleNodeModules: true,
	}
}

// ParcelOptions returns the option literal for Parcel-style builds, where the
// imports themselves are the entry points.
func ParcelOptions() Options {
	o := base()
	o.Mode = config.ModeParcel
	// Zero values are spelled out to mirror the Parcel option list.
	o.Watch = false
	o.Cache = true
	o.CacheDir = ".cache"
	o.ContentHash = false
	o.Global = "moduleName"
	o.Minify = false
	o.ScopeHoist = false
	o.LogLevel = ReportInfo
	o.HMR = true
	o.HMRPort = 0
	o.HMRHostname = ""
	o.DetailedReport = false
	o.AutoInstall = true
	return o
}

// WebpackOptions returns the option literal for Webpack-style builds, where a
// generated entry file is bundled.
func WebpackOptions() Options {
	o := base()
	o.Mode = config.ModeWebpack
	o.OutputName = "main"
	o.Devtool = DevtoolInline
	o.Stats = "errors-only"
	o.LogLevel = ReportErrors
	o.Minify = true
	o.ExtractComments = true
	o.Language = "es2015"
	o.Rules = []Rule{
		{
			Kind:    assets.Script,
			Test:    assets.FilterRegexp(assets.Script, ".js"),
			Exclude: `node_modules`,
			Loaders: []string{"eslint-loader", "babel-loader"},
		},
		{
			Kind:    assets.Style,
			Test:    assets.FilterRegexp(assets.Style, ".scss"),
			Loaders: []string{"mini-css-extract", "css-loader", "resolve-url-loader", "postcss-loader", "sass-loader"},
		},
		{
			Kind:       assets.Font,
			Test:       assets.FilterRegexp(assets.Font),
			Loaders:    []string{"file-loader"},
			OutputPath: "Fonts/",
			Name:       "[hash].[ext]",
		},
		{
			Kind:       assets.Image,
			Test:       assets.FilterRegexp(assets.Image),
			Loaders:    []string{"file-loader"},
			OutputPath: "Images/",
			Name:       "[path][name].[ext]",
		},
	}
	o.Plugins = []string{
		PluginProgress,
		PluginBuildBar,
		PluginFriendlyErrors,
		PluginCSSExtract,
	}
	return o
}

// OptionsFor returns the literal for a mode.
func OptionsFor(mode string) (Options, bool) {
	switch mode {
	case config.ModeParcel:
		return ParcelOptions(), true
	case config.ModeWebpack:
		return WebpackOptions(), true
	}
	return Options{}, false
}

// HasPlugin reports whether a named plugin is enabled.
func (o Options) HasPlugin(name string) bool {
	for _, p := range o.Plugins {
		if p == name {
			return true
		}
	}
	return false
}

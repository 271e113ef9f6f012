package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BuildConfigFileName is the fixed name of the build configuration.
const BuildConfigFileName = "ubc.yaml"

var (
	// ErrBuildConfigNotFound is returned when ubc.yaml is missing or unreadable.
	ErrBuildConfigNotFound = errors.New("no ubc.yaml config found")

	// ErrInvalidBuildConfig is returned when ubc.yaml is not valid YAML for
	// the expected schema.
	ErrInvalidBuildConfig = errors.New("invalid ubc.yaml")
)

// BuildConfig is the parsed ubc.yaml. It is immutable after load.
type BuildConfig struct {
	// Imports is the ordered list of module paths to include.
	Imports []string `yaml:"imports"`
}

// LoadBuildConfig reads ubc.yaml from the current working directory.
func LoadBuildConfig() (*BuildConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildConfigNotFound, err)
	}
	return LoadBuildConfigFrom(wd)
}

// LoadBuildConfigFrom reads ubc.yaml from dir.
func LoadBuildConfigFrom(dir string) (*BuildConfig, error) {
	path := filepath.Join(dir, BuildConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildConfigNotFound, err)
	}
	return ParseBuildConfig(data)
}

// ParseBuildConfig decodes a ubc.yaml document. An empty document yields a
// config with no imports.
func ParseBuildConfig(data []byte) (*BuildConfig, error) {
	var cfg BuildConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBuildConfig, err)
	}
	return &cfg, nil
}

// StarterBuildConfig is written by `ubc init`.
const StarterBuildConfig = `# ubc.yaml - modules bundled by ubc, in order.
imports:
  - ./src/index.js
  - ./src/styles/main.scss
`

package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadBuildConfigFrom(t *testing.T) {
	dir := t.TempDir()
	content := `imports:
  - ./src/a.js
  - lodash
  - ./styles/main.scss
`
	if err := os.WriteFile(filepath.Join(dir, BuildConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadBuildConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadBuildConfigFrom() error = %v", err)
	}

	want := []string{"./src/a.js", "lodash", "./styles/main.scss"}
	if !slices.Equal(cfg.Imports, want) {
		t.Errorf("Imports = %v, want %v", cfg.Imports, want)
	}
}

func TestLoadBuildConfigFrom_Missing(t *testing.T) {
	_, err := LoadBuildConfigFrom(t.TempDir())
	if !errors.Is(err, ErrBuildConfigNotFound) {
		t.Fatalf("error = %v, want ErrBuildConfigNotFound", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should also wrap os.ErrNotExist, got %v", err)
	}
}

func TestParseBuildConfig(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "empty document", input: "", want: nil},
		{name: "empty list", input: "imports: []\n", want: []string{}},
		{name: "unknown keys ignored", input: "name: demo\nimports: [a]\n", want: []string{"a"}},
		{name: "flow sequence keeps order", input: "imports: [c, b, a]\n", want: []string{"c", "b", "a"}},
		{name: "imports as mapping", input: "imports:\n  a: b\n", wantErr: true},
		{name: "not yaml", input: "imports: [a\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseBuildConfig([]byte(tt.input))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidBuildConfig) {
					t.Fatalf("error = %v, want ErrInvalidBuildConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBuildConfig() error = %v", err)
			}
			if len(cfg.Imports) != len(tt.want) || !slices.Equal(cfg.Imports, tt.want) {
				t.Errorf("Imports = %#v, want %#v", cfg.Imports, tt.want)
			}
		})
	}
}

func TestStarterBuildConfigParses(t *testing.T) {
	cfg, err := ParseBuildConfig([]byte(StarterBuildConfig))
	if err != nil {
		t.Fatalf("starter config should parse: %v", err)
	}
	if len(cfg.Imports) == 0 {
		t.Error("starter config should list at least one import")
	}
}

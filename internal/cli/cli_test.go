package cli

import (
	"testing"

	"github.com/spf13/cobra"
)

// TestNoFlagConflicts verifies that every subcommand can merge its flags with
// the persistent ones without shorthand conflicts.
func TestNoFlagConflicts(t *testing.T) {
	root := RootCmd()
	if root == nil {
		t.Fatal("RootCmd() returned nil")
	}

	subcommands := root.Commands()
	if len(subcommands) == 0 {
		t.Fatal("expected at least one subcommand")
	}

	for _, cmd := range subcommands {
		t.Run(cmd.Name(), func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("flag conflict in %q command: %v", cmd.Name(), r)
				}
			}()
			_ = cmd.Flags()
			_ = cmd.InheritedFlags()
		})
	}
}

// TestGlobalVerbosityFlag verifies the global -v flag exists and is properly configured.
func TestGlobalVerbosityFlag(t *testing.T) {
	vFlag := RootCmd().PersistentFlags().Lookup("verbosity")
	if vFlag == nil {
		t.Fatal("expected persistent 'verbosity' flag on root command")
	}
	if vFlag.Shorthand != "v" {
		t.Errorf("expected verbosity flag shorthand to be 'v', got %q", vFlag.Shorthand)
	}
	if RootCmd().PersistentFlags().Lookup("log-format") == nil {
		t.Error("expected persistent 'log-format' flag on root command")
	}
}

// TestSubcommandsExist verifies expected subcommands are registered.
func TestSubcommandsExist(t *testing.T) {
	expected := []string{"version", "build", "parcel", "webpack", "watch", "serve", "init", "clean", "status"}
	for _, name := range expected {
		if findCommand(t, name) == nil {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestBuildFlagDefaults(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"engine", "esbuild"},
		{"delay", "200ms"},
		{"no-banner", "false"},
		{"no-cache", "false"},
	}

	cmds := []*cobra.Command{RootCmd()}
	for _, name := range []string{"build", "parcel", "webpack", "watch"} {
		cmds = append(cmds, findCommand(t, name))
	}
	for _, cmd := range cmds {
		for _, tt := range tests {
			f := cmd.Flags().Lookup(tt.flag)
			if f == nil {
				t.Errorf("%s: missing --%s", cmd.Name(), tt.flag)
				continue
			}
			if f.DefValue != tt.want {
				t.Errorf("%s --%s default = %q, want %q", cmd.Name(), tt.flag, f.DefValue, tt.want)
			}
		}
	}
}

func TestStatusFlagDefaults(t *testing.T) {
	cmd := findCommand(t, "status")
	if f := cmd.Flags().Lookup("mode"); f == nil || f.DefValue != "parcel" {
		t.Errorf("status --mode should default to parcel, got %+v", f)
	}
	if f := cmd.Flags().Lookup("json"); f == nil || f.DefValue != "false" {
		t.Errorf("status --json should default to false, got %+v", f)
	}
}

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, c := range RootCmd().Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

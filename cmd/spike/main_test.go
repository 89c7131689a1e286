package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newTestRootCmd creates a root command with the global flags but no
// subcommands.
func newTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "spike",
		SilenceUsage: true,
	}
	addGlobalFlags(rootCmd)
	return rootCmd
}

// isolateHome sets HOME to a temp directory to avoid touching the real
// ~/.spike/.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0700); err != nil {
		t.Fatalf("Failed to create temp home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("SPIKE_LOG_LEVEL", "")
	t.Setenv("SPIKE_TRACE_PATH", "")
	return home
}

// execute runs args against a root command holding sub and returns stdout.
func execute(t *testing.T, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(sub)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// executeWithInput is execute with stdin set to input.
func executeWithInput(t *testing.T, sub *cobra.Command, input string, args ...string) (string, error) {
	t.Helper()
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(sub)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func scenarioPath(name string) string {
	return filepath.Join("..", "..", "scenarios", name)
}

func TestRootCommandsRegistered(t *testing.T) {
	root := newRootCmd()
	want := []string{"version", "config", "run", "shell", "graph", "trace", "mcp-server"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, newVersionCmd(), "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "spike version "+version) {
		t.Errorf("unexpected output %q", out)
	}

	out, err = execute(t, newVersionCmd(), "version", "--json")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if got["version"] != version {
		t.Errorf("version = %q, want %q", got["version"], version)
	}
}

func TestLoadConfig_LogLevelFlag(t *testing.T) {
	isolateHome(t)
	rootCmd := newTestRootCmd()
	var got string
	rootCmd.AddCommand(&cobra.Command{
		Use: "probe",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			got = cfg.Logging.Level
			return nil
		},
	})
	rootCmd.SetArgs([]string{"probe", "--log-level", "debug"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if got != "debug" {
		t.Errorf("level = %q, want debug", got)
	}

	rootCmd.SetArgs([]string{"probe", "--log-level", "loud"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected invalid log level to fail")
	}
}

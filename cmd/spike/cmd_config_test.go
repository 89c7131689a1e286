package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigList(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, newConfigCmd(), "config", "list")
	if err != nil {
		t.Fatalf("config list failed: %v", err)
	}
	for _, want := range []string{"tau: 12.5", "sub_steps: 2", "weight_max: 5", "tick_interval: 100ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("config list missing %q:\n%s", want, out)
		}
	}
}

func TestConfigGet(t *testing.T) {
	isolateHome(t)

	out, err := execute(t, newConfigCmd(), "config", "get", "model.a")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "model.a = -0.7" {
		t.Errorf("got %q", out)
	}

	if _, err := execute(t, newConfigCmd(), "config", "get", "model.nope"); err == nil {
		t.Error("expected unknown key to fail")
	}
}

func TestConfigFileFlag(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("clock:\n  sub_steps: 4\n"), 0600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, newConfigCmd(), "config", "get", "clock.sub_steps", "--config", path)
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "clock.sub_steps = 4" {
		t.Errorf("got %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	home := isolateHome(t)

	if _, err := execute(t, newConfigCmd(), "config", "init"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	path := filepath.Join(home, ".spike", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := execute(t, newConfigCmd(), "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := execute(t, newConfigCmd(), "config", "init", "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}

	out, err := execute(t, newConfigCmd(), "config", "get", "links.weight_default")
	if err != nil {
		t.Fatalf("config get failed: %v", err)
	}
	if strings.TrimSpace(out) != "links.weight_default = 0.5" {
		t.Errorf("got %q", out)
	}
}

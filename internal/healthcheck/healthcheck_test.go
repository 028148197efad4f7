package healthcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/go-dataflow/internal/config"
	"github.com/l3aro/go-dataflow/pkg/cache"
	"github.com/l3aro/go-dataflow/pkg/report"
)

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(nil, "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckReady(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	out := filepath.Join(root, "out")
	for _, dir := range []string{in, out} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(in, "cfg1.txt"), []byte("1 0\n0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.InputDir = in
	cfg.OutputDir = out

	result, err := Check(cfg, "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Input.Status != StatusReady || result.Input.Detail != "1 input file(s)" {
		t.Errorf("Input = %+v", result.Input)
	}
	if result.Output.Status != StatusReady {
		t.Errorf("Output = %+v", result.Output)
	}
	if result.Cache.Status != StatusDisabled {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusDisabled)
	}
	if !result.OK() {
		t.Error("OK() = false, want true")
	}

	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("write check file left behind: %v", entries)
	}
}

func TestCheckMissingDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")

	result, err := Check(cfg, "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Input.Status != StatusMissing {
		t.Errorf("Input.Status = %q, want %q", result.Input.Status, StatusMissing)
	}
	if result.Output.Status != StatusMissing {
		t.Errorf("Output.Status = %q, want %q", result.Output.Status, StatusMissing)
	}
	if result.OK() {
		t.Error("OK() = true with a missing input directory")
	}
}

func TestCheckInputPattern(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.cfg"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("1 0\n0\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.DefaultConfig()
	cfg.InputDir = root
	cfg.InputPattern = "*.txt"

	status := checkInput(cfg.InputDir, cfg.ScanOptions())
	if status.Status != StatusReady || status.Detail != "2 input file(s)" {
		t.Errorf("checkInput() = %+v", status)
	}
}

func TestCheckOutputIsFile(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out")
	if err := os.WriteFile(out, nil, 0644); err != nil {
		t.Fatal(err)
	}

	status := checkOutput(out)
	if status.Status != StatusError {
		t.Errorf("Status = %q, want %q", status.Status, StatusError)
	}
}

func TestCheckCache(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "cache.msgpack")

	c := cache.New(0)
	c.Put("k", &report.Report{Analysis: "live-variables", Title: "Live Variables"})
	if err := c.SaveFile(path); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.CacheEnabled = true
	cfg.CachePath = path

	status := checkCache(cfg)
	if status.Status != StatusReady || status.Detail != "1 cached report(s)" {
		t.Errorf("checkCache() = %+v", status)
	}

	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if status := checkCache(cfg); status.Status != StatusError {
		t.Errorf("checkCache() on a corrupt file = %+v", status)
	}
}

func TestScopeFromPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{filepath.Join(home, ".dfa", "config.yaml"), "global"},
		{filepath.Join(".dfa", "config.yaml"), "project"},
	}
	for _, tt := range tests {
		if got := scopeFromPath(tt.path); got != tt.want {
			t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

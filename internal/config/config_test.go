package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"InputDir", cfg.InputDir, "in"},
		{"InputPattern", cfg.InputPattern, ""},
		{"FollowSymlinks", cfg.FollowSymlinks, false},
		{"OutputDir", cfg.OutputDir, "out"},
		{"Format", cfg.Format, "text"},
		{"Workers", cfg.Workers, 0},
		{"CacheEnabled", cfg.CacheEnabled, false},
		{"CachePath", cfg.CachePath, filepath.Join(".dfa", "cache.msgpack")},
		{"CacheMaxEntries", cfg.CacheMaxEntries, 256},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogJSON", cfg.LogJSON, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
	kinds, err := cfg.Kinds()
	if err != nil || len(kinds) != 3 {
		t.Errorf("DefaultConfig().Kinds() = %v, %v; want all three analyses", kinds, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing input dir", func(c *Config) { c.InputDir = "" }, "input_dir"},
		{"bad input pattern", func(c *Config) { c.InputPattern = "[" }, "input_pattern"},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }, "output_dir"},
		{"unknown analysis", func(c *Config) { c.Analyses = []string{"rd", "taint"} }, "unknown analysis"},
		{"unknown format", func(c *Config) { c.Format = "xml" }, "invalid format"},
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"cache without path", func(c *Config) { c.CacheEnabled = true; c.CachePath = "" }, "cache_path"},
		{"negative cache size", func(c *Config) { c.CacheMaxEntries = -5 }, "cache_max_entries"},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.InputDir = "cfgs"
	cfg.Analyses = []string{"lv"}
	cfg.Format = "json"
	cfg.Workers = 4
	cfg.CacheEnabled = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("LoadFromFile() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadFromFile() on a missing file should fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("workers: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("LoadFromFile() on malformed YAML should fail")
	}

	invalid := filepath.Join(dir, "invalid.yaml")
	if err := os.WriteFile(invalid, []byte("format: xml\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(invalid); err == nil {
		t.Error("LoadFromFile() should validate the result")
	}
}

func TestLoad_Layering(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, project)

	global := "input_dir: global-in\noutput_dir: global-out\nworkers: 2\n"
	if err := os.MkdirAll(filepath.Join(home, ".dfa"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, ".dfa", "config.yaml"), []byte(global), 0644); err != nil {
		t.Fatal(err)
	}

	local := "output_dir: project-out\n"
	if err := os.MkdirAll(".dfa", 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ProjectConfigFilePath(), []byte(local), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DFA_WORKERS", "8")
	t.Setenv("DFA_ANALYSES", "ae, rd")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InputDir != "global-in" {
		t.Errorf("InputDir = %q, want global-in", cfg.InputDir)
	}
	if cfg.OutputDir != "project-out" {
		t.Errorf("OutputDir = %q, want project-out", cfg.OutputDir)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
	if !reflect.DeepEqual(cfg.Analyses, []string{"ae", "rd"}) {
		t.Errorf("Analyses = %v, want [ae rd]", cfg.Analyses)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DFA_INPUT_DIR", "/data/in")
	t.Setenv("DFA_INPUT_PATTERN", "*.cfg")
	t.Setenv("DFA_FOLLOW_SYMLINKS", "true")
	t.Setenv("DFA_OUTPUT_DIR", "/data/out")
	t.Setenv("DFA_FORMAT", "msgpack")
	t.Setenv("DFA_WORKERS", "not-a-number")
	t.Setenv("DFA_CACHE_ENABLED", "yes")
	t.Setenv("DFA_CACHE_PATH", "/tmp/c.msgpack")
	t.Setenv("DFA_CACHE_MAX_ENTRIES", "10")
	t.Setenv("DFA_LOG_LEVEL", "debug")
	t.Setenv("DFA_LOG_JSON", "1")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	want := &Config{
		InputDir:        "/data/in",
		InputPattern:    "*.cfg",
		FollowSymlinks:  true,
		OutputDir:       "/data/out",
		Analyses:        []string{"rd", "lv", "ae"},
		Format:          "msgpack",
		Workers:         0,
		CacheEnabled:    true,
		CachePath:       "/tmp/c.msgpack",
		CacheMaxEntries: 10,
		LogLevel:        "debug",
		LogJSON:         true,
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("applyEnvOverrides() = %+v, want %+v", cfg, want)
	}
}

func TestReadFile_DoesNotValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("format: xml\ninput_pattern: \"*.txt\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if cfg.Format != "xml" || cfg.InputPattern != "*.txt" {
		t.Errorf("ReadFile() = %+v", cfg)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("LoadFromFile() should reject format xml")
	}
}

func TestScanOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputPattern = "*.cfg"
	cfg.FollowSymlinks = true

	opts := cfg.ScanOptions()
	if !opts.SkipHidden || !opts.FollowSymlinks || opts.Pattern != "*.cfg" {
		t.Errorf("ScanOptions() = %+v", opts)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" rd ,, lv,")
	if !reflect.DeepEqual(got, []string{"rd", "lv"}) {
		t.Errorf("splitList() = %v", got)
	}
}

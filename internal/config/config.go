package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-dataflow/internal/log"
	"github.com/l3aro/go-dataflow/internal/scanner"
	"github.com/l3aro/go-dataflow/pkg/dfg"
	"github.com/l3aro/go-dataflow/pkg/report"
)

// Config holds all configuration for dfa
type Config struct {
	// Directory holding one CFG per file
	InputDir string `yaml:"input_dir" env:"DFA_INPUT_DIR"`

	// Optional filepath.Match pattern selecting input files by name
	InputPattern string `yaml:"input_pattern" env:"DFA_INPUT_PATTERN"`

	// Follow symlinks to regular files inside the input directory
	FollowSymlinks bool `yaml:"follow_symlinks" env:"DFA_FOLLOW_SYMLINKS"`

	// Directory receiving the reports
	OutputDir string `yaml:"output_dir" env:"DFA_OUTPUT_DIR"`

	// Analyses to run, by name or alias (rd, lv, ae)
	Analyses []string `yaml:"analyses" env:"DFA_ANALYSES"`

	// Report encoding: text, json or msgpack
	Format string `yaml:"format" env:"DFA_FORMAT"`

	// Files analysed concurrently; 0 uses GOMAXPROCS
	Workers int `yaml:"workers" env:"DFA_WORKERS"`

	// Report cache
	CacheEnabled    bool   `yaml:"cache_enabled" env:"DFA_CACHE_ENABLED"`
	CachePath       string `yaml:"cache_path" env:"DFA_CACHE_PATH"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"DFA_CACHE_MAX_ENTRIES"`

	// Logging
	LogLevel string `yaml:"log_level" env:"DFA_LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"DFA_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		InputDir:        "in",
		InputPattern:    "",
		FollowSymlinks:  false,
		OutputDir:       "out",
		Analyses:        []string{"rd", "lv", "ae"},
		Format:          string(report.FormatText),
		Workers:         0,
		CacheEnabled:    false,
		CachePath:       filepath.Join(".dfa", "cache.msgpack"),
		CacheMaxEntries: 256,
		LogLevel:        "info",
		LogJSON:         false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.dfa/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ProjectConfigFilePath()
	}
	return filepath.Join(home, ".dfa", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.dfa/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".dfa", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.dfa/config.yaml)
// 3. Global config (~/.dfa/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read layers configuration like Load but leaves validation to the caller,
// so command line flags can be applied first.
func Read() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile is LoadFromFile without validation.
func ReadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DFA_INPUT_DIR"); v != "" {
		cfg.InputDir = v
	}
	if v := os.Getenv("DFA_INPUT_PATTERN"); v != "" {
		cfg.InputPattern = v
	}
	if v := os.Getenv("DFA_FOLLOW_SYMLINKS"); v != "" {
		cfg.FollowSymlinks = parseBool(v)
	}
	if v := os.Getenv("DFA_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("DFA_ANALYSES"); v != "" {
		cfg.Analyses = splitList(v)
	}
	if v := os.Getenv("DFA_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("DFA_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("DFA_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("DFA_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("DFA_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("DFA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DFA_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input_dir is required")
	}
	if _, err := filepath.Match(c.InputPattern, ""); err != nil {
		return fmt.Errorf("invalid input_pattern %q: %w", c.InputPattern, err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if _, err := dfg.ParseKinds(c.Analyses); err != nil {
		return fmt.Errorf("invalid analyses: %w", err)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.CacheEnabled && c.CachePath == "" {
		return fmt.Errorf("cache_path is required when cache_enabled is true")
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("cache_max_entries must be non-negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	return nil
}

// ScanOptions returns the scanner options for the input directory.
func (c *Config) ScanOptions() scanner.Options {
	opts := scanner.DefaultOptions()
	opts.Pattern = c.InputPattern
	opts.FollowSymlinks = c.FollowSymlinks
	return opts
}

// Kinds resolves the configured analyses.
func (c *Config) Kinds() ([]dfg.Kind, error) {
	return dfg.ParseKinds(c.Analyses)
}

// ReportFormat resolves the configured format.
func (c *Config) ReportFormat() (report.Format, error) {
	return report.ParseFormat(c.Format)
}

// Logger builds a logger from the logging settings.
func (c *Config) Logger() *log.DefaultLogger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.New(log.LoggerConfig{Level: level, JSONOutput: c.LogJSON})
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}

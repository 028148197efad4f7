package healthcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-dataflow/internal/config"
	"github.com/l3aro/go-dataflow/internal/scanner"
	"github.com/l3aro/go-dataflow/pkg/cache"
)

// Status values reported for each check.
const (
	StatusReady    = "ready"
	StatusMissing  = "missing"
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// CheckStatus represents the outcome of one check.
type CheckStatus struct {
	Path   string
	Status string
	Detail string
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath  string
	SavedScope string // "global" or "project"
	Input      CheckStatus
	Output     CheckStatus
	Cache      CheckStatus
}

// OK reports whether a run with this configuration can proceed.
func (r *HealthCheckResult) OK() bool {
	return r.Input.Status == StatusReady &&
		r.Output.Status != StatusError &&
		r.Cache.Status != StatusError
}

// Check inspects the directories and cache named by cfg.
// savedPath is the config file in use (may be empty when only defaults apply).
func Check(cfg *config.Config, savedPath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	return &HealthCheckResult{
		SavedPath:  savedPath,
		SavedScope: scopeFromPath(savedPath),
		Input:      checkInput(cfg.InputDir, cfg.ScanOptions()),
		Output:     checkOutput(cfg.OutputDir),
		Cache:      checkCache(cfg),
	}, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}

	home, err := os.UserHomeDir()
	if err == nil {
		globalDir := filepath.Join(home, ".dfa")
		if strings.HasPrefix(path, globalDir) {
			return "global"
		}
	}

	return "project"
}

func checkInput(dir string, opts scanner.Options) CheckStatus {
	status := CheckStatus{Path: dir}

	files, err := scanner.New(opts).Scan(dir)
	if err != nil {
		if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
			status.Status = StatusMissing
			status.Error = "input directory does not exist"
			return status
		}
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	status.Status = StatusReady
	status.Detail = fmt.Sprintf("%d input file(s)", len(files))
	return status
}

// checkOutput verifies the output directory is writable. A missing directory
// is fine as long as its parent exists; the run creates it.
func checkOutput(dir string) CheckStatus {
	status := CheckStatus{Path: dir}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if _, perr := os.Stat(filepath.Dir(filepath.Clean(dir))); perr != nil {
			status.Status = StatusError
			status.Error = fmt.Sprintf("parent of %s is not accessible: %v", dir, perr)
			return status
		}
		status.Status = StatusMissing
		status.Detail = "will be created on first run"
		return status
	}
	if err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}
	if !info.IsDir() {
		status.Status = StatusError
		status.Error = "not a directory"
		return status
	}

	tmp, err := os.CreateTemp(dir, ".dfa-write-check-*")
	if err != nil {
		status.Status = StatusError
		status.Error = fmt.Sprintf("not writable: %v", err)
		return status
	}
	tmp.Close()
	os.Remove(tmp.Name())

	status.Status = StatusReady
	return status
}

func checkCache(cfg *config.Config) CheckStatus {
	status := CheckStatus{Path: cfg.CachePath}
	if !cfg.CacheEnabled {
		status.Status = StatusDisabled
		return status
	}

	c := cache.New(cfg.CacheMaxEntries)
	if err := c.LoadFile(cfg.CachePath); err != nil {
		status.Status = StatusError
		status.Error = err.Error()
		return status
	}

	status.Status = StatusReady
	status.Detail = fmt.Sprintf("%d cached report(s)", c.Len())
	return status
}

// Package scanner lists the CFG files of an input directory.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Name     string // Base name
	FullPath string // Absolute path
	Stem     string // Name without its final extension
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden     bool   // Skip hidden files (starting with .)
	FollowSymlinks bool   // Follow symlinks to regular files within root
	Pattern        string // Optional filepath.Match pattern on the base name
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		FollowSymlinks: false,
	}
}

// Scanner lists input files.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan returns the regular files directly inside root, sorted by name.
// Subdirectories are not descended into.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	// Symlink targets are compared against the resolved root.
	realRoot := absRoot
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		realRoot = resolved
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if s.opts.SkipHidden && isHidden(name) {
			continue
		}
		if s.opts.Pattern != "" {
			ok, err := filepath.Match(s.opts.Pattern, name)
			if err != nil {
				return nil, fmt.Errorf("matching pattern %q: %w", s.opts.Pattern, err)
			}
			if !ok {
				continue
			}
		}

		path := filepath.Join(absRoot, name)
		info, ok := s.regular(realRoot, path, entry)
		if !ok {
			continue
		}

		files = append(files, FileInfo{
			Name:     name,
			FullPath: path,
			Stem:     Stem(name),
			Size:     info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// regular resolves entry to a regular file, following a symlink when allowed.
func (s *Scanner) regular(root, path string, entry os.DirEntry) (os.FileInfo, bool) {
	info, err := entry.Info()
	if err != nil {
		return nil, false
	}
	if info.Mode().IsRegular() {
		return info, true
	}
	if info.Mode()&os.ModeSymlink == 0 || !s.opts.FollowSymlinks {
		return nil, false
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, false // Skip broken symlinks
	}
	realAbs, err := filepath.Abs(realPath)
	if err != nil {
		return nil, false
	}
	// Ensure symlink target is within root
	if !strings.HasPrefix(realAbs, root+string(filepath.Separator)) {
		return nil, false
	}
	target, err := os.Stat(realAbs)
	if err != nil || !target.Mode().IsRegular() {
		return nil, false
	}
	return target, true
}

// isHidden checks if a file name indicates it's hidden.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Stem strips the final extension: "cfg1.txt" -> "cfg1", "README" -> "README".
func Stem(name string) string {
	if ext := filepath.Ext(name); ext != "" && ext != name {
		return strings.TrimSuffix(name, ext)
	}
	return name
}

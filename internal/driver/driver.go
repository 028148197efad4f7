// Package driver runs the analyses over every CFG file of a directory and
// writes one report per file and analysis.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/l3aro/go-dataflow/internal/log"
	"github.com/l3aro/go-dataflow/internal/scanner"
	"github.com/l3aro/go-dataflow/pkg/cache"
	"github.com/l3aro/go-dataflow/pkg/cfg"
	"github.com/l3aro/go-dataflow/pkg/dfg"
	"github.com/l3aro/go-dataflow/pkg/report"
)

// ErrInputDirMissing is returned when the input directory does not exist.
var ErrInputDirMissing = errors.New("input directory does not exist")

// Options configures a batch run.
type Options struct {
	InputDir       string
	Pattern        string // filepath.Match pattern on input file names
	FollowSymlinks bool   // follow symlinks to files inside InputDir
	OutputDir      string
	Kinds          []dfg.Kind    // empty means every analysis
	Format         report.Format // empty means text
	Workers        int           // 0 uses GOMAXPROCS
	Cache          *cache.Cache  // nil disables caching
	Logger         log.Logger
}

// FileResult describes what happened to one input file.
type FileResult struct {
	Name    string
	Outputs []string // written report paths
	Cached  int      // reports served from the cache
	Err     error    // set when the file was skipped
}

// Summary totals a batch run.
type Summary struct {
	Processed int
	Failed    int
	Cached    int
	Files     []FileResult
}

// Run analyses every regular, non-hidden file of opts.InputDir whose name
// matches opts.Pattern. A file that cannot be read or parsed is logged and
// skipped; failures writing output abort the run.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = dfg.Kinds()
	}
	format := opts.Format
	if format == "" {
		format = report.FormatText
	}

	info, err := os.Stat(opts.InputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputDirMissing, opts.InputDir)
		}
		return nil, fmt.Errorf("checking input directory %s: %w", opts.InputDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", opts.InputDir)
	}

	scanOpts := scanner.DefaultOptions()
	scanOpts.Pattern = opts.Pattern
	scanOpts.FollowSymlinks = opts.FollowSymlinks
	files, err := scanner.New(scanOpts).Scan(opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.InputDir, err)
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", opts.OutputDir, err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger.Debug("starting run", "input", opts.InputDir, "files", len(files), "workers", workers)

	results := make([]FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := processFile(file, kinds, format, opts, logger)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{Files: results}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Processed++
		summary.Cached += r.Cached
	}
	logger.Info("run complete", "processed", summary.Processed, "failed", summary.Failed, "cached", summary.Cached)
	return summary, nil
}

// processFile handles one input. The returned error is fatal to the run;
// per-file problems are recorded in FileResult.Err.
func processFile(file scanner.FileInfo, kinds []dfg.Kind, format report.Format, opts Options, logger log.Logger) (FileResult, error) {
	res := FileResult{Name: file.Name}

	content, err := os.ReadFile(file.FullPath)
	if err != nil {
		res.Err = fmt.Errorf("reading %s: %w", file.Name, err)
		logger.Error("skipping file", "file", file.Name, "error", err)
		return res, nil
	}

	analysis, err := Analyze(content, kinds, opts.Cache)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", file.Name, err)
		logger.Error("skipping malformed file", "file", file.Name, "error", err)
		return res, nil
	}
	res.Cached = analysis.Cached
	if analysis.Cached > 0 {
		logger.Debug("cache hit", "file", file.Name, "reports", analysis.Cached)
	}

	if g := analysis.Graph; g != nil {
		for _, e := range g.Dangling {
			logger.Debug("dangling successor", "file", file.Name, "from", e.From, "to", e.To)
		}
		if ids := g.Unreachable(); len(ids) > 0 {
			logger.Debug("unreachable blocks", "file", file.Name, "blocks", ids)
		}
	}

	for i, k := range kinds {
		r := analysis.Reports[i]
		name := fmt.Sprintf("%s_%s.%s", file.Stem, k.Suffix(), format.Extension())
		path := filepath.Join(opts.OutputDir, name)
		if err := writeReport(path, r, format); err != nil {
			return res, err
		}
		logger.Debug("wrote report", "file", file.Name, "analysis", string(k), "passes", r.Passes, "output", path)
		res.Outputs = append(res.Outputs, path)
	}
	logger.Info("analysed file", "file", file.Name, "reports", len(res.Outputs))
	return res, nil
}

// Analysis is the outcome of Analyze.
type Analysis struct {
	Graph   *cfg.Graph       // nil when every report came from the cache
	Reports []*report.Report // one per requested kind, in order
	Cached  int
}

// Analyze parses content and runs kinds over it, consulting c when non-nil.
func Analyze(content []byte, kinds []dfg.Kind, c *cache.Cache) (*Analysis, error) {
	a := &Analysis{Reports: make([]*report.Report, len(kinds))}

	var missing []int
	for i, k := range kinds {
		if c != nil {
			if r, ok := c.Get(cache.Key(content, string(k))); ok {
				a.Reports[i] = r
				a.Cached++
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return a, nil
	}

	g, err := cfg.ParseReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	a.Graph = g

	for _, i := range missing {
		r, err := dfg.Run(g, kinds[i])
		if err != nil {
			return nil, err
		}
		a.Reports[i] = r
		if c != nil {
			c.Put(cache.Key(content, string(kinds[i])), r)
		}
	}
	return a, nil
}

func writeReport(path string, r *report.Report, format report.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	if err := report.Encode(f, r, format); err != nil {
		f.Close()
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

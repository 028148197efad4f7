package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-dataflow/internal/config"
	"github.com/l3aro/go-dataflow/internal/driver"
	"github.com/l3aro/go-dataflow/internal/log"
	"github.com/l3aro/go-dataflow/pkg/cache"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyse every CFG file of the input directory",
	Long: `Reads each regular, non-hidden file of the input directory as a control
flow graph and writes <name>_rd, <name>_lv and <name>_ae reports to the
output directory. Malformed files are reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configForRun(cmd)
		if err != nil {
			return err
		}

		logger := cfg.Logger()
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetLevel(log.DebugLevel)
		}

		kinds, err := cfg.Kinds()
		if err != nil {
			return err
		}
		format, err := cfg.ReportFormat()
		if err != nil {
			return err
		}

		var c *cache.Cache
		if cfg.CacheEnabled {
			c = cache.New(cfg.CacheMaxEntries)
			if err := c.LoadFile(cfg.CachePath); err != nil {
				logger.Warn("ignoring unreadable cache", "path", cfg.CachePath, "error", err)
				c = cache.New(cfg.CacheMaxEntries)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		summary, err := driver.Run(ctx, driver.Options{
			InputDir:       cfg.InputDir,
			Pattern:        cfg.InputPattern,
			FollowSymlinks: cfg.FollowSymlinks,
			OutputDir:      cfg.OutputDir,
			Kinds:          kinds,
			Format:         format,
			Workers:        cfg.Workers,
			Cache:          c,
			Logger:         logger,
		})
		if err != nil {
			return err
		}

		if c != nil {
			if err := c.SaveFile(cfg.CachePath); err != nil {
				logger.Warn("failed to persist cache", "path", cfg.CachePath, "error", err)
			}
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		return printSummary(summary, jsonOutput)
	},
}

// configForRun reads the config, applies the flags and validates the result
// once, so a flag can replace an invalid value from a file.
func configForRun(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyRunFlags overrides config values with flags the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir, _ = flags.GetString("input")
	}
	if flags.Changed("pattern") {
		cfg.InputPattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("follow-symlinks") {
		cfg.FollowSymlinks, _ = flags.GetBool("follow-symlinks")
	}
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("analysis") {
		cfg.Analyses, _ = flags.GetStringSlice("analysis")
	}
	if flags.Changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("cache") {
		cfg.CacheEnabled, _ = flags.GetBool("cache")
	}
}

type summaryJSON struct {
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Cached    int              `json:"cached"`
	Files     []fileResultJSON `json:"files"`
}

type fileResultJSON struct {
	Name    string   `json:"name"`
	Outputs []string `json:"outputs,omitempty"`
	Cached  int      `json:"cached,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func printSummary(s *driver.Summary, jsonOutput bool) error {
	if jsonOutput {
		out := summaryJSON{Processed: s.Processed, Failed: s.Failed, Cached: s.Cached, Files: []fileResultJSON{}}
		for _, f := range s.Files {
			fr := fileResultJSON{Name: f.Name, Outputs: f.Outputs, Cached: f.Cached}
			if f.Err != nil {
				fr.Error = f.Err.Error()
			}
			out.Files = append(out.Files, fr)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	for _, f := range s.Files {
		if f.Err != nil {
			fmt.Printf("✗ %s: %v\n", f.Name, f.Err)
			continue
		}
		fmt.Printf("✓ %s (%d reports)\n", f.Name, len(f.Outputs))
	}
	fmt.Printf("\nProcessed: %d  Failed: %d  Cached reports: %d\n", s.Processed, s.Failed, s.Cached)
	return nil
}

func init() {
	runCmd.Flags().StringP("input", "i", "", "Input directory (default from config: in)")
	runCmd.Flags().StringP("pattern", "p", "", "Only analyse input files whose name matches this glob")
	runCmd.Flags().Bool("follow-symlinks", false, "Follow symlinks to files inside the input directory")
	runCmd.Flags().StringP("output", "o", "", "Output directory (default from config: out)")
	runCmd.Flags().StringSliceP("analysis", "a", nil, "Analyses to run: rd, lv, ae (repeatable)")
	runCmd.Flags().StringP("format", "f", "", "Report format: text, json or msgpack")
	runCmd.Flags().IntP("workers", "w", 0, "Files analysed concurrently (0 = GOMAXPROCS)")
	runCmd.Flags().Bool("cache", false, "Reuse reports of unchanged inputs")
	runCmd.Flags().Bool("verbose", false, "Debug logging")
	runCmd.Flags().BoolP("json", "j", false, "Print the run summary as JSON")
}

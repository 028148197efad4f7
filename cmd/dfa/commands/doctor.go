package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-dataflow/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration",
	Long: `Checks that the configured input directory exists, the output directory
can be written and the report cache, when enabled, can be loaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		result, err := healthcheck.Check(cfg, effectiveConfigPath())
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(result)

		if !result.OK() {
			return fmt.Errorf("health check failed: run 'dfa init' or fix the paths above")
		}
		return nil
	},
}

func displayDoctorResult(result *healthcheck.HealthCheckResult) {
	if result.SavedPath == "" {
		fmt.Println("Using config: defaults (no config file found)")
	} else {
		fmt.Printf("Using config: %s (%s)\n", result.SavedPath, result.SavedScope)
	}

	printCheck("Input directory", result.Input)
	printCheck("Output directory", result.Output)
	printCheck("Report cache", result.Cache)
}

func printCheck(title string, c healthcheck.CheckStatus) {
	fmt.Printf("\n%s:\n", title)
	if c.Path != "" {
		fmt.Printf("  Path: %s\n", c.Path)
	}
	fmt.Printf("  Status: %s %s\n", formatStatusIcon(c.Status), c.Status)
	if c.Detail != "" {
		fmt.Printf("  %s\n", c.Detail)
	}
	if c.Error != "" {
		fmt.Printf("  Error: %s\n", c.Error)
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusMissing, healthcheck.StatusDisabled:
		return "○"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-dataflow/internal/config"
	"github.com/l3aro/go-dataflow/internal/healthcheck"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize dfa configuration interactively",
	Long: `Guides you through setting up dfa configuration step by step.
Creates a config file with the input and output directories, the analyses to
run, the report format and cache settings.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Directories ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Input directory").
				Description("One control flow graph per file").
				Placeholder(cfg.InputDir).
				Value(&cfg.InputDir),
			huh.NewInput().
				Title("Output directory").
				Description("Reports are written here").
				Placeholder(cfg.OutputDir).
				Value(&cfg.OutputDir),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Analyses and format ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Analyses").
				Description("Select the analyses to run").
				Options(
					huh.NewOption("Reaching Definitions", "rd").Selected(true),
					huh.NewOption("Live Variables", "lv").Selected(true),
					huh.NewOption("Available Expressions", "ae").Selected(true),
				).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return fmt.Errorf("select at least one analysis")
					}
					return nil
				}).
				Value(&cfg.Analyses),
			huh.NewSelect[string]().
				Title("Report format").
				Options(
					huh.NewOption("Text", "text"),
					huh.NewOption("JSON", "json"),
					huh.NewOption("MessagePack", "msgpack"),
				).
				Value(&cfg.Format),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Cache ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Report cache").
				Description("Reuse reports for inputs that have not changed?").
				Affirmative("Yes").
				Negative("No").
				Value(&cfg.CacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.dfa/config.yaml)", "project"),
					huh.NewOption("Global (~/.dfa/config.yaml)", "global"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	path := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		path = config.GlobalConfigFilePath()
	}

	if _, err := os.Stat(path); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", path)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", path)
	fmt.Printf("Input: %s\n", cfg.InputDir)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Printf("Analyses: %s\n", strings.Join(cfg.Analyses, ", "))
	fmt.Printf("Format: %s\n", cfg.Format)
	fmt.Printf("Cache: %t\n", cfg.CacheEnabled)
	fmt.Println("================================")

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", path)

	// === SECTION 5: Health Check ===
	fmt.Println("\n=== Running Health Check ===")
	result, err := healthcheck.Check(cfg, path)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	displayDoctorResult(result)
	return nil
}

// Package commands provides the CLI commands for dfa.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-dataflow/internal/config"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "dfa",
	Short: "dfa - Dataflow analyses over textual control flow graphs",
	Long: `dfa computes reaching definitions, live variables and available
expressions for control flow graphs written one block per record.

Commands:
  run       Analyse every file of the input directory
  analyze   Analyse a single file and print the reports
  inspect   Show the structure of a control flow graph
  init      Create a configuration file interactively
  doctor    Check the configured directories and cache

Use "dfa [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

var configPath string

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: ~/.dfa/config.yaml then ./.dfa/config.yaml)")

	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(inspectCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(doctorCmd)
}

// loadConfig honours --config, falling back to the layered lookup.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// readConfig is loadConfig without validation, for commands that apply
// flags on top of the file before validating.
func readConfig() (*config.Config, error) {
	if configPath != "" {
		return config.ReadFile(configPath)
	}
	return config.Read()
}

// effectiveConfigPath returns the file the layered lookup would read last,
// or "" when only defaults apply.
func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	for _, p := range []string{config.ProjectConfigFilePath(), config.GlobalConfigFilePath()} {
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func readInput(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

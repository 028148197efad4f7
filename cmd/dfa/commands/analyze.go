package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-dataflow/internal/driver"
	"github.com/l3aro/go-dataflow/pkg/dfg"
	"github.com/l3aro/go-dataflow/pkg/report"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyse one CFG file and print the reports",
	Long: `Runs the selected analyses over a single control flow graph file and
prints the reports to stdout. Nothing is written to the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readInput(args[0])
		if err != nil {
			return err
		}

		names, _ := cmd.Flags().GetStringSlice("analysis")
		kinds, err := dfg.ParseKinds(names)
		if err != nil {
			return err
		}

		formatName, _ := cmd.Flags().GetString("format")
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			formatName = string(report.FormatJSON)
		}
		format, err := report.ParseFormat(formatName)
		if err != nil {
			return err
		}

		a, err := driver.Analyze(content, kinds, nil)
		if err != nil {
			return fmt.Errorf("analysing %s: %w", args[0], err)
		}

		if format == report.FormatJSON {
			data, err := json.MarshalIndent(a.Reports, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, r := range a.Reports {
			if err := report.Encode(os.Stdout, r, format); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringSliceP("analysis", "a", nil, "Analyses to run: rd, lv, ae (default all)")
	analyzeCmd.Flags().StringP("format", "f", "text", "Report format: text, json or msgpack")
	analyzeCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

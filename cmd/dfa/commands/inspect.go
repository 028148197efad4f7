package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-dataflow/pkg/cfg"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the structure of a control flow graph",
	Long: `Parses a control flow graph file and prints its blocks, edges, entry and
exit blocks, successors that name undeclared blocks, blocks unreachable from
any entry, and loops.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := readInput(args[0])
		if err != nil {
			return err
		}

		g, err := cfg.ParseReader(bytes.NewReader(content))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		info := inspectGraph(g)

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printGraphInfo(info)
		return nil
	},
}

type graphInfo struct {
	Blocks      []*cfg.Block `json:"blocks"`
	Edges       []cfg.Edge   `json:"edges"`
	Entries     []int        `json:"entries"`
	Exits       []int        `json:"exits"`
	Dangling    []cfg.Edge   `json:"dangling"`
	Unreachable []int        `json:"unreachable"`
	Loops       [][]int      `json:"loops"`
	Acyclic     bool         `json:"acyclic"`
}

func inspectGraph(g *cfg.Graph) graphInfo {
	info := graphInfo{
		Blocks:      make([]*cfg.Block, 0, g.Len()),
		Edges:       nonNil(g.Edges()),
		Entries:     nonNil(g.Entries()),
		Exits:       nonNil(g.Exits()),
		Dangling:    nonNil(g.Dangling),
		Unreachable: nonNil(g.Unreachable()),
		Loops:       nonNil(g.Loops()),
		Acyclic:     g.Acyclic(),
	}
	for _, id := range g.IDs() {
		info.Blocks = append(info.Blocks, g.Block(id))
	}
	return info
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func printGraphInfo(info graphInfo) {
	fmt.Printf("Blocks: %d\n", len(info.Blocks))
	for _, b := range info.Blocks {
		fmt.Printf("  Block %d  succ=%v pred=%v\n", b.ID, b.Successors, b.Predecessors)
		for _, instr := range b.Instructions {
			fmt.Printf("    %s\n", instr)
		}
	}

	edges := make([]string, 0, len(info.Edges))
	for _, e := range info.Edges {
		edges = append(edges, fmt.Sprintf("%d->%d", e.From, e.To))
	}
	fmt.Printf("\nEdges: %s\n", strings.Join(edges, ", "))
	fmt.Printf("Entries: %v\n", info.Entries)
	fmt.Printf("Exits: %v\n", info.Exits)
	fmt.Printf("Acyclic: %t\n", info.Acyclic)

	if len(info.Loops) > 0 {
		fmt.Println("Loops:")
		for _, l := range info.Loops {
			fmt.Printf("  %v\n", l)
		}
	}
	if len(info.Unreachable) > 0 {
		fmt.Printf("⚠ Unreachable blocks: %v\n", info.Unreachable)
	}
	if len(info.Dangling) > 0 {
		fmt.Println("⚠ Successors naming undeclared blocks:")
		for _, e := range info.Dangling {
			fmt.Printf("  %d->%d\n", e.From, e.To)
		}
	}
}

func init() {
	inspectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
}

// Package main implements the dfa CLI.
// It runs reaching definitions, live variables and available expressions
// over textual control flow graphs.
package main

import (
	"os"

	"github.com/l3aro/go-dataflow/cmd/dfa/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`dfa version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the provgraph CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/provgraph/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

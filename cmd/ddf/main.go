// Package main provides the ddf command-line tool.
package main

import (
	"os"

	"github.com/Tokarzewski/ddf-lib/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the entry point for the dumpextract CLI.
package main

import (
	"os"

	"github.com/meigma/multistream/cmd/dumpextract/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

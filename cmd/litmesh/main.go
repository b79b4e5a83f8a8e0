// Package main provides the entry point for the litmesh CLI.
package main

import (
	"os"

	"github.com/litmesh/litmesh/cmd/litmesh/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

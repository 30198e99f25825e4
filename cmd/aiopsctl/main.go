// Package main is the entry point for the aiopsctl CLI tool.
package main

import (
	"os"

	"github.com/calm-violet-crane/aiops-analyzer/cmd/aiopsctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package cmd contains the CLI commands for aiopsctl.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Used for flags
	serverURL string
	output    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aiopsctl",
	Short: "aiopsctl - query and trigger the AIOps analyzer",
	Long: `aiopsctl talks to a running aiops-analyzer instance: trigger an
analysis run, list detected anomalies, and inspect recommendations and
engine statistics.

Examples:
  # Trigger an analysis run
  aiopsctl analyze

  # List the most recent anomalies
  aiopsctl anomalies

  # Show recommendations as JSON
  aiopsctl recommendations -o json

  # Engine statistics
  aiopsctl stats`,
	Run: func(cmd *cobra.Command, args []string) {
		// Show help by default
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "analyzer base URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show engine statistics",
	Long:  `Show aggregate analyzer statistics: totals and the top error patterns.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	var resp struct {
		TotalAnomalies       int                        `json:"total_anomalies"`
		TotalRecommendations int                        `json:"total_recommendations"`
		ErrorPatternsCount   int                        `json:"error_patterns_count"`
		TopErrors            []models.ErrorPatternCount `json:"top_errors"`
	}

	if err := getJSON("/api/stats", &resp); err != nil {
		return err
	}

	if output == "json" {
		return printJSON(resp)
	}

	fmt.Printf("total anomalies:       %d\n", resp.TotalAnomalies)
	fmt.Printf("total recommendations: %d\n", resp.TotalRecommendations)
	fmt.Printf("error patterns:        %d\n", resp.ErrorPatternsCount)

	if len(resp.TopErrors) > 0 {
		fmt.Println("\ntop errors:")
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COUNT\tSIGNATURE")
		for _, e := range resp.TopErrors {
			fmt.Fprintf(w, "%d\t%s\n", e.Count, clip(e.Signature, 100))
		}
		w.Flush()
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "List detected anomalies",
	Long:  `List the most recent anomalies recorded by the analyzer (up to 50).`,
	RunE:  runAnomalies,
}

func init() {
	rootCmd.AddCommand(anomaliesCmd)
}

func runAnomalies(cmd *cobra.Command, args []string) error {
	var resp struct {
		Anomalies []models.AnomalyRecord `json:"anomalies"`
		Count     int                    `json:"count"`
	}

	if err := getJSON("/api/anomalies", &resp); err != nil {
		return err
	}

	if output == "json" {
		return printJSON(resp)
	}

	if len(resp.Anomalies) == 0 {
		fmt.Println("no anomalies detected")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DETECTED\tTYPE\tSEVERITY\tMESSAGE")
	for _, a := range resp.Anomalies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			a.DetectedAt.Format(time.RFC3339),
			a.Kind,
			a.Severity,
			clip(a.Message, 80),
		)
	}
	w.Flush()

	fmt.Printf("\n%d total\n", resp.Count)
	return nil
}

// clip shortens s for table display.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

var recommendationsCmd = &cobra.Command{
	Use:   "recommendations",
	Short: "Show current recommendations",
	Long:  `Show the recommendation set produced by the most recent analysis run.`,
	RunE:  runRecommendations,
}

func init() {
	rootCmd.AddCommand(recommendationsCmd)
}

func runRecommendations(cmd *cobra.Command, args []string) error {
	var resp struct {
		Recommendations []models.Recommendation `json:"recommendations"`
		Count           int                     `json:"count"`
	}

	if err := getJSON("/api/recommendations", &resp); err != nil {
		return err
	}

	if output == "json" {
		return printJSON(resp)
	}

	if len(resp.Recommendations) == 0 {
		fmt.Println("no recommendations")
		return nil
	}

	for i, rec := range resp.Recommendations {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("[%s] %s - %s\n", rec.Priority, rec.Category, rec.Title)
		fmt.Printf("  %s\n", rec.Description)
		for _, action := range rec.Actions {
			fmt.Printf("  - %s\n", action)
		}
	}
	return nil
}

package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

const (
	// maxTallyRecommendations is how many top error patterns feed the
	// recommendation rules.
	maxTallyRecommendations = 3

	// systemHealthAnomalyFloor is the store size above which a
	// system-health recommendation is appended.
	systemHealthAnomalyFloor = 10
)

// generateRecommendations rebuilds the recommendation set from scratch:
// keyword rules over the top error patterns, plus a system-health entry
// when the anomaly store has grown large. The previous set is replaced;
// recommendations carry no identity across runs.
//
// Caller holds the state lock.
func (a *Analyzer) generateRecommendations() {
	recs := make([]models.Recommendation, 0, maxTallyRecommendations+1)

	for _, pattern := range a.topErrorPatterns(maxTallyRecommendations) {
		if rec, ok := classifyErrorPattern(pattern.Signature, pattern.Count); ok {
			recs = append(recs, rec)
		}
	}

	if len(a.anomalies) > systemHealthAnomalyFloor {
		recs = append(recs, models.Recommendation{
			Priority:    models.SeverityHigh,
			Category:    "System Health",
			Title:       "High number of anomalies detected",
			Description: fmt.Sprintf("%d anomalies currently recorded", len(a.anomalies)),
			Actions: []string{
				"Investigate immediately",
				"Check overall system health",
				"Review the monitoring dashboards",
				"Escalate to the on-call engineer if needed",
			},
		})
	}

	a.recommendations = recs
}

// classifyErrorPattern maps a signature to a recommendation via keyword
// rules. Signatures matching no rule produce nothing.
func classifyErrorPattern(signature string, count int) (models.Recommendation, bool) {
	lower := strings.ToLower(signature)

	switch {
	case strings.Contains(lower, "database") || strings.Contains(lower, "mysql") || strings.Contains(lower, "access denied"):
		return models.Recommendation{
			Priority:    models.SeverityHigh,
			Category:    "Database",
			Title:       "Database connection problem detected",
			Description: fmt.Sprintf("Error repeated %dx concerning the database", count),
			Actions: []string{
				"Check the MySQL connection",
				"Increase the connection pool",
				"Check for slow queries",
				"Restart the MySQL service if necessary",
			},
		}, true

	case strings.Contains(lower, "timeout"):
		return models.Recommendation{
			Priority:    models.SeverityHigh,
			Category:    "Performance",
			Title:       "Frequent timeouts detected",
			Description: fmt.Sprintf("%d timeouts detected recently", count),
			Actions: []string{
				"Increase the timeout configuration",
				"Check the server load",
				"Optimize slow queries",
				"Scale horizontally if necessary",
			},
		}, true

	case strings.Contains(lower, "auth") || strings.Contains(signature, "401"):
		return models.Recommendation{
			Priority:    models.SeverityMedium,
			Category:    "Security",
			Title:       "Repeated authentication failures",
			Description: fmt.Sprintf("%d failed attempts", count),
			Actions: []string{
				"Review the security logs",
				"Analyze the source IPs",
				"Enable rate limiting",
				"Consider an IP block if under attack",
			},
		}, true
	}

	return models.Recommendation{}, false
}

// topErrorPatterns returns the n highest-count tally entries, count
// descending, stable on insertion order for ties.
//
// Caller holds the state lock (read or write).
func (a *Analyzer) topErrorPatterns(n int) []models.ErrorPatternCount {
	patterns := make([]models.ErrorPatternCount, 0, len(a.tallyOrder))
	for _, sig := range a.tallyOrder {
		patterns = append(patterns, models.ErrorPatternCount{Signature: sig, Count: a.tally[sig]})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})
	if len(patterns) > n {
		patterns = patterns[:n]
	}
	return patterns
}

package engine

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calm-violet-crane/aiops-analyzer/internal/metrics"
	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

const (
	// maxErrorGroups bounds how many signature groups are considered
	// per run, ranked by count.
	maxErrorGroups = 10

	// maxOccurrenceSamples bounds representative samples per anomaly.
	maxOccurrenceSamples = 5

	// highErrorCount is the count above which a repeated error is HIGH.
	highErrorCount = 20
)

// errorGroup accumulates events sharing a normalized signature.
type errorGroup struct {
	signature   string
	count       int
	occurrences []models.Occurrence
}

// detectErrorPatterns counts normalized error signatures in the batch
// and fires a repeated_error anomaly for each signature at or above the
// configured threshold, subject to a per-signature cooldown. The tally
// is updated for every signature over threshold even while its alert is
// suppressed, so recommendations keep seeing fresh counts.
//
// Caller holds the state lock.
func (a *Analyzer) detectErrorPatterns(events []models.LogEvent, now time.Time) {
	groups := make(map[string]*errorGroup)
	var order []*errorGroup

	for i := range events {
		ev := &events[i]
		if !ev.IsError() {
			continue
		}

		sig := NormalizeMessage(ev.Message)
		g, ok := groups[sig]
		if !ok {
			g = &errorGroup{signature: sig}
			groups[sig] = g
			order = append(order, g)
		}
		g.count++
		if len(g.occurrences) < maxOccurrenceSamples {
			g.occurrences = append(g.occurrences, models.Occurrence{
				Service:         ev.Service,
				Timestamp:       ev.Timestamp,
				OriginalMessage: ev.Message,
			})
		}
	}

	if len(order) == 0 {
		return
	}

	// Rank by count descending, stable on first-seen order for ties.
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})
	if len(order) > maxErrorGroups {
		order = order[:maxErrorGroups]
	}

	for _, g := range order {
		if g.count < a.cfg.ErrorThreshold {
			continue
		}

		// Tally update happens regardless of cooldown.
		a.setTally(g.signature, g.count)

		severity := models.SeverityMedium
		if g.count > highErrorCount {
			severity = models.SeverityHigh
		}

		if a.cooldowns.IsActive(g.signature, now) {
			metrics.AlertsSuppressed.Inc()
			continue
		}

		a.appendAnomaly(&models.AnomalyRecord{
			ID:             uuid.New().String(),
			Kind:           models.AnomalyRepeatedError,
			Severity:       severity,
			Message:        g.signature,
			Count:          g.count,
			Occurrences:    g.occurrences,
			DetectedAt:     now,
			Recommendation: errorRecommendation(g.signature, g.count),
		})
		a.cooldowns.Activate(g.signature, now, repeatedErrorCooldown)

		log.Printf("anomaly detected: error repeated %dx - %s", g.count, truncate(g.signature, 100))
	}
}

// errorRecommendation produces the one-line remediation hint attached
// to a repeated_error anomaly.
func errorRecommendation(signature string, count int) string {
	lower := strings.ToLower(signature)
	switch {
	case strings.Contains(lower, "database"):
		return "Check the MySQL connection and the connection pool"
	case strings.Contains(lower, "timeout"):
		return "Raise timeouts or optimize the slow queries"
	case strings.Contains(lower, "memory"):
		return "Check memory usage and increase limits if needed"
	default:
		return fmt.Sprintf("Investigate the error (repeated %dx)", count)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

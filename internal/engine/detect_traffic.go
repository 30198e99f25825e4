package engine

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/calm-violet-crane/aiops-analyzer/internal/metrics"
	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

const (
	// minDistinctEndpoints is the minimum number of distinct endpoints
	// before the distribution is worth testing.
	minDistinctEndpoints = 3

	// maxUnusualEndpoints bounds reported endpoints per anomaly.
	maxUnusualEndpoints = 5
)

// detectTrafficAnomalies builds a frequency distribution over the
// endpoints extracted from backend log messages and flags endpoints
// whose count exceeds mean + 3 sigma. Fires at most one unusual_traffic
// anomaly per run, throttled by a global cooldown key. Fewer than three
// distinct endpoints is a no-op.
//
// Caller holds the state lock.
func (a *Analyzer) detectTrafficAnomalies(events []models.LogEvent, now time.Time) {
	counts := make(map[string]int)
	var endpoints []string

	for i := range events {
		ev := &events[i]
		if ev.Service != a.cfg.BackendService {
			continue
		}
		endpoint := ExtractEndpoint(ev.Message)
		if endpoint == "" {
			continue
		}
		if _, ok := counts[endpoint]; !ok {
			endpoints = append(endpoints, endpoint)
		}
		counts[endpoint]++
	}

	if len(endpoints) < minDistinctEndpoints {
		return
	}

	values := make([]float64, len(endpoints))
	for i, ep := range endpoints {
		values[i] = float64(counts[ep])
	}
	meanCount := mean(values)
	stdCount := popStdDev(values)

	var unusual []models.UnusualEndpoint
	for _, ep := range endpoints {
		count := counts[ep]
		if float64(count) <= meanCount+3*stdCount {
			continue
		}
		deviation := 0.0
		if stdCount > 0 {
			deviation = round2((float64(count) - meanCount) / stdCount)
		}
		unusual = append(unusual, models.UnusualEndpoint{
			Endpoint:  ep,
			Count:     count,
			Deviation: deviation,
		})
	}

	if len(unusual) == 0 {
		return
	}

	// Deterministic output: strongest deviation first, then truncate.
	sort.SliceStable(unusual, func(i, j int) bool {
		return unusual[i].Deviation > unusual[j].Deviation
	})
	if len(unusual) > maxUnusualEndpoints {
		unusual = unusual[:maxUnusualEndpoints]
	}

	if a.cooldowns.IsActive(unusualTrafficCooldownKey, now) {
		metrics.AlertsSuppressed.Inc()
		return
	}

	a.appendAnomaly(&models.AnomalyRecord{
		ID:               uuid.New().String(),
		Kind:             models.AnomalyUnusualTraffic,
		Severity:         models.SeverityMedium,
		Message:          "Unusual traffic detected on some endpoints",
		UnusualEndpoints: unusual,
		DetectedAt:       now,
		Recommendation:   trafficRecommendation(len(unusual)),
	})
	a.cooldowns.Activate(unusualTrafficCooldownKey, now, unusualTrafficCooldown)

	log.Printf("anomaly detected: unusual traffic on %d endpoints", len(unusual))
}

// trafficRecommendation maps the number of unusual endpoints to a
// remediation hint.
func trafficRecommendation(n int) string {
	return fmt.Sprintf("Analyze the unusual traffic on %d endpoints - possible attack or bug", n)
}

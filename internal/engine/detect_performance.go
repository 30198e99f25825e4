package engine

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/calm-violet-crane/aiops-analyzer/internal/metrics"
	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

const (
	// minPerformanceSamples is the minimum number of valid response
	// times before the detector computes statistics.
	minPerformanceSamples = 10

	// maxSlowRequestSamples bounds representative slow requests.
	maxSlowRequestSamples = 5

	// highResponseTimeMs is the max response time above which a
	// performance anomaly is HIGH.
	highResponseTimeMs = 5000

	// responseTimeField and requestField are the source document keys
	// carrying the response time and the request path.
	responseTimeField = "response_time"
	requestField      = "request"
)

// detectPerformanceAnomalies computes mean and population standard
// deviation over the frontend response times in the batch and fires one
// aggregate performance_degradation anomaly when slow outliers exist
// and the maximum exceeds the absolute threshold. Samples that fail
// numeric parsing are skipped. Fewer than ten valid samples is a no-op.
//
// Caller holds the state lock.
func (a *Analyzer) detectPerformanceAnomalies(events []models.LogEvent, now time.Time) {
	var samples []models.SlowRequest

	for i := range events {
		ev := &events[i]
		if ev.Service != a.cfg.FrontendService {
			continue
		}
		rt, ok := ev.GetFieldFloat(responseTimeField)
		if !ok {
			continue
		}
		path := ev.GetFieldString(requestField)
		if path == "" {
			path = "unknown"
		}
		samples = append(samples, models.SlowRequest{
			Time:      rt,
			Timestamp: ev.Timestamp,
			Path:      path,
		})
	}

	if len(samples) < minPerformanceSamples {
		return
	}

	times := make([]float64, len(samples))
	maxTime := samples[0].Time
	for i, s := range samples {
		times[i] = s.Time
		if s.Time > maxTime {
			maxTime = s.Time
		}
	}
	meanTime := mean(times)
	stdTime := popStdDev(times)

	log.Printf("performance: mean=%.2fms max=%.2fms over %d samples", meanTime, maxTime, len(samples))

	// Slow requests sit above mean + 2 sigma; keep the first few seen.
	threshold := meanTime + 2*stdTime
	var slow []models.SlowRequest
	slowCount := 0
	for _, s := range samples {
		if s.Time > threshold {
			slowCount++
			if len(slow) < maxSlowRequestSamples {
				slow = append(slow, s)
			}
		}
	}

	if slowCount == 0 || maxTime <= a.cfg.ResponseTimeThresholdMs {
		return
	}

	severity := models.SeverityMedium
	if maxTime > highResponseTimeMs {
		severity = models.SeverityHigh
	}

	if a.cooldowns.IsActive(performanceCooldownKey, now) {
		metrics.AlertsSuppressed.Inc()
		return
	}

	a.appendAnomaly(&models.AnomalyRecord{
		ID:       uuid.New().String(),
		Kind:     models.AnomalyPerformanceDegradation,
		Severity: severity,
		Message:  "Performance degradation detected",
		Stats: &models.PerformanceStats{
			MeanResponseTime:  round2(meanTime),
			MaxResponseTime:   round2(maxTime),
			SlowRequestsCount: slowCount,
			Threshold:         round2(threshold),
		},
		SlowRequests:   slow,
		DetectedAt:     now,
		Recommendation: performanceRecommendation(maxTime),
	})
	a.cooldowns.Activate(performanceCooldownKey, now, performanceCooldown)

	log.Printf("anomaly detected: performance degradation - max %.2fms", maxTime)
}

// performanceRecommendation maps the worst response time to a
// remediation hint.
func performanceRecommendation(maxTime float64) string {
	switch {
	case maxTime > 5000:
		return "Critical performance: optimize the slow requests immediately"
	case maxTime > 3000:
		return "Degraded performance: profile and optimize the slow endpoints"
	default:
		return "Keep a close watch on performance"
	}
}

package engine

import (
	"testing"
	"time"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

func newTestAnalyzer(cfg Config) *Analyzer {
	return New(nil, cfg)
}

func errorEvents(message string, n int, ts time.Time) []models.LogEvent {
	events := make([]models.LogEvent, n)
	for i := range events {
		events[i] = models.LogEvent{
			Timestamp: ts,
			Service:   "backend",
			Level:     models.LevelError,
			Message:   message,
		}
	}
	return events
}

func TestDetectErrorPatternsFiresAtThreshold(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 10})

	events := errorEvents("Database connection lost on node 3", 10, now)
	a.detectErrorPatterns(events, now)

	if len(a.anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(a.anomalies))
	}

	an := a.anomalies[0]
	if an.Kind != models.AnomalyRepeatedError {
		t.Errorf("Kind = %s, want repeated_error", an.Kind)
	}
	if an.Severity != models.SeverityMedium {
		t.Errorf("Severity = %s, want MEDIUM", an.Severity)
	}
	if an.Count != 10 {
		t.Errorf("Count = %d, want 10", an.Count)
	}
	if an.Message != "Database connection lost on node N" {
		t.Errorf("Message = %q", an.Message)
	}
	if len(an.Occurrences) != 5 {
		t.Errorf("got %d occurrence samples, want 5", len(an.Occurrences))
	}
	if an.Occurrences[0].OriginalMessage != "Database connection lost on node 3" {
		t.Errorf("occurrence kept normalized message: %q", an.Occurrences[0].OriginalMessage)
	}
	if an.Recommendation != "Check the MySQL connection and the connection pool" {
		t.Errorf("Recommendation = %q", an.Recommendation)
	}
}

func TestDetectErrorPatternsBelowThreshold(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 10})

	a.detectErrorPatterns(errorEvents("disk full", 9, now), now)

	if len(a.anomalies) != 0 {
		t.Errorf("got %d anomalies, want 0", len(a.anomalies))
	}
	if len(a.tally) != 0 {
		t.Errorf("tally has %d entries, want 0", len(a.tally))
	}
}

func TestDetectErrorPatternsHighSeverity(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 10})

	a.detectErrorPatterns(errorEvents("timeout talking to redis", 21, now), now)

	if len(a.anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1", len(a.anomalies))
	}
	if a.anomalies[0].Severity != models.SeverityHigh {
		t.Errorf("Severity = %s, want HIGH for count 21", a.anomalies[0].Severity)
	}
}

func TestDetectErrorPatternsCooldownSuppressesSecondRun(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 10})

	events := errorEvents("connection reset by peer", 12, now)
	a.detectErrorPatterns(events, now)
	if len(a.anomalies) != 1 {
		t.Fatalf("first run: got %d anomalies, want 1", len(a.anomalies))
	}

	// A second run inside the 30 minute cooldown still refreshes the
	// tally but must not append a duplicate anomaly.
	later := now.Add(5 * time.Minute)
	a.detectErrorPatterns(errorEvents("connection reset by peer", 15, later), later)
	if len(a.anomalies) != 1 {
		t.Errorf("second run appended a duplicate: %d anomalies", len(a.anomalies))
	}
	if got := a.tally["connection reset by peer"]; got != 15 {
		t.Errorf("tally = %d, want 15 (latest count, not cumulative)", got)
	}

	// After the cooldown expires the alert fires again.
	expired := now.Add(31 * time.Minute)
	a.detectErrorPatterns(errorEvents("connection reset by peer", 11, expired), expired)
	if len(a.anomalies) != 2 {
		t.Errorf("post-cooldown run: got %d anomalies, want 2", len(a.anomalies))
	}
}

func TestDetectErrorPatternsIgnoresNonErrors(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 2})

	events := []models.LogEvent{
		{Service: "backend", Level: models.LevelInfo, Message: "request served"},
		{Service: "backend", Level: models.LevelInfo, Message: "request served"},
		{Service: "backend", Level: models.LevelWarning, Message: "request served"},
	}
	a.detectErrorPatterns(events, now)

	if len(a.anomalies) != 0 {
		t.Errorf("got %d anomalies from non-error events, want 0", len(a.anomalies))
	}
}

func TestDetectErrorPatternsTaggedErrors(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 2})

	events := []models.LogEvent{
		{Service: "backend", Level: models.LevelInfo, Message: "upstream failed", Tags: []string{"error"}},
		{Service: "backend", Level: models.LevelInfo, Message: "upstream failed", Tags: []string{"error"}},
	}
	a.detectErrorPatterns(events, now)

	if len(a.anomalies) != 1 {
		t.Errorf("got %d anomalies, want 1 from tagged errors", len(a.anomalies))
	}
}

func TestErrorRecommendation(t *testing.T) {
	tests := []struct {
		signature string
		count     int
		want      string
	}{
		{"Database connection lost", 12, "Check the MySQL connection and the connection pool"},
		{"Request timeout after Ns", 12, "Raise timeouts or optimize the slow queries"},
		{"Out of memory in worker N", 12, "Check memory usage and increase limits if needed"},
		{"something else entirely", 12, "Investigate the error (repeated 12x)"},
	}

	for _, tt := range tests {
		if got := errorRecommendation(tt.signature, tt.count); got != tt.want {
			t.Errorf("errorRecommendation(%q) = %q, want %q", tt.signature, got, tt.want)
		}
	}
}

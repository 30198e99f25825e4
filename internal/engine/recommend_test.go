package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

func TestGenerateRecommendationsFromErrorTally(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 10})

	a.detectErrorPatterns(errorEvents("Access denied for user 'app'@'10.0.0.5'", 15, now), now)
	a.generateRecommendations()

	if len(a.recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(a.recommendations))
	}

	rec := a.recommendations[0]
	if rec.Category != "Database" {
		t.Errorf("Category = %q, want Database", rec.Category)
	}
	if rec.Priority != models.SeverityHigh {
		t.Errorf("Priority = %s, want HIGH", rec.Priority)
	}
	if !strings.Contains(rec.Description, "15") {
		t.Errorf("Description %q does not mention the count", rec.Description)
	}
	if len(rec.Actions) != 4 {
		t.Errorf("got %d actions, want 4", len(rec.Actions))
	}
}

func TestGenerateRecommendationsReplacesPreviousSet(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 10})

	a.detectErrorPatterns(errorEvents("database pool exhausted", 12, now), now)
	a.generateRecommendations()
	if len(a.recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(a.recommendations))
	}

	// The next run refreshes the same pattern; the set is rebuilt, not
	// appended to.
	later := now.Add(time.Minute)
	a.detectErrorPatterns(errorEvents("database pool exhausted", 13, later), later)
	a.generateRecommendations()
	if len(a.recommendations) != 1 {
		t.Errorf("got %d recommendations after second run, want 1", len(a.recommendations))
	}
	if !strings.Contains(a.recommendations[0].Description, "13") {
		t.Errorf("Description %q should carry the latest count", a.recommendations[0].Description)
	}
}

func TestGenerateRecommendationsSystemHealth(t *testing.T) {
	a := newTestAnalyzer(Config{})
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 11; i++ {
		a.appendAnomaly(&models.AnomalyRecord{
			Kind:       models.AnomalyRepeatedError,
			Severity:   models.SeverityMedium,
			DetectedAt: now,
		})
	}
	a.generateRecommendations()

	if len(a.recommendations) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(a.recommendations))
	}
	if a.recommendations[0].Category != "System Health" {
		t.Errorf("Category = %q, want System Health", a.recommendations[0].Category)
	}
	if !strings.Contains(a.recommendations[0].Description, "11") {
		t.Errorf("Description %q does not mention the store size", a.recommendations[0].Description)
	}
}

func TestClassifyErrorPattern(t *testing.T) {
	tests := []struct {
		name         string
		signature    string
		wantCategory string
		wantPriority models.Severity
		wantMatch    bool
	}{
		{"mysql", "MySQL server has gone away", "Database", models.SeverityHigh, true},
		{"access denied", "Access denied for user 'app'@'N.N.N.N'", "Database", models.SeverityHigh, true},
		{"timeout", "upstream timeout after Ns", "Performance", models.SeverityHigh, true},
		{"auth", "authentication failed for token UUID", "Security", models.SeverityMedium, true},
		{"unmatched", "segfault in worker", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := classifyErrorPattern(tt.signature, 10)
			if ok != tt.wantMatch {
				t.Fatalf("matched = %v, want %v", ok, tt.wantMatch)
			}
			if !ok {
				return
			}
			if rec.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", rec.Category, tt.wantCategory)
			}
			if rec.Priority != tt.wantPriority {
				t.Errorf("Priority = %s, want %s", rec.Priority, tt.wantPriority)
			}
		})
	}
}

func TestTopErrorPatterns(t *testing.T) {
	a := newTestAnalyzer(Config{})

	a.setTally("first", 5)
	a.setTally("second", 20)
	a.setTally("third", 20)
	a.setTally("fourth", 8)

	top := a.topErrorPatterns(3)
	if len(top) != 3 {
		t.Fatalf("got %d patterns, want 3", len(top))
	}
	// Ties keep insertion order.
	if top[0].Signature != "second" || top[1].Signature != "third" || top[2].Signature != "fourth" {
		t.Errorf("order = %s, %s, %s", top[0].Signature, top[1].Signature, top[2].Signature)
	}

	// Refreshing a signature replaces its count.
	a.setTally("first", 50)
	top = a.topErrorPatterns(1)
	if top[0].Signature != "first" || top[0].Count != 50 {
		t.Errorf("top = %+v, want first/50", top[0])
	}
}

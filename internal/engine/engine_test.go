package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
	"github.com/calm-violet-crane/aiops-analyzer/internal/source"
)

func TestAnalyzeFullRun(t *testing.T) {
	src := &source.StaticSource{
		Events: errorEvents("Database connection lost", 12, time.Now()),
	}
	a := New(src, Config{ErrorThreshold: 10})

	result, err := a.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if result.AnalyzedLogs != 12 {
		t.Errorf("AnalyzedLogs = %d, want 12", result.AnalyzedLogs)
	}
	if result.AnomaliesDetected != 1 {
		t.Errorf("AnomaliesDetected = %d, want 1", result.AnomaliesDetected)
	}
	if result.Recommendations != 1 {
		t.Errorf("Recommendations = %d, want 1", result.Recommendations)
	}

	anomalies, total := a.Anomalies(0)
	if total != 1 || len(anomalies) != 1 {
		t.Fatalf("Anomalies() = %d/%d, want 1/1", len(anomalies), total)
	}
	if anomalies[0].ID == "" {
		t.Error("anomaly has no ID")
	}

	recs := a.Recommendations()
	if len(recs) != 1 || recs[0].Category != "Database" {
		t.Errorf("Recommendations() = %+v", recs)
	}
}

func TestAnalyzeFetchFailureLeavesStateIntact(t *testing.T) {
	src := &source.StaticSource{
		Events: errorEvents("disk failure on volume 2", 12, time.Now()),
	}
	a := New(src, Config{ErrorThreshold: 10})

	if _, err := a.Analyze(context.Background()); err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	before, total := a.Anomalies(0)
	if total != 1 {
		t.Fatalf("setup: %d anomalies, want 1", total)
	}

	src.Err = source.ErrUnavailable
	_, err := a.Analyze(context.Background())
	if err == nil {
		t.Fatal("Analyze should fail when the source is down")
	}
	if !errors.Is(err, source.ErrUnavailable) {
		t.Errorf("error %v does not wrap ErrUnavailable", err)
	}

	after, total := a.Anomalies(0)
	if total != 1 || len(after) != len(before) {
		t.Errorf("failed run mutated state: %d anomalies, want 1", total)
	}
	if a.Stats().TotalAnomalies != 1 {
		t.Errorf("Stats changed after failed run")
	}
}

func TestAnalyzeConcurrentRunsNoDuplicates(t *testing.T) {
	src := &source.StaticSource{
		Events: errorEvents("connection refused by upstream", 15, time.Now()),
	}
	a := New(src, Config{ErrorThreshold: 10})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Analyze(context.Background()); err != nil {
				t.Errorf("Analyze: %v", err)
			}
		}()
	}
	wg.Wait()

	// Runs are serialized; the first fires the anomaly and its cooldown
	// suppresses the other three.
	_, total := a.Anomalies(0)
	if total != 1 {
		t.Errorf("got %d anomalies from 4 concurrent runs, want 1", total)
	}
}

func TestAnalyzeCooldownExpiryAcrossRuns(t *testing.T) {
	src := &source.StaticSource{
		Events: errorEvents("queue consumer lag", 12, time.Now()),
	}
	a := New(src, Config{ErrorThreshold: 10})

	current := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return current }

	if _, err := a.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	current = current.Add(10 * time.Minute)
	if _, err := a.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, total := a.Anomalies(0); total != 1 {
		t.Fatalf("got %d anomalies inside cooldown, want 1", total)
	}

	current = current.Add(25 * time.Minute)
	if _, err := a.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, total := a.Anomalies(0); total != 2 {
		t.Errorf("got %d anomalies after cooldown expiry, want 2", total)
	}
}

func TestAnomaliesLimit(t *testing.T) {
	a := newTestAnalyzer(Config{})
	now := time.Now()

	for i := 0; i < 8; i++ {
		a.appendAnomaly(&models.AnomalyRecord{
			Kind:       models.AnomalyRepeatedError,
			Message:    "pattern",
			DetectedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}

	recent, total := a.Anomalies(3)
	if total != 8 {
		t.Errorf("total = %d, want 8", total)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d records, want 3", len(recent))
	}
	// Most recent three, oldest first.
	if !recent[0].DetectedAt.Equal(now.Add(5 * time.Minute)) {
		t.Errorf("wrong window start: %v", recent[0].DetectedAt)
	}
}

func TestSetThresholds(t *testing.T) {
	a := newTestAnalyzer(Config{ErrorThreshold: 10, ResponseTimeThresholdMs: 2000})

	a.SetThresholds(5, 3000)
	if a.cfg.ErrorThreshold != 5 || a.cfg.ResponseTimeThresholdMs != 3000 {
		t.Errorf("thresholds = %d/%.0f, want 5/3000", a.cfg.ErrorThreshold, a.cfg.ResponseTimeThresholdMs)
	}

	// Zero values leave settings untouched.
	a.SetThresholds(0, 0)
	if a.cfg.ErrorThreshold != 5 || a.cfg.ResponseTimeThresholdMs != 3000 {
		t.Errorf("zero update changed thresholds: %d/%.0f", a.cfg.ErrorThreshold, a.cfg.ResponseTimeThresholdMs)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()

	if cfg.ErrorThreshold != 10 {
		t.Errorf("ErrorThreshold = %d, want 10", cfg.ErrorThreshold)
	}
	if cfg.ResponseTimeThresholdMs != 2000 {
		t.Errorf("ResponseTimeThresholdMs = %.0f, want 2000", cfg.ResponseTimeThresholdMs)
	}
	if cfg.Window != 15*time.Minute {
		t.Errorf("Window = %v, want 15m", cfg.Window)
	}
	if cfg.FrontendService != "frontend" || cfg.BackendService != "backend" {
		t.Errorf("services = %q/%q", cfg.FrontendService, cfg.BackendService)
	}
}

func TestStats(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := newTestAnalyzer(Config{ErrorThreshold: 10})

	a.detectErrorPatterns(errorEvents("cache miss storm", 12, now), now)
	a.generateRecommendations()

	stats := a.Stats()
	if stats.TotalAnomalies != 1 {
		t.Errorf("TotalAnomalies = %d, want 1", stats.TotalAnomalies)
	}
	if stats.ErrorPatternsCount != 1 {
		t.Errorf("ErrorPatternsCount = %d, want 1", stats.ErrorPatternsCount)
	}
	if len(stats.TopErrors) != 1 || stats.TopErrors[0].Count != 12 {
		t.Errorf("TopErrors = %+v", stats.TopErrors)
	}
}

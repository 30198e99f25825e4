package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/calm-violet-crane/aiops-analyzer/internal/metrics"
	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
	"github.com/calm-violet-crane/aiops-analyzer/internal/source"
)

// Config holds the detector thresholds and service identifiers.
type Config struct {
	// ErrorThreshold is the minimum occurrence count for a repeated
	// error signature to fire an anomaly.
	ErrorThreshold int

	// ResponseTimeThresholdMs is the absolute response-time ceiling in
	// milliseconds; the performance detector only fires when the window
	// maximum exceeds it.
	ResponseTimeThresholdMs float64

	// Window is the time span of log events fetched per run.
	Window time.Duration

	// FrontendService and BackendService name the services whose
	// events feed the performance and traffic detectors.
	FrontendService string
	BackendService  string
}

// withDefaults fills zero fields with defaults.
func (c Config) withDefaults() Config {
	if c.ErrorThreshold <= 0 {
		c.ErrorThreshold = 10
	}
	if c.ResponseTimeThresholdMs <= 0 {
		c.ResponseTimeThresholdMs = 2000
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.FrontendService == "" {
		c.FrontendService = "frontend"
	}
	if c.BackendService == "" {
		c.BackendService = "backend"
	}
	return c
}

// RunResult summarizes one analysis run. Counts are post-run totals,
// not per-run deltas.
type RunResult struct {
	AnalyzedLogs      int `json:"analyzed_logs"`
	AnomaliesDetected int `json:"anomalies_detected"`
	Recommendations   int `json:"recommendations"`
}

// Stats is a point-in-time view of the engine's aggregate state.
type Stats struct {
	TotalAnomalies       int                        `json:"total_anomalies"`
	TotalRecommendations int                        `json:"total_recommendations"`
	ErrorPatternsCount   int                        `json:"error_patterns_count"`
	TopErrors            []models.ErrorPatternCount `json:"top_errors"`
}

// Analyzer owns all shared detection state and serializes analysis
// runs. Concurrency policy: a second trigger arriving during a run
// BLOCKS on the run lock and then proceeds against the post-run state;
// the cooldowns fired by the first run suppress duplicate alerts.
// Readers take a read lock over the published state and observe either
// the pre-run or the post-run snapshot, never a partial update.
type Analyzer struct {
	// runMu serializes whole runs, fetch included, so concurrent
	// triggers cannot double-fetch the same window.
	runMu sync.Mutex

	// mu guards all fields below. A run's mutation phase is a single
	// write-lock critical section.
	mu sync.RWMutex

	cfg    Config
	source source.LogSource

	anomalies       []*models.AnomalyRecord
	tally           map[string]int
	tallyOrder      []string
	recommendations []models.Recommendation
	cooldowns       *CooldownManager

	// now is swappable for tests.
	now func() time.Time
}

// New creates an analyzer reading from the given log source.
func New(src source.LogSource, cfg Config) *Analyzer {
	return &Analyzer{
		cfg:       cfg.withDefaults(),
		source:    src,
		tally:     make(map[string]int),
		cooldowns: NewCooldownManager(),
		now:       time.Now,
	}
}

// Analyze executes one full run: fetch the window, run the detectors in
// sequence, regenerate recommendations. A fetch failure aborts the run
// before any state is touched, so prior results stay intact.
func (a *Analyzer) Analyze(ctx context.Context) (RunResult, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	start := time.Now()

	a.mu.RLock()
	window := a.cfg.Window
	a.mu.RUnlock()

	log.Printf("analyzing logs of the last %s", window)

	fetchStart := time.Now()
	events, err := a.source.FetchWindow(ctx, window)
	metrics.SourceFetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		metrics.SourceFetchErrors.Inc()
		metrics.RunsTotal.WithLabelValues("source_error").Inc()
		return RunResult{}, fmt.Errorf("fetch log window: %w", err)
	}

	log.Printf("fetched %d log events", len(events))
	metrics.EventsAnalyzed.Add(float64(len(events)))

	now := a.now()

	a.mu.Lock()
	a.detectErrorPatterns(events, now)
	a.detectPerformanceAnomalies(events, now)
	a.detectTrafficAnomalies(events, now)
	a.generateRecommendations()

	result := RunResult{
		AnalyzedLogs:      len(events),
		AnomaliesDetected: len(a.anomalies),
		Recommendations:   len(a.recommendations),
	}
	a.mu.Unlock()

	metrics.RecommendationsCurrent.Set(float64(result.Recommendations))
	metrics.RunsTotal.WithLabelValues("ok").Inc()
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	return result, nil
}

// SetThresholds updates the detector thresholds at runtime. Zero or
// negative values leave the current setting unchanged. Used by the
// config hot-reload path.
func (a *Analyzer) SetThresholds(errorThreshold int, responseTimeMs float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if errorThreshold > 0 && errorThreshold != a.cfg.ErrorThreshold {
		log.Printf("error threshold updated: %d -> %d", a.cfg.ErrorThreshold, errorThreshold)
		a.cfg.ErrorThreshold = errorThreshold
	}
	if responseTimeMs > 0 && responseTimeMs != a.cfg.ResponseTimeThresholdMs {
		log.Printf("response time threshold updated: %.0fms -> %.0fms", a.cfg.ResponseTimeThresholdMs, responseTimeMs)
		a.cfg.ResponseTimeThresholdMs = responseTimeMs
	}
}

// Anomalies returns up to limit of the most recent anomaly records and
// the total number ever fired. limit <= 0 returns all.
func (a *Analyzer) Anomalies(limit int) ([]*models.AnomalyRecord, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	total := len(a.anomalies)
	start := 0
	if limit > 0 && total > limit {
		start = total - limit
	}

	out := make([]*models.AnomalyRecord, total-start)
	copy(out, a.anomalies[start:])
	return out, total
}

// Recommendations returns the current recommendation set.
func (a *Analyzer) Recommendations() []models.Recommendation {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.Recommendation, len(a.recommendations))
	copy(out, a.recommendations)
	return out
}

// Stats returns aggregate engine statistics including the top five
// error patterns by count.
func (a *Analyzer) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return Stats{
		TotalAnomalies:       len(a.anomalies),
		TotalRecommendations: len(a.recommendations),
		ErrorPatternsCount:   len(a.tally),
		TopErrors:            a.topErrorPatterns(5),
	}
}

// appendAnomaly adds a record to the store. The store is append-only;
// truncation happens only at read time.
//
// Caller holds the state lock.
func (a *Analyzer) appendAnomaly(record *models.AnomalyRecord) {
	a.anomalies = append(a.anomalies, record)
	metrics.AnomaliesTotal.WithLabelValues(string(record.Kind)).Inc()
}

// setTally records the most recent count for a signature. Counts are
// replaced, not accumulated; the tally reflects the latest window.
//
// Caller holds the state lock.
func (a *Analyzer) setTally(signature string, count int) {
	if _, ok := a.tally[signature]; !ok {
		a.tallyOrder = append(a.tallyOrder, signature)
	}
	a.tally[signature] = count
}

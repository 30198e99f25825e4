package models

import "time"

// AnomalyKind identifies the detector that produced an anomaly.
type AnomalyKind string

const (
	AnomalyRepeatedError          AnomalyKind = "repeated_error"
	AnomalyPerformanceDegradation AnomalyKind = "performance_degradation"
	AnomalyUnusualTraffic         AnomalyKind = "unusual_traffic"
)

// Severity represents anomaly and recommendation severity.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
)

// Occurrence is one representative sample of a repeated error.
type Occurrence struct {
	Service         string    `json:"service"`
	Timestamp       time.Time `json:"timestamp"`
	OriginalMessage string    `json:"original_message"`
}

// PerformanceStats summarizes response times for a performance anomaly.
type PerformanceStats struct {
	MeanResponseTime  float64 `json:"mean_response_time"`
	MaxResponseTime   float64 `json:"max_response_time"`
	SlowRequestsCount int     `json:"slow_requests_count"`
	Threshold         float64 `json:"threshold"`
}

// SlowRequest is one representative slow request sample.
type SlowRequest struct {
	Time      float64   `json:"time"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
}

// UnusualEndpoint is an endpoint whose traffic deviates from the
// window's distribution.
type UnusualEndpoint struct {
	Endpoint  string  `json:"endpoint"`
	Count     int     `json:"count"`
	Deviation float64 `json:"deviation"`
}

// AnomalyRecord is a detected anomaly. Records are immutable once
// created; the store only appends them and truncates for display.
type AnomalyRecord struct {
	ID       string      `json:"id"`
	Kind     AnomalyKind `json:"type"`
	Severity Severity    `json:"severity"`
	Message  string      `json:"message"`

	// Kind-specific metadata. Only the fields matching Kind are set.
	Count            int               `json:"count,omitempty"`
	Occurrences      []Occurrence      `json:"occurrences,omitempty"`
	Stats            *PerformanceStats `json:"stats,omitempty"`
	SlowRequests     []SlowRequest     `json:"slow_requests,omitempty"`
	UnusualEndpoints []UnusualEndpoint `json:"unusual_endpoints,omitempty"`

	DetectedAt     time.Time `json:"detected_at"`
	Recommendation string    `json:"recommendation"`
}

// Recommendation is a prioritized remediation suggestion. The current
// set is fully regenerated on every analysis run.
type Recommendation struct {
	Priority    Severity `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// ErrorPatternCount is one (signature, count) pair from the tally.
type ErrorPatternCount struct {
	Signature string `json:"signature"`
	Count     int    `json:"count"`
}

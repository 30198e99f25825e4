// Package api exposes the analyzer's HTTP surface: health, trigger,
// and query endpoints. The handlers are a thin mapping onto the engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/calm-violet-crane/aiops-analyzer/internal/engine"
	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
	"github.com/calm-violet-crane/aiops-analyzer/internal/source"
)

// serviceName is reported by the health endpoint.
const serviceName = "aiops-analyzer"

// maxAnomaliesShown bounds the anomaly listing.
const maxAnomaliesShown = 50

// Engine is the analysis engine surface the handlers need.
// Implemented by *engine.Analyzer.
type Engine interface {
	Analyze(ctx context.Context) (engine.RunResult, error)
	Anomalies(limit int) ([]*models.AnomalyRecord, int)
	Recommendations() []models.Recommendation
	Stats() engine.Stats
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// Handler handles the analyzer endpoints.
type Handler struct {
	engine Engine
}

// NewHandler creates a new API handler.
func NewHandler(eng Engine) *Handler {
	return &Handler{engine: eng}
}

// Health returns basic service health. Always 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Analyze triggers one analysis run synchronously. A concurrent run in
// progress makes this call wait; the engine serializes runs.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.Analyze(r.Context())
	if err != nil {
		log.Printf("analysis run failed: %v", err)

		status := http.StatusInternalServerError
		if errors.Is(err, source.ErrUnavailable) {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// anomaliesResponse wraps the anomaly listing.
type anomaliesResponse struct {
	Anomalies []*models.AnomalyRecord `json:"anomalies"`
	Count     int                     `json:"count"`
}

// Anomalies returns the last 50 anomaly records and the total count of
// records ever fired.
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	records, total := h.engine.Anomalies(maxAnomaliesShown)
	writeJSON(w, http.StatusOK, anomaliesResponse{
		Anomalies: records,
		Count:     total,
	})
}

// recommendationsResponse wraps the recommendation listing.
type recommendationsResponse struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Count           int                     `json:"count"`
}

// Recommendations returns the current recommendation set.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	recs := h.engine.Recommendations()
	writeJSON(w, http.StatusOK, recommendationsResponse{
		Recommendations: recs,
		Count:           len(recs),
	})
}

// Stats returns aggregate engine statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// Package source provides log store access for the analyzer.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/calm-violet-crane/aiops-analyzer/internal/models"
)

// ErrUnavailable indicates the log store could not be queried. A fetch
// failure aborts the analysis run; no retries happen at this layer.
var ErrUnavailable = errors.New("log source unavailable")

// LogSource fetches a window of log events for analysis.
// Implementations must filter to the configured environment and return
// events in descending time order.
type LogSource interface {
	// FetchWindow returns the events of the last window duration.
	FetchWindow(ctx context.Context, window time.Duration) ([]models.LogEvent, error)
}

// StaticSource serves a fixed batch of events. Used as a test fixture
// and for offline runs against captured data.
type StaticSource struct {
	Events []models.LogEvent
	Err    error
}

// FetchWindow returns the configured batch, ignoring the window.
func (s *StaticSource) FetchWindow(ctx context.Context, window time.Duration) ([]models.LogEvent, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Events, nil
}

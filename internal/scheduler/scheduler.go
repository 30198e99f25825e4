// Package scheduler runs the periodic analysis loop.
package scheduler

import (
	"context"
	"log"
	"time"
)

// RunFunc is one scheduled invocation. Errors are logged, not retried;
// retry policy stays with the caller of the engine, and the engine has
// none.
type RunFunc func(ctx context.Context) error

// Scheduler invokes a function on a fixed interval until the context is
// cancelled. Both the scheduler and the HTTP trigger go through the
// same engine entry point, which serializes them.
type Scheduler struct {
	interval time.Duration
	run      RunFunc
}

// New creates a scheduler with the given interval.
func New(interval time.Duration, run RunFunc) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{interval: interval, run: run}
}

// Run blocks, firing the run function every interval, until ctx is
// cancelled. The first invocation happens after one full interval.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Printf("scheduler started, interval %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			log.Printf("running scheduled analysis")
			if err := s.run(ctx); err != nil {
				log.Printf("scheduled analysis failed: %v", err)
			}
		}
	}
}

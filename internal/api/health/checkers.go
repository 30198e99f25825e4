package health

import "context"

// Pinger is anything with a Ping health probe, e.g. the log source.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker adapts a Pinger into a named Checker.
type PingChecker struct {
	name   string
	pinger Pinger
}

// NewPingChecker creates a checker for the given dependency.
func NewPingChecker(name string, p Pinger) *PingChecker {
	return &PingChecker{name: name, pinger: p}
}

// Name returns the dependency name.
func (c *PingChecker) Name() string {
	return c.name
}

// Check pings the dependency.
func (c *PingChecker) Check(ctx context.Context) error {
	return c.pinger.Ping(ctx)
}

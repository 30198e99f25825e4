package engine

import "time"

// Default cooldown durations per anomaly kind.
const (
	repeatedErrorCooldown  = 30 * time.Minute
	performanceCooldown    = 15 * time.Minute
	unusualTrafficCooldown = 20 * time.Minute
)

// Fixed cooldown keys for the aggregate detectors. Repeated-error
// alerts are keyed by signature instead, so they throttle per pattern.
const (
	performanceCooldownKey    = "performance_degradation"
	unusualTrafficCooldownKey = "unusual_traffic"
)

// CooldownManager tracks, per alert key, the time after which that
// alert may fire again. Expired entries are never removed; they stay
// inert until overwritten.
//
// The manager is not safe for concurrent use. The orchestrator owns it
// and serializes all access through its run lock.
type CooldownManager struct {
	expiries map[string]time.Time
}

// NewCooldownManager creates an empty cooldown manager.
func NewCooldownManager() *CooldownManager {
	return &CooldownManager{
		expiries: make(map[string]time.Time),
	}
}

// IsActive reports whether the key is cooling down at the given time.
// A key with no stored expiry is never active.
func (cm *CooldownManager) IsActive(key string, now time.Time) bool {
	expiry, ok := cm.expiries[key]
	if !ok {
		return false
	}
	return now.Before(expiry)
}

// Activate sets the key's expiry to now + duration, overwriting any
// prior value.
func (cm *CooldownManager) Activate(key string, now time.Time, duration time.Duration) {
	cm.expiries[key] = now.Add(duration)
}

// Remaining returns how long the key stays on cooldown, or zero.
func (cm *CooldownManager) Remaining(key string, now time.Time) time.Duration {
	expiry, ok := cm.expiries[key]
	if !ok {
		return 0
	}
	remaining := expiry.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Len returns the number of tracked keys, active or expired.
func (cm *CooldownManager) Len() int {
	return len(cm.expiries)
}

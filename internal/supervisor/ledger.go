package supervisor

import "time"

const (
	// CrashHorizon is how far back start attempts count toward a crash loop.
	CrashHorizon = 5 * time.Minute
	// CrashThreshold attempts inside the horizon trip the breaker.
	CrashThreshold = 3
)

// CrashLedger is a time-ordered record of start attempts, successful or not.
type CrashLedger struct {
	horizon time.Duration
	entries []time.Time
}

func NewCrashLedger(horizon time.Duration) *CrashLedger {
	if horizon <= 0 {
		horizon = CrashHorizon
	}
	return &CrashLedger{horizon: horizon}
}

// Record appends an attempt made at now.
func (c *CrashLedger) Record(now time.Time) {
	c.entries = append(c.entries, now)
}

// Prune drops every attempt older than the horizon. It must run before
// Count is used for a decision.
func (c *CrashLedger) Prune(now time.Time) {
	keep := c.entries[:0]
	for _, t := range c.entries {
		if now.Sub(t) <= c.horizon {
			keep = append(keep, t)
		}
	}
	c.entries = keep
}

// Count returns the number of retained attempts.
func (c *CrashLedger) Count() int {
	return len(c.entries)
}

// Oldest returns the earliest retained attempt.
func (c *CrashLedger) Oldest() (time.Time, bool) {
	if len(c.entries) == 0 {
		return time.Time{}, false
	}
	return c.entries[0], true
}

// ResumesAt returns the instant after which fewer than threshold attempts
// will remain, i.e. when restarts are allowed again. ok is false when the
// ledger is already below threshold.
func (c *CrashLedger) ResumesAt(threshold int) (time.Time, bool) {
	n := len(c.entries)
	if threshold <= 0 || n < threshold {
		return time.Time{}, false
	}
	return c.entries[n-threshold].Add(c.horizon), true
}

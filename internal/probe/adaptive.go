package probe

import (
	"sync"
	"time"
)

// EWMA weights for the per-endpoint success rate. Old observations dominate
// so a single bad probe does not flip the timeout regime.
const (
	ewmaOldWeight = 0.7
	ewmaNewWeight = 0.3
)

// SuccessRateTracker keeps an exponentially weighted moving average of the
// success ratio per endpoint key. Shared across all workers.
type SuccessRateTracker struct {
	mu    sync.RWMutex
	rates map[string]float64
}

func NewSuccessRateTracker() *SuccessRateTracker {
	return &SuccessRateTracker{rates: make(map[string]float64)}
}

// Rate returns the tracked success rate for the key, or 1.0 for endpoints
// that have never been probed.
func (t *SuccessRateTracker) Rate(key string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rate, ok := t.rates[key]
	if !ok {
		return 1.0
	}
	return rate
}

// Update folds a completed probe's raw success ratio into the average.
// The first observation seeds the average directly.
func (t *SuccessRateTracker) Update(key string, ratio float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	old, ok := t.rates[key]
	if !ok {
		t.rates[key] = ratio
		return ratio
	}
	updated := old*ewmaOldWeight + ratio*ewmaNewWeight
	t.rates[key] = updated
	return updated
}

// AdaptiveTimeoutController derives connect timeouts from endpoint history:
// flaky endpoints get more headroom, reliable ones get tightened.
type AdaptiveTimeoutController struct {
	tracker *SuccessRateTracker
	min     time.Duration
	max     time.Duration
}

func NewAdaptiveTimeoutController(tracker *SuccessRateTracker, min, max time.Duration) *AdaptiveTimeoutController {
	return &AdaptiveTimeoutController{tracker: tracker, min: min, max: max}
}

// InitialTimeout picks the first attempt's timeout from the endpoint's
// tracked success rate.
func (c *AdaptiveTimeoutController) InitialTimeout(key string, configured time.Duration) time.Duration {
	rate := c.tracker.Rate(key)

	timeout := configured
	switch {
	case rate < 0.5:
		timeout = time.Duration(float64(configured) * 1.5)
	case rate > 0.9:
		timeout = time.Duration(float64(configured) * 0.7)
	}
	return c.clamp(timeout)
}

// NextTimeout adjusts the timeout between attempts within one probe: grow
// after a timeout, shrink after a success, hold otherwise.
func (c *AdaptiveTimeoutController) NextTimeout(current time.Duration, last ResultKind) time.Duration {
	switch last {
	case ResultTimeout:
		current = time.Duration(float64(current) * 1.5)
	case ResultSuccess:
		current = time.Duration(float64(current) * 0.8)
	}
	return c.clamp(current)
}

// RecordProbe updates the tracker after a probe completes.
func (c *AdaptiveTimeoutController) RecordProbe(key string, successful, total int) float64 {
	ratio := 0.0
	if total > 0 {
		ratio = float64(successful) / float64(total)
	}
	return c.tracker.Update(key, ratio)
}

func (c *AdaptiveTimeoutController) clamp(d time.Duration) time.Duration {
	if d < c.min {
		return c.min
	}
	if d > c.max {
		return c.max
	}
	return d
}

// FailureHistory retains the most recent attempts per endpoint for
// diagnostics. It plays no part in probing decisions.
type FailureHistory struct {
	mu       sync.Mutex
	limit    int
	attempts map[string][]Attempt
}

func NewFailureHistory(limit int) *FailureHistory {
	if limit <= 0 {
		limit = 10
	}
	return &FailureHistory{
		limit:    limit,
		attempts: make(map[string][]Attempt),
	}
}

func (h *FailureHistory) Record(key string, attempts []Attempt) {
	h.mu.Lock()
	defer h.mu.Unlock()

	combined := append(h.attempts[key], attempts...)
	if len(combined) > h.limit {
		combined = combined[len(combined)-h.limit:]
	}
	h.attempts[key] = combined
}

// History returns a copy of the retained attempts for the key.
func (h *FailureHistory) History(key string) []Attempt {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Attempt, len(h.attempts[key]))
	copy(out, h.attempts[key])
	return out
}

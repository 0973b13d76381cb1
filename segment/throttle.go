package segment

import (
	"sync"
	"time"
)

// DefaultInterval is the minimum spacing between segmentation requests.
const DefaultInterval = 60 * time.Millisecond

// Throttle admits at most one event per interval. It only limits the
// request rate; it never waits for a previous request to complete.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	tp       TimeProvider
}

// NewThrottle creates a throttle. A nil TimeProvider uses wall-clock time.
func NewThrottle(interval time.Duration, tp TimeProvider) *Throttle {
	if tp == nil {
		tp = DefaultTimeProvider{}
	}
	return &Throttle{interval: interval, tp: tp}
}

// Allow reports whether an event may fire now and, if so, records it.
// The first call always succeeds; later calls succeed once strictly more
// than interval has elapsed since the last admitted event.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && t.tp.Since(t.last) <= t.interval {
		return false
	}
	t.last = t.tp.Now()
	return true
}

// Reset forgets the last admitted event.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.last = time.Time{}
	t.mu.Unlock()
}

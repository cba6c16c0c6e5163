package httpsign

import (
	"sync"
	"time"
)

const (
	// breakerThreshold is the number of consecutive failed signing calls
	// before further calls fail fast.
	breakerThreshold = 3

	// breakerCooldown is how long signing calls fail fast once the
	// threshold is reached.
	breakerCooldown = time.Minute
)

// breaker is the open/closed gate in front of the signing endpoint: after
// breakerThreshold consecutive failures, calls fail fast until
// breakerCooldown has passed, then a single probe call is let through.
type breaker struct {
	mu sync.Mutex

	now       func() time.Time
	failures  int
	openUntil time.Time
}

func newBreaker() *breaker {
	return &breaker{now: time.Now}
}

// allow reports whether a signing call may proceed. While the cooldown is
// running it returns false; the first call after it expires is allowed as
// a probe, and the cooldown re-arms so concurrent callers stay blocked
// until record reports the probe's outcome.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() {
		return true
	}

	if b.now().Before(b.openUntil) {
		return false
	}

	b.openUntil = b.now().Add(breakerCooldown)

	return true
}

// record reports the outcome of an allowed call. A success closes the
// gate and resets the failure count; a failure counts toward the
// threshold and opens the gate once reached.
func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.openUntil = time.Time{}

		return
	}

	b.failures++
	if b.failures >= breakerThreshold {
		b.openUntil = b.now().Add(breakerCooldown)
	}
}

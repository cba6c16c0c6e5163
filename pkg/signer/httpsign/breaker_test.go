package httpsign

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	current := time.Date(2023, 2, 22, 12, 0, 0, 0, time.UTC)

	b := newBreaker()
	b.now = func() time.Time { return current }

	fail := errors.New("boom")

	for range breakerThreshold {
		assert.True(t, b.allow())
		b.record(fail)
	}

	assert.False(t, b.allow())

	current = current.Add(breakerCooldown)
	assert.True(t, b.allow(), "first call after the cooldown probes the endpoint")
	assert.False(t, b.allow(), "the probe re-arms the cooldown for concurrent callers")

	b.record(nil)
	assert.True(t, b.allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	b := newBreaker()
	fail := errors.New("boom")

	b.record(fail)
	b.record(fail)
	b.record(nil)

	for range breakerThreshold - 1 {
		b.record(fail)
	}

	assert.True(t, b.allow(), "failures before a success must not count toward the threshold")
}

package core

import (
	"time"
)

// DefaultRetryDelay is the base backoff used when a job specifies none
const DefaultRetryDelay = 5 * time.Second

// RetryPolicy computes exponential backoff delays for failed attempts
type RetryPolicy struct {
	// MaxDelay caps the computed delay. Zero means no cap.
	MaxDelay time.Duration
}

// Delay returns the backoff before the given attempt (1-based):
// base * 2^(attempt-1), capped at MaxDelay.
func (p RetryPolicy) Delay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = DefaultRetryDelay
	}
	if attempt < 1 {
		attempt = 1
	}

	// Beyond 30 doublings the shift would overflow; the cap applies anyway.
	if attempt > 31 {
		attempt = 31
	}
	delay := base << uint(attempt-1)

	if p.MaxDelay > 0 && (delay > p.MaxDelay || delay < base) {
		delay = p.MaxDelay
	}
	return delay
}

package fetch

import (
	"time"
)

// RetryPolicy bounds how often a request is attempted and how long to wait
// between attempts. Delays double from BaseDelay and stop growing at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func NewRetryPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: retries + 1,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

func (p RetryPolicy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait before retry number n, starting at 1.
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	delay := p.BaseDelay * time.Duration(1<<uint(n-1))
	if p.MaxDelay > 0 && (delay > p.MaxDelay || delay <= 0) {
		return p.MaxDelay
	}
	return delay
}

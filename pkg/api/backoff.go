package api

import (
	"math/rand/v2"
	"time"
)

const maxRetryDelay = 5 * time.Second

// retryDelay returns base * 2^(attempt-1) with ±20% jitter, capped at 5s.
func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 || base <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	if d <= 0 || d > maxRetryDelay {
		d = maxRetryDelay
	}
	jitter := 1 + (rand.Float64()*2-1)*0.2
	return time.Duration(float64(d) * jitter)
}

// retryable reports whether a failed call may succeed on another attempt.
func retryable(status int) bool {
	switch {
	case status == 0:
		return true
	case status >= 500:
		return true
	case status == 408, status == 425, status == 429:
		return true
	default:
		return false
	}
}

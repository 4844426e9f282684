package api

import (
	"sync"
	"time"
)

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops calls to a backend after consecutive failures. After the
// recovery timeout it lets calls through again in half-open state; enough
// consecutive successes close it, any failure opens it again.
// A nil *Breaker allows everything.
type Breaker struct {
	failureThreshold int
	successThreshold int
	recovery         time.Duration
	now              func() time.Time
	onChange         func(BreakerState)

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
}

// NewBreaker creates a closed breaker. Non-positive values fall back to 5
// failures, 2 successes and 30s recovery. onChange may be nil.
func NewBreaker(failures, successes int, recovery time.Duration, onChange func(BreakerState)) *Breaker {
	if failures <= 0 {
		failures = 5
	}
	if successes <= 0 {
		successes = 2
	}
	if recovery <= 0 {
		recovery = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: failures,
		successThreshold: successes,
		recovery:         recovery,
		now:              time.Now,
		onChange:         onChange,
	}
}

// Allow reports whether a call may proceed. An open breaker whose recovery
// timeout elapsed moves to half-open.
func (b *Breaker) Allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.now().Sub(b.openedAt) < b.recovery {
			return false
		}
		b.setLocked(BreakerHalfOpen)
	}
	return true
}

func (b *Breaker) Success() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.setLocked(BreakerClosed)
		}
	}
}

func (b *Breaker) Failure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.setLocked(BreakerOpen)
		}
	case BreakerHalfOpen:
		b.setLocked(BreakerOpen)
	case BreakerOpen:
		b.openedAt = b.now()
	}
}

func (b *Breaker) State() BreakerState {
	if b == nil {
		return BreakerClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// setLocked must be called with b.mu held.
func (b *Breaker) setLocked(s BreakerState) {
	b.state = s
	b.failures, b.successes = 0, 0
	if s == BreakerOpen {
		b.openedAt = b.now()
	}
	if b.onChange != nil {
		b.onChange(s)
	}
}

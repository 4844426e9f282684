package location

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/metrics"
)

// Option configures a Channel.
type Option func(*Channel)

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// WithWatchOptions overrides DefaultWatchOptions.
func WithWatchOptions(o WatchOptions) Option {
	return func(c *Channel) {
		c.watchOpts = o
	}
}

// WithBuffer sets the capacity of the device sample queue and of each
// Subscribe stream. Default is 16.
func WithBuffer(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithStrictRoles makes a start call fail with ErrRoleConflict while the
// other role is active, instead of switching.
func WithStrictRoles() Option {
	return func(c *Channel) {
		c.strict = true
	}
}

// WithClock overrides time.Now for samples without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

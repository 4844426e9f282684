package notifications

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/async"
	"github.com/dmitrymomot/caronakit/pkg/broadcast"
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

// WithRunner sets the runner used for background backend calls.
func WithRunner(r *async.Runner) Option {
	return func(c *Channel) {
		if r != nil {
			c.runner = r
		}
	}
}

// WithClock overrides time.Now for timestamps and relative labels.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}

// WithListQuery sets the size and filters used by LoadPage. The page field is ignored.
func WithListQuery(q ListQuery) Option {
	return func(c *Channel) {
		if q.Size <= 0 {
			q.Size = DefaultPageSize
		}
		c.query = q
	}
}

// WithPageSize sets the LoadPage page size.
func WithPageSize(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.query.Size = n
		}
	}
}

// WithEventBuffer sets the per-subscriber buffer of Subscribe streams.
func WithEventBuffer(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.events = broadcast.NewMemoryBroadcaster[Event](n)
		}
	}
}

package navigation

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/metrics"
)

const (
	DefaultReadyTimeout  = 2 * time.Second
	DefaultCacheSize     = 128
	DefaultCacheTTL      = 5 * time.Minute
	DefaultFetchTimeout  = 10 * time.Second
	DefaultFallbackTitle = "Abrir manualmente"
)

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithReadyTimeout bounds the wait for Host.Ready.
func WithReadyTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.readyTimeout = d
		}
	}
}

// WithCache sets the ride cache capacity and entry lifetime. A size of zero
// disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cacheSize, r.cacheTTL = size, ttl
	}
}

// WithFallbackMessage overrides the text shown when navigation fails.
func WithFallbackMessage(title, message string) Option {
	return func(r *Resolver) {
		r.fallbackTitle, r.fallbackMessage = title, message
	}
}

// WithClock overrides time.Now for the ride cache.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithFetchTimeout bounds one ride lookup. Lookups are shared between
// concurrent callers, so they do not inherit a single caller's deadline.
func WithFetchTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.fetchTimeout = d
		}
	}
}

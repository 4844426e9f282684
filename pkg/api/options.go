package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/metrics"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker replaces the breaker built from Config. nil disables it.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) {
		c.breaker = b
		c.customBreaker = true
	}
}

// WithClock overrides time.Now for parsed notifications.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

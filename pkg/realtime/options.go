package realtime

import (
	"log/slog"

	"github.com/dmitrymomot/caronakit/pkg/location"
	"github.com/dmitrymomot/caronakit/pkg/metrics"
	"github.com/dmitrymomot/caronakit/pkg/navigation"
	"github.com/dmitrymomot/caronakit/pkg/notifications"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTransport replaces the WebSocket transport of both endpoints.
func WithTransport(t stomp.Transport) Option {
	return func(s *Session) {
		s.transport = t
	}
}

// WithProvider sets the device location source used for driver sharing.
func WithProvider(p location.Provider) Option {
	return func(s *Session) {
		s.provider = p
	}
}

// WithBackend replaces the REST client as the notification backend.
func WithBackend(b notifications.Backend) Option {
	return func(s *Session) {
		s.backend = b
	}
}

// WithRideFetcher replaces the REST client as the ride lookup.
func WithRideFetcher(f navigation.RideFetcher) Option {
	return func(s *Session) {
		s.fetcher = f
	}
}

// WithHost sets the UI that performs navigation. The default host only logs.
func WithHost(h navigation.Host) Option {
	return func(s *Session) {
		s.host = h
	}
}

// WithPresenter sets where fallback messages are shown. The default logs them.
func WithPresenter(p navigation.Presenter) Option {
	return func(s *Session) {
		s.presenter = p
	}
}

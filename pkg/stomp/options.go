package stomp

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/caronakit/pkg/metrics"
)

// Option configures a Manager.
type Option func(*Manager)

// WithConfig applies the timing and host settings of cfg. The URL is ignored;
// it is passed to NewManager per endpoint.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		if cfg.Host != "" {
			m.host = cfg.Host
		}
		if cfg.Heartbeat >= 0 {
			m.heartbeat = cfg.Heartbeat
		}
		if cfg.ReconnectDelay > 0 {
			m.reconnectDelay = cfg.ReconnectDelay
		}
		if cfg.ConnectTimeout > 0 {
			m.connectTimeout = cfg.ConnectTimeout
		}
	}
}

// WithTransport replaces the default WebSocket transport.
func WithTransport(t Transport) Option {
	return func(m *Manager) {
		if t != nil {
			m.transport = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func WithMetrics(c *metrics.Collectors) Option {
	return func(m *Manager) {
		m.metrics = c
	}
}

// WithHeartbeat sets the heartbeat interval proposed in both directions.
// Zero disables heartbeats.
func WithHeartbeat(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.heartbeat = d
		}
	}
}

// WithReconnectDelay sets the fixed pause between connection attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.reconnectDelay = d
		}
	}
}

// WithConnectTimeout bounds dialing plus the CONNECT handshake.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.connectTimeout = d
		}
	}
}

// WithHost overrides the STOMP host header. Defaults to the URL host.
func WithHost(host string) Option {
	return func(m *Manager) {
		if host != "" {
			m.host = host
		}
	}
}

// WithConnectHeader adds a header to every CONNECT frame.
func WithConnectHeader(key, value string) Option {
	return func(m *Manager) {
		if key != "" {
			m.connectHeaders = append(m.connectHeaders, key, value)
		}
	}
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*entry)

// WithID sets the subscription id. Re-using an id replaces the earlier
// subscription. Defaults to a random UUID.
func WithID(id string) SubscribeOption {
	return func(e *entry) {
		if id != "" {
			e.id = id
		}
	}
}

// WithSubscribeHeader adds a header to the SUBSCRIBE frame.
func WithSubscribeHeader(key, value string) SubscribeOption {
	return func(e *entry) {
		if key != "" {
			e.headers = append(e.headers, key, value)
		}
	}
}

package stomp

import (
	"strings"
	"time"
)

// Config holds connection settings shared by every endpoint of a session.
type Config struct {
	URL            string        `env:"CARONA_WS_URL" envDefault:"ws://localhost:8080"`
	Host           string        `env:"CARONA_WS_HOST"`
	Heartbeat      time.Duration `env:"CARONA_WS_HEARTBEAT" envDefault:"4s"`
	ReconnectDelay time.Duration `env:"CARONA_WS_RECONNECT_DELAY" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"CARONA_WS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the values used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		URL:            "ws://localhost:8080",
		Heartbeat:      4 * time.Second,
		ReconnectDelay: 5 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// Endpoint joins the base URL with an endpoint path such as "/ws-location".
func (c Config) Endpoint(path string) string {
	return strings.TrimRight(c.URL, "/") + "/" + strings.TrimLeft(path, "/")
}

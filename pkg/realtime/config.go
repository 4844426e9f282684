package realtime

import (
	"time"

	"github.com/dmitrymomot/caronakit/pkg/api"
	"github.com/dmitrymomot/caronakit/pkg/stomp"
)

// Config is the full session configuration. Nested configs read their own
// variables.
type Config struct {
	Stomp stomp.Config
	API   api.Config

	NotificationsEndpoint string        `env:"CARONA_NOTIFICATIONS_ENDPOINT" envDefault:"/ws-notificacoes"`
	LocationEndpoint      string        `env:"CARONA_LOCATION_ENDPOINT" envDefault:"/ws-location"`
	PageSize              int           `env:"CARONA_PAGE_SIZE" envDefault:"20"`
	ReadyTimeout          time.Duration `env:"CARONA_NAVIGATION_READY_TIMEOUT" envDefault:"2s"`
	StrictRoles           bool          `env:"CARONA_STRICT_ROLES" envDefault:"false"`
	CloseTimeout          time.Duration `env:"CARONA_CLOSE_TIMEOUT" envDefault:"5s"`
}

// DefaultConfig returns the values used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		Stomp:                 stomp.DefaultConfig(),
		API:                   api.DefaultConfig(),
		NotificationsEndpoint: "/ws-notificacoes",
		LocationEndpoint:      "/ws-location",
		PageSize:              20,
		ReadyTimeout:          2 * time.Second,
		CloseTimeout:          5 * time.Second,
	}
}

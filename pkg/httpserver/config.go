package httpserver

import "time"

type Config struct {
	Addr            string        `env:"CARONA_METRICS_ADDR" envDefault:":9090"`
	ReadTimeout     time.Duration `env:"CARONA_ADMIN_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"CARONA_ADMIN_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"CARONA_ADMIN_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// NewFromConfig creates a Server from cfg. Zero values keep the defaults;
// opts are applied last.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	configOpts := make([]Option, 0, 4+len(opts))
	if cfg.Addr != "" {
		configOpts = append(configOpts, WithAddr(cfg.Addr))
	}
	if cfg.ReadTimeout > 0 {
		configOpts = append(configOpts, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.WriteTimeout > 0 {
		configOpts = append(configOpts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	return New(append(configOpts, opts...)...)
}

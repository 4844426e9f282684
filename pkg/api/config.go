package api

import "time"

// Config holds the REST client settings.
type Config struct {
	BaseURL         string        `env:"CARONA_API_URL" envDefault:"http://localhost:8080/api"`
	Token           string        `env:"CARONA_API_TOKEN"`
	Timeout         time.Duration `env:"CARONA_API_TIMEOUT" envDefault:"10s"`
	MaxRetries      int           `env:"CARONA_API_MAX_RETRIES" envDefault:"2"`
	RetryDelay      time.Duration `env:"CARONA_API_RETRY_DELAY" envDefault:"200ms"`
	BreakerFailures int           `env:"CARONA_API_BREAKER_FAILURES" envDefault:"5"`
	BreakerRecovery time.Duration `env:"CARONA_API_BREAKER_RECOVERY" envDefault:"30s"`
}

// DefaultConfig returns the values used when no environment is loaded.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8080/api",
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		RetryDelay:      200 * time.Millisecond,
		BreakerFailures: 5,
		BreakerRecovery: 30 * time.Second,
	}
}

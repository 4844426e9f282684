// Package config loads typed configuration from the process environment.
//
// It wraps github.com/joho/godotenv (reading .env files) and
// github.com/caarlos0/env/v11 (parsing `env` struct tags). Every caronakit
// component that needs settings declares its own struct, for example
// stomp.Config or api.Config, and the application loads them here:
//
//	if err := config.LoadEnv(".env.local"); err != nil && !errors.Is(err, fs.ErrNotExist) {
//	    log.Fatal(err)
//	}
//
//	var cfg realtime.Config
//	config.MustLoad(&cfg)
//
// Parsed values are cached per type, so repeated Load calls are cheap and all
// callers observe the same configuration. ForceReload and ResetCache exist for
// tests that change the environment between cases.
package config

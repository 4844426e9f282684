package config

import (
	"fmt"
	"os"
)

func setMissing(values map[string]string) error {
	for k, v := range values {
		if _, exists := os.LookupEnv(k); exists {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("config: set %s: %w", k, err)
		}
	}
	return nil
}

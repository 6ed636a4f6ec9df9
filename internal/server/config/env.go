package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name, e.g. LIFECYCLE_GRACE_PERIOD.
const EnvPrefix = "LIFECYCLE_"

// parseEnv overlays variables that are present; unset ones keep the value
// already in config.
func parseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

package config

import (
	"github.com/caarlos0/env/v11"

	"github.com/logdex/logdex/internal/errors"
)

// parseEnv applies LOGDEX_ environment variable overrides on top of the
// default configuration.
func parseEnv(common *CommonConfig) error {
	if err := env.Parse(common); err != nil {
		return errors.Wrap(err, "parsing environment configuration")
	}
	return nil
}

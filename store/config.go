package store

import (
	"github.com/rs/zerolog"
)

// Config holds configuration for the Store.
type Config struct {
	// Environment is prefixed to the physical table names.
	// Default: "" (tables "generalsk" and "generaldk")
	Environment string

	// Logger receives copy progress and, with Debug, per-item traces.
	// Default: a disabled logger
	Logger *zerolog.Logger

	// Debug logs every item touched by bulk operations.
	Debug bool
}

// DefaultConfig returns a configuration for the unprefixed tables.
func DefaultConfig() Config {
	return Config{}
}

// validate fills in defaults.
func (c *Config) validate() {
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

package collector

import (
	"time"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

const (
	defaultCacheTTL        = 5 * time.Second
	defaultProviderTimeout = 5 * time.Second
)

type Config struct {
	// CacheTTL bounds provider call rate under request bursts. Zero
	// disables caching.
	CacheTTL time.Duration
	// ProviderTimeout bounds each individual provider call so one hung
	// provider cannot starve the others.
	ProviderTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:        defaultCacheTTL,
		ProviderTimeout: defaultProviderTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.CacheTTL < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "cache TTL must not be negative")
	}

	if c.ProviderTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "provider timeout must be positive")
	}

	return nil
}

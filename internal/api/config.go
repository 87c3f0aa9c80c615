package api

import (
	"time"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second
	defaultHistoryLimit    = 100
	maxHistoryLimit        = 1000
)

type Config struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func DefaultConfig(listenAddress string) Config {
	return Config{
		ListenAddress:   listenAddress,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

func (c Config) Validate() error {
	if c.ListenAddress == "" {
		return errors.New().WithData(errors.ErrInvalidConfig, "listen address must not be empty")
	}

	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New().WithData(errors.ErrInvalidConfig, "server timeouts must be positive")
	}

	return nil
}

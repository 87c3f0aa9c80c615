package collector

import "codeberg.org/mutker/deviceapi/internal/errors"

const (
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrCollectFailed = errors.ErrCollectMetrics
	ErrSourceTimeout = errors.ErrTimeout
)

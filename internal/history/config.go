package history

import "codeberg.org/mutker/deviceapi/internal/errors"

const (
	defaultDirPerm      = 0o755
	defaultBatchSize    = 10
	defaultBatchTimeout = 30
)

type Config struct {
	DBPath string
	// BatchSize is the number of buffered snapshots that triggers a flush.
	BatchSize int
	// BatchTimeout is the flush interval in seconds for partially filled
	// batches.
	BatchTimeout int
}

func DefaultConfig(dbPath string) Config {
	return Config{
		DBPath:       dbPath,
		BatchSize:    defaultBatchSize,
		BatchTimeout: defaultBatchTimeout,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}

	if c.BatchSize <= 0 || c.BatchTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "batch size and timeout must be positive")
	}

	return nil
}

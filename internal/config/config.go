package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/deviceapi/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel        = "info"
	DefaultListenAddress   = "0.0.0.0:9090"
	defaultCacheTTL        = 5 * time.Second
	defaultProviderTimeout = 5 * time.Second
	defaultHistoryDB       = "/var/lib/deviceapi/history.db"

	envPrefix    = "DEVICEAPI"
	envConfigKey = "DEVICEAPI_CONFIG"
)

type Config struct {
	ListenAddress    string        `mapstructure:"listen_address"`
	LogLevel         string        `mapstructure:"log_level"`
	PlatformOverride string        `mapstructure:"platform_override"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	ProviderTimeout  time.Duration `mapstructure:"provider_timeout"`
	History          bool          `mapstructure:"history"`
	HistoryDB        string        `mapstructure:"history_db"`
	Scoring          Scoring       `mapstructure:"scoring"`
}

// Scoring holds the tunable thresholds and caps for the health score.
// Values are percentages except the penalty and bonus fields, which are
// score points.
type Scoring struct {
	CPUWarn        float64 `mapstructure:"cpu_warn"`
	CPUCap         float64 `mapstructure:"cpu_cap"`
	MemoryWarn     float64 `mapstructure:"memory_warn"`
	MemoryCap      float64 `mapstructure:"memory_cap"`
	DiskWarn       float64 `mapstructure:"disk_warn"`
	DiskCap        float64 `mapstructure:"disk_cap"`
	UnknownPenalty float64 `mapstructure:"unknown_penalty"`
	UptimeBonusMax float64 `mapstructure:"uptime_bonus_max"`
}

func DefaultScoring() Scoring {
	return Scoring{
		CPUWarn:        80,
		CPUCap:         30,
		MemoryWarn:     80,
		MemoryCap:      30,
		DiskWarn:       85,
		DiskCap:        25,
		UnknownPenalty: 15,
		UptimeBonusMax: 5,
	}
}

func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("listen_address", DefaultListenAddress)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("platform_override", "")
	v.SetDefault("cache_ttl", defaultCacheTTL)
	v.SetDefault("provider_timeout", defaultProviderTimeout)
	v.SetDefault("history", false)
	v.SetDefault("history_db", defaultHistoryDB)

	scoring := DefaultScoring()
	v.SetDefault("scoring.cpu_warn", scoring.CPUWarn)
	v.SetDefault("scoring.cpu_cap", scoring.CPUCap)
	v.SetDefault("scoring.memory_warn", scoring.MemoryWarn)
	v.SetDefault("scoring.memory_cap", scoring.MemoryCap)
	v.SetDefault("scoring.disk_warn", scoring.DiskWarn)
	v.SetDefault("scoring.disk_cap", scoring.DiskCap)
	v.SetDefault("scoring.unknown_penalty", scoring.UnknownPenalty)
	v.SetDefault("scoring.uptime_bonus_max", scoring.UptimeBonusMax)

	flags := pflag.NewFlagSet("deviceapi", pflag.ContinueOnError)
	// os.Args may carry flags that are not ours, such as the test binary's
	// -test.* set
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.String("listen-address", DefaultListenAddress, "Address to serve the device API on")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.String("platform-override", "", "Force a specific platform instead of detecting")
	flags.Duration("cache-ttl", defaultCacheTTL, "How long collected metrics stay fresh")
	flags.Duration("provider-timeout", defaultProviderTimeout, "Per-provider collection timeout")
	flags.Bool("history", false, "Record metric snapshots to the history database")
	flags.String("history-db", defaultHistoryDB, "Path to the history database")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	flags.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Accept the short form alongside the prefixed key
	if err := v.BindEnv("platform_override", "DEVICEAPI_PLATFORM", "DEVICEAPI_PLATFORM_OVERRIDE"); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if path := os.Getenv(envConfigKey); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("deviceapi")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file").WithData(err.Error())
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if !isValidLogLevel(c.LogLevel) {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.CacheTTL < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "cache_ttl must not be negative")
	}

	if c.ProviderTimeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "provider_timeout must be positive")
	}

	if c.History && c.HistoryDB == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "history_db is required when history is enabled")
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/deviceapi/internal/api"
	"codeberg.org/mutker/deviceapi/internal/collector"
	"codeberg.org/mutker/deviceapi/internal/config"
	"codeberg.org/mutker/deviceapi/internal/errors"
	"codeberg.org/mutker/deviceapi/internal/health"
	"codeberg.org/mutker/deviceapi/internal/history"
	"codeberg.org/mutker/deviceapi/internal/logger"
	"codeberg.org/mutker/deviceapi/internal/pid"
	"codeberg.org/mutker/deviceapi/internal/platform"
	"codeberg.org/mutker/deviceapi/internal/registry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		fatal(err, "another instance is running or the PID file is stuck")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	p, err := platform.Detect(cfg.PlatformOverride)
	if err != nil {
		fatal(err, "platform detection failed")
	}
	logger.Info().
		Str("platform", string(p)).
		Str("service_manager", p.ServiceManager()).
		Msg("Platform detected")

	reg := registry.New(p)
	if err := registry.Populate(reg); err != nil {
		fatal(err, "failed to populate provider registry")
	}
	if missing := reg.Validate(); len(missing) > 0 {
		fatal(errors.New().WithData(registry.ErrMissingBindings, missing),
			"required provider bindings are missing")
	}

	var repo *history.Repository
	var facadeOpts []collector.Option
	var apiOpts []api.Option
	if cfg.History {
		repo, err = history.NewRepository(history.DefaultConfig(cfg.HistoryDB), logger.Default())
		if err != nil {
			fatal(err, "failed to open history repository")
		}
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close history repository")
			}
		}()
		facadeOpts = append(facadeOpts, collector.WithRecorder(repo))
		apiOpts = append(apiOpts, api.WithHistory(repo))
	}

	facade, err := collector.New(reg, collector.Config{
		CacheTTL:        cfg.CacheTTL,
		ProviderTimeout: cfg.ProviderTimeout,
	}, facadeOpts...)
	if err != nil {
		fatal(err, "failed to build metrics collector")
	}

	engine, err := health.NewEngine(scoringConfig(cfg.Scoring))
	if err != nil {
		fatal(err, "invalid scoring configuration")
	}

	server, err := api.NewServer(
		api.DefaultConfig(cfg.ListenAddress),
		reg,
		health.NewService(facade, engine),
		logger.Default(),
		apiOpts...,
	)
	if err != nil {
		fatal(err, "failed to build HTTP server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
		<-serverErr
	case err := <-serverErr:
		if err != nil {
			fatal(err, "HTTP server failed")
		}
	}

	logger.Info().Msg("Exiting...")
}

func scoringConfig(s config.Scoring) health.Config {
	return health.Config{
		CPUWarn:        s.CPUWarn,
		CPUCap:         s.CPUCap,
		MemoryWarn:     s.MemoryWarn,
		MemoryCap:      s.MemoryCap,
		DiskWarn:       s.DiskWarn,
		DiskCap:        s.DiskCap,
		UnknownPenalty: s.UnknownPenalty,
		UptimeBonusMax: s.UptimeBonusMax,
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func fatal(err error, msg string) {
	var domainErr errors.Error
	if errors.As(err, &domainErr) {
		logger.FatalWithCode(domainErr).Msg(msg)
		return
	}

	logger.Fatal().Err(err).Msg(msg)
}

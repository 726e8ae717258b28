// Package app wires configuration into a ready PredictionService and the
// connections behind it. The server and the CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Bidon15/summonpredict/internal/config"
	"github.com/Bidon15/summonpredict/internal/database"
	"github.com/Bidon15/summonpredict/internal/ethereum"
	"github.com/Bidon15/summonpredict/internal/handler"
	"github.com/Bidon15/summonpredict/internal/registry"
	"github.com/Bidon15/summonpredict/internal/repository"
	"github.com/Bidon15/summonpredict/internal/service"
)

// App owns the connections opened for a configuration.
type App struct {
	Service  service.PredictionService
	Postgres *database.Postgres
	Redis    *database.Redis
	Chain    *registry.EthRegistry

	logger *slog.Logger
}

// NewLogger builds the process logger. DEBUG=true forces debug level.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if os.Getenv("DEBUG") == "true" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// New connects everything cfg enables. Each optional part is skipped when
// unconfigured: no RPC URL means no registry, and database and redis follow
// their enabled flags. On error every connection opened so far is closed.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var factory common.Address
	if cfg.Chain.SummonerAddress != "" {
		if factory, err = ethereum.DecodeAddress(cfg.Chain.SummonerAddress); err != nil {
			return nil, fmt.Errorf("invalid chain.summoner_address: %w", err)
		}
	}

	opts := service.Options{
		Factory:    factory,
		ChainID:    cfg.Chain.ChainID,
		StartBlock: cfg.Chain.StartBlock,
		Logger:     logger,
	}

	if cfg.Database.Enabled {
		if a.Postgres, err = database.NewPostgres(cfg.Database); err != nil {
			return nil, err
		}
		logger.Info("Connected to PostgreSQL")

		if err = a.Postgres.RunMigrations(cfg.Database); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Database migrations completed")
		opts.Repository = repository.NewDeploymentRepository(a.Postgres.Pool())
	}

	if cfg.Redis.Enabled {
		if a.Redis, err = database.NewRedis(cfg.Redis); err != nil {
			return nil, err
		}
		logger.Info("Connected to Redis")
	}

	if cfg.Chain.RPCURL != "" {
		if a.Chain, err = registry.Dial(ctx, cfg.Chain.RPCURL, factory, logger); err != nil {
			return nil, err
		}
		a.Chain.SetCallTimeout(cfg.Chain.CallTimeout)
		logger.Info("Connected to chain RPC", slog.String("summoner", factory.Hex()))

		opts.Registry = a.Chain
		opts.Tokens = a.Chain
		if a.Redis != nil {
			opts.Registry = registry.NewCachedRegistry(a.Chain, a.Redis, factory, cfg.Redis.CacheTTL, logger)
		}
	}

	a.Service = service.NewPredictionService(opts)
	return a, nil
}

// Components lists the connections readiness checks should probe.
func (a *App) Components() map[string]handler.Pinger {
	components := make(map[string]handler.Pinger)
	if a.Postgres != nil {
		components["database"] = a.Postgres
	}
	if a.Redis != nil {
		components["redis"] = a.Redis
	}
	if a.Chain != nil && a.Chain.Summoner() != (common.Address{}) {
		components["chain"] = handler.PingFunc(func(ctx context.Context) error {
			_, err := a.Chain.Implementation(ctx)
			return err
		})
	}
	return components
}

// Close releases every open connection.
func (a *App) Close() {
	if a.Chain != nil {
		a.Chain.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", slog.String("error", err.Error()))
		}
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
}

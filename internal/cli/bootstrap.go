package cli

import (
	"context"
	"errors"
	"fmt"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/config"
	"coding-trivia-service/internal/infra/postgres"
	"coding-trivia-service/pkg/logger"
	"github.com/jackc/pgx/v4/pgxpool"
)

var errNoPostgres = errors.New("postgres_url not configured")

// loadConfig reads configuration and initialises the global logger from it.
func loadConfig(ctx context.Context, path string) (config.Config, error) {
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return config.Config{}, err
	}
	if err := logger.Init(cfg.LogFormat); err != nil {
		return config.Config{}, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func connectPostgres(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.PostgresURL == "" {
		return nil, errNoPostgres
	}
	pool, err := pgxpool.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// postgresService builds a scoring service straight on Postgres for one-shot commands.
func postgresService(ctx context.Context, cfg config.Config) (*app.ScoringService, func(), error) {
	pool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	service := app.NewScoringService(
		postgres.NewRoundLoader(pool),
		postgres.NewStore(pool),
		app.WithLeaderboardLimits(cfg.LeaderboardDefaultLimit, cfg.LeaderboardMaxLimit),
	)
	return service, pool.Close, nil
}

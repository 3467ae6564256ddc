package cli

import (
	"context"

	"coding-trivia-service/internal/config"
	"coding-trivia-service/internal/infra/postgres"
	"coding-trivia-service/pkg/logger"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			return runMigrationsWithConfig(cmd.Context(), cfg)
		},
	}
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.PostgresURL == "" {
		return errNoPostgres
	}

	db := postgres.OpenBun(cfg.PostgresURL)
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		return err
	}
	logger.Named("migrate").Info(ctx, "migrations applied", logger.Int("count", len(applied)), logger.Any("names", applied))
	return nil
}

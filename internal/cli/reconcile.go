package cli

import (
	"github.com/spf13/cobra"

	"coding-trivia-service/pkg/logger"
)

// NewReconcileCmd rebuilds every leaderboard entry from submission rows once.
func NewReconcileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute the leaderboard from recorded submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			service, closeFn, err := postgresService(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := service.ReconcileLeaderboard(ctx)
			logger.Named("reconcile").Info(ctx, "reconcile finished", logger.Int("rebuilt", n))
			return err
		},
	}
}

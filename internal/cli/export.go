package cli

import (
	"fmt"
	"os"

	"coding-trivia-service/internal/export"
	"coding-trivia-service/pkg/logger"
	"github.com/spf13/cobra"
)

// NewExportCmd writes the ranked leaderboard to an xlsx workbook.
func NewExportCmd(configPath *string) *cobra.Command {
	var (
		out      string
		language string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the leaderboard as an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
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

			var lim *int
			if cmd.Flags().Changed("limit") {
				lim = &limit
			}
			entries, err := service.Leaderboard(ctx, language, lim)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			if err := export.WriteLeaderboardXLSX(f, entries); err != nil {
				return err
			}
			logger.Named("export").Info(ctx, "leaderboard exported",
				logger.String("file", out),
				logger.Int("rows", len(entries)),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "leaderboard.xlsx", "output file")
	cmd.Flags().StringVar(&language, "language", "", "only rank participants of this language")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (default: leaderboard_default_limit)")
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"coding-trivia-service/internal/config"
	"coding-trivia-service/internal/domain"
	"coding-trivia-service/internal/infra/postgres"
	redisinfra "coding-trivia-service/internal/infra/redis"
	"coding-trivia-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type roundFile struct {
	Rounds []domain.Round `yaml:"rounds"`
}

// NewSeedCmd upserts round definitions from a YAML file.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load rounds from a YAML file, keyed by round number",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "rounds.yaml", "YAML file with a top-level rounds list")
	return cmd
}

func runSeed(ctx context.Context, cfg config.Config, path string) error {
	if cfg.PostgresURL == "" {
		return errNoPostgres
	}
	rounds, err := readRoundFile(path)
	if err != nil {
		return err
	}

	db := postgres.OpenBun(cfg.PostgresURL)
	defer db.Close()

	n, err := postgres.UpsertRounds(ctx, db, rounds)
	if err != nil {
		return err
	}
	log := logger.Named("seed")
	log.Info(ctx, "rounds seeded", logger.Int("count", n), logger.String("file", path))

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer client.Close()
		cache := redisinfra.NewRoundCache(client, nil, time.Minute)
		if err := cache.Invalidate(ctx); err != nil {
			log.Warn(ctx, "round cache invalidation failed; entries expire on their ttl", logger.Error(err))
		}
	}
	return nil
}

func readRoundFile(path string) ([]domain.Round, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read round file: %w", err)
	}
	var rf roundFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse round file %s: %w", path, err)
	}
	seen := make(map[int]bool, len(rf.Rounds))
	for i, r := range rf.Rounds {
		if r.RoundNumber <= 0 || r.Title == "" || r.CorrectAnswer == "" {
			return nil, fmt.Errorf("round %d: round_number, title and correct_answer are required", i+1)
		}
		if seen[r.RoundNumber] {
			return nil, fmt.Errorf("round %d: duplicate round_number %d", i+1, r.RoundNumber)
		}
		seen[r.RoundNumber] = true
	}
	return rf.Rounds, nil
}

package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/config"
	"coding-trivia-service/internal/domain"
	"coding-trivia-service/internal/infra/memory"
	"coding-trivia-service/internal/infra/postgres"
	redisinfra "coding-trivia-service/internal/infra/redis"
	"coding-trivia-service/internal/jobs"
	transport "coding-trivia-service/internal/transport/http"
	"coding-trivia-service/pkg/logger"
	"coding-trivia-service/pkg/metrics"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the scoring API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	log := logger.Named("server")

	if cfg.PostgresURL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn(ctx, "redis unreachable; round reads fall through to the loader", logger.Error(err))
		}
	}

	var pool *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pool, err = connectPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		loader app.RoundCatalog = memory.NewStaticRoundSource(sampleRounds())
		store  app.Store        = memory.NewStore()
	)
	if pool != nil {
		loader = postgres.NewRoundLoader(pool)
		store = postgres.NewStore(pool)
	} else {
		log.Warn(ctx, "postgres_url not set; running on the in-memory store with sample rounds")
	}

	roundTTL := config.TTLDuration(cfg.RoundCacheTTL, 10*time.Minute)
	var rounds app.RoundCatalog
	if redisClient != nil {
		rounds = redisinfra.NewRoundCache(redisClient, loader, roundTTL)
	} else {
		rounds = memory.NewRoundCache(loader, roundTTL)
	}

	reg := metrics.NewRegistry()
	service := app.NewScoringService(rounds, store,
		app.WithLogger(logger.Named("scoring")),
		app.WithMetrics(reg),
		app.WithLeaderboardLimits(cfg.LeaderboardDefaultLimit, cfg.LeaderboardMaxLimit),
	)
	handler := transport.NewHandler(service,
		transport.WithLogger(logger.Named("http")),
		transport.WithObserver(reg, reg.Handler()),
		transport.WithRequestTimeout(config.TTLDuration(cfg.RequestTimeout, 10*time.Second)),
	)

	if cfg.ReconcileSchedule != "" {
		scheduler, err := jobs.NewReconcileScheduler(service, cfg.ReconcileSchedule, logger.Named("jobs"))
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info(ctx, "starting scoring service", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "failed to start server", logger.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info(ctx, "shutting down server")
	case <-ctx.Done():
		log.Info(ctx, "context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleRounds backs the in-memory mode; production rounds come from `seed`.
func sampleRounds() []domain.Round {
	return []domain.Round{
		{
			RoundNumber:   1,
			Title:         "Missing base case",
			Description:   "What happens when a recursive function never reaches its base case?",
			Language:      "general",
			Difficulty:    "easy",
			Points:        100,
			Hint:          "Think about the call stack.",
			TimeLimit:     60,
			CorrectAnswer: "stack overflow from unbounded recursion",
			Explanation:   "Every call pushes a frame; without a base case the stack grows until it overflows.",
			IsActive:      true,
		},
		{
			RoundNumber:   2,
			Title:         "Nil map write",
			Description:   "What does writing to a nil map do in Go?",
			Language:      "go",
			Difficulty:    "medium",
			Points:        150,
			Hint:          "Reads are fine.",
			TimeLimit:     90,
			CorrectAnswer: "panic: assignment to entry in nil map",
			Explanation:   "A nil map has no backing storage; reads return zero values but writes panic.",
			IsActive:      true,
		},
		{
			RoundNumber:   3,
			Title:         "Mutable default argument",
			Description:   "Why does a Python function with `def f(x=[])` accumulate values across calls?",
			Language:      "python",
			Difficulty:    "medium",
			Points:        150,
			Hint:          "When is the default evaluated?",
			TimeLimit:     90,
			CorrectAnswer: "default evaluated once at definition time",
			Explanation:   "Defaults are evaluated when the def statement runs, so the same list is shared.",
			IsActive:      true,
		},
	}
}

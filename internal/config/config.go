package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. TRIVIA_POSTGRES_URL.
const EnvPrefix = "TRIVIA_"

type Config struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// Port is the HTTP listen port; the --port flag wins over it.
	Port string `koanf:"port"`

	// PostgresURL selects the Postgres store. Empty runs the in-memory store.
	PostgresURL string `koanf:"postgres_url"`

	// Redis fronts the round catalog when RedisAddr is set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	RoundCacheTTL  string `koanf:"round_cache_ttl"`
	RequestTimeout string `koanf:"request_timeout"`

	LeaderboardDefaultLimit int `koanf:"leaderboard_default_limit"`
	LeaderboardMaxLimit     int `koanf:"leaderboard_max_limit"`

	// ReconcileSchedule is a cron spec for the leaderboard reconciliation job. Empty disables it.
	ReconcileSchedule string `koanf:"reconcile_schedule"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Port:                    "8080",
		RoundCacheTTL:           "10m",
		RequestTimeout:          "10s",
		LeaderboardDefaultLimit: 50,
		LeaderboardMaxLimit:     500,
		ReconcileSchedule:       "@every 5m",
	}
}

// Load layers defaults, the YAML file at path (skipped when path is empty) and
// TRIVIA_* environment variables, in increasing precedence.
func Load(_ context.Context, path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Keys are flat, so TRIVIA_REDIS_ADDR maps to redis_addr.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.LeaderboardDefaultLimit < 1 {
		errs = append(errs, errors.New("leaderboard_default_limit must be positive"))
	}
	if c.LeaderboardMaxLimit < c.LeaderboardDefaultLimit {
		errs = append(errs, errors.New("leaderboard_max_limit must be >= leaderboard_default_limit"))
	}
	return errors.Join(errs...)
}

// PathFromEnv returns the config path from TRIVIA_CONFIG or CONFIG_PATH.
func PathFromEnv() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return os.Getenv("CONFIG_PATH")
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

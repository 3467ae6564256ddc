package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"coding-trivia-service/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given the config loader", t, func() {
		ctx := context.Background()

		Convey("When nothing overrides the defaults", func() {
			cfg, err := config.Load(ctx, "")

			Convey("Then defaults are returned", func() {
				So(err, ShouldBeNil)
				So(cfg.Port, ShouldEqual, "8080")
				So(cfg.LeaderboardDefaultLimit, ShouldEqual, 50)
				So(cfg.LeaderboardMaxLimit, ShouldEqual, 500)
				So(cfg.PostgresURL, ShouldBeEmpty)
				So(cfg.ReconcileSchedule, ShouldEqual, "@every 5m")
			})
		})

		Convey("When a YAML file and env vars are both present", func() {
			path := writeFile(t, `
port: "9090"
postgres_url: postgres://file
redis_addr: localhost:6379
leaderboard_default_limit: 25
`)
			t.Setenv("TRIVIA_POSTGRES_URL", "postgres://env")
			t.Setenv("TRIVIA_REDIS_DB", "3")

			cfg, err := config.Load(ctx, path)

			Convey("Then env wins over file and file wins over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Port, ShouldEqual, "9090")
				So(cfg.PostgresURL, ShouldEqual, "postgres://env")
				So(cfg.RedisAddr, ShouldEqual, "localhost:6379")
				So(cfg.RedisDB, ShouldEqual, 3)
				So(cfg.LeaderboardDefaultLimit, ShouldEqual, 25)
				So(cfg.LeaderboardMaxLimit, ShouldEqual, 500)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("When the limits are inconsistent", func() {
			t.Setenv("TRIVIA_LEADERBOARD_MAX_LIMIT", "10")
			_, err := config.Load(ctx, "")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "leaderboard_max_limit")
		})
	})
}

func TestTTLDuration(t *testing.T) {
	if got := config.TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := config.TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for invalid, got %v", got)
	}
	if got := config.TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

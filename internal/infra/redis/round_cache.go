package redis

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/domain"
	json "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var _ app.RoundCatalog = (*RoundCache)(nil)

const (
	activeRoundsKey = "trivia:rounds:active"
	roundKeyPrefix  = "trivia:round:"
)

// RoundCache caches round definitions in Redis and falls back to a loader on miss.
// Layout:
//
//	GET trivia:round:{id}       -> JSON round (answer key included; never sent to clients)
//	GET trivia:rounds:active    -> JSON array of active rounds ordered by round number
//
// Redis failures degrade to the loader rather than failing the request.
type RoundCache struct {
	client redis.Cmdable
	loader app.RoundCatalog
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRoundCache(client redis.Cmdable, loader app.RoundCatalog, ttl time.Duration) *RoundCache {
	return &RoundCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *RoundCache) GetRound(ctx context.Context, id int64) (domain.Round, error) {
	key := roundKey(id)
	if r, ok := c.readRound(ctx, key); ok {
		return r, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another instance filled it.
		if r, ok := c.readRound(ctx, key); ok {
			return r, nil
		}
		round, err := c.loader.GetRound(ctx, id)
		if err != nil {
			return domain.Round{}, err
		}
		if data, err := json.Marshal(round); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return round, nil
	})
	if err != nil {
		return domain.Round{}, err
	}
	return result.(domain.Round), nil
}

func (c *RoundCache) ListActiveRounds(ctx context.Context) ([]domain.Round, error) {
	if rounds, ok := c.readActive(ctx); ok {
		return rounds, nil
	}

	result, err, _ := c.sf.Do(activeRoundsKey, func() (interface{}, error) {
		if rounds, ok := c.readActive(ctx); ok {
			return rounds, nil
		}
		rounds, err := c.loader.ListActiveRounds(ctx)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		if data, err := json.Marshal(rounds); err == nil {
			pipe.Set(ctx, activeRoundsKey, data, ttl)
		}
		// Warm the per-round entries too; submissions look rounds up by id.
		for _, r := range rounds {
			if data, err := json.Marshal(r); err == nil {
				pipe.Set(ctx, roundKey(r.ID), data, ttl)
			}
		}
		_, _ = pipe.Exec(ctx)
		return rounds, nil
	})
	if err != nil {
		return nil, err
	}
	src := result.([]domain.Round)
	out := make([]domain.Round, len(src))
	copy(out, src)
	return out, nil
}

// Invalidate drops every cached round so the next read goes to the loader.
func (c *RoundCache) Invalidate(ctx context.Context) error {
	keys := []string{activeRoundsKey}
	iter := c.client.Scan(ctx, 0, roundKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RoundCache) readRound(ctx context.Context, key string) (domain.Round, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Round{}, false
	}
	var r domain.Round
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Round{}, false
	}
	return r, true
}

func (c *RoundCache) readActive(ctx context.Context) ([]domain.Round, bool) {
	data, err := c.client.Get(ctx, activeRoundsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rounds []domain.Round
	if err := json.Unmarshal(data, &rounds); err != nil {
		return nil, false
	}
	return rounds, true
}

func roundKey(id int64) string {
	return roundKeyPrefix + strconv.FormatInt(id, 10)
}

func (c *RoundCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

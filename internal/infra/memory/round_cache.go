package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"coding-trivia-service/internal/app"
	"coding-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

var _ app.RoundCatalog = (*RoundCache)(nil)

// RoundCache caches rounds with TTL to avoid repeated DB hits. Lookups of unknown
// rounds are not cached.
type RoundCache struct {
	loader app.RoundCatalog
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu     sync.RWMutex
	rnd    *rand.Rand
	rounds map[int64]cachedRound
	active *cachedActive
}

type cachedRound struct {
	round     domain.Round
	expiresAt time.Time
}

type cachedActive struct {
	rounds    []domain.Round
	expiresAt time.Time
}

func NewRoundCache(loader app.RoundCatalog, ttl time.Duration) *RoundCache {
	return NewRoundCacheWithClock(loader, ttl, time.Now)
}

// NewRoundCacheWithClock is test-only for deterministic expiry.
func NewRoundCacheWithClock(loader app.RoundCatalog, ttl time.Duration, clock func() time.Time) *RoundCache {
	return &RoundCache{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		rounds: make(map[int64]cachedRound),
	}
}

func (c *RoundCache) GetRound(ctx context.Context, id int64) (domain.Round, error) {
	if r, ok := c.cachedRound(id); ok {
		return r, nil
	}

	result, err, _ := c.sf.Do("round:"+strconv.FormatInt(id, 10), func() (interface{}, error) {
		if r, ok := c.cachedRound(id); ok {
			return r, nil
		}
		round, err := c.loader.GetRound(ctx, id)
		if err != nil {
			return domain.Round{}, err
		}
		c.mu.Lock()
		c.rounds[id] = cachedRound{round: round, expiresAt: c.clock().Add(c.ttlWithJitterLocked())}
		c.mu.Unlock()
		return round, nil
	})
	if err != nil {
		return domain.Round{}, err
	}
	return result.(domain.Round), nil
}

func (c *RoundCache) ListActiveRounds(ctx context.Context) ([]domain.Round, error) {
	if rounds, ok := c.cachedActive(); ok {
		return rounds, nil
	}

	result, err, _ := c.sf.Do("active", func() (interface{}, error) {
		if rounds, ok := c.cachedActive(); ok {
			return rounds, nil
		}
		rounds, err := c.loader.ListActiveRounds(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.active = &cachedActive{rounds: rounds, expiresAt: c.clock().Add(c.ttlWithJitterLocked())}
		c.mu.Unlock()
		return rounds, nil
	})
	if err != nil {
		return nil, err
	}
	rounds := result.([]domain.Round)
	out := make([]domain.Round, len(rounds))
	copy(out, rounds)
	return out, nil
}

func (c *RoundCache) cachedRound(id int64) (domain.Round, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.rounds[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Round{}, false
	}
	return entry.round, true
}

func (c *RoundCache) cachedActive() ([]domain.Round, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.active == nil || !c.active.expiresAt.After(c.clock()) {
		return nil, false
	}
	out := make([]domain.Round, len(c.active.rounds))
	copy(out, c.active.rounds)
	return out, true
}

// ttlWithJitterLocked must be called with mu held; rand.Rand is not goroutine-safe.
func (c *RoundCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

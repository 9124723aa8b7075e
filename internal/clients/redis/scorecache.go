package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/shaderlabs/shaderlab-backend/internal/platform/envutil"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

// ScoreCache caches per-user total scores. Misses and redis failures are both
// reported as ok=false so callers always fall back to the database.
type ScoreCache interface {
	Get(ctx context.Context, userID uuid.UUID) (int, bool)
	Set(ctx context.Context, userID uuid.UUID, score int)
	Invalidate(ctx context.Context, userID uuid.UUID)
	Close() error
}

type scoreCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewScoreCache(log *logger.Logger) (ScoreCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(envutil.Str("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := envutil.Dur("REDIS_SCORE_TTL", 5*time.Minute)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &scoreCache{
		log: log.With("service", "RedisScoreCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

type noopScoreCache struct{}

// NewNoopScoreCache is used when REDIS_ADDR is not configured; every lookup
// misses so callers hit the database.
func NewNoopScoreCache() ScoreCache { return noopScoreCache{} }

func (noopScoreCache) Get(ctx context.Context, userID uuid.UUID) (int, bool) { return 0, false }
func (noopScoreCache) Set(ctx context.Context, userID uuid.UUID, score int)  {}
func (noopScoreCache) Invalidate(ctx context.Context, userID uuid.UUID)      {}
func (noopScoreCache) Close() error                                          { return nil }

func scoreKey(userID uuid.UUID) string {
	return "score:" + userID.String()
}

func (c *scoreCache) Get(ctx context.Context, userID uuid.UUID) (int, bool) {
	if c == nil || c.rdb == nil {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, scoreKey(userID)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("score cache get failed", "error", err)
		}
		return 0, false
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return score, true
}

func (c *scoreCache) Set(ctx context.Context, userID uuid.UUID, score int) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, scoreKey(userID), strconv.Itoa(score), c.ttl).Err(); err != nil {
		c.log.Warn("score cache set failed", "error", err)
	}
}

func (c *scoreCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, scoreKey(userID)).Err(); err != nil {
		c.log.Warn("score cache invalidate failed", "error", err)
	}
}

func (c *scoreCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

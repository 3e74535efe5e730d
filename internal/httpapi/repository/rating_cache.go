package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RatingCache caches computed title ratings. A miss or a cache outage is
// never an error for the caller: the rating is just recomputed from the
// database.
type RatingCache interface {
	Get(ctx context.Context, titleID int64) (rating *int, ok bool)
	Set(ctx context.Context, titleID int64, rating *int)
	Invalidate(ctx context.Context, titleID int64)
}

// Sentinel stored for "title has no reviews" so the absence of a rating is
// cacheable too.
const noRatingSentinel = "none"

type ratingRedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRatingRedisCache(addr, password string, ttl time.Duration, logger *slog.Logger) (RatingCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ratingRedisCache{client: rdb, ttl: ttl, logger: logger}, nil
}

func ratingKey(titleID int64) string {
	return fmt.Sprintf("rating:title:%d", titleID)
}

func (c *ratingRedisCache) Get(ctx context.Context, titleID int64) (*int, bool) {
	val, err := c.client.Get(ctx, ratingKey(titleID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("rating cache get failed", "title_id", titleID, "error", err)
		}
		return nil, false
	}
	if val == noRatingSentinel {
		return nil, true
	}
	rating, err := strconv.Atoi(val)
	if err != nil {
		return nil, false
	}
	return &rating, true
}

func (c *ratingRedisCache) Set(ctx context.Context, titleID int64, rating *int) {
	val := noRatingSentinel
	if rating != nil {
		val = strconv.Itoa(*rating)
	}
	if err := c.client.Set(ctx, ratingKey(titleID), val, c.ttl).Err(); err != nil {
		c.logger.Warn("rating cache set failed", "title_id", titleID, "error", err)
	}
}

func (c *ratingRedisCache) Invalidate(ctx context.Context, titleID int64) {
	if err := c.client.Del(ctx, ratingKey(titleID)).Err(); err != nil {
		c.logger.Warn("rating cache invalidate failed", "title_id", titleID, "error", err)
	}
}

// NoopRatingCache is used when redis is unavailable (tests, local runs).
type NoopRatingCache struct{}

func (NoopRatingCache) Get(context.Context, int64) (*int, bool) { return nil, false }
func (NoopRatingCache) Set(context.Context, int64, *int)        {}
func (NoopRatingCache) Invalidate(context.Context, int64)       {}

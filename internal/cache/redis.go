package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

const statsKeyPrefix = "ratingz:stats:"

// Redis implements StatsCache on top of a go-redis client.
type Redis struct {
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
	logger     *zap.Logger
}

// NewRedis connects to the server at url and verifies it with PING.
func NewRedis(ctx context.Context, url string, ttl time.Duration, logger *zap.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	c := NewRedisWithClient(client, ttl, logger)
	c.ownsClient = true
	return c, nil
}

// NewRedisWithClient wraps an existing client. The caller keeps ownership of it.
func NewRedisWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, logger: logger.Named("cache")}
}

func statsKey(movieID string) string {
	return statsKeyPrefix + movieID
}

func (c *Redis) Get(ctx context.Context, movieID string) (*domain.MovieStats, error) {
	key := statsKey(movieID)
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stats from cache: %w", err)
	}

	var stats domain.MovieStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.logger.Warn("dropping corrupt stats entry", zap.String("movie_id", movieID), zap.Error(err))
		_ = c.client.Del(ctx, key)
		return nil, nil
	}
	return &stats, nil
}

func (c *Redis) Set(ctx context.Context, movieID string, stats domain.MovieStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, statsKey(movieID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set stats in cache: %w", err)
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, movieID string) error {
	if err := c.client.Del(ctx, statsKey(movieID)).Err(); err != nil {
		return fmt.Errorf("invalidate stats: %w", err)
	}
	return nil
}

// Close closes the client when this cache created it.
func (c *Redis) Close() error {
	if !c.ownsClient {
		return nil
	}
	return c.client.Close()
}

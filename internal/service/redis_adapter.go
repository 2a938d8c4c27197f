package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jaehyeon1716/survey-sub000/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCoordinator implements SubmitCoordinator on go-redis: SETNX advisory
// locks per participant token, stats-cache invalidation, and live monitor
// publishing over Pub/Sub.
type RedisCoordinator struct {
	rdb     *redis.Client
	lockTTL time.Duration
	log     zerolog.Logger
}

// NewRedisCoordinator creates a new RedisCoordinator.
func NewRedisCoordinator(rdb *redis.Client, lockTTL time.Duration, log zerolog.Logger) *RedisCoordinator {
	return &RedisCoordinator{
		rdb:     rdb,
		lockTTL: lockTTL,
		log:     log.With().Str("component", "redis_coordinator").Logger(),
	}
}

// TryLock acquires the per-token submission lock. The TTL bounds lock
// lifetime if the holder crashes mid-submission.
func (c *RedisCoordinator) TryLock(ctx context.Context, token string) (bool, error) {
	return c.rdb.SetNX(ctx, config.CacheKey.SubmitLockKey(token), "1", c.lockTTL).Result()
}

// Unlock releases the per-token submission lock.
func (c *RedisCoordinator) Unlock(ctx context.Context, token string) {
	if err := c.rdb.Del(ctx, config.CacheKey.SubmitLockKey(token)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to release submit lock, TTL will reap it")
	}
}

// Submitted invalidates the survey's cached statistics and publishes the
// event to the live monitor channel. Both are best-effort.
func (c *RedisCoordinator) Submitted(ctx context.Context, event SubmissionEvent) {
	if err := c.rdb.Del(ctx, config.CacheKey.SurveyStatsKey(event.SurveyID)).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to invalidate stats cache")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := config.CacheKey.SurveyMonitorChannel(event.SurveyID)
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		c.log.Warn().Err(err).Str("channel", channel).Msg("Failed to publish submission event")
	}
}

// RedisStatsCache implements StatsCache with a short TTL.
type RedisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewRedisStatsCache creates a new RedisStatsCache.
func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStatsCache {
	return &RedisStatsCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "stats_cache").Logger(),
	}
}

// Get returns a cached summary payload, or false on miss or Redis trouble.
func (c *RedisStatsCache) Get(ctx context.Context, surveyID string) ([]byte, bool) {
	payload, err := c.rdb.Get(ctx, config.CacheKey.SurveyStatsKey(surveyID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("Stats cache read failed")
		}
		return nil, false
	}
	return payload, true
}

// Set stores a summary payload with the configured TTL.
func (c *RedisStatsCache) Set(ctx context.Context, surveyID string, payload []byte) {
	if err := c.rdb.Set(ctx, config.CacheKey.SurveyStatsKey(surveyID), payload, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Stats cache write failed")
	}
}

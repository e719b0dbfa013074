package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/internal/domain/service"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// RedisMetricsSource caches engagement lookups in redis with a TTL. Cache
// failures never fail the lookup; they fall through to the inner source.
type RedisMetricsSource struct {
	inner  service.MetricsSource
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisMetricsSource wraps inner with a redis cache.
func NewRedisMetricsSource(inner service.MetricsSource, client redis.UniversalClient, ttl time.Duration, log logger.Logger) *RedisMetricsSource {
	return &RedisMetricsSource{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("RedisMetricsSource"),
	}
}

// FetchMetrics implements service.MetricsSource.
func (s *RedisMetricsSource) FetchMetrics(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementObservation, error) {
	key := metricsKey(follower.Username)

	if data, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var obs models.EngagementObservation
		if err := json.Unmarshal(data, &obs); err == nil {
			return &obs, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn(ctx, "engagement cache read failed", logger.Err(err), logger.String("key", key))
	}

	obs, err := s.inner.FetchMetrics(ctx, follower)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(obs); err == nil {
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn(ctx, "engagement cache write failed", logger.Err(err), logger.String("key", key))
		}
	}
	return obs, nil
}

// RedisProfileSource caches profile lookups in redis with a TTL.
type RedisProfileSource struct {
	inner  service.ProfileSource
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisProfileSource wraps inner with a redis cache.
func NewRedisProfileSource(inner service.ProfileSource, client redis.UniversalClient, ttl time.Duration, log logger.Logger) *RedisProfileSource {
	return &RedisProfileSource{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("RedisProfileSource"),
	}
}

// FetchProfile implements service.ProfileSource.
func (s *RedisProfileSource) FetchProfile(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileObservation, error) {
	key := profileKey(follower.Username)

	if data, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var obs models.ProfileObservation
		if err := json.Unmarshal(data, &obs); err == nil {
			return &obs, nil
		}
	} else if err != redis.Nil {
		s.logger.Warn(ctx, "profile cache read failed", logger.Err(err), logger.String("key", key))
	}

	obs, err := s.inner.FetchProfile(ctx, follower)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(obs); err == nil {
		if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.logger.Warn(ctx, "profile cache write failed", logger.Err(err), logger.String("key", key))
		}
	}
	return obs, nil
}

func metricsKey(username string) string {
	return fmt.Sprintf("crowdlens:metrics:%s", username)
}

func profileKey(username string) string {
	return fmt.Sprintf("crowdlens:profile:%s", username)
}

var (
	_ service.MetricsSource = (*RedisMetricsSource)(nil)
	_ service.ProfileSource = (*RedisProfileSource)(nil)
)

package sources

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/internal/domain/service"
)

// MemoryMetricsSource caches engagement lookups in process with a TTL, for
// deployments without redis.
type MemoryMetricsSource struct {
	inner service.MetricsSource
	cache *gocache.Cache
}

// NewMemoryMetricsSource wraps inner with an in-process TTL cache.
func NewMemoryMetricsSource(inner service.MetricsSource, ttl time.Duration) *MemoryMetricsSource {
	return &MemoryMetricsSource{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// FetchMetrics implements service.MetricsSource.
func (s *MemoryMetricsSource) FetchMetrics(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementObservation, error) {
	if cached, ok := s.cache.Get(follower.Username); ok {
		return cached.(*models.EngagementObservation), nil
	}

	obs, err := s.inner.FetchMetrics(ctx, follower)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(follower.Username, obs)
	return obs, nil
}

// MemoryProfileSource caches profile lookups in process with a TTL.
type MemoryProfileSource struct {
	inner service.ProfileSource
	cache *gocache.Cache
}

// NewMemoryProfileSource wraps inner with an in-process TTL cache.
func NewMemoryProfileSource(inner service.ProfileSource, ttl time.Duration) *MemoryProfileSource {
	return &MemoryProfileSource{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// FetchProfile implements service.ProfileSource.
func (s *MemoryProfileSource) FetchProfile(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileObservation, error) {
	if cached, ok := s.cache.Get(follower.Username); ok {
		return cached.(*models.ProfileObservation), nil
	}

	obs, err := s.inner.FetchProfile(ctx, follower)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(follower.Username, obs)
	return obs, nil
}

var (
	_ service.MetricsSource = (*MemoryMetricsSource)(nil)
	_ service.ProfileSource = (*MemoryProfileSource)(nil)
)

package service

import (
	"context"
	"time"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
	"github.com/crowdlens/crowdlens/pkg/retry"
)

// engagementServiceImpl scores follower engagement as the arithmetic mean of
// the metrics present in the source observation.
type engagementServiceImpl struct {
	source  MetricsSource
	weights models.EngagementMetrics
	retry   RetrySettings
	logger  logger.Logger
}

// RetrySettings carries the backoff parameters shared by both evaluators.
type RetrySettings struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewEngagementService creates an EngagementService backed by source. Source
// fetches are retried with exponential backoff on transient failures. The
// optional weights annotate each result's metric breakdown.
func NewEngagementService(source MetricsSource, weights models.EngagementMetrics, retrySettings RetrySettings, log logger.Logger) EngagementService {
	return &engagementServiceImpl{
		source:  source,
		weights: weights,
		retry:   retrySettings,
		logger:  log.WithComponent("EngagementService"),
	}
}

// Evaluate fetches the follower's metrics and computes the engagement score.
func (s *engagementServiceImpl) Evaluate(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementResult, error) {
	if !follower.Valid() {
		return nil, errors.ErrMissingUsername()
	}

	policy := retry.Policy[*models.EngagementObservation]{
		MaxAttempts: s.retry.MaxAttempts,
		BaseDelay:   s.retry.BaseDelay,
		MaxDelay:    s.retry.MaxDelay,
		Logger:      s.logger,
	}
	obs, err := policy.Do(ctx, func(ctx context.Context) (*models.EngagementObservation, error) {
		return s.source.FetchMetrics(ctx, follower)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOf(err), "engagement metrics lookup failed").
			WithDetail("username", follower.Username)
	}

	if err := validateMetrics(obs.Metrics); err != nil {
		return nil, err
	}

	return &models.EngagementResult{
		Score:            meanScore(obs.Metrics),
		Metrics:          obs.Metrics,
		Weights:          s.weights,
		LastInteraction:  obs.LastInteraction,
		InteractionCount: obs.InteractionCount,
	}, nil
}

// meanScore averages the present metric values. An empty map scores 0 so the
// decision policy sees a defined value.
func meanScore(metrics models.EngagementMetrics) float64 {
	if len(metrics) == 0 {
		return 0
	}
	var sum float64
	for _, v := range metrics {
		sum += v
	}
	return sum / float64(len(metrics))
}

func validateMetrics(metrics models.EngagementMetrics) error {
	for name, value := range metrics {
		if !constants.IsKnownMetric(name) {
			return errors.ErrUnknownMetric(string(name))
		}
		if value < 0 || value > 1 {
			return errors.ErrMetricOutOfRange(string(name), value)
		}
	}
	return nil
}

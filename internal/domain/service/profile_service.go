package service

import (
	"context"
	"math"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
	"github.com/crowdlens/crowdlens/pkg/retry"
)

// RiskWeights maps each risk sub-signal to its weight in the combined score.
// The weights must sum to 1.0.
type RiskWeights map[constants.RiskSignal]float64

// DefaultRiskWeights returns the standard signal weighting.
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		constants.SignalActivity:    0.30,
		constants.SignalContent:     0.30,
		constants.SignalInteraction: 0.20,
		constants.SignalAge:         0.20,
	}
}

// Validate checks that the weights cover no unknown signals and sum to 1.0.
func (w RiskWeights) Validate() error {
	var sum float64
	for signal, weight := range w {
		known := false
		for _, s := range constants.RiskSignals {
			if s == signal {
				known = true
				break
			}
		}
		if !known {
			return errors.Newf(errors.CodeConfiguration, "unknown risk signal in weights: %s", signal)
		}
		if weight < 0 {
			return errors.Newf(errors.CodeConfiguration, "risk weight for %s is negative", signal)
		}
		sum += weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return errors.ErrWeightsNotNormalized(sum)
	}
	return nil
}

// profileServiceImpl scores profile risk as the weighted mean of the source's
// sub-signals.
type profileServiceImpl struct {
	source  ProfileSource
	weights RiskWeights
	retry   RetrySettings
	logger  logger.Logger
}

// NewProfileService creates a ProfileService backed by source. The weights
// are validated once here; configuration errors are fatal at startup.
func NewProfileService(source ProfileSource, weights RiskWeights, retrySettings RetrySettings, log logger.Logger) (ProfileService, error) {
	if len(weights) == 0 {
		weights = DefaultRiskWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &profileServiceImpl{
		source:  source,
		weights: weights,
		retry:   retrySettings,
		logger:  log.WithComponent("ProfileService"),
	}, nil
}

// Evaluate fetches the follower's profile observation and combines the
// sub-signals into a risk score.
func (s *profileServiceImpl) Evaluate(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileResult, error) {
	if !follower.Valid() {
		return nil, errors.ErrMissingUsername()
	}

	policy := retry.Policy[*models.ProfileObservation]{
		MaxAttempts: s.retry.MaxAttempts,
		BaseDelay:   s.retry.BaseDelay,
		MaxDelay:    s.retry.MaxDelay,
		Logger:      s.logger,
	}
	obs, err := policy.Do(ctx, func(ctx context.Context) (*models.ProfileObservation, error) {
		return s.source.FetchProfile(ctx, follower)
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeOf(err), "profile lookup failed").
			WithDetail("username", follower.Username)
	}

	score, err := s.combine(obs.Signals)
	if err != nil {
		return nil, err
	}

	return &models.ProfileResult{
		RiskScore:  score,
		Analysis:   obs.Analysis,
		Confidence: obs.Confidence,
		Signals:    obs.Signals,
	}, nil
}

// combine computes the weighted mean of the sub-signals. A signal absent from
// the observation contributes 0 while keeping its weight, so sparse profiles
// trend toward a low risk score instead of an undefined one.
func (s *profileServiceImpl) combine(signals models.ProfileSignals) (float64, error) {
	var score float64
	for signal, weight := range s.weights {
		value := signals[signal]
		if value < 0 || value > 1 {
			return 0, errors.Newf(errors.CodeValidation, "risk signal %q value %v is outside [0,1]", signal, value)
		}
		score += value * weight
	}
	return score, nil
}

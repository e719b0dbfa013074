package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/internal/domain/service"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// MockProfileSource is a mock implementation of ProfileSource.
type MockProfileSource struct {
	mock.Mock
}

func (m *MockProfileSource) FetchProfile(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileObservation, error) {
	args := m.Called(ctx, follower)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileObservation), args.Error(1)
}

func TestRiskWeights_DefaultSumsToOne(t *testing.T) {
	require.NoError(t, service.DefaultRiskWeights().Validate())
}

func TestRiskWeights_RejectsUnnormalizedSum(t *testing.T) {
	weights := service.RiskWeights{
		constants.SignalActivity: 0.5,
		constants.SignalContent:  0.2,
	}

	err := weights.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestRiskWeights_RejectsUnknownSignal(t *testing.T) {
	weights := service.RiskWeights{
		constants.SignalActivity: 0.5,
		"follower_velocity":      0.5,
	}

	err := weights.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestNewProfileService_FailsOnBadWeights(t *testing.T) {
	_, err := service.NewProfileService(
		new(MockProfileSource),
		service.RiskWeights{constants.SignalActivity: 0.9},
		fastRetry(),
		logger.NewNoopLogger(),
	)

	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestProfileEvaluate_WeightedMeanOfSignals(t *testing.T) {
	source := new(MockProfileSource)
	source.On("FetchProfile", mock.Anything, mock.Anything).Return(&models.ProfileObservation{
		Signals: models.ProfileSignals{
			constants.SignalActivity:    1.0,
			constants.SignalContent:     0.5,
			constants.SignalInteraction: 0.0,
			constants.SignalAge:         1.0,
		},
		Analysis:   "Standard profile with normal activity",
		Confidence: 0.9,
	}, nil)

	svc, err := service.NewProfileService(source, nil, fastRetry(), logger.NewNoopLogger())
	require.NoError(t, err)

	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "alice"})
	require.NoError(t, err)

	// 1.0*0.3 + 0.5*0.3 + 0.0*0.2 + 1.0*0.2
	assert.InDelta(t, 0.65, result.RiskScore, 1e-9)
	assert.Equal(t, "Standard profile with normal activity", result.Analysis)
	assert.InDelta(t, 0.9, result.Confidence, 1e-9)
	assert.Equal(t, constants.RiskLevelHigh, result.RiskLevel())
}

func TestProfileEvaluate_MissingSignalsContributeZero(t *testing.T) {
	source := new(MockProfileSource)
	source.On("FetchProfile", mock.Anything, mock.Anything).Return(&models.ProfileObservation{
		Signals: models.ProfileSignals{constants.SignalActivity: 1.0},
	}, nil)

	svc, err := service.NewProfileService(source, nil, fastRetry(), logger.NewNoopLogger())
	require.NoError(t, err)

	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "bob"})
	require.NoError(t, err)
	assert.InDelta(t, 0.30, result.RiskScore, 1e-9)
}

func TestProfileEvaluate_CustomWeightsAreHonored(t *testing.T) {
	source := new(MockProfileSource)
	source.On("FetchProfile", mock.Anything, mock.Anything).Return(&models.ProfileObservation{
		Signals: models.ProfileSignals{
			constants.SignalActivity: 1.0,
			constants.SignalContent:  0.0,
		},
	}, nil)

	weights := service.RiskWeights{
		constants.SignalActivity:    0.70,
		constants.SignalContent:     0.10,
		constants.SignalInteraction: 0.10,
		constants.SignalAge:         0.10,
	}
	svc, err := service.NewProfileService(source, weights, fastRetry(), logger.NewNoopLogger())
	require.NoError(t, err)

	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "carol"})
	require.NoError(t, err)
	assert.InDelta(t, 0.70, result.RiskScore, 1e-9)
}

func TestProfileEvaluate_RetriesThenPropagates(t *testing.T) {
	source := new(MockProfileSource)
	source.On("FetchProfile", mock.Anything, mock.Anything).
		Return(nil, errors.ErrSourceUnavailable("profile", nil))

	svc, err := service.NewProfileService(source, nil, fastRetry(), logger.NewNoopLogger())
	require.NoError(t, err)

	_, err = svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "dave"})
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	source.AssertNumberOfCalls(t, "FetchProfile", 3)
}

func TestProfileEvaluate_RejectsOutOfRangeSignal(t *testing.T) {
	source := new(MockProfileSource)
	source.On("FetchProfile", mock.Anything, mock.Anything).Return(&models.ProfileObservation{
		Signals: models.ProfileSignals{constants.SignalActivity: 1.5},
	}, nil)

	svc, err := service.NewProfileService(source, nil, fastRetry(), logger.NewNoopLogger())
	require.NoError(t, err)

	_, err = svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "erin"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

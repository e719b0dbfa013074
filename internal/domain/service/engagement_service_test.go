package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/internal/domain/service"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// MockMetricsSource is a mock implementation of MetricsSource.
type MockMetricsSource struct {
	mock.Mock
}

func (m *MockMetricsSource) FetchMetrics(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementObservation, error) {
	args := m.Called(ctx, follower)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EngagementObservation), args.Error(1)
}

func fastRetry() service.RetrySettings {
	return service.RetrySettings{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestEngagementEvaluate_MeanOfPresentMetrics(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).Return(&models.EngagementObservation{
		Metrics: models.EngagementMetrics{
			constants.MetricLikes:    0.8,
			constants.MetricComments: 0.4,
			constants.MetricShares:   0.6,
		},
		InteractionCount: 5,
	}, nil)

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "alice"})

	require.NoError(t, err)
	assert.InDelta(t, 0.6, result.Score, 1e-9)
	assert.Equal(t, 5, result.InteractionCount)
	source.AssertExpectations(t)
}

func TestEngagementEvaluate_WeightsAnnotateResultWithoutChangingScore(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).Return(&models.EngagementObservation{
		Metrics: models.EngagementMetrics{
			constants.MetricLikes:    0.8,
			constants.MetricComments: 0.4,
		},
	}, nil)

	weights := models.EngagementMetrics{
		constants.MetricLikes:    0.3,
		constants.MetricComments: 0.25,
	}
	svc := service.NewEngagementService(source, weights, fastRetry(), logger.NewNoopLogger())
	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "alice"})

	require.NoError(t, err)
	assert.InDelta(t, 0.6, result.Score, 1e-9)
	assert.Equal(t, weights, result.Weights)
}

func TestEngagementEvaluate_EmptyMetricsScoreZero(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).Return(&models.EngagementObservation{
		Metrics: models.EngagementMetrics{},
	}, nil)

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "bob"})

	require.NoError(t, err)
	assert.Zero(t, result.Score)
}

func TestEngagementEvaluate_ScoreStaysInUnitInterval(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).Return(&models.EngagementObservation{
		Metrics: models.EngagementMetrics{
			constants.MetricLikes:          1.0,
			constants.MetricComments:       1.0,
			constants.MetricShares:         1.0,
			constants.MetricSaves:          1.0,
			constants.MetricStoryViews:     1.0,
			constants.MetricDMInteractions: 1.0,
		},
	}, nil)

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "carol"})

	require.NoError(t, err)
	assert.LessOrEqual(t, result.Score, 1.0)
	assert.GreaterOrEqual(t, result.Score, 0.0)
}

func TestEngagementEvaluate_RetriesTransientFetches(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).
		Return(nil, errors.ErrSourceUnavailable("engagement", nil)).Twice()
	source.On("FetchMetrics", mock.Anything, mock.Anything).
		Return(&models.EngagementObservation{
			Metrics: models.EngagementMetrics{constants.MetricLikes: 0.5},
		}, nil).Once()

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	result, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "dave"})

	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Score, 1e-9)
	source.AssertNumberOfCalls(t, "FetchMetrics", 3)
}

func TestEngagementEvaluate_ExhaustedRetriesPropagate(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).
		Return(nil, errors.ErrSourceUnavailable("engagement", nil))

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	_, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "erin"})

	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	source.AssertNumberOfCalls(t, "FetchMetrics", 3)
}

func TestEngagementEvaluate_RejectsMissingUsername(t *testing.T) {
	source := new(MockMetricsSource)

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	_, err := svc.Evaluate(context.Background(), &models.FollowerRecord{})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	source.AssertNotCalled(t, "FetchMetrics")
}

func TestEngagementEvaluate_RejectsOutOfRangeMetric(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).Return(&models.EngagementObservation{
		Metrics: models.EngagementMetrics{constants.MetricLikes: 1.2},
	}, nil)

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	_, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "frank"})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestEngagementEvaluate_RejectsUnknownMetric(t *testing.T) {
	source := new(MockMetricsSource)
	source.On("FetchMetrics", mock.Anything, mock.Anything).Return(&models.EngagementObservation{
		Metrics: models.EngagementMetrics{"reposts": 0.5},
	}, nil)

	svc := service.NewEngagementService(source, nil, fastRetry(), logger.NewNoopLogger())
	_, err := svc.Evaluate(context.Background(), &models.FollowerRecord{Username: "grace"})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

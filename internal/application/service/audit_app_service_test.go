package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

type mockEngagementService struct {
	mock.Mock
}

func (m *mockEngagementService) Evaluate(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementResult, error) {
	args := m.Called(ctx, follower)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EngagementResult), args.Error(1)
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) Evaluate(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileResult, error) {
	args := m.Called(ctx, follower)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProfileResult), args.Error(1)
}

// memorySink collects appended records and can be told to fail.
type memorySink struct {
	mu      sync.Mutex
	records []*models.AuditRecord
	failErr error
}

func (s *memorySink) Append(_ context.Context, record *models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.records = append(s.records, record)
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func newTestService(engagement *mockEngagementService, profile *mockProfileService, sink *memorySink, concurrency int) AuditAppService {
	return NewAuditAppService(engagement, profile, sink, nil, nil, concurrency, logger.NewNoopLogger())
}

func follower(username string) *models.FollowerRecord {
	return &models.FollowerRecord{Username: username}
}

func TestEvaluateFollowerKeep(t *testing.T) {
	engagement := new(mockEngagementService)
	profile := new(mockProfileService)
	sink := &memorySink{}
	svc := newTestService(engagement, profile, sink, 1)

	f := follower("alice")
	engagement.On("Evaluate", mock.Anything, f).Return(&models.EngagementResult{Score: 0.8}, nil)
	profile.On("Evaluate", mock.Anything, f).Return(&models.ProfileResult{
		RiskScore: 0.2,
		Analysis:  "Standard profile with normal activity",
	}, nil)

	record, err := svc.EvaluateFollower(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, models.ActionKeep, record.Action)
	assert.Equal(t, 0.8, record.EngagementScore)
	assert.Equal(t, 0.2, record.RiskScore)
	assert.Equal(t, 1, sink.len())
	assert.Equal(t, record.EventID, sink.records[0].EventID)
	engagement.AssertExpectations(t)
	profile.AssertExpectations(t)
}

func TestEvaluateFollowerMissingUsername(t *testing.T) {
	engagement := new(mockEngagementService)
	profile := new(mockProfileService)
	sink := &memorySink{}
	svc := newTestService(engagement, profile, sink, 1)

	_, err := svc.EvaluateFollower(context.Background(), &models.FollowerRecord{})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, 0, sink.len())
	engagement.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

func TestEvaluateFollowerEngagementFailureSkipsProfile(t *testing.T) {
	engagement := new(mockEngagementService)
	profile := new(mockProfileService)
	sink := &memorySink{}
	svc := newTestService(engagement, profile, sink, 1)

	f := follower("bob")
	srcErr := errors.ErrSourceUnavailable("metrics", fmt.Errorf("connection refused"))
	engagement.On("Evaluate", mock.Anything, f).Return(nil, srcErr)

	_, err := svc.EvaluateFollower(context.Background(), f)

	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Equal(t, 0, sink.len())
	profile.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

func TestEvaluateFollowerSinkFailureDoesNotFailEvaluation(t *testing.T) {
	engagement := new(mockEngagementService)
	profile := new(mockProfileService)
	sink := &memorySink{failErr: errors.New(errors.CodeTransient, "broker down")}
	svc := newTestService(engagement, profile, sink, 1)

	f := follower("carol")
	engagement.On("Evaluate", mock.Anything, f).Return(&models.EngagementResult{Score: 0.6}, nil)
	profile.On("Evaluate", mock.Anything, f).Return(&models.ProfileResult{RiskScore: 0.4}, nil)

	record, err := svc.EvaluateFollower(context.Background(), f)

	require.NoError(t, err)
	assert.Equal(t, models.ActionMonitor, record.Action)
}

func TestEvaluateFollowerIdempotent(t *testing.T) {
	engagement := new(mockEngagementService)
	profile := new(mockProfileService)
	sink := &memorySink{}
	svc := newTestService(engagement, profile, sink, 1)

	f := follower("dave")
	engagement.On("Evaluate", mock.Anything, f).Return(&models.EngagementResult{Score: 0.25}, nil)
	profile.On("Evaluate", mock.Anything, f).Return(&models.ProfileResult{RiskScore: 0.1}, nil)

	first, err := svc.EvaluateFollower(context.Background(), f)
	require.NoError(t, err)
	second, err := svc.EvaluateFollower(context.Background(), f)
	require.NoError(t, err)

	assert.Equal(t, first.Action, second.Action)
	assert.Equal(t, first.EngagementScore, second.EngagementScore)
	assert.Equal(t, first.RiskScore, second.RiskScore)
	assert.Equal(t, first.Recommendations, second.Recommendations)
	assert.NotEqual(t, first.EventID, second.EventID)
}

func TestEvaluateBatchIsolatesFailures(t *testing.T) {
	engagement := new(mockEngagementService)
	profile := new(mockProfileService)
	sink := &memorySink{}
	svc := newTestService(engagement, profile, sink, 4)

	followers := make([]*models.FollowerRecord, 10)
	for i := range followers {
		followers[i] = follower(fmt.Sprintf("user%02d", i))
	}
	failing := followers[7]

	engagement.On("Evaluate", mock.Anything, failing).
		Return(nil, errors.ErrSourceUnavailable("metrics", fmt.Errorf("timeout")))
	engagement.On("Evaluate", mock.Anything, mock.Anything).
		Return(&models.EngagementResult{Score: 0.9}, nil)
	profile.On("Evaluate", mock.Anything, mock.Anything).
		Return(&models.ProfileResult{RiskScore: 0.1}, nil)

	outcomes := svc.EvaluateBatch(context.Background(), followers)

	require.Len(t, outcomes, 10)
	for i, outcome := range outcomes {
		assert.Equal(t, followers[i].Username, outcome.Username, "submission order preserved")
		if i == 7 {
			assert.Error(t, outcome.Err)
			assert.Nil(t, outcome.Record)
			continue
		}
		require.NoError(t, outcome.Err)
		assert.Equal(t, models.ActionKeep, outcome.Record.Action)
	}
	assert.Equal(t, 9, sink.len())
}

func TestEvaluateBatchEmpty(t *testing.T) {
	svc := newTestService(new(mockEngagementService), new(mockProfileService), &memorySink{}, 2)

	outcomes := svc.EvaluateBatch(context.Background(), nil)

	assert.Empty(t, outcomes)
}

func TestEvaluateBatchCancelledContext(t *testing.T) {
	engagement := new(mockEngagementService)
	profile := new(mockProfileService)
	sink := &memorySink{}
	svc := newTestService(engagement, profile, sink, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	followers := []*models.FollowerRecord{follower("eve"), follower("frank")}
	outcomes := svc.EvaluateBatch(ctx, followers)

	require.Len(t, outcomes, 2)
	for i, outcome := range outcomes {
		assert.Equal(t, followers[i].Username, outcome.Username)
		assert.ErrorIs(t, outcome.Err, context.Canceled)
	}
	assert.Equal(t, 0, sink.len())
	engagement.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

// Package service provides the application-level orchestration of the
// follower evaluation pipeline: it sequences the domain evaluators, applies
// the decision policy and hands the outcome to the audit sink.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	domainservice "github.com/crowdlens/crowdlens/internal/domain/service"
	"github.com/crowdlens/crowdlens/internal/infrastructure/monitoring"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// BatchOutcome is the per-follower result of a batch evaluation. Exactly one
// of Record and Err is set.
type BatchOutcome struct {
	Username string
	Record   *models.AuditRecord
	Err      error
}

// AuditAppService is the entry point of the evaluation pipeline.
type AuditAppService interface {
	// EvaluateFollower runs the full pipeline for one follower and returns
	// its audit record.
	EvaluateFollower(ctx context.Context, follower *models.FollowerRecord) (*models.AuditRecord, error)

	// EvaluateBatch evaluates followers independently on a bounded worker
	// pool. One follower's failure never aborts the rest; outcomes are
	// reported per follower in submission order.
	EvaluateBatch(ctx context.Context, followers []*models.FollowerRecord) []BatchOutcome
}

// auditAppServiceImpl is the concrete implementation of AuditAppService.
type auditAppServiceImpl struct {
	engagement  domainservice.EngagementService
	profile     domainservice.ProfileService
	sink        domainservice.AuditSink
	metrics     *monitoring.Metrics
	tracing     *monitoring.TracingManager
	concurrency int
	logger      logger.Logger
}

// NewAuditAppService creates a new instance of AuditAppService. Metrics and
// tracing may be nil; concurrency below 1 falls back to serial batches.
func NewAuditAppService(
	engagement domainservice.EngagementService,
	profile domainservice.ProfileService,
	sink domainservice.AuditSink,
	metrics *monitoring.Metrics,
	tracing *monitoring.TracingManager,
	concurrency int,
	log logger.Logger,
) AuditAppService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &auditAppServiceImpl{
		engagement:  engagement,
		profile:     profile,
		sink:        sink,
		metrics:     metrics,
		tracing:     tracing,
		concurrency: concurrency,
		logger:      log.WithComponent("AuditAppService"),
	}
}

// evaluationDetail is the free-form blob attached to each audit record.
type evaluationDetail struct {
	Metrics          models.EngagementMetrics `json:"metrics"`
	Weights          models.EngagementMetrics `json:"weights,omitempty"`
	Signals          models.ProfileSignals    `json:"signals,omitempty"`
	Confidence       float64                  `json:"confidence"`
	InteractionCount int                      `json:"interaction_count"`
}

// EvaluateFollower implements the per-follower state machine: engagement
// first, then profile, then the decision policy, then the audit write. The
// two evaluator calls are strictly sequential because the policy needs both
// scores.
func (s *auditAppServiceImpl) EvaluateFollower(ctx context.Context, follower *models.FollowerRecord) (*models.AuditRecord, error) {
	start := time.Now()

	// 1. Validate input before touching any source.
	if !follower.Valid() {
		return nil, errors.ErrMissingUsername()
	}

	ctx, span := s.startSpan(ctx, "EvaluateFollower", attribute.String("username", follower.Username))
	defer span.End()

	// 2. Engagement score (retry-wrapped inside the domain service).
	engCtx, engSpan := s.startSpan(ctx, "EvaluateEngagement")
	engagement, err := s.engagement.Evaluate(engCtx, follower)
	engSpan.End()
	if err != nil {
		return nil, s.failEvaluation(ctx, follower.Username, "engagement evaluation failed", err, start)
	}

	// 3. Risk score.
	profCtx, profSpan := s.startSpan(ctx, "EvaluateProfile")
	profile, err := s.profile.Evaluate(profCtx, follower)
	profSpan.End()
	if err != nil {
		return nil, s.failEvaluation(ctx, follower.Username, "profile evaluation failed", err, start)
	}

	// 4. Decision and recommendations.
	action := domainservice.Decide(engagement.Score, profile.RiskScore)
	recommendations := domainservice.Recommendations(engagement.Score, profile.RiskScore, profile.Analysis)

	record := models.NewAuditRecord(follower.Username, action, profile.Analysis).
		WithScores(engagement.Score, profile.RiskScore).
		WithRecommendations(recommendations).
		WithDetail(evaluationDetail{
			Metrics:          engagement.Metrics,
			Weights:          engagement.Weights,
			Signals:          profile.Signals,
			Confidence:       profile.Confidence,
			InteractionCount: engagement.InteractionCount,
		})

	// 5. Audit write. A sink failure is logged and counted but never fails
	// the evaluation.
	if err := s.sink.Append(ctx, record); err != nil {
		s.logger.Error(ctx, "failed to append audit record", err,
			logger.String("username", follower.Username))
		if s.metrics != nil {
			s.metrics.RecordAuditWriteFailure()
		}
	}

	span.SetAttributes(
		attribute.Float64("engagement_score", engagement.Score),
		attribute.Float64("risk_score", profile.RiskScore),
		attribute.String("action", string(action)),
	)
	if s.metrics != nil {
		s.metrics.RecordEvaluation(string(action), string(constants.AuditOutcomeSuccess), time.Since(start))
	}
	s.logger.Info(ctx, "follower evaluated",
		logger.String("username", follower.Username),
		logger.Float64("engagement_score", engagement.Score),
		logger.Float64("risk_score", profile.RiskScore),
		logger.String("action", string(action)),
	)
	return record, nil
}

// EvaluateBatch implements AuditAppService. Results keep submission order
// even though workers complete out of order. Cancelling ctx stops scheduling
// new followers; in-flight evaluations run to completion.
func (s *auditAppServiceImpl) EvaluateBatch(ctx context.Context, followers []*models.FollowerRecord) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(followers))
	if s.metrics != nil {
		s.metrics.RecordBatch(len(followers))
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, follower := range followers {
		username := ""
		if follower != nil {
			username = follower.Username
		}

		if err := ctx.Err(); err != nil {
			outcomes[i] = BatchOutcome{Username: username, Err: err}
			continue
		}

		i, follower, username := i, follower, username
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = BatchOutcome{Username: username, Err: err}
				return nil
			}
			record, err := s.EvaluateFollower(ctx, follower)
			outcomes[i] = BatchOutcome{Username: username, Record: record, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *auditAppServiceImpl) failEvaluation(ctx context.Context, username, msg string, err error, start time.Time) error {
	s.logger.Error(ctx, msg, err, logger.String("username", username))
	if s.tracing != nil {
		s.tracing.RecordError(ctx, err)
	}
	if s.metrics != nil {
		s.metrics.RecordEvaluation("none", string(constants.AuditOutcomeFailure), time.Since(start))
	}
	return err
}

func (s *auditAppServiceImpl) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if s.tracing == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracing.StartSpan(ctx, name, trace.WithAttributes(attrs...))
}

// Package service contains the domain services of the follower evaluation
// pipeline: the two score evaluators and the decision policy. Upstream data
// access is abstracted behind capability interfaces so the pipeline never
// knows whether it talks to a lookup table, a cache, or a live API.
package service

import (
	"context"

	"github.com/crowdlens/crowdlens/internal/domain/models"
)

// MetricsSource provides engagement observations per follower.
type MetricsSource interface {
	// FetchMetrics returns the raw engagement observation for a follower.
	// Connectivity-class failures must carry the transient error code so
	// the retry wrapper picks them up.
	FetchMetrics(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementObservation, error)
}

// ProfileSource provides profile observations per follower.
type ProfileSource interface {
	// FetchProfile returns the raw profile observation for a follower.
	FetchProfile(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileObservation, error)
}

// AuditSink records evaluation outcomes. Implementations must be safe for
// concurrent appends and must not make a partial record visible.
type AuditSink interface {
	// Append durably writes one audit record before returning.
	Append(ctx context.Context, record *models.AuditRecord) error

	// Close flushes and releases the sink.
	Close() error
}

// EngagementService computes the engagement score for a follower.
type EngagementService interface {
	Evaluate(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementResult, error)
}

// ProfileService computes the risk score for a follower.
type ProfileService interface {
	Evaluate(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileResult, error)
}

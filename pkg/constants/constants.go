// Package constants defines system-wide constants for the Crowdlens follower
// evaluation service. This package provides type-safe constant definitions
// used across all modules.
package constants

import (
	"context"
	"time"
)

// ================================================================================
// Engagement Metric Constants
// ================================================================================

// MetricType identifies one of the fixed engagement interaction metrics.
type MetricType string

const (
	MetricLikes          MetricType = "likes"
	MetricComments       MetricType = "comments"
	MetricShares         MetricType = "shares"
	MetricSaves          MetricType = "saves"
	MetricStoryViews     MetricType = "story_views"
	MetricDMInteractions MetricType = "dm_interactions"
)

// MetricTypes lists every known engagement metric in canonical order.
var MetricTypes = []MetricType{
	MetricLikes,
	MetricComments,
	MetricShares,
	MetricSaves,
	MetricStoryViews,
	MetricDMInteractions,
}

// IsKnownMetric reports whether name is one of the enumerated metrics.
func IsKnownMetric(name MetricType) bool {
	for _, m := range MetricTypes {
		if m == name {
			return true
		}
	}
	return false
}

// ================================================================================
// Risk Signal Constants
// ================================================================================

// RiskSignal identifies one of the profile sub-signals combined into the risk score.
type RiskSignal string

const (
	SignalActivity    RiskSignal = "activity"
	SignalContent     RiskSignal = "content"
	SignalInteraction RiskSignal = "interaction"
	SignalAge         RiskSignal = "age"
)

// RiskSignals lists every risk sub-signal in canonical order.
var RiskSignals = []RiskSignal{
	SignalActivity,
	SignalContent,
	SignalInteraction,
	SignalAge,
}

// ================================================================================
// Risk Level Constants
// ================================================================================

// RiskLevel is the banded classification of a risk score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Risk level band upper bounds. Scores above RiskBandHigh classify as
// critical.
const (
	RiskBandLow      = 0.3
	RiskBandMedium   = 0.5
	RiskBandHigh     = 0.7
	RiskBandCritical = 0.9
)

// ClassifyRisk maps a risk score in [0,1] to its band.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score <= RiskBandLow:
		return RiskLevelLow
	case score <= RiskBandMedium:
		return RiskLevelMedium
	case score <= RiskBandHigh:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// ================================================================================
// Decision Threshold Constants
// ================================================================================

// Decision policy thresholds. The branch order that consumes these lives in
// the domain policy; the values themselves are fixed product decisions.
const (
	KeepEngagementMin    = 0.7
	KeepRiskMax          = 0.3
	MonitorEngagementMin = 0.5
	MonitorRiskMax       = 0.5
	RemoveEngagementMax  = 0.3
	RemoveRiskMin        = 0.7
)

// Recommendation notice thresholds.
const (
	LowEngagementNotice = 0.5
	HighRiskNotice      = 0.5
)

// ================================================================================
// Retry Defaults
// ================================================================================

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type used for values stored on a request context.
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyTraceID   ContextKey = "trace_id"
)

// WithRequestID stores the request ID on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// WithTraceID stores the trace ID on the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, ContextKeyTraceID, traceID)
}

// ================================================================================
// Audit Constants
// ================================================================================

// AuditOutcome is the terminal result recorded for an evaluation.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
)

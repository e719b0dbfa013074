// Package dto defines the request and response payloads of the HTTP API.
package dto

import (
	"time"

	"github.com/crowdlens/crowdlens/internal/domain/models"
)

// FollowerRequest is one follower submitted for evaluation.
type FollowerRequest struct {
	Username   string            `json:"username" validate:"required"`
	Bio        string            `json:"bio,omitempty"`
	ProfilePic string            `json:"profile_pic,omitempty"`
	Following  []string          `json:"following,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// ToModel converts the request into the domain record.
func (r *FollowerRequest) ToModel() *models.FollowerRecord {
	return &models.FollowerRecord{
		Username:   r.Username,
		Bio:        r.Bio,
		ProfilePic: r.ProfilePic,
		Following:  r.Following,
		Extra:      r.Extra,
	}
}

// BatchRequest is a batch of followers submitted for evaluation.
type BatchRequest struct {
	Followers []FollowerRequest `json:"followers" validate:"required,min=1,dive"`
}

// AuditResultResponse is the API shape of one evaluation outcome.
type AuditResultResponse struct {
	EventID         string    `json:"event_id"`
	Timestamp       time.Time `json:"timestamp"`
	Username        string    `json:"username"`
	EngagementScore float64   `json:"engagement_score"`
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       string    `json:"risk_level"`
	Action          string    `json:"action"`
	Reason          string    `json:"reason"`
	Recommendations []string  `json:"recommendations"`
}

// FromAuditRecord converts a domain audit record to its API shape.
func FromAuditRecord(record *models.AuditRecord) *AuditResultResponse {
	return &AuditResultResponse{
		EventID:         record.EventID.String(),
		Timestamp:       record.Timestamp,
		Username:        record.Username,
		EngagementScore: record.EngagementScore,
		RiskScore:       record.RiskScore,
		RiskLevel:       string(record.RiskLevel),
		Action:          string(record.Action),
		Reason:          record.Reason,
		Recommendations: record.Recommendations,
	}
}

// BatchItemResponse is the per-follower outcome within a batch response.
// Exactly one of Result and Error is set.
type BatchItemResponse struct {
	Username string               `json:"username"`
	Result   *AuditResultResponse `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// BatchSummary aggregates the batch outcome counts.
type BatchSummary struct {
	Total     int            `json:"total"`
	Evaluated int            `json:"evaluated"`
	Failed    int            `json:"failed"`
	Actions   map[string]int `json:"actions"`
}

// BatchResponse is the API shape of a batch evaluation.
type BatchResponse struct {
	Results []BatchItemResponse `json:"results"`
	Summary BatchSummary        `json:"summary"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/crowdlens/crowdlens/pkg/constants"
)

// AuditRecord is the append-only record of one follower evaluation. It is
// owned by the orchestrator until handed to the sink and never mutated
// afterwards.
type AuditRecord struct {
	EventID         uuid.UUID           `json:"event_id"`
	Timestamp       time.Time           `json:"timestamp"`
	Username        string              `json:"username"`
	EngagementScore float64             `json:"engagement_score"`
	RiskScore       float64             `json:"risk_score"`
	RiskLevel       constants.RiskLevel `json:"risk_level"`
	Action          Action              `json:"action"`
	Reason          string              `json:"reason"`
	Recommendations []string            `json:"recommendations"`
	Detail          json.RawMessage     `json:"detail,omitempty"`

	// Signature is the optional HMAC over the record fields, set by the
	// sink when audit signing is enabled.
	Signature string `json:"signature,omitempty"`
}

// NewAuditRecord creates an audit record for a completed evaluation.
func NewAuditRecord(username string, action Action, reason string) *AuditRecord {
	return &AuditRecord{
		EventID:   uuid.New(),
		Timestamp: time.Now().UTC(),
		Username:  username,
		Action:    action,
		Reason:    reason,
	}
}

// WithScores sets both evaluation scores and the derived risk band.
func (a *AuditRecord) WithScores(engagement, risk float64) *AuditRecord {
	a.EngagementScore = engagement
	a.RiskScore = risk
	a.RiskLevel = constants.ClassifyRisk(risk)
	return a
}

// WithRecommendations sets the advisory strings.
func (a *AuditRecord) WithRecommendations(recs []string) *AuditRecord {
	a.Recommendations = recs
	return a
}

// WithDetail attaches a free-form detail blob, marshaled to JSON. Marshal
// failures leave the detail empty rather than failing the evaluation.
func (a *AuditRecord) WithDetail(detail interface{}) *AuditRecord {
	if data, err := json.Marshal(detail); err == nil {
		a.Detail = data
	}
	return a
}

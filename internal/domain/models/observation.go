package models

import "time"

// EngagementObservation is the raw engagement data returned by an upstream
// metrics source before scoring.
type EngagementObservation struct {
	Metrics          EngagementMetrics `json:"metrics"`
	LastInteraction  *time.Time        `json:"last_interaction,omitempty"`
	InteractionCount int               `json:"interaction_count"`
}

// ProfileObservation is the raw profile data returned by an upstream profile
// source before risk scoring.
type ProfileObservation struct {
	Signals    ProfileSignals `json:"signals"`
	Analysis   string         `json:"analysis"`
	Confidence float64        `json:"confidence"`
}

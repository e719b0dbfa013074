package models

import "github.com/crowdlens/crowdlens/pkg/constants"

// ProfileSignals holds the four sub-signals, each in [0,1], that combine
// into the risk score. A signal missing from the source stays 0.
type ProfileSignals map[constants.RiskSignal]float64

// ProfileResult is the derived outcome of profile risk analysis.
type ProfileResult struct {
	RiskScore  float64        `json:"risk_score"`
	Analysis   string         `json:"analysis"`
	Confidence float64        `json:"confidence"`
	Signals    ProfileSignals `json:"signals,omitempty"`
}

// RiskLevel returns the banded classification of the risk score.
func (p *ProfileResult) RiskLevel() constants.RiskLevel {
	return constants.ClassifyRisk(p.RiskScore)
}

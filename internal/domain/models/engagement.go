package models

import (
	"time"

	"github.com/crowdlens/crowdlens/pkg/constants"
)

// EngagementMetrics maps a metric name to a normalized value in [0,1].
// Missing metrics are treated as absent, not zero.
type EngagementMetrics map[constants.MetricType]float64

// EngagementResult is the derived outcome of engagement analysis. Created
// fresh per evaluation and never mutated afterwards. Weights is the
// configured per-metric weighting profile active for this evaluation; it
// annotates the breakdown and does not alter the score.
type EngagementResult struct {
	Score            float64           `json:"score"`
	Metrics          EngagementMetrics `json:"metrics"`
	Weights          EngagementMetrics `json:"weights,omitempty"`
	LastInteraction  *time.Time        `json:"last_interaction,omitempty"`
	InteractionCount int               `json:"interaction_count"`
}

package service

import (
	"strings"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/pkg/constants"
)

// Advisory notice strings appended by the recommendation generator.
const (
	NoticeLowEngagement = "Low engagement - Consider removing if no improvement"
	NoticeHighRisk      = "High risk - Monitor closely or remove"
	NoticePrivate       = "Private account - Consider impact on engagement"
	NoticeInactive      = "Inactive account - May be safe to remove"
)

// Decide maps an (engagement, risk) score pair to an action. The branches
// are evaluated in this literal order and the first match wins; KEEP needs
// both bounds while REMOVE needs only one, and everything left over lands on
// MONITOR.
func Decide(engagement, risk float64) models.Action {
	switch {
	case engagement >= constants.KeepEngagementMin && risk <= constants.KeepRiskMax:
		return models.ActionKeep
	case engagement >= constants.MonitorEngagementMin && risk <= constants.MonitorRiskMax:
		return models.ActionMonitor
	case engagement <= constants.RemoveEngagementMax || risk >= constants.RemoveRiskMin:
		return models.ActionRemove
	default:
		return models.ActionMonitor
	}
}

// Recommendations generates advisory strings for the scores and the profile
// analysis text. The four checks are independent and their output order is
// fixed.
func Recommendations(engagement, risk float64, analysis string) []string {
	recs := make([]string, 0, 4)
	lower := strings.ToLower(analysis)

	if engagement < constants.LowEngagementNotice {
		recs = append(recs, NoticeLowEngagement)
	}
	if risk > constants.HighRiskNotice {
		recs = append(recs, NoticeHighRisk)
	}
	if strings.Contains(lower, "private") {
		recs = append(recs, NoticePrivate)
	}
	if strings.Contains(lower, "inactive") {
		recs = append(recs, NoticeInactive)
	}
	return recs
}

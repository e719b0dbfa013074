// Package sources provides the upstream data capabilities consumed by the
// evaluators: static lookup tables (the stand-in for a live Instagram API)
// and caching decorators over them.
package sources

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/crowdlens/crowdlens/internal/domain/models"
	"github.com/crowdlens/crowdlens/internal/domain/service"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// engagementEntry is the on-disk shape of one follower's engagement data.
type engagementEntry struct {
	Metrics          map[string]float64 `json:"metrics"`
	LastInteraction  *time.Time         `json:"last_interaction,omitempty"`
	InteractionCount int                `json:"interaction_count"`
}

// profileEntry is the on-disk shape of one follower's profile data.
type profileEntry struct {
	Signals    map[string]float64 `json:"signals"`
	Analysis   string             `json:"analysis"`
	Confidence float64            `json:"confidence"`
}

// defaultAnalysis is returned for usernames absent from the profile table.
const defaultAnalysis = "Standard profile with normal activity"

// StaticMetricsSource serves engagement observations from a JSON lookup
// table keyed by username. Unknown usernames get a deterministic empty
// observation so repeated evaluations stay idempotent.
type StaticMetricsSource struct {
	table  map[string]engagementEntry
	logger logger.Logger
}

// NewStaticMetricsSource loads the lookup table from path. A missing file
// yields an empty table rather than an error, matching the optional mock
// data of the upstream tool.
func NewStaticMetricsSource(path string, log logger.Logger) (*StaticMetricsSource, error) {
	table := make(map[string]engagementEntry)
	if err := loadTable(path, &table); err != nil {
		return nil, err
	}
	return &StaticMetricsSource{table: table, logger: log.WithComponent("StaticMetricsSource")}, nil
}

// FetchMetrics implements service.MetricsSource.
func (s *StaticMetricsSource) FetchMetrics(ctx context.Context, follower *models.FollowerRecord) (*models.EngagementObservation, error) {
	entry, ok := s.table[follower.Username]
	if !ok {
		s.logger.Debug(ctx, "no engagement data for follower, using empty observation",
			logger.String("username", follower.Username))
		return &models.EngagementObservation{Metrics: models.EngagementMetrics{}}, nil
	}

	metrics := make(models.EngagementMetrics, len(entry.Metrics))
	for name, value := range entry.Metrics {
		metrics[constants.MetricType(name)] = value
	}
	return &models.EngagementObservation{
		Metrics:          metrics,
		LastInteraction:  entry.LastInteraction,
		InteractionCount: entry.InteractionCount,
	}, nil
}

// StaticProfileSource serves profile observations from a JSON lookup table
// keyed by username.
type StaticProfileSource struct {
	table  map[string]profileEntry
	logger logger.Logger
}

// NewStaticProfileSource loads the lookup table from path.
func NewStaticProfileSource(path string, log logger.Logger) (*StaticProfileSource, error) {
	table := make(map[string]profileEntry)
	if err := loadTable(path, &table); err != nil {
		return nil, err
	}
	return &StaticProfileSource{table: table, logger: log.WithComponent("StaticProfileSource")}, nil
}

// FetchProfile implements service.ProfileSource.
func (s *StaticProfileSource) FetchProfile(ctx context.Context, follower *models.FollowerRecord) (*models.ProfileObservation, error) {
	entry, ok := s.table[follower.Username]
	if !ok {
		return &models.ProfileObservation{
			Signals:    models.ProfileSignals{},
			Analysis:   defaultAnalysis,
			Confidence: 1.0,
		}, nil
	}

	signals := make(models.ProfileSignals, len(entry.Signals))
	for name, value := range entry.Signals {
		signals[constants.RiskSignal(name)] = value
	}
	return &models.ProfileObservation{
		Signals:    signals,
		Analysis:   entry.Analysis,
		Confidence: entry.Confidence,
	}, nil
}

func loadTable(path string, out interface{}) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.CodeConfiguration, "failed to read source data file")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, errors.CodeConfiguration, "failed to parse source data file")
	}
	return nil
}

var (
	_ service.MetricsSource = (*StaticMetricsSource)(nil)
	_ service.ProfileSource = (*StaticProfileSource)(nil)
)

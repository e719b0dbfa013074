package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	appservice "github.com/crowdlens/crowdlens/internal/application/service"
	"github.com/crowdlens/crowdlens/internal/config"
	"github.com/crowdlens/crowdlens/internal/domain/models"
	domainservice "github.com/crowdlens/crowdlens/internal/domain/service"
	auditsink "github.com/crowdlens/crowdlens/internal/infrastructure/audit"
	"github.com/crowdlens/crowdlens/internal/infrastructure/monitoring"
	"github.com/crowdlens/crowdlens/internal/infrastructure/sources"
	"github.com/crowdlens/crowdlens/pkg/constants"
)

func init() {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Evaluate a list of followers",
		Long: `Reads a JSON file containing an array of follower records and runs
each of them through the evaluation pipeline.`,
		RunE: runAudit,
	}
	auditCmd.Flags().String("followers", "", "Path to a JSON file with follower records")
	auditCmd.Flags().Bool("json", false, "Print results as JSON instead of a table")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	followersPath, _ := cmd.Flags().GetString("followers")
	asJSON, _ := cmd.Flags().GetBool("json")
	if followersPath == "" {
		return fmt.Errorf("--followers is required")
	}

	followers, err := loadFollowers(followersPath)
	if err != nil {
		return err
	}

	log, err := monitoring.NewZapLogger(&config.LogConfig{Level: "warn"})
	if err != nil {
		return err
	}

	cfg, err := config.NewLoader(log).Load()
	if err != nil {
		return err
	}

	metricsSource, err := sources.NewStaticMetricsSource(cfg.Sources.EngagementFile, log)
	if err != nil {
		return err
	}
	profileSource, err := sources.NewStaticProfileSource(cfg.Sources.ProfileFile, log)
	if err != nil {
		return err
	}

	sink, err := auditsink.NewFileSink(cfg.Audit.FilePath, cfg.Audit.SignKey, log)
	if err != nil {
		return err
	}
	defer sink.Close()

	retrySettings := domainservice.RetrySettings{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	engagementWeights := make(models.EngagementMetrics, len(cfg.Evaluation.EngagementWeights))
	for metric, weight := range cfg.Evaluation.EngagementWeights {
		engagementWeights[constants.MetricType(metric)] = weight
	}
	engagementSvc := domainservice.NewEngagementService(metricsSource, engagementWeights, retrySettings, log)

	weights := make(domainservice.RiskWeights, len(cfg.Evaluation.RiskWeights))
	for signal, weight := range cfg.Evaluation.RiskWeights {
		weights[constants.RiskSignal(signal)] = weight
	}
	profileSvc, err := domainservice.NewProfileService(profileSource, weights, retrySettings, log)
	if err != nil {
		return err
	}

	svc := appservice.NewAuditAppService(
		engagementSvc, profileSvc, sink,
		nil, nil,
		cfg.Evaluation.BatchConcurrency,
		log,
	)

	outcomes := svc.EvaluateBatch(cmd.Context(), followers)
	if asJSON {
		return printJSON(outcomes)
	}
	printTable(outcomes)
	return nil
}

func loadFollowers(path string) ([]*models.FollowerRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading followers file: %w", err)
	}
	var followers []*models.FollowerRecord
	if err := json.Unmarshal(data, &followers); err != nil {
		return nil, fmt.Errorf("parsing followers file: %w", err)
	}
	if len(followers) == 0 {
		return nil, fmt.Errorf("followers file contains no records")
	}
	return followers, nil
}

func printJSON(outcomes []appservice.BatchOutcome) error {
	type resultLine struct {
		Username        string   `json:"username"`
		Action          string   `json:"action,omitempty"`
		EngagementScore float64  `json:"engagement_score,omitempty"`
		RiskScore       float64  `json:"risk_score,omitempty"`
		Recommendations []string `json:"recommendations,omitempty"`
		Error           string   `json:"error,omitempty"`
	}
	lines := make([]resultLine, len(outcomes))
	for i, outcome := range outcomes {
		line := resultLine{Username: outcome.Username}
		if outcome.Err != nil {
			line.Error = outcome.Err.Error()
		} else {
			line.Action = string(outcome.Record.Action)
			line.EngagementScore = outcome.Record.EngagementScore
			line.RiskScore = outcome.Record.RiskScore
			line.Recommendations = outcome.Record.Recommendations
		}
		lines[i] = line
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(lines)
}

func printTable(outcomes []appservice.BatchOutcome) {
	var evaluated, failed int
	fmt.Printf("%-24s %-10s %-12s %-10s %s\n", "USERNAME", "ACTION", "ENGAGEMENT", "RISK", "NOTES")
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
			fmt.Printf("%-24s %-10s %-12s %-10s %s\n", outcome.Username, "error", "-", "-", outcome.Err.Error())
			continue
		}
		evaluated++
		notes := ""
		if len(outcome.Record.Recommendations) > 0 {
			notes = outcome.Record.Recommendations[0]
		}
		fmt.Printf("%-24s %-10s %-12.2f %-10.2f %s\n",
			outcome.Username,
			string(outcome.Record.Action),
			outcome.Record.EngagementScore,
			outcome.Record.RiskScore,
			notes,
		)
	}
	fmt.Printf("\n%d evaluated, %d failed, %d total\n", evaluated, failed, len(outcomes))
}

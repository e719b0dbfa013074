package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	appservice "github.com/crowdlens/crowdlens/internal/application/service"
	"github.com/crowdlens/crowdlens/internal/config"
	"github.com/crowdlens/crowdlens/internal/domain/models"
	auditsink "github.com/crowdlens/crowdlens/internal/infrastructure/audit"
	"github.com/crowdlens/crowdlens/internal/infrastructure/monitoring"
	"github.com/crowdlens/crowdlens/internal/infrastructure/sources"
	httpiface "github.com/crowdlens/crowdlens/internal/interfaces/http"
	"github.com/crowdlens/crowdlens/internal/interfaces/http/handlers"
	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/logger"

	domainservice "github.com/crowdlens/crowdlens/internal/domain/service"
)

func main() {
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})
	if err != nil {
		log.Fatalf("failed to create startup logger: %v", err)
	}

	loader := config.NewLoader(startupLogger)
	cfg, err := loader.Load()
	if err != nil {
		startupLogger.Fatal(context.Background(), "failed to load config", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		startupLogger.Fatal(context.Background(), "failed to create logger", err)
	}
	loader.Watch(func(updated *config.Config) {
		appLogger.Info(context.Background(), "configuration reloaded",
			logger.String("log_level", updated.Log.Level))
	})

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(context.Background(), "failed to initialize tracing", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx); err != nil {
			appLogger.Error(ctx, "failed to shut down tracing", err)
		}
	}()

	metrics := monitoring.NewMetrics()

	metricsSource, profileSource, redisClient, err := buildSources(cfg, appLogger)
	if err != nil {
		appLogger.Fatal(context.Background(), "failed to initialize sources", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	sink, err := buildSink(cfg, appLogger)
	if err != nil {
		appLogger.Fatal(context.Background(), "failed to initialize audit sink", err)
	}
	defer sink.Close()

	retrySettings := domainservice.RetrySettings{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}
	engagementSvc := domainservice.NewEngagementService(metricsSource, engagementWeights(cfg), retrySettings, appLogger)
	profileSvc, err := domainservice.NewProfileService(profileSource, riskWeights(cfg), retrySettings, appLogger)
	if err != nil {
		appLogger.Fatal(context.Background(), "invalid risk weights", err)
	}

	auditSvc := appservice.NewAuditAppService(
		engagementSvc, profileSvc, sink,
		metrics, tracing,
		cfg.Evaluation.BatchConcurrency,
		appLogger,
	)

	auditHandler := handlers.NewAuditHandler(auditSvc, appLogger)
	healthHandler := handlers.NewHealthHandler(redisClient, appLogger)
	router := httpiface.NewRouter(cfg, appLogger, auditHandler, healthHandler, tracing)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := router.Stop(ctx); err != nil {
			appLogger.Error(ctx, "server forced to shut down", err)
		}
	}()

	if err := router.Start(); err != nil {
		appLogger.Fatal(context.Background(), "HTTP server failed", err)
	}
	appLogger.Info(context.Background(), "server stopped")
}

// buildSources assembles the static lookup sources and the configured cache
// decorator. The returned redis client is nil unless the redis backend is
// selected.
func buildSources(cfg *config.Config, log logger.Logger) (domainservice.MetricsSource, domainservice.ProfileSource, redis.UniversalClient, error) {
	metricsSource, err := sources.NewStaticMetricsSource(cfg.Sources.EngagementFile, log)
	if err != nil {
		return nil, nil, nil, err
	}
	profileSource, err := sources.NewStaticProfileSource(cfg.Sources.ProfileFile, log)
	if err != nil {
		return nil, nil, nil, err
	}

	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		return sources.NewRedisMetricsSource(metricsSource, client, cfg.Cache.TTL, log),
			sources.NewRedisProfileSource(profileSource, client, cfg.Cache.TTL, log),
			client, nil
	case "memory":
		return sources.NewMemoryMetricsSource(metricsSource, cfg.Cache.TTL),
			sources.NewMemoryProfileSource(profileSource, cfg.Cache.TTL),
			nil, nil
	default:
		return metricsSource, profileSource, nil, nil
	}
}

// buildSink assembles the configured audit sink.
func buildSink(cfg *config.Config, log logger.Logger) (domainservice.AuditSink, error) {
	switch cfg.Audit.Sink {
	case "kafka":
		return auditsink.NewKafkaSink(cfg.Audit.Kafka, cfg.Audit.SignKey, log), nil
	default:
		return auditsink.NewFileSink(cfg.Audit.FilePath, cfg.Audit.SignKey, log)
	}
}

// engagementWeights converts the configured weighting profile to typed
// metric keys. Nil when no profile is configured.
func engagementWeights(cfg *config.Config) models.EngagementMetrics {
	if len(cfg.Evaluation.EngagementWeights) == 0 {
		return nil
	}
	weights := make(models.EngagementMetrics, len(cfg.Evaluation.EngagementWeights))
	for metric, weight := range cfg.Evaluation.EngagementWeights {
		weights[constants.MetricType(metric)] = weight
	}
	return weights
}

// riskWeights converts the configured weight map to typed signal weights.
// An empty map falls back to the default weighting.
func riskWeights(cfg *config.Config) domainservice.RiskWeights {
	if len(cfg.Evaluation.RiskWeights) == 0 {
		return nil
	}
	weights := make(domainservice.RiskWeights, len(cfg.Evaluation.RiskWeights))
	for signal, weight := range cfg.Evaluation.RiskWeights {
		weights[constants.RiskSignal(signal)] = weight
	}
	return weights
}

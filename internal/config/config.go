package config

import (
	"math"
	"time"

	"github.com/crowdlens/crowdlens/pkg/constants"
	"github.com/crowdlens/crowdlens/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Retry      RetryConfig      `mapstructure:"retry"`
	Sources    SourcesConfig    `mapstructure:"sources"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Environment  string        `mapstructure:"environment"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PprofEnabled bool          `mapstructure:"pprof_enabled"`
}

type EvaluationConfig struct {
	// EngagementWeights is the per-metric weighting profile surfaced on
	// evaluation results and audit detail. The engagement score itself is
	// the plain mean of present metrics.
	EngagementWeights map[string]float64 `mapstructure:"engagement_weights"`

	// RiskWeights combine the four profile sub-signals. Must sum to 1.0.
	RiskWeights map[string]float64 `mapstructure:"risk_weights"`

	// BatchConcurrency bounds the worker pool for batch evaluation.
	BatchConcurrency int `mapstructure:"batch_concurrency"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

type SourcesConfig struct {
	EngagementFile string `mapstructure:"engagement_file"`
	ProfileFile    string `mapstructure:"profile_file"`
}

type CacheConfig struct {
	// Backend selects the source cache decorator: "none", "memory" or "redis".
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuditConfig struct {
	// Sink selects the audit backend: "file" or "kafka".
	Sink string `mapstructure:"sink"`

	// FilePath is the JSONL audit log location for the file sink.
	FilePath string `mapstructure:"file_path"`

	// SignKey enables HMAC signing of each record when non-empty.
	SignKey string `mapstructure:"sign_key"`

	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	Environment    string  `mapstructure:"environment"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Validate checks configuration invariants. Violations are configuration
// failures and abort startup.
func (c *Config) Validate() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.Newf(errors.CodeConfiguration, "retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 || c.Retry.MaxDelay <= 0 {
		return errors.New(errors.CodeConfiguration, "retry delays must be positive")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return errors.New(errors.CodeConfiguration, "retry.max_delay must not be below retry.base_delay")
	}

	var riskSum float64
	for signal, weight := range c.Evaluation.RiskWeights {
		if weight < 0 {
			return errors.Newf(errors.CodeConfiguration, "risk weight for %s is negative", signal)
		}
		riskSum += weight
	}
	if len(c.Evaluation.RiskWeights) > 0 && math.Abs(riskSum-1.0) > 1e-9 {
		return errors.ErrWeightsNotNormalized(riskSum)
	}

	for metric, weight := range c.Evaluation.EngagementWeights {
		if !constants.IsKnownMetric(constants.MetricType(metric)) {
			return errors.Newf(errors.CodeConfiguration, "unknown engagement metric in weights: %s", metric)
		}
		if weight < 0 {
			return errors.Newf(errors.CodeConfiguration, "engagement weight for %s is negative", metric)
		}
	}

	if c.Evaluation.BatchConcurrency < 1 {
		return errors.Newf(errors.CodeConfiguration, "evaluation.batch_concurrency must be at least 1, got %d", c.Evaluation.BatchConcurrency)
	}

	switch c.Audit.Sink {
	case "file":
		if c.Audit.FilePath == "" {
			return errors.New(errors.CodeConfiguration, "audit.file_path is required for the file sink")
		}
	case "kafka":
		if len(c.Audit.Kafka.Brokers) == 0 || c.Audit.Kafka.Topic == "" {
			return errors.New(errors.CodeConfiguration, "audit.kafka.brokers and audit.kafka.topic are required for the kafka sink")
		}
	default:
		return errors.Newf(errors.CodeConfiguration, "unknown audit sink: %s", c.Audit.Sink)
	}

	switch c.Cache.Backend {
	case "", "none", "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return errors.New(errors.CodeConfiguration, "cache.redis.addr is required for the redis cache")
		}
	default:
		return errors.Newf(errors.CodeConfiguration, "unknown cache backend: %s", c.Cache.Backend)
	}

	return nil
}

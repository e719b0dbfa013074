package config

import (
	"context"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/crowdlens/crowdlens/pkg/errors"
	"github.com/crowdlens/crowdlens/pkg/logger"
)

// Loader reads configuration and serves hot-reloaded snapshots.
type Loader struct {
	v   *viper.Viper
	log logger.Logger

	mu      sync.RWMutex
	current *Config
}

// NewLoader creates a Loader reading config.yaml from the given paths
// (defaulting to the working directory) with CROWDLENS_* env overrides.
func NewLoader(log logger.Logger, paths ...string) *Loader {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("evaluation.risk_weights", map[string]float64{
		"activity":    0.30,
		"content":     0.30,
		"interaction": 0.20,
		"age":         0.20,
	})
	v.SetDefault("evaluation.batch_concurrency", 8)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "10s")
	v.SetDefault("audit.sink", "file")
	v.SetDefault("audit.file_path", "logs/audit.log")
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("log.level", "info")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "crowdlens")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("CROWDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, log: log.WithComponent("config")}
}

// Load reads, unmarshals and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.CodeConfiguration, "failed to read config file")
		}
	}

	cfg, err := l.unmarshal()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Current returns the most recent valid configuration snapshot.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch re-reads the configuration whenever the file changes and invokes
// onChange with the new snapshot. Snapshots that fail validation are logged
// and discarded; the previous configuration stays active.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		ctx := context.Background()
		cfg, err := l.unmarshal()
		if err != nil {
			l.log.Error(ctx, "ignoring invalid config reload", err, logger.String("file", e.Name))
			return
		}

		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()

		l.log.Info(ctx, "configuration reloaded", logger.String("file", e.Name))
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from the given file (optional), applies
// defaults for everything left unset, and validates the result. Environment
// variables prefixed with CONNPROBE_ override file values.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("probe.timeout_seconds", 5.0)
	v.SetDefault("probe.retry_count", 3)
	v.SetDefault("probe.retry_delay_seconds", 1.0)
	v.SetDefault("probe.strategy", "exponential")
	v.SetDefault("probe.max_concurrent_probes", 10)
	v.SetDefault("probe.connection_pool_size", 5)
	v.SetDefault("probe.adaptive_timeout_min", 1.0)
	v.SetDefault("probe.adaptive_timeout_max", 30.0)
	v.SetDefault("probe.probes_per_second", 0.0)
	v.SetDefault("probe.rate_burst", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", []string{"stderr"})
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.host", "127.0.0.1")
	v.SetDefault("monitoring.port", 9822)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_path", "/health")
	v.SetDefault("monitoring.ready_path", "/ready")
	v.SetDefault("monitoring.namespace", "connprobe")
	v.SetDefault("monitoring.subsystem", "engine")
	v.SetDefault("monitoring.read_timeout", 10*time.Second)
	v.SetDefault("monitoring.enable_pprof", false)

	v.SetDefault("report.path", "")
	v.SetDefault("report.pretty", true)

	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.interval", 1*time.Minute)

	v.AutomaticEnv()
	v.SetEnvPrefix("CONNPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("failed to get working directory: %w", err)
			}
			configPath = filepath.Join(wd, configPath)
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file does not exist: %s", configPath)
		}

		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read configuration file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

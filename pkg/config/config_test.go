package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Probe: ProbeConfig{
			TimeoutSeconds:      5.0,
			RetryCount:          3,
			RetryDelaySeconds:   1.0,
			Strategy:            "exponential",
			MaxConcurrentProbes: 10,
			ConnectionPoolSize:  5,
			AdaptiveTimeoutMin:  1.0,
			AdaptiveTimeoutMax:  30.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: []string{"stderr"},
		},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Probe.TimeoutSeconds != 5.0 {
		t.Errorf("timeout = %v, want 5.0", cfg.Probe.TimeoutSeconds)
	}
	if cfg.Probe.RetryCount != 3 {
		t.Errorf("retry count = %d, want 3", cfg.Probe.RetryCount)
	}
	if cfg.Probe.Strategy != "exponential" {
		t.Errorf("strategy = %q, want exponential", cfg.Probe.Strategy)
	}
	if cfg.Probe.MaxConcurrentProbes != 10 {
		t.Errorf("max concurrent = %d, want 10", cfg.Probe.MaxConcurrentProbes)
	}
	if cfg.Probe.ConnectionPoolSize != 5 {
		t.Errorf("pool size = %d, want 5", cfg.Probe.ConnectionPoolSize)
	}
	if cfg.Probe.AdaptiveTimeoutMin != 1.0 || cfg.Probe.AdaptiveTimeoutMax != 30.0 {
		t.Errorf("adaptive bounds = [%v, %v], want [1.0, 30.0]",
			cfg.Probe.AdaptiveTimeoutMin, cfg.Probe.AdaptiveTimeoutMax)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Monitoring.Enabled {
		t.Error("monitoring enabled by default")
	}
	if cfg.Watch.Interval != time.Minute {
		t.Errorf("watch interval = %v, want 1m", cfg.Watch.Interval)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
probe:
  timeout_seconds: 2.5
  retry_count: 5
  strategy: adaptive
  max_concurrent_probes: 4
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Probe.TimeoutSeconds != 2.5 {
		t.Errorf("timeout = %v, want 2.5", cfg.Probe.TimeoutSeconds)
	}
	if cfg.Probe.RetryCount != 5 {
		t.Errorf("retry count = %d, want 5", cfg.Probe.RetryCount)
	}
	if cfg.Probe.Strategy != "adaptive" {
		t.Errorf("strategy = %q, want adaptive", cfg.Probe.Strategy)
	}
	// Unset keys keep their defaults.
	if cfg.Probe.ConnectionPoolSize != 5 {
		t.Errorf("pool size = %d, want default 5", cfg.Probe.ConnectionPoolSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	content := `
probe:
  timeout_seconds: -1
  strategy: quadratic
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:   "valid config passes",
			mutate: func(c *Config) {},
		},
		{
			name:      "non-positive timeout",
			mutate:    func(c *Config) { c.Probe.TimeoutSeconds = 0 },
			wantField: "probe.timeout_seconds",
		},
		{
			name:      "zero retry count",
			mutate:    func(c *Config) { c.Probe.RetryCount = 0 },
			wantField: "probe.retry_count",
		},
		{
			name:      "negative retry delay",
			mutate:    func(c *Config) { c.Probe.RetryDelaySeconds = -0.5 },
			wantField: "probe.retry_delay_seconds",
		},
		{
			name:      "unknown strategy",
			mutate:    func(c *Config) { c.Probe.Strategy = "quadratic" },
			wantField: "probe.strategy",
		},
		{
			name:      "zero concurrency",
			mutate:    func(c *Config) { c.Probe.MaxConcurrentProbes = 0 },
			wantField: "probe.max_concurrent_probes",
		},
		{
			name:      "negative pool size",
			mutate:    func(c *Config) { c.Probe.ConnectionPoolSize = -1 },
			wantField: "probe.connection_pool_size",
		},
		{
			name:      "inverted adaptive bounds",
			mutate:    func(c *Config) { c.Probe.AdaptiveTimeoutMax = 0.5 },
			wantField: "probe.adaptive_timeout_max",
		},
		{
			name:      "negative rate limit",
			mutate:    func(c *Config) { c.Probe.ProbesPerSecond = -1 },
			wantField: "probe.probes_per_second",
		},
		{
			name:      "unknown log level",
			mutate:    func(c *Config) { c.Logging.Level = "verbose" },
			wantField: "logging.level",
		},
		{
			name:      "unknown log format",
			mutate:    func(c *Config) { c.Logging.Format = "xml" },
			wantField: "logging.format",
		},
		{
			name:      "file output without path",
			mutate:    func(c *Config) { c.Logging.Output = []string{"file"} },
			wantField: "logging.file_path",
		},
		{
			name: "monitoring invalid port",
			mutate: func(c *Config) {
				c.Monitoring.Enabled = true
				c.Monitoring.Port = 0
				c.Monitoring.MetricsPath = "/metrics"
			},
			wantField: "monitoring.port",
		},
		{
			name: "monitoring disabled skips checks",
			mutate: func(c *Config) {
				c.Monitoring.Enabled = false
				c.Monitoring.Port = 0
			},
		},
		{
			name: "watch enabled needs interval",
			mutate: func(c *Config) {
				c.Watch.Enabled = true
				c.Watch.Interval = 0
			},
			wantField: "watch.interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %s", tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not mention %s", err.Error(), tt.wantField)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Probe.TimeoutSeconds = 0
	cfg.Probe.RetryCount = 0
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	errs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(errs) != 3 {
		t.Errorf("got %d errors, want 3", len(errs))
	}
	if !strings.Contains(err.Error(), "multiple validation errors") {
		t.Errorf("aggregate message = %q", err.Error())
	}
}

func TestDurationHelpers(t *testing.T) {
	p := ProbeConfig{TimeoutSeconds: 2.5, RetryDelaySeconds: 0.25}
	if got := p.Timeout(); got != 2500*time.Millisecond {
		t.Errorf("Timeout() = %v, want 2.5s", got)
	}
	if got := p.RetryDelay(); got != 250*time.Millisecond {
		t.Errorf("RetryDelay() = %v, want 250ms", got)
	}
}

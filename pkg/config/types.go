package config

import (
	"time"
)

type Config struct {
	Probe      ProbeConfig      `mapstructure:"probe" yaml:"probe"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring"`
	Report     ReportConfig     `mapstructure:"report" yaml:"report"`
	Watch      WatchConfig      `mapstructure:"watch" yaml:"watch"`
}

// ProbeConfig is the retry and timeout configuration for the probing engine.
// It is populated once at startup and never mutated afterwards.
type ProbeConfig struct {
	TimeoutSeconds      float64 `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RetryCount          int     `mapstructure:"retry_count" yaml:"retry_count"`
	RetryDelaySeconds   float64 `mapstructure:"retry_delay_seconds" yaml:"retry_delay_seconds"`
	Strategy            string  `mapstructure:"strategy" yaml:"strategy"`
	MaxConcurrentProbes int     `mapstructure:"max_concurrent_probes" yaml:"max_concurrent_probes"`
	ConnectionPoolSize  int     `mapstructure:"connection_pool_size" yaml:"connection_pool_size"`
	AdaptiveTimeoutMin  float64 `mapstructure:"adaptive_timeout_min" yaml:"adaptive_timeout_min"`
	AdaptiveTimeoutMax  float64 `mapstructure:"adaptive_timeout_max" yaml:"adaptive_timeout_max"`

	// ProbesPerSecond caps the rate at which workers start probes.
	// Zero disables rate limiting.
	ProbesPerSecond float64 `mapstructure:"probes_per_second" yaml:"probes_per_second"`
	RateBurst       int     `mapstructure:"rate_burst" yaml:"rate_burst"`
}

type LoggingConfig struct {
	Level      string   `mapstructure:"level" yaml:"level"`
	Format     string   `mapstructure:"format" yaml:"format"`
	Output     []string `mapstructure:"output" yaml:"output"`
	FilePath   string   `mapstructure:"file_path" yaml:"file_path"`
	MaxSize    int      `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int      `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int      `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool     `mapstructure:"compress" yaml:"compress"`
}

type MonitoringConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port"`
	MetricsPath string        `mapstructure:"metrics_path" yaml:"metrics_path"`
	HealthPath  string        `mapstructure:"health_path" yaml:"health_path"`
	ReadyPath   string        `mapstructure:"ready_path" yaml:"ready_path"`
	Namespace   string        `mapstructure:"namespace" yaml:"namespace"`
	Subsystem   string        `mapstructure:"subsystem" yaml:"subsystem"`
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	EnablePprof bool          `mapstructure:"enable_pprof" yaml:"enable_pprof"`
}

type ReportConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// Timeout returns the connect timeout as a time.Duration.
func (p *ProbeConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds * float64(time.Second))
}

// RetryDelay returns the base retry delay as a time.Duration.
func (p *ProbeConfig) RetryDelay() time.Duration {
	return time.Duration(p.RetryDelaySeconds * float64(time.Second))
}

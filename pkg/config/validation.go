package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(messages, "; "))
}

var validStrategies = map[string]bool{
	"exponential": true,
	"linear":      true,
	"fixed":       true,
	"adaptive":    true,
}

// Validate checks the whole configuration tree and returns every problem
// found, not just the first one.
func (c *Config) Validate() error {
	var errs ValidationErrors

	errs = append(errs, validateProbeConfig(&c.Probe)...)
	errs = append(errs, validateLoggingConfig(&c.Logging)...)
	errs = append(errs, validateMonitoringConfig(&c.Monitoring)...)

	if c.Watch.Enabled && c.Watch.Interval <= 0 {
		errs = append(errs, ValidationError{Field: "watch.interval", Message: "must be positive when watch mode is enabled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateProbeConfig(p *ProbeConfig) ValidationErrors {
	var errs ValidationErrors

	if p.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{Field: "probe.timeout_seconds", Message: "must be positive"})
	}
	if p.RetryCount < 1 {
		errs = append(errs, ValidationError{Field: "probe.retry_count", Message: "must be at least 1"})
	}
	if p.RetryDelaySeconds < 0 {
		errs = append(errs, ValidationError{Field: "probe.retry_delay_seconds", Message: "must not be negative"})
	}
	if !validStrategies[p.Strategy] {
		errs = append(errs, ValidationError{Field: "probe.strategy", Message: fmt.Sprintf("unknown strategy %q (expected exponential, linear, fixed or adaptive)", p.Strategy)})
	}
	if p.MaxConcurrentProbes < 1 {
		errs = append(errs, ValidationError{Field: "probe.max_concurrent_probes", Message: "must be at least 1"})
	}
	if p.ConnectionPoolSize < 0 {
		errs = append(errs, ValidationError{Field: "probe.connection_pool_size", Message: "must not be negative"})
	}
	if p.AdaptiveTimeoutMin <= 0 {
		errs = append(errs, ValidationError{Field: "probe.adaptive_timeout_min", Message: "must be positive"})
	}
	if p.AdaptiveTimeoutMax < p.AdaptiveTimeoutMin {
		errs = append(errs, ValidationError{Field: "probe.adaptive_timeout_max", Message: "must not be smaller than adaptive_timeout_min"})
	}
	if p.ProbesPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "probe.probes_per_second", Message: "must not be negative"})
	}

	return errs
}

func validateLoggingConfig(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", l.Level)})
	}

	switch strings.ToLower(l.Format) {
	case "json", "console":
	default:
		errs = append(errs, ValidationError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", l.Format)})
	}

	for _, output := range l.Output {
		switch output {
		case "stdout", "stderr":
		case "file":
			if l.FilePath == "" {
				errs = append(errs, ValidationError{Field: "logging.file_path", Message: "required when file output is enabled"})
			}
		default:
			errs = append(errs, ValidationError{Field: "logging.output", Message: fmt.Sprintf("unsupported output %q", output)})
		}
	}

	return errs
}

func validateMonitoringConfig(m *MonitoringConfig) ValidationErrors {
	var errs ValidationErrors

	if !m.Enabled {
		return nil
	}
	if m.Port < 1 || m.Port > 65535 {
		errs = append(errs, ValidationError{Field: "monitoring.port", Message: "must be a valid TCP port"})
	}
	if !strings.HasPrefix(m.MetricsPath, "/") {
		errs = append(errs, ValidationError{Field: "monitoring.metrics_path", Message: "must start with '/'"})
	}

	return errs
}

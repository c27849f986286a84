package probe

import (
	"fmt"
	"net"
	"time"

	"connprobe/pkg/config"
	"connprobe/pkg/logger"
)

// MetricsRecorder receives engine events. The monitoring package provides a
// Prometheus-backed implementation; the engine works with a no-op recorder
// when observability is disabled.
type MetricsRecorder interface {
	RecordAttempt(result ResultKind, responseTimeMs float64)
	RecordProbe(result ResultKind, duration time.Duration)
	RecordPoolTotals(stats PoolStats)
	RecordInFlight(count int)
}

type nopMetrics struct{}

func (nopMetrics) RecordAttempt(ResultKind, float64)    {}
func (nopMetrics) RecordProbe(ResultKind, time.Duration) {}
func (nopMetrics) RecordPoolTotals(PoolStats)            {}
func (nopMetrics) RecordInFlight(int)                    {}

// NopMetrics returns a recorder that discards everything.
func NopMetrics() MetricsRecorder { return nopMetrics{} }

// Engine owns all shared probing state: the connection pool, the success
// rate tracker, the failure history and the read-only configuration. One
// engine serves an entire batch; tests construct fresh instances.
type Engine struct {
	cfg        *config.ProbeConfig
	pool       *ConnectionPool
	classifier *Classifier
	policy     *RetryPolicy
	timeouts   *AdaptiveTimeoutController
	history    *FailureHistory
	log        *logger.Logger
	metrics    MetricsRecorder
}

func NewEngine(cfg *config.ProbeConfig, log *logger.Logger, metrics MetricsRecorder) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("probe config is nil")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}

	strategy, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	pool := NewConnectionPool(cfg.ConnectionPoolSize, log)
	tracker := NewSuccessRateTracker()
	min := time.Duration(cfg.AdaptiveTimeoutMin * float64(time.Second))
	max := time.Duration(cfg.AdaptiveTimeoutMax * float64(time.Second))

	return &Engine{
		cfg:        cfg,
		pool:       pool,
		classifier: NewClassifier(&net.Dialer{}, net.DefaultResolver, pool),
		policy:     NewRetryPolicy(strategy, cfg.RetryDelay()),
		timeouts:   NewAdaptiveTimeoutController(tracker, min, max),
		history:    NewFailureHistory(10),
		log:        log.WithComponent("engine"),
		metrics:    metrics,
	}, nil
}

// SetTransport replaces the dialer and resolver. Intended for tests that
// probe against a deterministic fake transport.
func (e *Engine) SetTransport(dialer Dialer, resolver Resolver) {
	e.classifier = NewClassifier(dialer, resolver, e.pool)
}

// Pool exposes the connection pool for stats reporting.
func (e *Engine) Pool() *ConnectionPool { return e.pool }

// History returns the retained diagnostic attempts for an endpoint key.
func (e *Engine) History(key string) []Attempt { return e.history.History(key) }

// SuccessRate returns the tracked success rate for an endpoint key.
func (e *Engine) SuccessRate(key string) float64 { return e.timeouts.tracker.Rate(key) }

// ReportPoolTotals pushes the current pool counters to the metrics recorder.
func (e *Engine) ReportPoolTotals() {
	e.metrics.RecordPoolTotals(e.pool.Totals())
}

// RecordInFlight publishes the scheduler's current worker occupancy.
func (e *Engine) RecordInFlight(count int) {
	e.metrics.RecordInFlight(count)
}

// Close releases all pooled connections.
func (e *Engine) Close() {
	e.pool.Close()
}

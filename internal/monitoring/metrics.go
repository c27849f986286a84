package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"connprobe/internal/probe"
)

// Metrics is the Prometheus-backed implementation of probe.MetricsRecorder.
// Collectors live on a private registry so tests can create independent
// instances without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	probesTotal     *prometheus.CounterVec
	attemptsTotal   *prometheus.CounterVec
	probeDuration   prometheus.Histogram
	attemptResponse prometheus.Histogram
	poolCreated     prometheus.Gauge
	poolReused      prometheus.Gauge
	poolInvalidated prometheus.Gauge
	inFlightProbes  prometheus.Gauge
}

func NewMetrics(namespace, subsystem string) *Metrics {
	if namespace == "" {
		namespace = "connprobe"
	}
	if subsystem == "" {
		subsystem = "engine"
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		probesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "probes_total",
				Help:      "Total number of completed endpoint probes by final result",
			},
			[]string{"result"},
		),
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attempts_total",
				Help:      "Total number of connection attempts by classified result",
			},
			[]string{"result"},
		),
		probeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "probe_duration_seconds",
				Help:      "Wall time of a full probe including retries and backoff",
				Buckets:   prometheus.DefBuckets,
			},
		),
		attemptResponse: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "attempt_response_time_seconds",
				Help:      "Connection establishment time of individual attempts",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .2, .5, 1, 2.5, 5, 10},
			},
		),
		poolCreated: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_connections_created",
				Help:      "Connections created by the pool since process start",
			},
		),
		poolReused: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_connections_reused",
				Help:      "Connections served from the pool since process start",
			},
		),
		poolInvalidated: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "pool_connections_invalidated",
				Help:      "Idle connections discarded as stale since process start",
			},
		),
		inFlightProbes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "probes_in_flight",
				Help:      "Probes currently being executed by batch workers",
			},
		),
	}
}

// Registry exposes the private registry for the metrics server.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordAttempt(result probe.ResultKind, responseTimeMs float64) {
	m.attemptsTotal.WithLabelValues(result.String()).Inc()
	m.attemptResponse.Observe(responseTimeMs / 1000.0)
}

func (m *Metrics) RecordProbe(result probe.ResultKind, duration time.Duration) {
	m.probesTotal.WithLabelValues(result.String()).Inc()
	m.probeDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordInFlight(count int) {
	m.inFlightProbes.Set(float64(count))
}

func (m *Metrics) RecordPoolTotals(stats probe.PoolStats) {
	m.poolCreated.Set(float64(stats.Created))
	m.poolReused.Set(float64(stats.Reused))
	m.poolInvalidated.Set(float64(stats.Failed))
}

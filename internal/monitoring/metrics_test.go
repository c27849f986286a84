package monitoring

import (
	"testing"
	"time"

	"connprobe/internal/probe"
)

func TestMetricsIndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a := NewMetrics("connprobe", "engine")
	b := NewMetrics("connprobe", "engine")

	a.RecordProbe(probe.ResultSuccess, time.Second)
	a.RecordAttempt(probe.ResultTimeout, 1500)
	a.RecordPoolTotals(probe.PoolStats{Created: 3, Reused: 1})
	a.RecordInFlight(2)

	families, err := a.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"connprobe_engine_probes_total",
		"connprobe_engine_attempts_total",
		"connprobe_engine_probe_duration_seconds",
		"connprobe_engine_attempt_response_time_seconds",
		"connprobe_engine_pool_connections_created",
		"connprobe_engine_probes_in_flight",
	} {
		if !names[want] {
			t.Errorf("missing metric family %s", want)
		}
	}

	// The untouched instance gathers its gauges without the counters the
	// first one incremented.
	otherFamilies, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range otherFamilies {
		if f.GetName() == "connprobe_engine_probes_total" {
			t.Error("fresh registry already has probe counters")
		}
	}
}

func TestMetricsDefaultNaming(t *testing.T) {
	m := NewMetrics("", "")
	m.RecordProbe(probe.ResultSuccess, time.Millisecond)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "connprobe_engine_probes_total" {
			found = true
		}
	}
	if !found {
		t.Error("empty namespace/subsystem should fall back to connprobe_engine")
	}
}

package metrics

import (
	"testing"
	"time"
)

func TestDisabledMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLoginSuccess)
	m.Observe(MetricExchangeLatency, time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("nil metrics must snapshot empty: %+v", snap)
	}

	if New(Config{Enabled: false}) != nil {
		t.Fatal("disabled config must yield nil metrics")
	}
}

func TestIncAndSnapshot(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricEnrollFailure)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login success = %d, want 2", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricEnrollFailure] != 1 {
		t.Fatalf("enroll failure = %d, want 1", snap.Counters[MetricEnrollFailure])
	}
	if snap.Counters[MetricLogout] != 0 {
		t.Fatalf("logout = %d, want 0", snap.Counters[MetricLogout])
	}
}

func TestObserveLatencyBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Observe(MetricExchangeLatency, 3*time.Millisecond)    // bucket 0 (≤5ms)
	m.Observe(MetricExchangeLatency, 80*time.Millisecond)   // bucket 4 (≤100ms)
	m.Observe(MetricExchangeLatency, 5*time.Second)         // bucket 7 (+Inf)

	snap := m.Snapshot()
	h := snap.Histograms[MetricExchangeLatency]
	if len(h) != 9 {
		t.Fatalf("expected 8 buckets + count, got %d", len(h))
	}
	if h[0] != 1 || h[4] != 1 || h[7] != 1 {
		t.Fatalf("unexpected bucket fill: %v", h)
	}
	if h[8] != 3 {
		t.Fatalf("count = %d, want 3", h[8])
	}
}

func TestObserveWithoutLatencyEnabled(t *testing.T) {
	m := New(Config{Enabled: true})
	m.Observe(MetricExchangeLatency, time.Millisecond)
	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("latency disabled must record no histograms")
	}
}

package otel

import (
	"context"
	"testing"

	authkit "github.com/skillforge/authkit"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// sessionSnapshot approximates the counters after a day of traffic: logins,
// a couple of enrollments, progress updates, one store hiccup, and the
// exchange-latency histogram those calls produced (8 buckets + count).
func sessionSnapshot() authkit.MetricsSnapshot {
	return authkit.MetricsSnapshot{
		Counters: map[authkit.MetricID]uint64{
			authkit.MetricLoginSuccess:          42,
			authkit.MetricLoginFailure:          3,
			authkit.MetricEnrollSuccess:         2,
			authkit.MetricProgressUpdateSuccess: 17,
			authkit.MetricProgressUpdateFailure: 1,
			authkit.MetricLogout:                40,
			authkit.MetricStoreError:            1,
		},
		Histograms: map[authkit.MetricID][]uint64{
			authkit.MetricExchangeLatency: {12, 30, 15, 4, 1, 0, 0, 0, 62},
		},
	}
}

type snapshotSource struct {
	snapshot authkit.MetricsSnapshot
	dropped  uint64
}

func (s snapshotSource) MetricsSnapshot() authkit.MetricsSnapshot { return s.snapshot }
func (s snapshotSource) AuditDropped() uint64                     { return s.dropped }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	values := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			}
		}
	}
	return values
}

func TestExporterObservesSessionCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("authkit-test")

	exp, err := NewOTelExporterFromSource(meter, snapshotSource{snapshot: sessionSnapshot(), dropped: 5})
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	values := collect(t, reader)

	wantCounters := map[string]int64{
		"authkit_login_success_total":           42,
		"authkit_login_failure_total":           3,
		"authkit_enroll_success_total":          2,
		"authkit_progress_update_success_total": 17,
		"authkit_progress_update_failure_total": 1,
		"authkit_logout_total":                  40,
		"authkit_store_error_total":             1,
		"authkit_enroll_failure_total":          0,
		"authkit_audit_dropped_total":           5,
	}
	for name, want := range wantCounters {
		got, ok := values[name]
		if !ok {
			t.Errorf("instrument %s was not collected", name)
			continue
		}
		if got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestExporterObservesCumulativeLatencyBuckets(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("authkit-test")

	exp, err := NewOTelExporterFromSource(meter, snapshotSource{snapshot: sessionSnapshot()})
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	values := collect(t, reader)

	// Raw buckets 12,30,15,4,1,0,0,0 exported cumulative.
	wantBuckets := map[string]int64{
		"authkit_exchange_latency_seconds_bucket_le_0_005": 12,
		"authkit_exchange_latency_seconds_bucket_le_0_01":  42,
		"authkit_exchange_latency_seconds_bucket_le_0_025": 57,
		"authkit_exchange_latency_seconds_bucket_le_0_05":  61,
		"authkit_exchange_latency_seconds_bucket_le_0_1":   62,
		"authkit_exchange_latency_seconds_bucket_le_inf":   62,
		"authkit_exchange_latency_seconds_count":           62,
	}
	for name, want := range wantBuckets {
		if got := values[name]; got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestExporterCollectsEmptySnapshotAsZeros(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("authkit-test")

	exp, err := NewOTelExporterFromSource(meter, snapshotSource{
		snapshot: authkit.MetricsSnapshot{
			Counters:   map[authkit.MetricID]uint64{},
			Histograms: map[authkit.MetricID][]uint64{},
		},
	})
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	values := collect(t, reader)
	if values["authkit_login_success_total"] != 0 {
		t.Errorf("empty snapshot should observe zero, got %d", values["authkit_login_success_total"])
	}
	if values["authkit_exchange_latency_seconds_count"] != 0 {
		t.Errorf("empty histogram should observe zero count, got %d", values["authkit_exchange_latency_seconds_count"])
	}
}

func TestExporterRejectsBadWiring(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("authkit-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, snapshotSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

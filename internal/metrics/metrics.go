package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram.
type MetricID uint8

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricSignupSuccess
	MetricSignupFailure
	MetricFederatedLoginSuccess
	MetricFederatedLoginFailure
	MetricPhoneCodeSent
	MetricPhoneCodeSendFailure
	MetricPhoneVerifySuccess
	MetricPhoneVerifyFailure
	MetricLogout
	MetricPasswordResetRequest
	MetricProfileUpdateSuccess
	MetricProfileUpdateFailure
	MetricEnrollSuccess
	MetricEnrollFailure
	MetricProgressUpdateSuccess
	MetricProgressUpdateFailure
	MetricStoreError
	MetricExchangeLatency

	MetricIDCount
)

// HistogramBuckets are cumulative upper bounds in milliseconds; the last
// bucket is +Inf.
var HistogramBuckets = [8]int64{5, 10, 25, 50, 100, 250, 1000, 1 << 62}

// paddedCounter occupies its own cache line to avoid false sharing between
// adjacent counters.
type paddedCounter struct {
	v uint64
	_ [56]byte
}

type histogram struct {
	buckets [8]paddedCounter
	count   paddedCounter
}

// Config controls metric collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds atomic counters and optional latency histograms. A nil
// Metrics, or one built with Enabled=false, makes every operation a no-op.
type Metrics struct {
	enabled    bool
	latency    bool
	counters   [MetricIDCount]paddedCounter
	histograms map[MetricID]*histogram
}

// New creates a Metrics instance per the config.
func New(cfg Config) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	m := &Metrics{
		enabled:    true,
		latency:    cfg.EnableLatency,
		histograms: map[MetricID]*histogram{},
	}
	if cfg.EnableLatency {
		m.histograms[MetricExchangeLatency] = &histogram{}
	}
	return m
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].v, 1)
}

// Observe records one latency sample into the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency {
		return
	}
	h, ok := m.histograms[id]
	if !ok {
		return
	}
	ms := d.Milliseconds()
	for i, bound := range HistogramBuckets {
		if ms <= bound {
			atomic.AddUint64(&h.buckets[i].v, 1)
			break
		}
	}
	atomic.AddUint64(&h.count.v, 1)
}

// Snapshot is a point-in-time deep copy of all metrics.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// Snapshot copies every counter and histogram. Safe to call concurrently
// with writers; values are read atomically per slot.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].v)
	}
	for id, h := range m.histograms {
		buckets := make([]uint64, 0, len(h.buckets)+1)
		for i := range h.buckets {
			buckets = append(buckets, atomic.LoadUint64(&h.buckets[i].v))
		}
		buckets = append(buckets, atomic.LoadUint64(&h.count.v))
		snap.Histograms[id] = buckets
	}
	return snap
}

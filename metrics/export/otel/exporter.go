// Package otel bridges authkit metrics into an OpenTelemetry meter via
// observable instruments. Counters and cumulative histogram buckets are
// read from a snapshot on every collection cycle.
package otel

import (
	"context"
	"errors"
	"fmt"

	authkit "github.com/skillforge/authkit"
	"github.com/skillforge/authkit/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authkit.MetricsSnapshot
	AuditDropped() uint64
}

// latencyInstruments are the per-bucket gauges for the exchange-latency
// histogram, the module's only histogram. Buckets are exported cumulative.
type latencyInstruments struct {
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter registers one observable instrument per authkit counter,
// the exchange-latency histogram, and the audit-drop counter, and feeds
// them from a metrics snapshot on every collection.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[authkit.MetricID]metric.Int64ObservableCounter
	latency      latencyInstruments
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter registers the manager's metrics on the given meter.
func NewOTelExporter(meter metric.Meter, manager *authkit.Manager) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, manager)
}

// NewOTelExporterFromSource is NewOTelExporter for a custom snapshot
// source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[authkit.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}

	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = ins
		observables = append(observables, ins)
	}

	latencyObs, err := e.registerLatency(meter)
	if err != nil {
		return nil, err
	}
	observables = append(observables, latencyObs...)

	e.auditDropped, err = meter.Int64ObservableCounter(
		"authkit_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	observables = append(observables, e.auditDropped)

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *OTelExporter) registerLatency(meter metric.Meter) ([]metric.Observable, error) {
	def := internaldefs.HistogramDefs[0]
	observables := make([]metric.Observable, 0, len(e.latency.buckets)+1)

	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := def.Name + "_bucket_le_" + suffix
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
		}
		e.latency.buckets[i] = ins
		observables = append(observables, ins)
	}

	count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription("Histogram total sample count."))
	if err != nil {
		return nil, fmt.Errorf("create histogram count gauge %s: %w", def.Name, err)
	}
	e.latency.count = count
	return append(observables, count), nil
}

// observe is the collection callback: one snapshot, all instruments.
func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for id, ins := range e.counters {
		observer.ObserveInt64(ins, int64(snapshot.Counters[id]))
	}

	raw := internaldefs.NormalizeBuckets(snapshot.Histograms[authkit.MetricExchangeLatency])
	cumulative := internaldefs.CumulativeBuckets(raw)
	for i, ins := range e.latency.buckets {
		observer.ObserveInt64(ins, int64(cumulative[i]))
	}
	observer.ObserveInt64(e.latency.count, int64(cumulative[len(cumulative)-1]))

	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

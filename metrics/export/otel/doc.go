// Package otel publishes bridgeAuth engine metrics through an OpenTelemetry Meter.
//
// Each counter becomes an Int64ObservableCounter. The latency histogram becomes an
// Int64ObservableGauge of cumulative bucket counts keyed by an "le" attribute, plus
// a _count gauge. One callback reads the engine snapshot per collection. The caller
// owns the MeterProvider.
package otel

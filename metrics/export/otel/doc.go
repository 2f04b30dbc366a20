// Package otel binds storefront counters and latency histograms to an
// OpenTelemetry meter.
//
// Each counter becomes an Int64ObservableCounter and each histogram bucket
// an Int64ObservableGauge. One callback reads
// [storefront.Engine.MetricsSnapshot] per collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider.
//   - Mutate engine state.
package otel

// Package prometheus renders a storefront engine's counters and latency
// histograms in Prometheus text exposition format.
//
// Counters are named storefront_*_total. The authenticate and upstream
// latency histograms are storefront_*_latency_seconds with eight fixed
// buckets. Mount [PrometheusExporter.Handler] on the metrics route.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry.
//   - Mutate engine state.
package prometheus

// Package metrics defines the sinks that record station activity for
// observability. Every sink records admissions; rejections, cancellations,
// settlements, V2G discharges and queue depth are optional recorder
// interfaces discovered by type assertion. NewMetricsSink returns a
// MultiSink automatically when several sinks are configured.
package metrics

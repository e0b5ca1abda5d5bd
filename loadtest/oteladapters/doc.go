// Package oteladapters implements the loadtest observability interfaces on top of OpenTelemetry.
//
//   - MetricsCollector maps durations to histograms, counters to counters and values to gauges.
//   - TracingCollector opens one span per operation and maps loadtest status values to span codes.
//   - SlogBridgeLogger logs through the otelslog bridge, so records carry the active trace context.
//
// All adapters are safe for concurrent use by many simulated users.
package oteladapters

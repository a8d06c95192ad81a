// Package metrics defines the Prometheus instrumentation for the message
// store pipeline.
package metrics

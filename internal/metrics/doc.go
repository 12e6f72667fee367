// Package metrics records Prometheus metrics for import runs.
//
// Metrics live in a private registry. One-shot imports write them to a node
// exporter textfile; the scheduler serves them over HTTP.
package metrics

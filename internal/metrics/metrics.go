// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Tool call statuses used as the status label.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	// StatusDropped marks audit events that could not be published.
	StatusDropped = "dropped"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Tool metrics
	IncToolCall(tool, status string)
	ObserveToolLatency(tool string, duration time.Duration)

	// Transport metrics
	IncAuthFailure()
	IncRateLimited()

	// Data source metrics
	IncDataReload(status string) // status: "success" or "error"

	// Audit stream metrics
	IncAuditEventPublished(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncToolCall is a no-op.
func (n *NoopRecorder) IncToolCall(tool, status string) {}

// ObserveToolLatency is a no-op.
func (n *NoopRecorder) ObserveToolLatency(tool string, duration time.Duration) {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// IncDataReload is a no-op.
func (n *NoopRecorder) IncDataReload(status string) {}

// IncAuditEventPublished is a no-op.
func (n *NoopRecorder) IncAuditEventPublished(status string) {}

package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// ToolKey identifies a tool call counter.
type ToolKey struct {
	Tool   string
	Status string
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ToolCalls          map[ToolKey]uint64
	ToolLatencyCount   map[string]uint64
	ToolLatencyTotalNs map[string]int64
	AuthFailures       uint64
	RateLimited        uint64
	DataReloads        map[string]uint64
	AuditPublished     map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu                 sync.Mutex
	toolCalls          map[ToolKey]uint64
	toolLatencyCount   map[string]uint64
	toolLatencyTotalNs map[string]int64
	dataReloads        map[string]uint64
	auditPublished     map[string]uint64

	authFailures uint64
	rateLimited  uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		toolCalls:          make(map[ToolKey]uint64),
		toolLatencyCount:   make(map[string]uint64),
		toolLatencyTotalNs: make(map[string]int64),
		dataReloads:        make(map[string]uint64),
		auditPublished:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		ToolCalls:          make(map[ToolKey]uint64, len(m.toolCalls)),
		ToolLatencyCount:   make(map[string]uint64, len(m.toolLatencyCount)),
		ToolLatencyTotalNs: make(map[string]int64, len(m.toolLatencyTotalNs)),
		DataReloads:        make(map[string]uint64, len(m.dataReloads)),
		AuditPublished:     make(map[string]uint64, len(m.auditPublished)),
		AuthFailures:       atomic.LoadUint64(&m.authFailures),
		RateLimited:        atomic.LoadUint64(&m.rateLimited),
	}
	for k, v := range m.toolCalls {
		snap.ToolCalls[k] = v
	}
	for k, v := range m.toolLatencyCount {
		snap.ToolLatencyCount[k] = v
	}
	for k, v := range m.toolLatencyTotalNs {
		snap.ToolLatencyTotalNs[k] = v
	}
	for k, v := range m.dataReloads {
		snap.DataReloads[k] = v
	}
	for k, v := range m.auditPublished {
		snap.AuditPublished[k] = v
	}
	return snap
}

// ToolCalls returns the counter for one tool/status pair.
func (m *InMemoryRecorder) ToolCalls(tool, status string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toolCalls[ToolKey{Tool: tool, Status: status}]
}

// IncToolCall increments the tool call counter.
func (m *InMemoryRecorder) IncToolCall(tool, status string) {
	m.mu.Lock()
	m.toolCalls[ToolKey{Tool: tool, Status: status}]++
	m.mu.Unlock()
}

// ObserveToolLatency records tool execution duration.
func (m *InMemoryRecorder) ObserveToolLatency(tool string, duration time.Duration) {
	m.mu.Lock()
	m.toolLatencyCount[tool]++
	m.toolLatencyTotalNs[tool] += duration.Nanoseconds()
	m.mu.Unlock()
}

// IncAuthFailure increments the auth failure counter.
func (m *InMemoryRecorder) IncAuthFailure() {
	atomic.AddUint64(&m.authFailures, 1)
}

// IncRateLimited increments the rate limited counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncDataReload increments the data reload counter.
func (m *InMemoryRecorder) IncDataReload(status string) {
	m.mu.Lock()
	m.dataReloads[status]++
	m.mu.Unlock()
}

// IncAuditEventPublished increments the audit publish counter.
func (m *InMemoryRecorder) IncAuditEventPublished(status string) {
	m.mu.Lock()
	m.auditPublished[status]++
	m.mu.Unlock()
}

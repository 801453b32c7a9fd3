package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry       *prometheus.Registry
	toolCalls      *prometheus.CounterVec
	toolLatency    *prometheus.HistogramVec
	authFailures   prometheus.Counter
	rateLimited    prometheus.Counter
	dataReloads    *prometheus.CounterVec
	auditPublished *prometheus.CounterVec
}

// NewPrometheus creates a recorder and registers its collectors, plus the
// Go runtime and process collectors, on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()

	p := &PrometheusRecorder{
		registry: reg,
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_tool_calls_total",
			Help: "Total tool calls",
		}, []string{"tool_name", "status"}),
		toolLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mcp_tool_latency_seconds",
			Help:    "Tool execution latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool_name"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcp_auth_failures_total",
			Help: "Authentication failures",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcp_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
		dataReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_data_reloads_total",
			Help: "Data source reload attempts",
		}, []string{"status"}),
		auditPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcp_audit_events_published_total",
			Help: "Audit events sent to the Redis stream",
		}, []string{"status"}),
	}

	reg.MustRegister(
		p.toolCalls,
		p.toolLatency,
		p.authFailures,
		p.rateLimited,
		p.dataReloads,
		p.auditPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Pre-create the label sets so the series are exported before the first call.
	for _, status := range []string{StatusSuccess, StatusError} {
		p.dataReloads.WithLabelValues(status)
	}

	return p
}

// Handler returns an http.Handler serving the registry in exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// IncToolCall increments the tool call counter.
func (p *PrometheusRecorder) IncToolCall(tool, status string) {
	p.toolCalls.WithLabelValues(tool, status).Inc()
}

// ObserveToolLatency records tool execution duration.
func (p *PrometheusRecorder) ObserveToolLatency(tool string, duration time.Duration) {
	p.toolLatency.WithLabelValues(tool).Observe(duration.Seconds())
}

// IncAuthFailure increments the auth failure counter.
func (p *PrometheusRecorder) IncAuthFailure() {
	p.authFailures.Inc()
}

// IncRateLimited increments the rate limited counter.
func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimited.Inc()
}

// IncDataReload increments the data reload counter.
func (p *PrometheusRecorder) IncDataReload(status string) {
	p.dataReloads.WithLabelValues(status).Inc()
}

// IncAuditEventPublished increments the audit publish counter.
func (p *PrometheusRecorder) IncAuditEventPublished(status string) {
	p.auditPublished.WithLabelValues(status).Inc()
}

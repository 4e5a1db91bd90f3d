// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RepliesTotal tracks chat replies by the pipeline branch that produced them.
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_replies_total",
			Help: "Chat replies by source (business_knowledge, business_rules, model, error_handler)",
		},
		[]string{"source"},
	)

	// FallbackDuration tracks generative fallback latency.
	FallbackDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_fallback_duration_seconds",
			Help:    "Generative fallback latency in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"model", "status"},
	)

	// FallbackTokensTotal tracks tokens consumed by the generative fallback.
	FallbackTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_fallback_tokens_total",
			Help: "Tokens consumed by the generative fallback",
		},
		[]string{"model", "direction"},
	)

	// ConversationsActive tracks conversations currently held in memory.
	ConversationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "conversations_active",
			Help: "Conversations currently held in memory",
		},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// ExchangeEventsTotal tracks exchange events published to the event stream.
	ExchangeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_events_total",
			Help: "Exchange events published to the event stream",
		},
		[]string{"status"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordReply records a chat reply by source.
func RecordReply(source string) {
	RepliesTotal.WithLabelValues(source).Inc()
}

// RecordFallback records metrics for a generative fallback call.
func RecordFallback(model, status string, duration float64, tokensIn, tokensOut int) {
	FallbackDuration.WithLabelValues(model, status).Observe(duration)
	FallbackTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	FallbackTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}

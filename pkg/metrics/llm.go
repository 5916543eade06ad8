package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeEmpty   = "empty"
)

// LLMMetrics records upstream completion calls.
type LLMMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewLLMMetrics registers the upstream metrics on the provided registerer.
func NewLLMMetrics(reg prometheus.Registerer) *LLMMetrics {
	if reg == nil {
		return &LLMMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Duration of upstream LLM completion calls in seconds.",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Upstream LLM completion calls by outcome.",
	}, []string{"provider", "outcome"})
	reg.MustRegister(duration, calls)
	return &LLMMetrics{duration: duration, calls: calls}
}

// Observe records one upstream call.
func (m *LLMMetrics) Observe(provider, outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	provider = normalizeLabel(provider)
	m.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
	m.calls.WithLabelValues(provider, normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters for the chat turn pipeline.
type ChatMetrics struct {
	turnsTotal        *prometheus.CounterVec
	rewritesTotal     *prometheus.CounterVec
	escalationsTotal  *prometheus.CounterVec
	summaryCacheTotal *prometheus.CounterVec
	llmErrorsTotal    prometheus.Counter
	turnLatency       *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurea",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns handled, by routed job",
		}, []string{"job"}),
		rewritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurea",
			Subsystem: "chat",
			Name:      "filter_rewrites_total",
			Help:      "Replies rewritten by the safety filter, by reason",
		}, []string{"reason"}),
		escalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurea",
			Subsystem: "chat",
			Name:      "escalations_total",
			Help:      "Turns routed to the escalation gate, by reason",
		}, []string{"reason"}),
		summaryCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aurea",
			Subsystem: "chat",
			Name:      "summary_cache_total",
			Help:      "Site summary cache lookups",
		}, []string{"result"}),
		llmErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aurea",
			Subsystem: "chat",
			Name:      "llm_errors_total",
			Help:      "Model calls that failed and degraded to an apology",
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aurea",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of a chat turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.rewritesTotal, m.escalationsTotal, m.summaryCacheTotal, m.llmErrorsTotal, m.turnLatency)
	return m
}

func (m *ChatMetrics) ObserveTurn(job string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(job).Inc()
	m.turnLatency.WithLabelValues(job).Observe(seconds)
}

func (m *ChatMetrics) ObserveRewrite(reason string) {
	if m == nil {
		return
	}
	m.rewritesTotal.WithLabelValues(reason).Inc()
}

func (m *ChatMetrics) ObserveEscalation(reason string) {
	if m == nil {
		return
	}
	m.escalationsTotal.WithLabelValues(reason).Inc()
}

func (m *ChatMetrics) ObserveSummaryCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.summaryCacheTotal.WithLabelValues(result).Inc()
}

func (m *ChatMetrics) ObserveLLMError() {
	if m == nil {
		return
	}
	m.llmErrorsTotal.Inc()
}

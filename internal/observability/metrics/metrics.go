package metrics

import "github.com/prometheus/client_golang/prometheus"

// FunnelMetrics exposes counters/histograms for the booking funnel.
type FunnelMetrics struct {
	sessionsStarted prometheus.Counter
	stepTransitions *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	webhookLatency  prometheus.Histogram
}

func NewFunnelMetrics(reg prometheus.Registerer) *FunnelMetrics {
	m := &FunnelMetrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "funnel",
			Subsystem: "booking",
			Name:      "sessions_started_total",
			Help:      "Total funnel sessions created",
		}),
		stepTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Subsystem: "booking",
			Name:      "step_transitions_total",
			Help:      "Step transition attempts by direction and outcome",
		}, []string{"direction", "outcome"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "funnel",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by lead webhook outcome",
		}, []string{"webhook_status"}),
		webhookLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "funnel",
			Subsystem: "booking",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of the lead webhook call",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sessionsStarted, m.stepTransitions, m.submissions, m.webhookLatency)
	return m
}

func (m *FunnelMetrics) ObserveSessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *FunnelMetrics) ObserveStepTransition(direction, outcome string) {
	if m == nil {
		return
	}
	m.stepTransitions.WithLabelValues(direction, outcome).Inc()
}

func (m *FunnelMetrics) ObserveSubmission(webhookStatus string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(webhookStatus).Inc()
}

func (m *FunnelMetrics) ObserveWebhookLatency(seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.Observe(seconds)
}

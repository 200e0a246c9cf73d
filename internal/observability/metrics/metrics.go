package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the chat and payment flows.
type BookingMetrics struct {
	webhooksTotal  *prometheus.CounterVec
	jobsTotal      *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		webhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carwash",
			Subsystem: "webhooks",
			Name:      "inbound_total",
			Help:      "Total inbound webhook deliveries",
		}, []string{"source", "status"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carwash",
			Subsystem: "jobs",
			Name:      "processed_total",
			Help:      "Total queue jobs processed by workers",
		}, []string{"kind", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carwash",
			Subsystem: "webhooks",
			Name:      "latency_seconds",
			Help:      "Latency of webhook acknowledgment",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.webhooksTotal, m.jobsTotal, m.webhookLatency)
	return m
}

func (m *BookingMetrics) ObserveWebhook(source, status string) {
	if m == nil {
		return
	}
	m.webhooksTotal.WithLabelValues(source, status).Inc()
}

func (m *BookingMetrics) ObserveJob(kind, status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(kind, status).Inc()
}

func (m *BookingMetrics) ObserveWebhookLatency(source string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(source).Observe(seconds)
}

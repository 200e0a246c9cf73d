package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveWebhook("whatsapp", "accepted")
	m.ObserveJob("message", "ok")
	m.ObserveWebhookLatency("wompi", 0.05)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveWebhook("whatsapp", "accepted")
	m.ObserveJob("payment", "error")
	m.ObserveWebhookLatency("whatsapp", 0.1)
}

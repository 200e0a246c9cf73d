// Package router assembles the HTTP surface: webhook endpoints, operator
// booking endpoints, health, and metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lavexpress/booking-platform/internal/bookings"
	httpmiddleware "github.com/lavexpress/booking-platform/internal/http/middleware"
	"github.com/lavexpress/booking-platform/internal/messaging"
	"github.com/lavexpress/booking-platform/internal/payments"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	WhatsAppWebhook *messaging.WebhookHandler
	PaymentWebhook  *payments.WebhookHandler
	BookingsHandler *bookings.Handler
	MetricsHandler  http.Handler
}

// New creates the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.WhatsAppWebhook != nil {
		r.Get("/webhooks/whatsapp", cfg.WhatsAppWebhook.Verify)
		r.Post("/webhooks/whatsapp", cfg.WhatsAppWebhook.Receive)
	}
	if cfg.PaymentWebhook != nil {
		r.Post("/webhooks/wompi", cfg.PaymentWebhook.Handle)
	}
	if cfg.BookingsHandler != nil {
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/{id}", cfg.BookingsHandler.Get)
			r.Patch("/{id}/status", cfg.BookingsHandler.UpdateStatus)
		})
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

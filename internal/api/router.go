package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/movewell/booking-server/internal/billing"
	"github.com/movewell/booking-server/internal/booking"
	"github.com/movewell/booking-server/internal/config"
)

type RouterConfig struct {
	Scheduler *booking.Scheduler
	Billing   *billing.Service
	Repo      booking.Repository
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Cfg       config.Config
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Client portal
	r.Get("/services", listServicesHandler(cfg.Repo, true))
	r.Get("/packages", listPackagesHandler(cfg.Repo, true))
	r.Get("/availability", availabilityHandler(cfg.Scheduler))
	r.Post("/appointments", bookAppointmentHandler(cfg.Scheduler))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/checkout", appointmentCheckoutHandler(cfg.Billing))
	r.Post("/packages/{id}/checkout", packageCheckoutHandler(cfg.Billing))
	r.Get("/clients/{id}/appointments", listClientAppointmentsHandler(cfg.Scheduler))
	r.Get("/clients/{id}/packages", listClientPackagesHandler(cfg.Repo))
	r.Get("/clients/{id}/invoices", listClientInvoicesHandler(cfg.Repo))

	// Payment provider callbacks
	r.Post("/webhooks/stripe", stripeWebhookHandler(cfg.Billing, cfg.Cfg.StripeWebhookSecret, cfg.Cfg.StripeWebhookTolerance))

	// Admin portal
	r.Route("/admin", func(r chi.Router) {
		r.Get("/services", listServicesHandler(cfg.Repo, false))
		r.Post("/services", createServiceHandler(cfg.Repo))
		r.Patch("/services/{id}", updateServiceHandler(cfg.Repo))

		r.Get("/packages", listPackagesHandler(cfg.Repo, false))
		r.Post("/packages", createPackageHandler(cfg.Repo))
		r.Patch("/packages/{id}", updatePackageHandler(cfg.Repo))

		r.Get("/windows", listWindowsHandler(cfg.Repo))
		r.Post("/windows", createWindowHandler(cfg.Scheduler))
		r.Post("/windows/{id}/deactivate", deactivateWindowHandler(cfg.Repo))

		r.Get("/blocked-intervals", listBlockedIntervalsHandler(cfg.Repo))
		r.Post("/blocked-intervals", createBlockedIntervalHandler(cfg.Scheduler))
		r.Delete("/blocked-intervals/{id}", deleteBlockedIntervalHandler(cfg.Repo))

		r.Get("/clients", listClientsHandler(cfg.Repo))
		r.Post("/clients", createClientHandler(cfg.Repo))
		r.Get("/clients/{id}", getClientHandler(cfg.Repo))

		r.Get("/payments", listPaymentsHandler(cfg.Repo))

		r.Post("/appointments/{id}/confirm", confirmAppointmentHandler(cfg.Scheduler))
		r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Scheduler))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Scheduler))
	})

	return r
}

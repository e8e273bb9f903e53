package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/careport/clinic-booking/internal/booking"
	"github.com/careport/clinic-booking/internal/chat"
	"github.com/careport/clinic-booking/internal/consult"
	"github.com/careport/clinic-booking/internal/identity"
	"github.com/careport/clinic-booking/internal/timeline"
	"github.com/careport/clinic-booking/pkg/logging"
)

type RouterConfig struct {
	Booking  *booking.Service
	Chat     *chat.Service
	ChatWS   http.Handler
	Identity *identity.Service
	Timeline *timeline.Service
	Consult  *consult.Service
	Verifier *identity.Verifier
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   *logging.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Credentials
	r.Post("/auth/register", registerHandler(cfg.Identity))
	r.Post("/auth/login", loginHandler(cfg.Identity))

	// Everything below requires an identity token.
	r.Group(func(r chi.Router) {
		r.Use(IdentityMiddleware(cfg.Verifier))

		// Slot lifecycle
		r.Get("/slots/available", listAvailableSlotsHandler(cfg.Booking))
		r.Post("/slots/book", bookSlotHandler(cfg.Booking))
		r.Post("/slots", createSlotHandler(cfg.Booking))
		r.Delete("/slots/{slotID}", deleteSlotHandler(cfg.Booking))
		r.Get("/slots/pending-approval", pendingApprovalHandler(cfg.Booking))
		r.Post("/slots/{slotID}/approve", approveSlotHandler(cfg.Booking))

		// Messaging
		r.Get("/chat/history/{patientID}", chatHistoryHandler(cfg.Chat))
		r.Get("/chat/patients", chatPatientsHandler(cfg.Booking))

		// Timeline
		r.Get("/timeline/{patientID}", listTimelineHandler(cfg.Timeline))
		r.Post("/timeline/{patientID}", createTimelineEventHandler(cfg.Timeline))

		// Consultations
		r.Post("/consultations", createConsultationHandler(cfg.Consult))
		r.Post("/consultations/upload-urls", uploadURLsHandler(cfg.Consult))
		r.Post("/consultations/confirm-upload", confirmUploadHandler(cfg.Consult))
		r.Get("/consultations", listConsultationsHandler(cfg.Consult))
	})

	// The WebSocket endpoint authenticates on its own since browser clients
	// pass the token as a query parameter.
	r.Handle("/ws/chat", cfg.ChatWS)

	return r
}

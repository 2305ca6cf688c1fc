package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/healthbot/clinic-scheduling/internal/assistant"
	"github.com/healthbot/clinic-scheduling/internal/booking"
	"github.com/healthbot/clinic-scheduling/internal/catalog"
)

type RouterConfig struct {
	Booking     *booking.Service
	Catalog     catalog.Repository
	Assistant   *assistant.Assistant
	CatalogPool *pgxpool.Pool
	LedgerPool  *pgxpool.Pool
	Redis       *redis.Client
	Env         string
	Version     string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.CatalogPool, cfg.LedgerPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Conversation endpoints
	r.Post("/chat", chatHandler(cfg.Assistant))
	r.Delete("/chat/{sessionID}", resetChatHandler(cfg.Assistant))

	// Catalog endpoints
	r.Get("/catalog/clinics", listClinicsHandler(cfg.Catalog))
	r.Get("/catalog/services", listServicesHandler(cfg.Catalog))
	r.Get("/catalog/doctors", listDoctorsHandler(cfg.Catalog))
	r.Get("/catalog/availability", listAvailabilityHandler(cfg.Catalog))

	// Patient endpoints
	r.Post("/patients", createPatientHandler(cfg.Booking))
	r.Get("/patients/{id}", getPatientHandler(cfg.Booking))

	// Appointment endpoints
	r.Post("/appointments", bookAppointmentHandler(cfg.Booking))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
	r.Get("/appointments/number/{number}", getAppointmentByNumberHandler(cfg.Booking))
	r.Post("/appointments/{id}/status", updateStatusHandler(cfg.Booking))

	// Doctor schedule endpoints
	r.Get("/doctors/{id}/day-summary", doctorDaySummaryHandler(cfg.Booking))

	return r
}

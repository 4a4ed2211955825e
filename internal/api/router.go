package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/identity"
)

type RouterConfig struct {
	Services     app.Services
	Tokens       *identity.Manager
	HealthChecks []HealthCheck
	Logger       zerolog.Logger

	DefaultWeeks       int
	CORSOrigins        []string
	RateLimitPerMinute int // 0 disables the limiter

	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))
	}

	health := NewHealthHandler(cfg.HealthChecks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	svc := cfg.Services
	r.Get("/specializations", listCatalogueHandler(svc.Specializations))

	r.Route("/doctors/me", func(r chi.Router) {
		r.Use(Authenticate(cfg.Tokens), RequireRole(identity.RoleDoctor))

		r.Get("/appointments", listDoctorAppointmentsHandler(svc.Appointments))

		r.Get("/specializations", listMySpecializationsHandler(svc.Specializations))
		r.Put("/specializations", replaceMySpecializationsHandler(svc.Specializations))
		r.Delete("/specializations/{specId}", removeMySpecializationHandler(svc.Specializations))

		r.Get("/weekly-availability", listTemplatesHandler(svc.Availability))
		r.Put("/weekly-availability", replaceTemplatesHandler(svc.Availability))

		r.Get("/slot-exceptions", listExceptionsHandler(svc.Availability))
		r.Post("/slot-exceptions", createExceptionHandler(svc.Availability))
		r.Delete("/slot-exceptions/{id}", deleteExceptionHandler(svc.Availability))

		r.Post("/slots/regenerate", regenerateHandler(svc.Slots, cfg.DefaultWeeks))
	})

	r.Route("/patients/me", func(r chi.Router) {
		r.Use(Authenticate(cfg.Tokens), RequireRole(identity.RolePatient))

		r.Get("/slots/search", searchSlotsHandler(svc.Slots))
		r.Post("/appointments", bookAppointmentHandler(svc.Appointments, svc.Slots))
		r.Get("/appointments", listPatientAppointmentsHandler(svc.Appointments))
		r.Patch("/appointments/{id}/cancel", cancelAppointmentHandler(svc.Appointments))
	})

	return r
}

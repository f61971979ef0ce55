/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/health          Liveness probe
  /api/summary         Per-date allocation view
  /api/requests        Submission path (read + submit/cancel)
  /api/reservations    Guaranteed claims

SECURITY NOTE:
  No authentication middleware; identity is owned by the excluded
  identity/authentication collaborator fronting this service.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/summary", h.GetSummary)

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.GetUserRequests)
			r.Post("/", h.SubmitRequests)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.GetReservations)
			r.Post("/", h.CreateReservation)
		})
	})

	return r
}

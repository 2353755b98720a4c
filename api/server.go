/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for internal dashboards

ROUTE GROUPS:
  /api/statements/*   Statement generation and retrieval
  /api/authors/*      Author-facing statement views
  /api/admin/*        Contract, sales, and authorship administration
  /api/scenarios/*    Demo data loaders
  /api/reset          Database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Statement routes
		r.Route("/statements", func(r chi.Router) {
			r.Post("/generate", h.GenerateStatement)
			r.Post("/batch", h.RunBatch)
			r.Get("/{id}", h.GetStatement)
		})

		// Author-facing routes
		r.Route("/authors", func(r chi.Router) {
			r.Get("/{id}/statements", h.ListAuthorStatements)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/contracts", h.CreateContract)
			r.Get("/contracts", h.GetContract)
			r.Post("/sales", h.RecordSale)
			r.Post("/authorships", h.SaveAuthorship)
			r.Get("/batch-runs", h.ListBatchRuns)
		})

		// Demo scenarios
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Dev only
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}

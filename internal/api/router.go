// Package api wires the HTTP surface of the service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	mw "github.com/dwporter/dwporter/internal/api/middleware"
	"github.com/dwporter/dwporter/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	StartMigration   http.HandlerFunc
	ListMigrations   http.HandlerFunc
	MigrationHistory http.HandlerFunc
	GetMigration     http.HandlerFunc
	StreamMigration  http.HandlerFunc
	CancelMigration  http.HandlerFunc
	DeleteMigration  http.HandlerFunc

	TranslateHandler http.HandlerFunc
	ExtractInventory http.HandlerFunc
	ListModels       http.HandlerFunc
	EstimateHandler  http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/migrations", orNotImplemented(deps.StartMigration))
		r.Get("/api/v1/migrations", orNotImplemented(deps.ListMigrations))
		r.Get("/api/v1/migrations/history", orNotImplemented(deps.MigrationHistory))
		r.Get("/api/v1/migrations/{jobID}", orNotImplemented(deps.GetMigration))
		r.Get("/api/v1/migrations/{jobID}/stream", orNotImplemented(deps.StreamMigration))
		r.Post("/api/v1/migrations/{jobID}/cancel", orNotImplemented(deps.CancelMigration))
		r.Delete("/api/v1/migrations/{jobID}", orNotImplemented(deps.DeleteMigration))

		r.Post("/api/v1/translate", orNotImplemented(deps.TranslateHandler))
		r.Post("/api/v1/inventory/extract", orNotImplemented(deps.ExtractInventory))

		r.Get("/api/v1/models", orNotImplemented(deps.ListModels))
		r.Post("/api/v1/estimate", orNotImplemented(deps.EstimateHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

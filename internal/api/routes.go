package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	GET    /api/v1/easter/{year}
//	GET    /api/v1/holidays?year=&holy_spirit=
//	GET    /api/v1/calendar?from=&to=&holy_spirit=
//	GET    /api/v1/opportunities?year=&budget=&max=&from_today=&holy_spirit=&lang=
//	GET    /api/v1/plan
//	POST   /api/v1/plan              {from, to, force}
//	DELETE /api/v1/plan
//	POST   /api/v1/plan/custom       {from, to, label, force}
//	POST   /api/v1/plan/pending      add the conflicting candidate anyway
//	DELETE /api/v1/plan/pending      dismiss the conflict
//	DELETE /api/v1/plan/{id}
//	GET    /api/v1/settings
//	PUT    /api/v1/settings          {entitlement, preferences, custom_holidays}
func SetupRoutes(handlers *Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/easter/{year}", handlers.GetEaster)
		r.Get("/holidays", handlers.GetHolidays)
		r.Get("/calendar", handlers.GetCalendar)
		r.Get("/opportunities", handlers.GetOpportunities)

		r.Route("/plan", func(r chi.Router) {
			r.Get("/", handlers.GetPlan)
			r.Post("/", handlers.AddToPlan)
			r.Delete("/", handlers.ClearPlan)
			r.Post("/custom", handlers.AddCustomPeriod)
			r.Post("/pending", handlers.ForcePending)
			r.Delete("/pending", handlers.DismissPending)
			r.Delete("/{id}", handlers.RemoveFromPlan)
		})

		r.Get("/settings", handlers.GetSettings)
		r.Put("/settings", handlers.UpdateSettings)
	})

	return r
}

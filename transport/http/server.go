/*
server.go - router and middleware wiring, adapted from the teacher's
api/server.go NewRouter: same chi + go-chi/cors + middleware.Logger/
Recoverer/RequestID stack, routed against spec §6's endpoint table
instead of the teacher's employees/policies/scenarios groups. No static
file serving here — this module ships no frontend.
*/
package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the chi.Mux wiring spec §6's endpoint table onto h.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-Id", "X-Actor-Role"},
		AllowCredentials: true,
	}))

	r.Route("/timesheets", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Post("/quote", h.Quote)
		r.Get("/me", h.MyTimesheets)
		r.Get("/pending-approval", h.PendingApproval)
		r.Get("/pending-final-approval", h.PendingFinalApproval)
		r.Get("/pending-admin-confirmation", h.PendingAdminConfirmation)
		r.Get("/", h.ListTimesheets)
		r.Post("/", h.CreateTimesheet)
		r.Get("/{id}", h.GetTimesheet)
		r.Put("/{id}", h.UpdateTimesheet)
		r.Delete("/{id}", h.DeleteTimesheet)
		r.Post("/{id}/submit", h.SubmitTimesheet)
	})

	r.Route("/approvals", func(r chi.Router) {
		r.Post("/", h.ApplyApprovalAction)
		r.Get("/history/{timesheetId}", h.ApprovalHistory)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/summary", h.DashboardSummary)
	})

	return r
}

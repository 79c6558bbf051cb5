package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all optimization and CAPM routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimizer", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/evaluate", h.HandleEvaluate)
		r.Post("/frontier", h.HandleFrontier)
		r.Post("/simulate", h.HandleSimulate)
		r.Post("/estimate", h.HandleEstimate)
	})

	r.Route("/capm", func(r chi.Router) {
		r.Post("/expected-return", h.HandleExpectedReturn)
	})
}

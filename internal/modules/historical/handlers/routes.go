package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all historical analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/historical", func(r chi.Router) {
		r.Post("/returns", h.HandleReturns)
		r.Post("/returns/correlation-matrix", h.HandleCorrelationMatrix)
	})
}

package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all analytics module routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/summary", h.HandleGetSummary)
		r.Get("/groups", h.HandleGetGroups)
		r.Get("/pivot", h.HandleGetPivot)
		r.Get("/top", h.HandleGetTop)
		r.Get("/exposure", h.HandleGetExposure)
		r.Get("/equity", h.HandleGetEquity)
		r.Get("/monthly", h.HandleGetMonthly)
		r.Get("/breakdown", h.HandleGetBreakdown)
		r.Get("/status-comparison", h.HandleGetStatusComparison)
	})
}

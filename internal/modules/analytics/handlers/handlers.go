// Package handlers provides HTTP handlers for the analytics engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/modules/analytics"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandleGetSummary handles GET /api/analytics/summary
func (h *Handler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	filter := analytics.FilterFromQuery(r.URL.Query())
	summary := h.service.Summary(filter)
	cfg := h.service.Config()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"targets": map[string]interface{}{
			"win_rate_target":        cfg.WinRateTarget,
			"profit_factor_strong":   cfg.ProfitFactorStrong,
			"profit_factor_adequate": cfg.ProfitFactorAdequate,
			"bias_thresholds":        cfg.Thresholds,
		},
	})
}

// HandleGetGroups handles GET /api/analytics/groups?by=strategy,month
func (h *Handler) HandleGetGroups(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		h.writeError(w, http.StatusBadRequest, "Missing 'by' parameter")
		return
	}

	var keys []analytics.GroupKey
	for _, raw := range strings.Split(by, ",") {
		key, err := analytics.ParseGroupKey(strings.TrimSpace(raw))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		keys = append(keys, key)
	}

	filter := analytics.FilterFromQuery(r.URL.Query())
	groups, err := h.service.Groups(filter, keys)
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidGroupKeys) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to aggregate groups")
		h.writeError(w, http.StatusInternalServerError, "Failed to aggregate groups")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"count":  len(groups),
	})
}

// HandleGetPivot handles GET /api/analytics/pivot?rows=strategy&cols=month
func (h *Handler) HandleGetPivot(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	rowKey, err := analytics.ParseGroupKey(q.Get("rows"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	colKey, err := analytics.ParseGroupKey(q.Get("cols"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := analytics.FilterFromQuery(q)
	table, err := h.service.Pivot(filter, rowKey, colKey)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, table)
}

// HandleGetTop handles GET /api/analytics/top?n=10&direction=best
func (h *Handler) HandleGetTop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	n := 10 // default
	if nStr := q.Get("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	direction := analytics.Best
	if dirStr := q.Get("direction"); dirStr != "" {
		parsed, err := analytics.ParseDirection(dirStr)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		direction = parsed
	}

	filter := analytics.FilterFromQuery(q)
	trades, err := h.service.Top(filter, n, direction)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"trades":    trades,
		"count":     len(trades),
		"direction": direction,
	})
}

// HandleGetExposure handles GET /api/analytics/exposure
func (h *Handler) HandleGetExposure(w http.ResponseWriter, r *http.Request) {
	filter := analytics.FilterFromQuery(r.URL.Query())
	h.writeJSON(w, http.StatusOK, h.service.Exposure(filter))
}

// HandleGetEquity handles GET /api/analytics/equity?window=20
func (h *Handler) HandleGetEquity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	window := 0 // service falls back to the configured default
	if windowStr := q.Get("window"); windowStr != "" {
		if parsed, err := strconv.Atoi(windowStr); err == nil && parsed > 0 {
			window = parsed
		}
	}

	filter := analytics.FilterFromQuery(q)
	curve := h.service.Equity(filter, window)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"curve": curve,
		"count": len(curve),
	})
}

// HandleGetMonthly handles GET /api/analytics/monthly
func (h *Handler) HandleGetMonthly(w http.ResponseWriter, r *http.Request) {
	filter := analytics.FilterFromQuery(r.URL.Query())
	months := h.service.Monthly(filter)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"months": months,
		"count":  len(months),
	})
}

// HandleGetBreakdown handles GET /api/analytics/breakdown
func (h *Handler) HandleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	filter := analytics.FilterFromQuery(r.URL.Query())
	h.writeJSON(w, http.StatusOK, h.service.Breakdown(filter))
}

// HandleGetStatusComparison handles GET /api/analytics/status-comparison
func (h *Handler) HandleGetStatusComparison(w http.ResponseWriter, r *http.Request) {
	filter := analytics.FilterFromQuery(r.URL.Query())
	h.writeJSON(w, http.StatusOK, h.service.StatusComparison(filter))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

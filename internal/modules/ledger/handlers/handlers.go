// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vantage/internal/events"
	"github.com/aristath/vantage/internal/modules/analytics"
	"github.com/aristath/vantage/internal/modules/ledger"
)

// Handler handles ledger HTTP requests
type Handler struct {
	store    *ledger.Store
	archive  *ledger.Repository
	eventMgr *events.Manager
	log      zerolog.Logger
}

// NewHandler creates a new ledger handler. The archive repository and event
// manager are optional; a nil archive skips persistence on reload and a nil
// manager skips event emission.
func NewHandler(
	store *ledger.Store,
	archive *ledger.Repository,
	eventMgr *events.Manager,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		store:    store,
		archive:  archive,
		eventMgr: eventMgr,
		log:      log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleGetTrades handles GET /api/ledger/trades
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := analytics.FilterFromQuery(q)
	subset := analytics.Apply(h.store.Records(), filter)

	if search := q.Get("search"); search != "" {
		subset = ledger.Search(subset, search)
	}

	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = "openDate"
	}
	descending := q.Get("order") != "asc"

	sorted, err := ledger.Sorted(subset, sortKey, descending)
	if err != nil {
		http.Error(w, "Unknown sort column", http.StatusBadRequest)
		return
	}

	total := len(sorted)

	limit := 100 // default
	if limitStr := q.Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit >= 0 {
			limit = parsedLimit
		}
	}
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"trades": sorted,
			"count":  len(sorted),
			"total":  total,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetTradesSummary handles GET /api/ledger/trades/summary
func (h *Handler) HandleGetTradesSummary(w http.ResponseWriter, r *http.Request) {
	records := h.store.Records()

	symbols := make(map[string]bool)
	strategies := make(map[string]bool)
	totalPnl := 0.0
	var firstOpen, lastClose time.Time

	for _, rec := range records {
		symbols[rec.Symbol] = true
		strategies[rec.StrategyType] = true
		totalPnl += rec.Pnl

		if firstOpen.IsZero() || rec.OpenDate.Before(firstOpen) {
			firstOpen = rec.OpenDate
		}
		if rec.CloseDate.After(lastClose) {
			lastClose = rec.CloseDate
		}
	}

	data := map[string]interface{}{
		"total_trades": len(records),
		"symbols":      len(symbols),
		"strategies":   len(strategies),
		"total_pnl":    totalPnl,
	}
	if !firstOpen.IsZero() {
		data["first_open_date"] = firstOpen.Format("2006-01-02")
		data["last_close_date"] = lastClose.Format("2006-01-02")
	}

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleExport handles GET /api/ledger/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	filter := analytics.FilterFromQuery(r.URL.Query())
	subset := analytics.Apply(h.store.Records(), filter)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		"attachment; filename="+ledger.ExportFilename(time.Now()))

	if err := ledger.Export(w, subset); err != nil {
		// Headers are gone at this point; all we can do is log.
		h.log.Error().Err(err).Msg("Failed to stream export")
	}
}

// HandleReload handles POST /api/ledger/reload
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	reloaded, err := h.store.Reload()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to reload ledger")
		if h.eventMgr != nil {
			h.eventMgr.EmitError("ledger", err, map[string]interface{}{"path": h.store.Info().Path})
		}
		http.Error(w, "Failed to reload ledger", http.StatusInternalServerError)
		return
	}

	info := h.store.Info()

	if reloaded {
		if h.archive != nil {
			if _, err := h.archive.ReplaceAll(h.store.Records(), info); err != nil {
				// The in-memory reload already succeeded; report it anyway.
				h.log.Error().Err(err).Msg("Failed to archive reloaded ledger")
			}
		}
		if h.eventMgr != nil {
			h.eventMgr.EmitTyped(events.LedgerReloaded, "ledger", &events.LedgerReloadedData{
				Records:    info.Records,
				SourcePath: info.Path,
				SourceHash: info.SHA256,
				Forced:     true,
			})
		}
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"reloaded": reloaded,
			"records":  info.Records,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetSource handles GET /api/ledger/source
func (h *Handler) HandleGetSource(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"data": h.store.Info(),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleGetLoadHistory handles GET /api/ledger/loads
func (h *Handler) HandleGetLoadHistory(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		http.Error(w, "Archive not configured", http.StatusNotFound)
		return
	}

	limit := 20 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit >= 0 {
			limit = parsedLimit
		}
	}

	loads, err := h.archive.LoadHistory(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query load history")
		http.Error(w, "Failed to query load history", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"loads": loads,
			"count": len(loads),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

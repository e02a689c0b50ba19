// Package server provides the HTTP server and routing for Vantage.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/vantage/internal/clients/tradier"
)

// tradierProbeTimeout bounds the profile call behind /api/tradier/status.
const tradierProbeTimeout = 5 * time.Second

// TradierStatusResponse reports whether the brokerage connection is usable.
type TradierStatusResponse struct {
	Configured  bool   `json:"configured"`
	Connected   bool   `json:"connected"`
	Environment string `json:"environment,omitempty"`
	LatencyMs   int64  `json:"latency_ms"`
	Error       string `json:"error,omitempty"`
}

// handleTradierStatus handles GET /api/tradier/status. A nil client means no
// token was configured, which is a state to report rather than an error.
func (s *Server) handleTradierStatus(w http.ResponseWriter, r *http.Request) {
	if s.tradier == nil {
		s.writeJSON(w, http.StatusOK, TradierStatusResponse{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), tradierProbeTimeout)
	defer cancel()

	start := time.Now()
	_, err := s.tradier.GetProfile(ctx)
	latency := time.Since(start).Milliseconds()

	response := TradierStatusResponse{
		Configured:  true,
		Connected:   err == nil,
		Environment: s.tradier.Environment(),
		LatencyMs:   latency,
	}

	if err != nil {
		response.Error = err.Error()

		var apiErr *tradier.APIError
		if errors.As(err, &apiErr) && apiErr.Guidance() != "" {
			response.Error = fmt.Sprintf("%s (%s)", apiErr.Error(), apiErr.Guidance())
		}

		s.log.Warn().Err(err).Msg("Tradier status probe failed")
	}

	s.writeJSON(w, http.StatusOK, response)
}

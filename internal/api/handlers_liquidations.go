package api

import (
	"net/http"

	"github.com/tghsx-backend/internal/types"
)

// handleAtRisk handles GET /liquidations/at-risk
func (s *Server) handleAtRisk(w http.ResponseWriter, r *http.Request) {
	positions, err := s.liquidations.AtRisk(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"positions": positions})
}

type liquidateRequest struct {
	WalletAddress     string `json:"walletAddress"`
	CollateralAddress string `json:"collateralAddress"`
}

// handleLiquidate handles POST /admin/liquidate
func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "invalid request body", nil)
		return
	}

	s.respondTx(w, r, func() (string, error) {
		return s.liquidations.Liquidate(r.Context(), req.WalletAddress, req.CollateralAddress)
	})
}

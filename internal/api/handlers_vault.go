package api

import (
	"net/http"

	"github.com/tghsx-backend/internal/types"
)

// handleVaultStatus handles GET /vault/status
func (s *Server) handleVaultStatus(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	summary, err := s.vaultService.Status(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

type saveWalletRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// handleSaveWallet handles POST /vault/save-wallet-address
func (s *Server) handleSaveWallet(w http.ResponseWriter, r *http.Request) {
	var req saveWalletRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "invalid request body", nil)
		return
	}

	claims := ClaimsFromContext(r.Context())
	if err := s.vaultService.SaveWalletAddress(r.Context(), claims.UserID, req.WalletAddress); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"walletAddress": req.WalletAddress})
}

// handleListCollaterals handles GET /vault/collaterals
func (s *Server) handleListCollaterals(w http.ResponseWriter, r *http.Request) {
	collaterals, err := s.vaultService.ListCollaterals(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"collaterals": collaterals})
}

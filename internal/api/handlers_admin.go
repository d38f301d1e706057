package api

import (
	"net/http"

	"github.com/tghsx-backend/internal/service"
	"github.com/tghsx-backend/internal/types"
)

// handleAdminStatus handles GET /admin/status
func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.adminService.Status(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// handlePause handles POST /admin/pause
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.respondTx(w, r, func() (string, error) { return s.adminService.Pause(r.Context()) })
}

// handleUnpause handles POST /admin/unpause
func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	s.respondTx(w, r, func() (string, error) { return s.adminService.Unpause(r.Context()) })
}

// handleAutoMintConfig handles GET /admin/automint-config
func (s *Server) handleAutoMintConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.adminService.AutoMintConfig(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

type toggleAutoMintRequest struct {
	Enabled bool `json:"enabled"`
}

// handleToggleAutoMint handles POST /admin/toggle-automint
func (s *Server) handleToggleAutoMint(w http.ResponseWriter, r *http.Request) {
	var req toggleAutoMintRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "invalid request body", nil)
		return
	}
	s.respondTx(w, r, func() (string, error) { return s.adminService.ToggleAutoMint(r.Context(), req.Enabled) })
}

// handleUpdateAutoMintConfig handles POST /admin/update-automint-config
func (s *Server) handleUpdateAutoMintConfig(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateAutoMintConfigInput
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "invalid request body", nil)
		return
	}
	s.respondTx(w, r, func() (string, error) { return s.adminService.UpdateAutoMintConfig(r.Context(), req) })
}

type updatePriceRequest struct {
	CollateralAddress string `json:"collateralAddress"`
	Price             string `json:"price"`
}

// handleUpdatePrice handles POST /admin/update-price
func (s *Server) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req updatePriceRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "invalid request body", nil)
		return
	}
	s.respondTx(w, r, func() (string, error) {
		return s.adminService.UpdatePrice(r.Context(), req.CollateralAddress, req.Price)
	})
}

type disableCollateralRequest struct {
	CollateralAddress string `json:"collateralAddress"`
}

// handleDisableCollateral handles POST /admin/disable-collateral
func (s *Server) handleDisableCollateral(w http.ResponseWriter, r *http.Request) {
	var req disableCollateralRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "invalid request body", nil)
		return
	}
	s.respondTx(w, r, func() (string, error) {
		return s.adminService.SetCollateralEnabled(r.Context(), req.CollateralAddress, false)
	})
}

// respondTx runs a transaction-submitting operation and renders its hash.
func (s *Server) respondTx(w http.ResponseWriter, _ *http.Request, fn func() (string, error)) {
	txHash, err := fn()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"txHash": txHash})
}

package api

import (
	"net/http"

	"github.com/tghsx-backend/internal/types"
)

type mintRequestBody struct {
	CollateralAddress string `json:"collateralAddress"`
	MintAmount        string `json:"mintAmount"`
}

// handleMintRequest handles POST /mint/request
func (s *Server) handleMintRequest(w http.ResponseWriter, r *http.Request) {
	var req mintRequestBody
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "invalid request body", nil)
		return
	}

	claims := ClaimsFromContext(r.Context())
	created, err := s.mintService.Submit(r.Context(), claims.UserID, req.CollateralAddress, req.MintAmount)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// handleMintRequestList handles GET /mint/requests
func (s *Server) handleMintRequestList(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	requests, err := s.mintService.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// handlePendingRequests handles GET /admin/pending-requests
func (s *Server) handlePendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.mintService.Pending(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

type mintDecisionRequest struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

// handleMintApprove handles POST /mint/admin/approve
func (s *Server) handleMintApprove(w http.ResponseWriter, r *http.Request) {
	var req mintDecisionRequest
	if err := parseJSONBody(r, &req); err != nil || req.RequestID == "" {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "requestId is required", nil)
		return
	}

	if err := s.mintService.Approve(r.Context(), req.RequestID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"requestId": req.RequestID, "status": string(types.MintStatusApproved)})
}

// handleMintDecline handles POST /mint/admin/decline
func (s *Server) handleMintDecline(w http.ResponseWriter, r *http.Request) {
	var req mintDecisionRequest
	if err := parseJSONBody(r, &req); err != nil || req.RequestID == "" {
		respondError(w, http.StatusBadRequest, types.CodeValidation, "requestId is required", nil)
		return
	}

	if err := s.mintService.Decline(r.Context(), req.RequestID, req.Reason); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"requestId": req.RequestID, "status": string(types.MintStatusDeclined)})
}

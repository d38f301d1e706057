package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tghsx-backend/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	_ = json.NewEncoder(w).Encode(response) // nolint:errcheck // client gone
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data) // nolint:errcheck // client gone
	}
}

// parseJSONBody parses a JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// respondServiceError maps a service-layer error to an HTTP response.
func respondServiceError(w http.ResponseWriter, err error) {
	var svcErr *types.ServiceError
	if !errors.As(err, &svcErr) {
		respondError(w, http.StatusInternalServerError, types.CodeInternal, "An internal error occurred", nil)
		return
	}

	respondError(w, statusFor(svcErr.Code), svcErr.Code, svcErr.Message, svcErr.Details)
}

// statusFor maps service error codes to HTTP status codes.
func statusFor(code string) int {
	switch code {
	case types.CodeValidation:
		return http.StatusBadRequest
	case types.CodeUnauthorized:
		return http.StatusUnauthorized
	case types.CodeForbidden:
		return http.StatusForbidden
	case types.CodeNotFound:
		return http.StatusNotFound
	case types.CodeConflict:
		return http.StatusConflict
	case types.CodeStalePrice:
		return http.StatusServiceUnavailable
	case types.CodeChainUnavailable:
		return http.StatusBadGateway
	case types.CodeTxReverted:
		return http.StatusUnprocessableEntity
	case types.CodeTxTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tghsx-backend/internal/oracle"
	"github.com/tghsx-backend/internal/types"
)

// handleOraclePrice handles GET /oracle/price
func (s *Server) handleOraclePrice(w http.ResponseWriter, r *http.Request) {
	quote, err := s.oracle.EthGhsPrice(r.Context())
	if err != nil {
		if errors.Is(err, oracle.ErrFeedStale) {
			respondError(w, http.StatusServiceUnavailable, types.CodeStalePrice, "price feed is stale", nil)
			return
		}
		respondError(w, http.StatusBadGateway, types.CodeChainUnavailable, "price feed is unavailable", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"pair":      "ETH/GHS",
		"price":     types.FormatUnits(quote.Price, quote.Decimals),
		"rawPrice":  quote.RawPrice,
		"decimals":  quote.Decimals,
		"fetchedAt": quote.FetchedAt,
		"cached":    quote.Cached,
	})
}

// handleProtocolHealth handles GET /protocol/health
func (s *Server) handleProtocolHealth(w http.ResponseWriter, r *http.Request) {
	report, err := s.protocol.Health(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// handleTransactions handles GET /transactions with optional event filter
// and limit/offset pagination.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	query := r.URL.Query()

	limit := defaultPageLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxPageLimit {
			respondError(w, http.StatusBadRequest, types.CodeValidation, "limit must be between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	offset := 0
	if raw := query.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, types.CodeValidation, "offset must be non-negative", nil)
			return
		}
		offset = parsed
	}

	var eventName *types.EventName
	if raw := query.Get("event"); raw != "" {
		name := types.EventName(raw)
		switch name {
		case types.EventCollateralDeposited, types.EventCollateralWithdrawn,
			types.EventTGHSXMinted, types.EventTGHSXBurned:
			eventName = &name
		default:
			respondError(w, http.StatusBadRequest, types.CodeValidation, "unknown event name", nil)
			return
		}
	}

	txs, err := s.transactions.ListByUser(r.Context(), claims.UserID, eventName, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"limit":        limit,
		"offset":       offset,
	})
}

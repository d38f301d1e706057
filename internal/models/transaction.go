package models

import (
	"time"

	"github.com/tghsx-backend/internal/types"
)

// Transaction mirrors a CollateralVault contract event into the off-chain
// store. Rows are keyed by transaction hash, so replaying a block range is
// idempotent.
type Transaction struct {
	TxHash         string            `json:"txHash"`
	UserID         string            `json:"userId"`
	EventName      types.EventName   `json:"eventName"`
	EventData      map[string]string `json:"eventData"`
	BlockNumber    uint64            `json:"blockNumber"`
	BlockTimestamp time.Time         `json:"blockTimestamp"`
}

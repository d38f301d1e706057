package models

import (
	"time"

	"github.com/tghsx-backend/internal/types"
)

// MintRequest represents a user's request to mint tGHSX, held for admin
// review. Approval only changes the status; the mint itself is a user-signed
// on-chain transaction.
type MintRequest struct {
	ID                string                  `json:"id"`
	UserID            string                  `json:"userId"`
	CollateralAddress string                  `json:"collateralAddress"`
	MintAmount        string                  `json:"mintAmount"` // human-readable decimal string
	Status            types.MintRequestStatus `json:"status"`
	ErrorMessage      *string                 `json:"errorMessage,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

package models

import "time"

// VaultSnapshot is the off-chain mirror of one on-chain user position for a
// (user, collateral) pair. It is a best-effort cache: the chain remains the
// source of truth, and later syncs overwrite earlier data. LastSyncedAt never
// regresses; the repository upsert rejects stale writes.
type VaultSnapshot struct {
	UserID            string    `json:"userId"`
	WalletAddress     string    `json:"walletAddress"`
	CollateralAddress string    `json:"collateralAddress"`
	CollateralAmount  string    `json:"collateralAmount"` // human-readable, token decimals
	MintedAmount      string    `json:"mintedAmount"`     // human-readable, tGHSX 6 decimals
	LastSyncedAt      time.Time `json:"lastSyncedAt"`
}

package models

import "time"

// Profile links a user account to an on-chain wallet. WalletAddress is nil
// until the user links a wallet; a wallet can belong to at most one account.
type Profile struct {
	UserID         string     `json:"userId"`
	WalletAddress  *string    `json:"walletAddress,omitempty"`
	WalletLinkedAt *time.Time `json:"walletLinkedAt,omitempty"`
}

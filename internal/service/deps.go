// Package service implements the application logic between the HTTP API and
// the chain/storage layers.
package service

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/types"
)

// VaultReader is the read-only surface of the CollateralVault proxy.
// Satisfied by contract.VaultProxy.
type VaultReader interface {
	GetAllCollateralTokens(ctx context.Context) ([]common.Address, error)
	GetCollateralConfig(ctx context.Context, token common.Address) (*contract.CollateralConfig, error)
	GetUserPosition(ctx context.Context, user, collateral common.Address) (*contract.UserPosition, error)
	GetVaultStatus(ctx context.Context) (*contract.VaultStatus, error)
	GetAutoMintConfig(ctx context.Context) (*contract.AutoMintConfig, error)
	MinCollateralRatio(ctx context.Context) (*big.Int, error)
	TotalValueLocked(ctx context.Context) (*big.Int, error)
	TokenMetadata(ctx context.Context, token common.Address) (*contract.TokenMetadata, error)
}

// VaultWriter is the admin-signed surface of the CollateralVault proxy.
// Satisfied by contract.AdminTransactor.
type VaultWriter interface {
	EmergencyPause(ctx context.Context) (string, error)
	EmergencyUnpause(ctx context.Context) (string, error)
	UpdatePrice(ctx context.Context, token common.Address, price *big.Int) (string, error)
	ToggleAutoMint(ctx context.Context, enabled bool) (string, error)
	UpdateAutoMintConfig(ctx context.Context, cfg contract.AutoMintConfig) (string, error)
	UpdateCollateralEnabled(ctx context.Context, token common.Address, enabled bool) (string, error)
	Liquidate(ctx context.Context, user, collateral common.Address) (string, error)
}

// UserStore is the slice of storage.UserRepository the services need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ProfileStore is the slice of storage.ProfileRepository the services need.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	LinkWallet(ctx context.Context, userID, wallet string) error
	ListLinked(ctx context.Context) ([]models.Profile, error)
}

// MintRequestStore is the slice of storage.MintRequestRepository the
// services need.
type MintRequestStore interface {
	Create(ctx context.Context, req *models.MintRequest) error
	GetByID(ctx context.Context, id string) (*models.MintRequest, error)
	ListByStatus(ctx context.Context, status types.MintRequestStatus) ([]models.MintRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.MintRequest, error)
	UpdateStatus(ctx context.Context, id string, status types.MintRequestStatus, errorMessage *string) error
}

// SnapshotStore is the slice of storage.SnapshotRepository the services need.
type SnapshotStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.VaultSnapshot, error)
	ListAll(ctx context.Context) ([]models.VaultSnapshot, error)
}

// TransactionStore is the slice of storage.TransactionRepository the
// services need.
type TransactionStore interface {
	ListByUser(ctx context.Context, userID string, eventName *types.EventName, limit, offset int) ([]models.Transaction, error)
}

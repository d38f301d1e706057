package service

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/storage"
	"github.com/tghsx-backend/internal/types"
)

// ratioScale converts a percent into the vault's ratio fixed-point: 150%
// is stored as 150_000_000.
var ratioScale = big.NewInt(1_000_000)

// MintService manages the off-chain mint request workflow. A request is an
// intent record only; approval never moves funds, the user signs the actual
// mint transaction themselves.
type MintService struct {
	vault    VaultReader
	requests MintRequestStore
	profiles ProfileStore
}

// NewMintService creates a new mint service
func NewMintService(vault VaultReader, requests MintRequestStore, profiles ProfileStore) *MintService {
	return &MintService{vault: vault, requests: requests, profiles: profiles}
}

// Submit validates a mint request against the user's live on-chain position
// and records it as pending. The request is rejected when the post-mint
// collateral ratio would fall below the vault's minimum.
func (s *MintService) Submit(ctx context.Context, userID, collateralAddress, mintAmount string) (*models.MintRequest, error) {
	if !common.IsHexAddress(collateralAddress) {
		return nil, types.NewServiceError(types.CodeValidation, "invalid collateral address")
	}

	amount, err := types.ParseUnits(mintAmount, types.TGHSXDecimals)
	if err != nil || amount.Sign() <= 0 {
		return nil, types.NewServiceError(types.CodeValidation, "mint amount must be a positive decimal")
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewServiceError(types.CodeNotFound, "user profile not found")
		}
		return nil, err
	}
	if profile.WalletAddress == nil {
		return nil, types.NewServiceError(types.CodeValidation, "link a wallet address before requesting a mint")
	}

	collateral := common.HexToAddress(collateralAddress)
	cfg, err := s.vault.GetCollateralConfig(ctx, collateral)
	if err != nil {
		return nil, chainError(err)
	}
	if !cfg.Enabled {
		return nil, types.NewServiceError(types.CodeValidation, "collateral is not enabled")
	}

	position, err := s.vault.GetUserPosition(ctx, common.HexToAddress(*profile.WalletAddress), collateral)
	if err != nil {
		return nil, chainError(err)
	}

	minRatio, err := s.vault.MinCollateralRatio(ctx)
	if err != nil {
		return nil, chainError(err)
	}

	if err := checkPostMintRatio(position.CollateralValue, position.MintedAmount, amount, minRatio); err != nil {
		return nil, err
	}

	req := &models.MintRequest{
		UserID:            userID,
		CollateralAddress: collateral.Hex(),
		MintAmount:        types.FormatUnits(amount, types.TGHSXDecimals),
		Status:            types.MintStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// checkPostMintRatio enforces
//
//	collateralValue * 100 * ratioScale / (minted + amount) >= minRatio
//
// collateralValue and debt share tGHSX precision, so their decimals cancel.
func checkPostMintRatio(collateralValue, minted, amount, minRatio *big.Int) error {
	newDebt := new(big.Int).Add(minted, amount)
	if collateralValue.Sign() == 0 {
		return types.NewServiceError(types.CodeValidation, "no collateral deposited for this token")
	}

	projected := new(big.Int).Mul(collateralValue, big.NewInt(100))
	projected.Mul(projected, ratioScale)
	projected.Quo(projected, newDebt)

	if projected.Cmp(minRatio) < 0 {
		return types.NewServiceError(types.CodeValidation, "mint would drop the collateral ratio below the protocol minimum").
			WithDetails(map[string]interface{}{
				"projectedRatio": types.FormatRatioPercent(projected),
				"minimumRatio":   types.FormatRatioPercent(minRatio),
			})
	}
	return nil
}

// Pending returns all requests awaiting review, oldest first.
func (s *MintService) Pending(ctx context.Context) ([]models.MintRequest, error) {
	return s.requests.ListByStatus(ctx, types.MintStatusPending)
}

// ListByUser returns a user's own requests, newest first.
func (s *MintService) ListByUser(ctx context.Context, userID string) ([]models.MintRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}

// Approve marks a pending request approved.
func (s *MintService) Approve(ctx context.Context, requestID string) error {
	return s.decide(ctx, requestID, types.MintStatusApproved, nil)
}

// Decline marks a pending request declined with an optional reason.
func (s *MintService) Decline(ctx context.Context, requestID, reason string) error {
	var msg *string
	if reason != "" {
		msg = &reason
	}
	return s.decide(ctx, requestID, types.MintStatusDeclined, msg)
}

func (s *MintService) decide(ctx context.Context, requestID string, status types.MintRequestStatus, message *string) error {
	if err := s.requests.UpdateStatus(ctx, requestID, status, message); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.NewServiceError(types.CodeNotFound, "no pending mint request with that id")
		}
		return err
	}
	return nil
}

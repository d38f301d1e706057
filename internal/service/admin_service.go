package service

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/types"
)

func isTxReverted(err error) bool     { return errors.Is(err, contract.ErrTxReverted) }
func isTxNotConfirmed(err error) bool { return errors.Is(err, contract.ErrTxNotConfirmed) }

// AdminService exposes the admin-signed contract operations and the global
// vault status reads behind them.
type AdminService struct {
	vault  VaultReader
	writer VaultWriter
}

// NewAdminService creates a new admin service
func NewAdminService(vault VaultReader, writer VaultWriter) *AdminService {
	return &AdminService{vault: vault, writer: writer}
}

// GlobalStatus is the formatted vault-wide state.
type GlobalStatus struct {
	TotalMinted          string `json:"totalMinted"`
	GlobalDailyMinted    string `json:"globalDailyMinted"`
	GlobalDailyRemaining string `json:"globalDailyRemaining"`
	AutoMintEnabled      bool   `json:"autoMintEnabled"`
	Paused               bool   `json:"paused"`
	TotalCollateralTypes int64  `json:"totalCollateralTypes"`
}

// Status returns the vault's global state.
func (s *AdminService) Status(ctx context.Context) (*GlobalStatus, error) {
	status, err := s.vault.GetVaultStatus(ctx)
	if err != nil {
		return nil, chainError(err)
	}
	return &GlobalStatus{
		TotalMinted:          types.FormatUnits(status.TotalMinted, types.TGHSXDecimals),
		GlobalDailyMinted:    types.FormatUnits(status.GlobalDailyMinted, types.TGHSXDecimals),
		GlobalDailyRemaining: types.FormatUnits(status.GlobalDailyRemaining, types.TGHSXDecimals),
		AutoMintEnabled:      status.AutoMintEnabled,
		Paused:               status.Paused,
		TotalCollateralTypes: status.TotalCollateralTypes.Int64(),
	}, nil
}

// AutoMintSettings is the formatted auto-mint configuration.
type AutoMintSettings struct {
	Enabled               bool   `json:"enabled"`
	BaseReward            string `json:"baseReward"`
	BonusMultiplier       string `json:"bonusMultiplier"`
	MinHoldTime           int64  `json:"minHoldTimeSeconds"`
	CollateralRequirement string `json:"collateralRequirement"`
}

// AutoMintConfig returns the current auto-mint parameters.
func (s *AdminService) AutoMintConfig(ctx context.Context) (*AutoMintSettings, error) {
	cfg, err := s.vault.GetAutoMintConfig(ctx)
	if err != nil {
		return nil, chainError(err)
	}
	enabled, err := s.vault.GetVaultStatus(ctx)
	if err != nil {
		return nil, chainError(err)
	}
	return &AutoMintSettings{
		Enabled:               enabled.AutoMintEnabled,
		BaseReward:            types.FormatUnits(cfg.BaseReward, types.TGHSXDecimals),
		BonusMultiplier:       cfg.BonusMultiplier.String(),
		MinHoldTime:           cfg.MinHoldTime.Int64(),
		CollateralRequirement: types.FormatUnits(cfg.CollateralRequirement, types.TGHSXDecimals),
	}, nil
}

// Pause halts the vault.
func (s *AdminService) Pause(ctx context.Context) (string, error) {
	txHash, err := s.writer.EmergencyPause(ctx)
	if err != nil {
		return txHash, txError(err)
	}
	return txHash, nil
}

// Unpause resumes the vault.
func (s *AdminService) Unpause(ctx context.Context) (string, error) {
	txHash, err := s.writer.EmergencyUnpause(ctx)
	if err != nil {
		return txHash, txError(err)
	}
	return txHash, nil
}

// ToggleAutoMint enables or disables auto-mint.
func (s *AdminService) ToggleAutoMint(ctx context.Context, enabled bool) (string, error) {
	txHash, err := s.writer.ToggleAutoMint(ctx, enabled)
	if err != nil {
		return txHash, txError(err)
	}
	return txHash, nil
}

// UpdateAutoMintConfigInput carries the new auto-mint parameters as decimal
// strings.
type UpdateAutoMintConfigInput struct {
	BaseReward            string `json:"baseReward"`
	BonusMultiplier       string `json:"bonusMultiplier"`
	MinHoldTime           int64  `json:"minHoldTimeSeconds"`
	CollateralRequirement string `json:"collateralRequirement"`
}

// UpdateAutoMintConfig rewrites the vault's auto-mint parameters.
func (s *AdminService) UpdateAutoMintConfig(ctx context.Context, input UpdateAutoMintConfigInput) (string, error) {
	baseReward, err := types.ParseUnits(input.BaseReward, types.TGHSXDecimals)
	if err != nil || baseReward.Sign() < 0 {
		return "", types.NewServiceError(types.CodeValidation, "baseReward must be a non-negative decimal")
	}
	collateralReq, err := types.ParseUnits(input.CollateralRequirement, types.TGHSXDecimals)
	if err != nil || collateralReq.Sign() < 0 {
		return "", types.NewServiceError(types.CodeValidation, "collateralRequirement must be a non-negative decimal")
	}
	multiplier, ok := new(big.Int).SetString(input.BonusMultiplier, 10)
	if !ok || multiplier.Sign() < 0 {
		return "", types.NewServiceError(types.CodeValidation, "bonusMultiplier must be a non-negative integer")
	}
	if input.MinHoldTime < 0 {
		return "", types.NewServiceError(types.CodeValidation, "minHoldTimeSeconds must be non-negative")
	}

	txHash, err := s.writer.UpdateAutoMintConfig(ctx, contract.AutoMintConfig{
		BaseReward:            baseReward,
		BonusMultiplier:       multiplier,
		MinHoldTime:           big.NewInt(input.MinHoldTime),
		CollateralRequirement: collateralReq,
	})
	if err != nil {
		return txHash, txError(err)
	}
	return txHash, nil
}

// UpdatePrice pushes a manual collateral price. price is a decimal string in
// the collateral's configured price decimals.
func (s *AdminService) UpdatePrice(ctx context.Context, collateral, price string) (string, error) {
	if !common.IsHexAddress(collateral) {
		return "", types.NewServiceError(types.CodeValidation, "invalid collateral address")
	}
	token := common.HexToAddress(collateral)

	cfg, err := s.vault.GetCollateralConfig(ctx, token)
	if err != nil {
		return "", chainError(err)
	}

	raw, err := types.ParseUnits(price, cfg.PriceDecimals)
	if err != nil || raw.Sign() <= 0 {
		return "", types.NewServiceError(types.CodeValidation, "price must be a positive decimal")
	}

	txHash, err := s.writer.UpdatePrice(ctx, token, raw)
	if err != nil {
		return txHash, txError(err)
	}
	return txHash, nil
}

// SetCollateralEnabled flips a collateral's enabled flag.
func (s *AdminService) SetCollateralEnabled(ctx context.Context, collateral string, enabled bool) (string, error) {
	if !common.IsHexAddress(collateral) {
		return "", types.NewServiceError(types.CodeValidation, "invalid collateral address")
	}
	txHash, err := s.writer.UpdateCollateralEnabled(ctx, common.HexToAddress(collateral), enabled)
	if err != nil {
		return txHash, txError(err)
	}
	return txHash, nil
}

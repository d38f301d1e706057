package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/storage"
	"github.com/tghsx-backend/internal/types"
)

// VaultService exposes user-facing vault state: positions, wallet linking
// and the collateral catalogue.
type VaultService struct {
	vault     VaultReader
	profiles  ProfileStore
	snapshots SnapshotStore
	blacklist map[string]struct{}
}

// NewVaultService creates a new vault service. systemAddresses are contract
// and burn addresses that must never be linked as a user wallet.
func NewVaultService(vault VaultReader, profiles ProfileStore, snapshots SnapshotStore, systemAddresses []string) *VaultService {
	blacklist := map[string]struct{}{
		zeroAddress: {},
		deadAddress: {},
	}
	for _, addr := range systemAddresses {
		if common.IsHexAddress(addr) {
			blacklist[strings.ToLower(common.HexToAddress(addr).Hex())] = struct{}{}
		}
	}
	return &VaultService{
		vault:     vault,
		profiles:  profiles,
		snapshots: snapshots,
		blacklist: blacklist,
	}
}

const (
	zeroAddress = "0x0000000000000000000000000000000000000000"
	deadAddress = "0x000000000000000000000000000000000000dead"
)

// Position is one (collateral, user) pair formatted for API responses.
type Position struct {
	CollateralAddress string `json:"collateralAddress"`
	CollateralAmount  string `json:"collateralAmount"`
	MintedAmount      string `json:"mintedAmount"`
	CollateralValue   string `json:"collateralValue"`
	CollateralRatio   string `json:"collateralRatio"`
	IsLiquidatable    bool   `json:"isLiquidatable"`
	LastUpdateTime    int64  `json:"lastUpdateTime"`
}

// StatusSummary is the response of the vault status endpoint.
type StatusSummary struct {
	WalletLinked  bool       `json:"walletLinked"`
	WalletAddress string     `json:"walletAddress,omitempty"`
	Positions     []Position `json:"positions"`
	TotalMinted   string     `json:"protocolTotalMinted"`
	Paused        bool       `json:"protocolPaused"`
}

// Status returns a user's positions across every collateral, read live from
// the chain. A user with no linked wallet gets an empty zero-state summary.
func (s *VaultService) Status(ctx context.Context, userID string) (*StatusSummary, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewServiceError(types.CodeNotFound, "user profile not found")
		}
		return nil, err
	}

	summary := &StatusSummary{Positions: []Position{}, TotalMinted: "0"}
	if profile.WalletAddress == nil {
		return summary, nil
	}
	summary.WalletLinked = true
	summary.WalletAddress = *profile.WalletAddress

	vaultStatus, err := s.vault.GetVaultStatus(ctx)
	if err != nil {
		return nil, chainError(err)
	}
	summary.TotalMinted = types.FormatUnits(vaultStatus.TotalMinted, types.TGHSXDecimals)
	summary.Paused = vaultStatus.Paused

	tokens, err := s.vault.GetAllCollateralTokens(ctx)
	if err != nil {
		return nil, chainError(err)
	}

	wallet := common.HexToAddress(*profile.WalletAddress)
	log := logging.FromContext(ctx).WithField("user_id", userID)
	for _, token := range tokens {
		position, err := s.vault.GetUserPosition(ctx, wallet, token)
		if err != nil {
			// one broken collateral must not hide the rest
			log.WithError(err).WithField("collateral", token.Hex()).Warn("Skipping unreadable position")
			continue
		}
		if position.CollateralAmount.Sign() == 0 && position.MintedAmount.Sign() == 0 {
			continue
		}

		tokenDecimals := uint8(types.TGHSXDecimals)
		if cfg, err := s.vault.GetCollateralConfig(ctx, token); err == nil {
			tokenDecimals = cfg.Decimals
		} else {
			log.WithError(err).WithField("collateral", token.Hex()).Warn("Collateral config unavailable, assuming default decimals")
		}
		summary.Positions = append(summary.Positions, formatPosition(token, position, tokenDecimals))
	}

	return summary, nil
}

// formatPosition renders amounts human-readable: collateral in the token's
// own decimals, debt and value in tGHSX precision.
func formatPosition(token common.Address, p *contract.UserPosition, tokenDecimals uint8) Position {
	return Position{
		CollateralAddress: token.Hex(),
		CollateralAmount:  types.FormatUnits(p.CollateralAmount, tokenDecimals),
		MintedAmount:      types.FormatUnits(p.MintedAmount, types.TGHSXDecimals),
		CollateralValue:   types.FormatUnits(p.CollateralValue, types.TGHSXDecimals),
		CollateralRatio:   types.FormatRatioPercent(p.CollateralRatio),
		IsLiquidatable:    p.IsLiquidatable,
		LastUpdateTime:    p.LastUpdateTime.Int64(),
	}
}

// SaveWalletAddress links a wallet to the user's profile. System addresses
// are rejected, and a wallet already linked to another account conflicts.
func (s *VaultService) SaveWalletAddress(ctx context.Context, userID, address string) error {
	if !common.IsHexAddress(address) {
		return types.NewServiceError(types.CodeValidation, "invalid wallet address")
	}

	normalized := common.HexToAddress(address).Hex()
	if _, banned := s.blacklist[strings.ToLower(normalized)]; banned {
		return types.NewServiceError(types.CodeValidation, "address is a reserved system address")
	}

	if err := s.profiles.LinkWallet(ctx, userID, normalized); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return types.NewServiceError(types.CodeConflict, "wallet is already linked to another account")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return types.NewServiceError(types.CodeNotFound, "user profile not found")
		}
		return err
	}
	return nil
}

// Collateral is one enabled collateral token with its ERC-20 metadata.
type Collateral struct {
	Address         string `json:"address"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Decimals        uint8  `json:"decimals"`
	Price           string `json:"price"`
	PriceDecimals   uint8  `json:"priceDecimals"`
	LastPriceUpdate int64  `json:"lastPriceUpdate"`
}

// ListCollaterals returns the enabled collateral tokens. Metadata failures
// degrade to an entry without name/symbol rather than hiding the token.
func (s *VaultService) ListCollaterals(ctx context.Context) ([]Collateral, error) {
	tokens, err := s.vault.GetAllCollateralTokens(ctx)
	if err != nil {
		return nil, chainError(err)
	}

	log := logging.FromContext(ctx)
	collaterals := make([]Collateral, 0, len(tokens))
	for _, token := range tokens {
		cfg, err := s.vault.GetCollateralConfig(ctx, token)
		if err != nil {
			return nil, chainError(err)
		}
		if !cfg.Enabled {
			continue
		}

		entry := Collateral{
			Address:         token.Hex(),
			Decimals:        cfg.Decimals,
			Price:           types.FormatUnits(cfg.Price, cfg.PriceDecimals),
			PriceDecimals:   cfg.PriceDecimals,
			LastPriceUpdate: cfg.LastPriceUpdate.Int64(),
		}
		if meta, err := s.vault.TokenMetadata(ctx, token); err == nil {
			entry.Name = meta.Name
			entry.Symbol = meta.Symbol
		} else {
			log.WithError(err).WithField("collateral", token.Hex()).Warn("Collateral metadata unavailable")
		}
		collaterals = append(collaterals, entry)
	}

	return collaterals, nil
}

// chainError maps proxy failures onto the service error taxonomy.
func chainError(err error) error {
	if contract.IsStalePrice(err) {
		return types.NewServiceError(types.CodeStalePrice, "on-chain price data is stale; try again after the next price update")
	}
	return types.NewServiceError(types.CodeChainUnavailable, "blockchain read failed").
		WithDetails(map[string]interface{}{"cause": err.Error()})
}

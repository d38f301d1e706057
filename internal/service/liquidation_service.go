package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/types"
)

// LiquidationService scans positions for liquidation risk and executes
// admin-signed liquidations.
type LiquidationService struct {
	vault    VaultReader
	writer   VaultWriter
	profiles ProfileStore
}

// NewLiquidationService creates a new liquidation service
func NewLiquidationService(vault VaultReader, writer VaultWriter, profiles ProfileStore) *LiquidationService {
	return &LiquidationService{vault: vault, writer: writer, profiles: profiles}
}

// AtRiskPosition is a liquidatable position found by the scan.
type AtRiskPosition struct {
	UserID            string `json:"userId"`
	WalletAddress     string `json:"walletAddress"`
	CollateralAddress string `json:"collateralAddress"`
	CollateralAmount  string `json:"collateralAmount"`
	MintedAmount      string `json:"mintedAmount"`
	CollateralRatio   string `json:"collateralRatio"`
}

// AtRisk walks every linked wallet across every collateral and returns the
// positions the vault reports as liquidatable. Unreadable pairs are skipped,
// so one failing read never hides the remaining risk.
func (s *LiquidationService) AtRisk(ctx context.Context) ([]AtRiskPosition, error) {
	profiles, err := s.profiles.ListLinked(ctx)
	if err != nil {
		return nil, err
	}

	tokens, err := s.vault.GetAllCollateralTokens(ctx)
	if err != nil {
		return nil, chainError(err)
	}

	log := logging.FromContext(ctx)
	atRisk := []AtRiskPosition{}
	for _, profile := range profiles {
		wallet := common.HexToAddress(*profile.WalletAddress)
		for _, token := range tokens {
			position, err := s.vault.GetUserPosition(ctx, wallet, token)
			if err != nil {
				log.WithError(err).WithFields(map[string]interface{}{
					"wallet":     wallet.Hex(),
					"collateral": token.Hex(),
				}).Warn("Skipping unreadable position in liquidation scan")
				continue
			}
			if !position.IsLiquidatable {
				continue
			}
			atRisk = append(atRisk, AtRiskPosition{
				UserID:            profile.UserID,
				WalletAddress:     wallet.Hex(),
				CollateralAddress: token.Hex(),
				CollateralAmount:  types.FormatUnits(position.CollateralAmount, tokenDecimalsOrDefault(ctx, s.vault, token)),
				MintedAmount:      types.FormatUnits(position.MintedAmount, types.TGHSXDecimals),
				CollateralRatio:   types.FormatRatioPercent(position.CollateralRatio),
			})
		}
	}
	return atRisk, nil
}

// Liquidate submits an admin-signed liquidation for one position and returns
// the transaction hash.
func (s *LiquidationService) Liquidate(ctx context.Context, wallet, collateral string) (string, error) {
	if !common.IsHexAddress(wallet) || !common.IsHexAddress(collateral) {
		return "", types.NewServiceError(types.CodeValidation, "invalid wallet or collateral address")
	}

	txHash, err := s.writer.Liquidate(ctx, common.HexToAddress(wallet), common.HexToAddress(collateral))
	if err != nil {
		return txHash, txError(err)
	}
	return txHash, nil
}

// tokenDecimalsOrDefault resolves a collateral's decimals, assuming tGHSX
// precision when the config read fails mid-scan.
func tokenDecimalsOrDefault(ctx context.Context, vault VaultReader, token common.Address) uint8 {
	cfg, err := vault.GetCollateralConfig(ctx, token)
	if err != nil {
		return types.TGHSXDecimals
	}
	return cfg.Decimals
}

// txError maps transactor failures onto the service error taxonomy.
func txError(err error) error {
	switch {
	case contract.IsStalePrice(err):
		return types.NewServiceError(types.CodeStalePrice, "on-chain price data is stale; try again after the next price update")
	case isTxReverted(err):
		return types.NewServiceError(types.CodeTxReverted, "transaction reverted on-chain").
			WithDetails(map[string]interface{}{"cause": err.Error()})
	case isTxNotConfirmed(err):
		return types.NewServiceError(types.CodeTxTimeout, "transaction was not confirmed in time; check the chain before retrying").
			WithDetails(map[string]interface{}{"cause": err.Error()})
	default:
		return types.NewServiceError(types.CodeChainUnavailable, "blockchain write failed").
			WithDetails(map[string]interface{}{"cause": err.Error()})
	}
}

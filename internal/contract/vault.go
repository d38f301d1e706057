package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// CollateralConfig mirrors the vault's per-token configuration.
type CollateralConfig struct {
	Enabled         bool
	Price           *big.Int
	PriceDecimals   uint8
	LastPriceUpdate *big.Int
	Decimals        uint8
}

// UserPosition mirrors the vault's view of one (user, collateral) pair. A
// pair with no activity comes back with all-zero amounts; the zero value is
// meaningful and is not an error.
type UserPosition struct {
	CollateralAmount *big.Int
	MintedAmount     *big.Int
	CollateralValue  *big.Int
	CollateralRatio  *big.Int
	IsLiquidatable   bool
	LastUpdateTime   *big.Int
}

// VaultStatus mirrors the vault's global state summary.
type VaultStatus struct {
	TotalMinted          *big.Int
	GlobalDailyMinted    *big.Int
	GlobalDailyRemaining *big.Int
	AutoMintEnabled      bool
	Paused               bool
	TotalCollateralTypes *big.Int
}

// AutoMintConfig mirrors the vault's auto-mint parameters.
type AutoMintConfig struct {
	BaseReward            *big.Int
	BonusMultiplier       *big.Int
	MinHoldTime           *big.Int
	CollateralRequirement *big.Int
}

// TokenMetadata holds the ERC-20 descriptive fields of a collateral token.
type TokenMetadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// VaultProxy performs read-only calls against the CollateralVault contract.
// All numeric results stay as *big.Int; formatting for API responses is the
// caller's concern.
type VaultProxy struct {
	provider    *RPCProvider
	address     common.Address
	callTimeout time.Duration
}

func NewVaultProxy(provider *RPCProvider, address common.Address, callTimeout time.Duration) *VaultProxy {
	return &VaultProxy{
		provider:    provider,
		address:     address,
		callTimeout: callTimeout,
	}
}

// Address returns the vault contract address.
func (v *VaultProxy) Address() common.Address {
	return v.address
}

func (v *VaultProxy) GetAllCollateralTokens(ctx context.Context) ([]common.Address, error) {
	out, err := v.call(ctx, "getAllCollateralTokens")
	if err != nil {
		return nil, err
	}
	tokens, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("getAllCollateralTokens: unexpected return type %T", out[0])
	}
	return tokens, nil
}

func (v *VaultProxy) GetCollateralConfig(ctx context.Context, token common.Address) (*CollateralConfig, error) {
	out, err := v.call(ctx, "collateralConfigs", token)
	if err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("collateralConfigs: expected 5 values, got %d", len(out))
	}
	return &CollateralConfig{
		Enabled:         out[0].(bool),
		Price:           out[1].(*big.Int),
		PriceDecimals:   out[2].(uint8),
		LastPriceUpdate: out[3].(*big.Int),
		Decimals:        out[4].(uint8),
	}, nil
}

func (v *VaultProxy) GetUserPosition(ctx context.Context, user, collateral common.Address) (*UserPosition, error) {
	out, err := v.call(ctx, "getUserPosition", user, collateral)
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("getUserPosition: expected 6 values, got %d", len(out))
	}
	return &UserPosition{
		CollateralAmount: out[0].(*big.Int),
		MintedAmount:     out[1].(*big.Int),
		CollateralValue:  out[2].(*big.Int),
		CollateralRatio:  out[3].(*big.Int),
		IsLiquidatable:   out[4].(bool),
		LastUpdateTime:   out[5].(*big.Int),
	}, nil
}

func (v *VaultProxy) GetVaultStatus(ctx context.Context) (*VaultStatus, error) {
	out, err := v.call(ctx, "getVaultStatus")
	if err != nil {
		return nil, err
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("getVaultStatus: expected 6 values, got %d", len(out))
	}
	return &VaultStatus{
		TotalMinted:          out[0].(*big.Int),
		GlobalDailyMinted:    out[1].(*big.Int),
		GlobalDailyRemaining: out[2].(*big.Int),
		AutoMintEnabled:      out[3].(bool),
		Paused:               out[4].(bool),
		TotalCollateralTypes: out[5].(*big.Int),
	}, nil
}

func (v *VaultProxy) GetAutoMintConfig(ctx context.Context) (*AutoMintConfig, error) {
	out, err := v.call(ctx, "autoMintConfig")
	if err != nil {
		return nil, err
	}
	if len(out) != 4 {
		return nil, fmt.Errorf("autoMintConfig: expected 4 values, got %d", len(out))
	}
	return &AutoMintConfig{
		BaseReward:            out[0].(*big.Int),
		BonusMultiplier:       out[1].(*big.Int),
		MinHoldTime:           out[2].(*big.Int),
		CollateralRequirement: out[3].(*big.Int),
	}, nil
}

func (v *VaultProxy) AutoMintEnabled(ctx context.Context) (bool, error) {
	out, err := v.call(ctx, "autoMintEnabled")
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (v *VaultProxy) MinCollateralRatio(ctx context.Context) (*big.Int, error) {
	out, err := v.call(ctx, "MIN_COLLATERAL_RATIO")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (v *VaultProxy) TotalValueLocked(ctx context.Context) (*big.Int, error) {
	out, err := v.call(ctx, "totalValueLocked")
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// TokenMetadata reads the ERC-20 name, symbol and decimals of a collateral
// token. Tokens with non-standard metadata fail here rather than being
// guessed at.
func (v *VaultProxy) TokenMetadata(ctx context.Context, token common.Address) (*TokenMetadata, error) {
	meta := &TokenMetadata{}

	out, err := v.callAt(ctx, token, erc20ABI, "name")
	if err != nil {
		return nil, err
	}
	meta.Name = out[0].(string)

	out, err = v.callAt(ctx, token, erc20ABI, "symbol")
	if err != nil {
		return nil, err
	}
	meta.Symbol = out[0].(string)

	out, err = v.callAt(ctx, token, erc20ABI, "decimals")
	if err != nil {
		return nil, err
	}
	meta.Decimals = out[0].(uint8)

	return meta, nil
}

func (v *VaultProxy) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	return v.callAt(ctx, v.address, vaultABI, method, args...)
}

func (v *VaultProxy) callAt(ctx context.Context, to common.Address, contractABI abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, v.callTimeout)
	defer cancel()

	var raw []byte
	err = v.provider.Do(callCtx, func(client *ethclient.Client) error {
		var callErr error
		raw, callErr = client.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
		return callErr
	})
	if err != nil {
		return nil, wrapCallError(method, err)
	}

	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return out, nil
}

package contract

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tghsx-backend/internal/logging"
)

const receiptPollInterval = 3 * time.Second

// AdminTransactor signs and submits state-changing vault transactions with
// the operator key. Every submission waits for the receipt so callers learn
// whether the transaction actually took effect.
type AdminTransactor struct {
	provider       *RPCProvider
	vault          common.Address
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	confirmTimeout time.Duration
}

func NewAdminTransactor(provider *RPCProvider, vault common.Address, privateKeyHex string, chainID int64, confirmTimeout time.Duration) (*AdminTransactor, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid admin private key: %w", err)
	}

	return &AdminTransactor{
		provider:       provider,
		vault:          vault,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        big.NewInt(chainID),
		confirmTimeout: confirmTimeout,
	}, nil
}

// OperatorAddress returns the address derived from the admin key.
func (t *AdminTransactor) OperatorAddress() common.Address {
	return t.from
}

func (t *AdminTransactor) EmergencyPause(ctx context.Context) (string, error) {
	return t.send(ctx, "emergencyPause")
}

func (t *AdminTransactor) EmergencyUnpause(ctx context.Context) (string, error) {
	return t.send(ctx, "emergencyUnpause")
}

func (t *AdminTransactor) UpdatePrice(ctx context.Context, token common.Address, price *big.Int) (string, error) {
	return t.send(ctx, "updatePrice", token, price)
}

func (t *AdminTransactor) ToggleAutoMint(ctx context.Context, enabled bool) (string, error) {
	return t.send(ctx, "toggleAutoMint", enabled)
}

func (t *AdminTransactor) UpdateAutoMintConfig(ctx context.Context, cfg AutoMintConfig) (string, error) {
	return t.send(ctx, "updateAutoMintConfig", cfg.BaseReward, cfg.BonusMultiplier, cfg.MinHoldTime, cfg.CollateralRequirement)
}

func (t *AdminTransactor) UpdateCollateralEnabled(ctx context.Context, token common.Address, enabled bool) (string, error) {
	return t.send(ctx, "updateCollateralEnabled", token, enabled)
}

func (t *AdminTransactor) Liquidate(ctx context.Context, user, collateral common.Address) (string, error) {
	return t.send(ctx, "liquidate", user, collateral)
}

// send packs, signs, submits and confirms one vault transaction, returning
// the transaction hash.
func (t *AdminTransactor) send(ctx context.Context, method string, args ...interface{}) (string, error) {
	data, err := vaultABI.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s transaction: %w", method, err)
	}

	log := logging.FromContext(ctx).WithField("method", method)

	var signed *types.Transaction
	err = t.provider.Do(ctx, func(client *ethclient.Client) error {
		nonce, err := client.PendingNonceAt(ctx, t.from)
		if err != nil {
			return fmt.Errorf("failed to fetch nonce: %w", err)
		}

		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch gas price: %w", err)
		}

		gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
			From: t.from,
			To:   &t.vault,
			Data: data,
		})
		if err != nil {
			return wrapCallError(method, err)
		}
		// 20% headroom over the estimate
		gasLimit = gasLimit * 120 / 100

		tx := types.NewTransaction(nonce, t.vault, big.NewInt(0), gasLimit, gasPrice, data)
		signed, err = types.SignTx(tx, types.NewEIP155Signer(t.chainID), t.key)
		if err != nil {
			return fmt.Errorf("failed to sign transaction: %w", err)
		}

		return client.SendTransaction(ctx, signed)
	})
	if err != nil {
		return "", err
	}

	txHash := signed.Hash()
	log.WithField("tx_hash", txHash.Hex()).Info("Transaction submitted, waiting for confirmation")

	if err := t.waitConfirmed(ctx, txHash); err != nil {
		return txHash.Hex(), err
	}

	log.WithField("tx_hash", txHash.Hex()).Info("Transaction confirmed")
	return txHash.Hex(), nil
}

// waitConfirmed polls for the receipt until the confirmation window elapses.
func (t *AdminTransactor) waitConfirmed(ctx context.Context, txHash common.Hash) error {
	waitCtx, cancel := context.WithTimeout(ctx, t.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		var receipt *types.Receipt
		err := t.provider.Do(waitCtx, func(client *ethclient.Client) error {
			var pollErr error
			receipt, pollErr = client.TransactionReceipt(waitCtx, txHash)
			return pollErr
		})
		if err == nil && receipt != nil {
			if receipt.Status == types.ReceiptStatusFailed {
				return fmt.Errorf("%w: %s", ErrTxReverted, txHash.Hex())
			}
			return nil
		}

		select {
		case <-waitCtx.Done():
			return fmt.Errorf("%w: %s", ErrTxNotConfirmed, txHash.Hex())
		case <-ticker.C:
		}
	}
}

// Package worker hosts the background loops: the vault position sync and
// the on-chain event listener.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/types"
)

// Clock abstracts time for the worker loops so tests can drive cycles
// without real sleeps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// PositionReader is the slice of the vault proxy the sync worker needs.
type PositionReader interface {
	GetAllCollateralTokens(ctx context.Context) ([]common.Address, error)
	GetCollateralConfig(ctx context.Context, token common.Address) (*contract.CollateralConfig, error)
	GetUserPosition(ctx context.Context, user, collateral common.Address) (*contract.UserPosition, error)
}

// ProfileSource lists the wallets to sync.
type ProfileSource interface {
	ListLinked(ctx context.Context) ([]models.Profile, error)
}

// SnapshotSink persists synced positions.
type SnapshotSink interface {
	Upsert(ctx context.Context, snap *models.VaultSnapshot) error
}

// VaultSyncWorker mirrors on-chain positions into the off-chain snapshot
// table: every linked wallet crossed with every collateral token, once per
// interval. The chain stays authoritative; the mirror is best-effort.
type VaultSyncWorker struct {
	vault     PositionReader
	profiles  ProfileSource
	snapshots SnapshotSink
	interval  time.Duration
	backoff   time.Duration
	clock     Clock

	mu            sync.RWMutex
	running       bool
	lastCycleAt   time.Time
	lastCycleErr  string
	cyclesRun     uint64
	pairsSynced   int
	pairsFailed   int

	stopCh chan struct{}
	doneCh chan struct{}
}

// VaultSyncConfig holds configuration for the sync worker
type VaultSyncConfig struct {
	Vault          PositionReader
	Profiles       ProfileSource
	Snapshots      SnapshotSink
	Interval       time.Duration // default 1 hour
	FailureBackoff time.Duration // default 10 seconds
	Clock          Clock         // default wall clock
}

// NewVaultSyncWorker creates a new sync worker
func NewVaultSyncWorker(cfg *VaultSyncConfig) (*VaultSyncWorker, error) {
	if cfg.Vault == nil {
		return nil, fmt.Errorf("vault reader cannot be nil")
	}
	if cfg.Profiles == nil {
		return nil, fmt.Errorf("profile source cannot be nil")
	}
	if cfg.Snapshots == nil {
		return nil, fmt.Errorf("snapshot sink cannot be nil")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	backoff := cfg.FailureBackoff
	if backoff <= 0 {
		backoff = 10 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &VaultSyncWorker{
		vault:     cfg.Vault,
		profiles:  cfg.Profiles,
		snapshots: cfg.Snapshots,
		interval:  interval,
		backoff:   backoff,
		clock:     clock,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}, nil
}

// Start launches the sync loop in a goroutine.
func (w *VaultSyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("vault sync worker is already running")
	}
	w.running = true
	w.mu.Unlock()

	logging.FromContext(ctx).WithField("interval", w.interval.String()).Info("Starting vault sync worker")
	go w.loop(ctx)
	return nil
}

// Stop signals the loop and waits for it to exit. Cancellation lands at the
// sleep boundary; an in-flight cycle completes first.
func (w *VaultSyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("vault sync worker is not running")
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	return nil
}

func (w *VaultSyncWorker) loop(ctx context.Context) {
	defer close(w.doneCh)

	for {
		sleep := w.interval
		if err := w.RunCycle(ctx); err != nil {
			logging.FromContext(ctx).WithError(err).Error("Vault sync cycle failed")
			sleep = w.backoff
		}

		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-w.clock.After(sleep):
		}
	}
}

// RunCycle executes one full sync pass. Per-pair failures are logged and
// skipped; only a wholesale inability to list profiles or collaterals is a
// cycle-level error (which the loop answers with the short backoff).
func (w *VaultSyncWorker) RunCycle(ctx context.Context) error {
	log := logging.FromContext(ctx)
	start := w.clock.Now()

	profiles, err := w.profiles.ListLinked(ctx)
	if err != nil {
		w.recordCycle(start, 0, 0, err)
		return fmt.Errorf("failed to list linked profiles: %w", err)
	}
	if len(profiles) == 0 {
		w.recordCycle(start, 0, 0, nil)
		return nil
	}

	tokens, err := w.vault.GetAllCollateralTokens(ctx)
	if err != nil {
		w.recordCycle(start, 0, 0, err)
		return fmt.Errorf("failed to list collateral tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Warn("No collateral tokens configured, skipping sync cycle")
		w.recordCycle(start, 0, 0, nil)
		return nil
	}

	decimals := w.collateralDecimals(ctx, tokens)

	synced, failed := 0, 0
	for _, profile := range profiles {
		wallet := common.HexToAddress(*profile.WalletAddress)
		for _, token := range tokens {
			if err := w.syncPair(ctx, profile.UserID, wallet, token, decimals[token]); err != nil {
				failed++
				log.WithError(err).WithFields(map[string]interface{}{
					"user_id":    profile.UserID,
					"wallet":     wallet.Hex(),
					"collateral": token.Hex(),
				}).Warn("Failed to sync position, continuing")
				continue
			}
			synced++
		}
	}

	w.recordCycle(start, synced, failed, nil)
	log.WithFields(map[string]interface{}{
		"wallets":     len(profiles),
		"collaterals": len(tokens),
		"synced":      synced,
		"failed":      failed,
		"duration":    w.clock.Now().Sub(start).String(),
	}).Info("Vault sync cycle complete")
	return nil
}

// collateralDecimals resolves each token's decimals once per cycle. A failed
// config read falls back to tGHSX precision for that token.
func (w *VaultSyncWorker) collateralDecimals(ctx context.Context, tokens []common.Address) map[common.Address]uint8 {
	decimals := make(map[common.Address]uint8, len(tokens))
	for _, token := range tokens {
		cfg, err := w.vault.GetCollateralConfig(ctx, token)
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithField("collateral", token.Hex()).
				Warn("Collateral config unavailable, assuming default decimals")
			decimals[token] = types.TGHSXDecimals
			continue
		}
		decimals[token] = cfg.Decimals
	}
	return decimals
}

func (w *VaultSyncWorker) syncPair(ctx context.Context, userID string, wallet, token common.Address, tokenDecimals uint8) error {
	position, err := w.vault.GetUserPosition(ctx, wallet, token)
	if err != nil {
		return fmt.Errorf("position read failed: %w", err)
	}

	snap := &models.VaultSnapshot{
		UserID:            userID,
		WalletAddress:     wallet.Hex(),
		CollateralAddress: token.Hex(),
		CollateralAmount:  types.FormatUnits(position.CollateralAmount, tokenDecimals),
		MintedAmount:      types.FormatUnits(position.MintedAmount, types.TGHSXDecimals),
		LastSyncedAt:      w.clock.Now().UTC(),
	}
	if err := w.snapshots.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("snapshot write failed: %w", err)
	}
	return nil
}

func (w *VaultSyncWorker) recordCycle(start time.Time, synced, failed int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cyclesRun++
	w.lastCycleAt = start
	w.pairsSynced = synced
	w.pairsFailed = failed
	w.lastCycleErr = ""
	if err != nil {
		w.lastCycleErr = err.Error()
	}
}

// SyncStatus is a point-in-time view of the worker.
type SyncStatus struct {
	Running      bool      `json:"running"`
	LastCycleAt  time.Time `json:"lastCycleAt"`
	CyclesRun    uint64    `json:"cyclesRun"`
	PairsSynced  int       `json:"pairsSynced"`
	PairsFailed  int       `json:"pairsFailed"`
	LastCycleErr string    `json:"lastCycleError,omitempty"`
}

// GetStatus returns a snapshot of the worker state.
func (w *VaultSyncWorker) GetStatus() SyncStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return SyncStatus{
		Running:      w.running,
		LastCycleAt:  w.lastCycleAt,
		CyclesRun:    w.cyclesRun,
		PairsSynced:  w.pairsSynced,
		PairsFailed:  w.pairsFailed,
		LastCycleErr: w.lastCycleErr,
	}
}

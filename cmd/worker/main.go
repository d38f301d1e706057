// Package main provides the background worker entry point for the tGHSX
// vault backend. It runs the vault position sync loop and the on-chain
// event listener without serving HTTP traffic.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/config"
	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/storage"
	"github.com/tghsx-backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Chain.RPCPrimary == "" || cfg.Chain.VaultAddress == "" {
		log.Fatal("RPC_PRIMARY and COLLATERAL_VAULT_ADDRESS are required")
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger := logging.Global()
	logger.Info("Worker starting")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	provider, err := contract.NewRPCProvider(cfg.Chain.RPCPrimary, cfg.Chain.RPCSecondary)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to RPC endpoint")
	}
	defer provider.Close()

	vaultAddress := common.HexToAddress(cfg.Chain.VaultAddress)
	vault := contract.NewVaultProxy(provider, vaultAddress, cfg.Chain.CallTimeout)
	events := contract.NewEventFilter(provider, vaultAddress)

	profileRepo := storage.NewProfileRepository(postgres)
	snapshotRepo := storage.NewSnapshotRepository(postgres)
	transactionRepo := storage.NewTransactionRepository(postgres)
	progressRepo := storage.NewProgressRepository(postgres)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker, err := worker.NewVaultSyncWorker(&worker.VaultSyncConfig{
		Vault:          vault,
		Profiles:       profileRepo,
		Snapshots:      snapshotRepo,
		Interval:       cfg.Sync.Interval,
		FailureBackoff: cfg.Sync.FailureBackoff,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create sync worker")
	}
	if err := syncWorker.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start sync worker")
	}

	eventListener, err := worker.NewEventListener(&worker.EventListenerConfig{
		Source:       events,
		Profiles:     profileRepo,
		Transactions: transactionRepo,
		Progress:     progressRepo,
		PollInterval: cfg.Sync.EventPollInterval,
		MaxBlocks:    cfg.Sync.MaxBlocksPerPoll,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create event listener")
	}
	if err := eventListener.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start event listener")
	}

	logger.WithFields(map[string]interface{}{
		"syncInterval": cfg.Sync.Interval.String(),
		"pollInterval": cfg.Sync.EventPollInterval.String(),
	}).Info("Workers running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down workers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := eventListener.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Event listener did not stop cleanly")
	}
	if err := syncWorker.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Sync worker did not stop cleanly")
	}

	logger.Info("Workers exited")
}

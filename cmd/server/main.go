// Package main provides the API server entry point for the tGHSX vault backend.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/api"
	"github.com/tghsx-backend/internal/auth"
	"github.com/tghsx-backend/internal/config"
	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/oracle"
	"github.com/tghsx-backend/internal/service"
	"github.com/tghsx-backend/internal/storage"
	"github.com/tghsx-backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger := logging.Global()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	// Database connections
	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	logger.Info("Database connections established")

	// Chain connectivity
	provider, err := contract.NewRPCProvider(cfg.Chain.RPCPrimary, cfg.Chain.RPCSecondary)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to RPC endpoint")
	}
	defer provider.Close()

	vaultAddress := common.HexToAddress(cfg.Chain.VaultAddress)
	vault := contract.NewVaultProxy(provider, vaultAddress, cfg.Chain.CallTimeout)
	feeds := contract.NewFeedReader(provider)
	events := contract.NewEventFilter(provider, vaultAddress)

	if cfg.Chain.AdminPrivateKey == "" {
		logger.Fatal("ADMIN_PRIVATE_KEY is required: admin routes submit vault transactions")
	}
	transactor, err := contract.NewAdminTransactor(
		provider, vaultAddress, cfg.Chain.AdminPrivateKey, cfg.Chain.ChainID, cfg.Chain.ConfirmTimeout)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize admin transactor")
	}
	logger.WithField("operator", transactor.OperatorAddress().Hex()).Info("Admin transactor ready")

	// Repositories
	userRepo := storage.NewUserRepository(postgres)
	profileRepo := storage.NewProfileRepository(postgres)
	mintRequestRepo := storage.NewMintRequestRepository(postgres)
	transactionRepo := storage.NewTransactionRepository(postgres)
	snapshotRepo := storage.NewSnapshotRepository(postgres)
	progressRepo := storage.NewProgressRepository(postgres)

	// Services
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	priceService := oracle.NewPriceService(feeds, redis, oracle.Config{
		EthUsdFeed: common.HexToAddress(cfg.Chain.EthUsdFeed),
		UsdGhsFeed: common.HexToAddress(cfg.Chain.UsdGhsFeed),
		CacheTTL:   cfg.Oracle.CacheTTL,
		MaxFeedAge: cfg.Oracle.MaxFeedAge,
		Retries:    cfg.Oracle.FetchRetries,
	})

	systemAddresses := []string{cfg.Chain.VaultAddress, cfg.Chain.TokenAddress}
	authService := service.NewAuthService(userRepo, issuer, cfg.Auth.AdminUserID)
	vaultService := service.NewVaultService(vault, profileRepo, snapshotRepo, systemAddresses)
	mintService := service.NewMintService(vault, mintRequestRepo, profileRepo)
	adminService := service.NewAdminService(vault, transactor)
	liquidationService := service.NewLiquidationService(vault, transactor, profileRepo)
	protocolService := service.NewProtocolService(vault, snapshotRepo, mintRequestRepo)

	logger.Info("Services initialized")

	// Background workers
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

	// HTTP server
	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, &api.ServerDeps{
		Auth:         authService,
		Vault:        vaultService,
		Mint:         mintService,
		Admin:        adminService,
		Liquidations: liquidationService,
		Protocol:     protocolService,
		Oracle:       priceService,
		Transactions: transactionRepo,
		TokenParser:  issuer,
		SyncStatus:   syncWorker,
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := eventListener.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Event listener did not stop cleanly")
	}
	if err := syncWorker.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Sync worker did not stop cleanly")
	}

	logger.Info("Server exited")
}

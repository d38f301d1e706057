// Package api provides the HTTP API server for the vault backend.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/oracle"
	"github.com/tghsx-backend/internal/service"
	"github.com/tghsx-backend/internal/types"
	"github.com/tghsx-backend/internal/worker"
)

// Service interfaces for dependency injection and testing

// AuthServiceInterface defines the auth operations the API consumes.
type AuthServiceInterface interface {
	Register(ctx context.Context, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

// VaultServiceInterface defines the user-facing vault operations.
type VaultServiceInterface interface {
	Status(ctx context.Context, userID string) (*service.StatusSummary, error)
	SaveWalletAddress(ctx context.Context, userID, address string) error
	ListCollaterals(ctx context.Context) ([]service.Collateral, error)
}

// MintServiceInterface defines the mint request workflow operations.
type MintServiceInterface interface {
	Submit(ctx context.Context, userID, collateralAddress, mintAmount string) (*models.MintRequest, error)
	Pending(ctx context.Context) ([]models.MintRequest, error)
	ListByUser(ctx context.Context, userID string) ([]models.MintRequest, error)
	Approve(ctx context.Context, requestID string) error
	Decline(ctx context.Context, requestID, reason string) error
}

// AdminServiceInterface defines the admin contract operations.
type AdminServiceInterface interface {
	Status(ctx context.Context) (*service.GlobalStatus, error)
	AutoMintConfig(ctx context.Context) (*service.AutoMintSettings, error)
	Pause(ctx context.Context) (string, error)
	Unpause(ctx context.Context) (string, error)
	ToggleAutoMint(ctx context.Context, enabled bool) (string, error)
	UpdateAutoMintConfig(ctx context.Context, input service.UpdateAutoMintConfigInput) (string, error)
	UpdatePrice(ctx context.Context, collateral, price string) (string, error)
	SetCollateralEnabled(ctx context.Context, collateral string, enabled bool) (string, error)
}

// LiquidationServiceInterface defines the liquidation operations.
type LiquidationServiceInterface interface {
	AtRisk(ctx context.Context) ([]service.AtRiskPosition, error)
	Liquidate(ctx context.Context, wallet, collateral string) (string, error)
}

// ProtocolServiceInterface defines the protocol health operations.
type ProtocolServiceInterface interface {
	Health(ctx context.Context) (*service.HealthReport, error)
}

// OracleServiceInterface defines the price oracle operations.
type OracleServiceInterface interface {
	EthGhsPrice(ctx context.Context) (*oracle.Quote, error)
}

// TransactionServiceInterface lists mirrored on-chain events.
type TransactionServiceInterface interface {
	ListByUser(ctx context.Context, userID string, eventName *types.EventName, limit, offset int) ([]models.Transaction, error)
}

// SyncStatusProvider exposes the background worker state for the health
// endpoint. Optional.
type SyncStatusProvider interface {
	GetStatus() worker.SyncStatus
}

// Server represents the HTTP API server.
type Server struct {
	router       *mux.Router
	httpServer   *http.Server
	authService  AuthServiceInterface
	vaultService VaultServiceInterface
	mintService  MintServiceInterface
	adminService AdminServiceInterface
	liquidations LiquidationServiceInterface
	protocol     ProtocolServiceInterface
	oracle       OracleServiceInterface
	transactions TransactionServiceInterface
	tokenParser  TokenParser
	syncStatus   SyncStatusProvider
	config       *ServerConfig
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerSecond int
	Burst             int
}

// ServerDeps bundles the collaborators the server routes to.
type ServerDeps struct {
	Auth         AuthServiceInterface
	Vault        VaultServiceInterface
	Mint         MintServiceInterface
	Admin        AdminServiceInterface
	Liquidations LiquidationServiceInterface
	Protocol     ProtocolServiceInterface
	Oracle       OracleServiceInterface
	Transactions TransactionServiceInterface
	TokenParser  TokenParser
	SyncStatus   SyncStatusProvider // optional
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, deps *ServerDeps) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		authService:  deps.Auth,
		vaultService: deps.Vault,
		mintService:  deps.Mint,
		adminService: deps.Admin,
		liquidations: deps.Liquidations,
		protocol:     deps.Protocol,
		oracle:       deps.Oracle,
		transactions: deps.Transactions,
		tokenParser:  deps.TokenParser,
		syncStatus:   deps.SyncStatus,
		config:       config,
	}

	s.setupRouter()
	return s
}

// Handler returns the configured root handler. Used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// middleware order matters
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)

	s.setupRoutes(NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes. The rate limiter runs after
// AuthMiddleware on protected subrouters so each authenticated user gets an
// independent budget; public routes are keyed by client IP.
func (s *Server) setupRoutes(rateLimiter *RateLimiter) {
	rateLimit := RateLimitMiddleware(rateLimiter)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// public routes
	public := s.router.NewRoute().Subrouter()
	public.Use(rateLimit)

	public.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	public.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	public.HandleFunc("/oracle/price", s.handleOraclePrice).Methods("GET")
	public.HandleFunc("/protocol/health", s.handleProtocolHealth).Methods("GET")

	// authenticated routes
	authed := s.router.NewRoute().Subrouter()
	authed.Use(AuthMiddleware(s.tokenParser))
	authed.Use(rateLimit)

	authed.HandleFunc("/vault/status", s.handleVaultStatus).Methods("GET")
	authed.HandleFunc("/vault/save-wallet-address", s.handleSaveWallet).Methods("POST")
	authed.HandleFunc("/vault/collaterals", s.handleListCollaterals).Methods("GET")
	authed.HandleFunc("/mint/request", s.handleMintRequest).Methods("POST")
	authed.HandleFunc("/mint/requests", s.handleMintRequestList).Methods("GET")
	authed.HandleFunc("/transactions", s.handleTransactions).Methods("GET")
	authed.HandleFunc("/liquidations/at-risk", s.handleAtRisk).Methods("GET")

	// admin routes
	admin := s.router.NewRoute().Subrouter()
	admin.Use(AuthMiddleware(s.tokenParser))
	admin.Use(rateLimit)
	admin.Use(AdminMiddleware)

	admin.HandleFunc("/mint/admin/approve", s.handleMintApprove).Methods("POST")
	admin.HandleFunc("/mint/admin/decline", s.handleMintDecline).Methods("POST")
	admin.HandleFunc("/admin/pending-requests", s.handlePendingRequests).Methods("GET")
	admin.HandleFunc("/admin/status", s.handleAdminStatus).Methods("GET")
	admin.HandleFunc("/admin/pause", s.handlePause).Methods("POST")
	admin.HandleFunc("/admin/unpause", s.handleUnpause).Methods("POST")
	admin.HandleFunc("/admin/automint-config", s.handleAutoMintConfig).Methods("GET")
	admin.HandleFunc("/admin/toggle-automint", s.handleToggleAutoMint).Methods("POST")
	admin.HandleFunc("/admin/update-automint-config", s.handleUpdateAutoMintConfig).Methods("POST")
	admin.HandleFunc("/admin/update-price", s.handleUpdatePrice).Methods("POST")
	admin.HandleFunc("/admin/disable-collateral", s.handleDisableCollateral).Methods("POST")
	admin.HandleFunc("/admin/liquidate", s.handleLiquidate).Methods("POST")
}

// handleHealth handles liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":  "healthy",
		"service": "tghsx-backend",
	}
	if s.syncStatus != nil {
		body["sync"] = s.syncStatus.GetStatus()
	}
	respondJSON(w, http.StatusOK, body)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	logging.Global().WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Global().Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

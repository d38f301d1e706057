package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("default server port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Postgres.Database != "tghsx" {
		t.Errorf("default postgres database = %q, want tghsx", cfg.Database.Postgres.Database)
	}
	if cfg.Sync.Interval != time.Hour {
		t.Errorf("default sync interval = %v, want 1h", cfg.Sync.Interval)
	}
	if cfg.Sync.FailureBackoff != 10*time.Second {
		t.Errorf("default failure backoff = %v, want 10s", cfg.Sync.FailureBackoff)
	}
	if cfg.Oracle.CacheTTL != 60*time.Second {
		t.Errorf("default oracle cache TTL = %v, want 60s", cfg.Oracle.CacheTTL)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("default token TTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "30m")
	t.Setenv("POSTGRES_MAX_CONNECTIONS", "7")
	t.Setenv("COLLATERAL_VAULT_ADDRESS", "0x1111111111111111111111111111111111111111")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Sync.Interval != 30*time.Minute {
		t.Errorf("sync interval = %v, want 30m", cfg.Sync.Interval)
	}
	if cfg.Database.Postgres.MaxConnections != 7 {
		t.Errorf("postgres max connections = %d, want 7", cfg.Database.Postgres.MaxConnections)
	}
	if cfg.Chain.VaultAddress != "0x1111111111111111111111111111111111111111" {
		t.Errorf("vault address not read from environment: %q", cfg.Chain.VaultAddress)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SYNC_INTERVAL", "not-a-duration")
	t.Setenv("RATE_LIMIT_RPS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Sync.Interval != time.Hour {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.Sync.Interval)
	}
	if cfg.RateLimit.RequestsPerSecond != 10 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() on empty config should fail")
	}

	cfg.Chain.RPCPrimary = "http://localhost:8545"
	cfg.Chain.VaultAddress = "0x1111111111111111111111111111111111111111"
	cfg.Auth.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on complete config returned error: %v", err)
	}
}

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tghsx-backend/internal/models"
)

// SnapshotRepository persists off-chain mirrors of on-chain vault positions
type SnapshotRepository struct {
	db *PostgresDB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *PostgresDB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert writes one position snapshot keyed by (user, collateral). A write
// whose last_synced_at is older than the stored row is silently dropped, so
// an overlapping or delayed sync cycle can never roll a snapshot backwards.
func (r *SnapshotRepository) Upsert(ctx context.Context, snap *models.VaultSnapshot) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO user_vaults (user_id, wallet_address, collateral_address, collateral_amount, minted_amount, last_synced_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, collateral_address) DO UPDATE SET
			wallet_address = EXCLUDED.wallet_address,
			collateral_amount = EXCLUDED.collateral_amount,
			minted_amount = EXCLUDED.minted_amount,
			last_synced_at = EXCLUDED.last_synced_at
		WHERE user_vaults.last_synced_at <= EXCLUDED.last_synced_at
	`, snap.UserID, snap.WalletAddress, snap.CollateralAddress, snap.CollateralAmount, snap.MintedAmount, snap.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert vault snapshot: %w", err)
	}
	return nil
}

// ListByUser returns a user's snapshots across all collaterals.
func (r *SnapshotRepository) ListByUser(ctx context.Context, userID string) ([]models.VaultSnapshot, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT user_id, wallet_address, collateral_address, collateral_amount, minted_amount, last_synced_at
		FROM user_vaults
		WHERE user_id = $1
		ORDER BY collateral_address
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vault snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// ListAll returns every stored snapshot, the population scanned for
// liquidation risk and protocol-level aggregates.
func (r *SnapshotRepository) ListAll(ctx context.Context) ([]models.VaultSnapshot, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT user_id, wallet_address, collateral_address, collateral_amount, minted_amount, last_synced_at
		FROM user_vaults
		ORDER BY user_id, collateral_address
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list vault snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshots(rows pgx.Rows) ([]models.VaultSnapshot, error) {
	var snaps []models.VaultSnapshot
	for rows.Next() {
		var snap models.VaultSnapshot
		if err := rows.Scan(
			&snap.UserID,
			&snap.WalletAddress,
			&snap.CollateralAddress,
			&snap.CollateralAmount,
			&snap.MintedAmount,
			&snap.LastSyncedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vault snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vault snapshots: %w", err)
	}
	return snaps, nil
}

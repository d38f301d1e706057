package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ProgressRepository tracks how far each background worker has advanced, so
// a restart resumes instead of rescanning from genesis.
type ProgressRepository struct {
	db *PostgresDB
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *PostgresDB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetLastBlock returns the last block a worker finished. An unknown worker
// returns (0, nil).
func (r *ProgressRepository) GetLastBlock(ctx context.Context, workerName string) (uint64, error) {
	var lastBlock int64
	err := r.db.Pool().QueryRow(ctx, `
		SELECT last_block FROM worker_progress WHERE worker_name = $1
	`, workerName).Scan(&lastBlock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get worker progress: %w", err)
	}
	return uint64(lastBlock), nil // #nosec G115 - stored non-negative
}

// SetLastBlock records a worker's high-water mark.
func (r *ProgressRepository) SetLastBlock(ctx context.Context, workerName string, block uint64) error {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO worker_progress (worker_name, last_block, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (worker_name) DO UPDATE SET
			last_block = EXCLUDED.last_block,
			updated_at = EXCLUDED.updated_at
	`, workerName, int64(block), time.Now().UTC()) // #nosec G115 - block numbers fit int64
	if err != nil {
		return fmt.Errorf("failed to set worker progress: %w", err)
	}
	return nil
}

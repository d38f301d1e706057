package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/types"
)

// TransactionRepository persists mirrored on-chain events
type TransactionRepository struct {
	db *PostgresDB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *PostgresDB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Upsert records an event, keyed by transaction hash. Replaying a block
// range the listener has already processed is a no-op per hash.
func (r *TransactionRepository) Upsert(ctx context.Context, tx *models.Transaction) error {
	eventData, err := json.Marshal(tx.EventData)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = r.db.Pool().Exec(ctx, `
		INSERT INTO transactions (tx_hash, user_id, event_name, event_data, block_number, block_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tx_hash) DO UPDATE SET
			event_name = EXCLUDED.event_name,
			event_data = EXCLUDED.event_data,
			block_number = EXCLUDED.block_number,
			block_timestamp = EXCLUDED.block_timestamp
	`, tx.TxHash, tx.UserID, tx.EventName, eventData, int64(tx.BlockNumber), tx.BlockTimestamp) // #nosec G115 - block numbers fit int64
	if err != nil {
		return fmt.Errorf("failed to upsert transaction: %w", err)
	}
	return nil
}

// ListByUser returns a user's event history, newest block first, optionally
// filtered by event name. limit and offset page the result.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, eventName *types.EventName, limit, offset int) ([]models.Transaction, error) {
	query := `
		SELECT tx_hash, user_id, event_name, event_data, block_number, block_timestamp
		FROM transactions
		WHERE user_id = $1
	`
	args := []interface{}{userID}

	if eventName != nil {
		query += fmt.Sprintf(" AND event_name = $%d", len(args)+1)
		args = append(args, *eventName)
	}
	query += fmt.Sprintf(" ORDER BY block_number DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	var txs []models.Transaction
	for rows.Next() {
		var (
			tx          models.Transaction
			eventData   []byte
			blockNumber int64
		)
		if err := rows.Scan(&tx.TxHash, &tx.UserID, &tx.EventName, &eventData, &blockNumber, &tx.BlockTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if len(eventData) > 0 {
			if err := json.Unmarshal(eventData, &tx.EventData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}
		tx.BlockNumber = uint64(blockNumber) // #nosec G115 - stored non-negative
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/types"
)

// MintRequestRepository handles mint request persistence
type MintRequestRepository struct {
	db *PostgresDB
}

// NewMintRequestRepository creates a new mint request repository
func NewMintRequestRepository(db *PostgresDB) *MintRequestRepository {
	return &MintRequestRepository{db: db}
}

// Create inserts a new pending mint request
func (r *MintRequestRepository) Create(ctx context.Context, req *models.MintRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = types.MintStatusPending
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO mint_requests (id, user_id, collateral_address, mint_amount, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, req.ID, req.UserID, req.CollateralAddress, req.MintAmount, req.Status, req.ErrorMessage, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create mint request: %w", err)
	}
	return nil
}

// GetByID retrieves a mint request by ID
func (r *MintRequestRepository) GetByID(ctx context.Context, id string) (*models.MintRequest, error) {
	var req models.MintRequest
	err := r.db.Pool().QueryRow(ctx, `
		SELECT id, user_id, collateral_address, mint_amount, status, error_message, created_at, updated_at
		FROM mint_requests
		WHERE id = $1
	`, id).Scan(
		&req.ID,
		&req.UserID,
		&req.CollateralAddress,
		&req.MintAmount,
		&req.Status,
		&req.ErrorMessage,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("mint request: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get mint request: %w", err)
	}
	return &req, nil
}

// ListByStatus returns requests in one status, oldest first so admins review
// them in arrival order.
func (r *MintRequestRepository) ListByStatus(ctx context.Context, status types.MintRequestStatus) ([]models.MintRequest, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT id, user_id, collateral_address, mint_amount, status, error_message, created_at, updated_at
		FROM mint_requests
		WHERE status = $1
		ORDER BY created_at
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list mint requests: %w", err)
	}
	defer rows.Close()

	return scanMintRequests(rows)
}

// ListByUser returns a user's requests, newest first.
func (r *MintRequestRepository) ListByUser(ctx context.Context, userID string) ([]models.MintRequest, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT id, user_id, collateral_address, mint_amount, status, error_message, created_at, updated_at
		FROM mint_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mint requests: %w", err)
	}
	defer rows.Close()

	return scanMintRequests(rows)
}

// UpdateStatus moves a request out of pending. Only pending requests can be
// decided; deciding an already-decided request returns ErrNotFound.
func (r *MintRequestRepository) UpdateStatus(ctx context.Context, id string, status types.MintRequestStatus, errorMessage *string) error {
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE mint_requests
		SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`, id, status, errorMessage, time.Now().UTC(), types.MintStatusPending)
	if err != nil {
		return fmt.Errorf("failed to update mint request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending mint request %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanMintRequests(rows pgx.Rows) ([]models.MintRequest, error) {
	var requests []models.MintRequest
	for rows.Next() {
		var req models.MintRequest
		if err := rows.Scan(
			&req.ID,
			&req.UserID,
			&req.CollateralAddress,
			&req.MintAmount,
			&req.Status,
			&req.ErrorMessage,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mint request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mint requests: %w", err)
	}
	return requests, nil
}

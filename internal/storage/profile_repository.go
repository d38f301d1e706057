package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tghsx-backend/internal/models"
)

// ProfileRepository handles wallet-linking persistence
type ProfileRepository struct {
	db *PostgresDB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *PostgresDB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves a user's profile
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Pool().QueryRow(ctx, `
		SELECT user_id, wallet_address, wallet_linked_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&profile.UserID, &profile.WalletAddress, &profile.WalletLinkedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// GetByWallet retrieves the profile that has linked a wallet address.
func (r *ProfileRepository) GetByWallet(ctx context.Context, wallet string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Pool().QueryRow(ctx, `
		SELECT user_id, wallet_address, wallet_linked_at
		FROM profiles
		WHERE wallet_address = $1
	`, wallet).Scan(&profile.UserID, &profile.WalletAddress, &profile.WalletLinkedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile by wallet: %w", err)
	}
	return &profile, nil
}

// LinkWallet stores a wallet address on a user's profile. Linking the same
// address to a second account returns ErrDuplicate.
func (r *ProfileRepository) LinkWallet(ctx context.Context, userID, wallet string) error {
	tag, err := r.db.Pool().Exec(ctx, `
		UPDATE profiles
		SET wallet_address = $2, wallet_linked_at = $3
		WHERE user_id = $1
	`, userID, wallet, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("wallet %s: %w", wallet, ErrDuplicate)
		}
		return fmt.Errorf("failed to link wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile: %w", ErrNotFound)
	}
	return nil
}

// ListLinked returns every profile with a wallet address, the population the
// sync worker iterates over.
func (r *ProfileRepository) ListLinked(ctx context.Context) ([]models.Profile, error) {
	rows, err := r.db.Pool().Query(ctx, `
		SELECT user_id, wallet_address, wallet_linked_at
		FROM profiles
		WHERE wallet_address IS NOT NULL
		ORDER BY user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list linked profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(&profile.UserID, &profile.WalletAddress, &profile.WalletLinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}
	return profiles, nil
}

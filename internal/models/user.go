// Package models defines the persistence models for the vault backend.
package models

import (
	"time"

	"github.com/tghsx-backend/internal/types"
)

// User represents an authenticated account
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         types.Role `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
}

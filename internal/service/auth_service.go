package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tghsx-backend/internal/auth"
	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/storage"
	"github.com/tghsx-backend/internal/types"
)

// AuthService handles registration and login.
type AuthService struct {
	users       UserStore
	issuer      *auth.TokenIssuer
	adminUserID string
}

// NewAuthService creates a new auth service. adminUserID designates the one
// account that receives the admin role at token issue.
func NewAuthService(users UserStore, issuer *auth.TokenIssuer, adminUserID string) *AuthService {
	return &AuthService{users: users, issuer: issuer, adminUserID: adminUserID}
}

// AuthResult is a successful registration or login.
type AuthResult struct {
	UserID string     `json:"userId"`
	Email  string     `json:"email"`
	Role   types.Role `json:"role"`
	Token  string     `json:"accessToken"`
}

// Register creates an account and returns a signed token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, types.NewServiceError(types.CodeValidation, "a valid email is required")
	}
	if len(password) < 8 {
		return nil, types.NewServiceError(types.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         types.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, types.NewServiceError(types.CodeConflict, "email is already registered")
		}
		return nil, err
	}

	return s.issue(user)
}

// Login verifies credentials and returns a signed token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, types.NewServiceError(types.CodeUnauthorized, "invalid email or password")
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, types.NewServiceError(types.CodeUnauthorized, "invalid email or password")
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	role := s.effectiveRole(user)

	token, err := s.issuer.Generate(user.ID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &AuthResult{
		UserID: user.ID,
		Email:  user.Email,
		Role:   role,
		Token:  token,
	}, nil
}

// effectiveRole resolves the role embedded in the token. Admin is granted to
// the configured admin account regardless of the stored role.
func (s *AuthService) effectiveRole(user *models.User) types.Role {
	if user.Role == types.RoleAdmin {
		return types.RoleAdmin
	}
	if s.adminUserID != "" && user.ID == s.adminUserID {
		return types.RoleAdmin
	}
	return types.RoleUser
}

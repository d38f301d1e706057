package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tghsx-backend/internal/auth"
	"github.com/tghsx-backend/internal/types"
)

func assertServiceError(t *testing.T, err error, code string) {
	t.Helper()
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, code, svcErr.Code)
}

func newAuthService(adminUserID string) (*AuthService, *fakeUsers) {
	users := newFakeUsers()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewAuthService(users, issuer, adminUserID), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService("")
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Alice@Example.com ", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", registered.Email)
	assert.Equal(t, types.RoleUser, registered.Role)
	assert.NotEmpty(t, registered.UserID)
	assert.NotEmpty(t, registered.Token)

	loggedIn, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, loggedIn.UserID)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc, _ := newAuthService("")
	ctx := context.Background()

	_, err := svc.Register(ctx, "not-an-email", "hunter2hunter2")
	assertServiceError(t, err, types.CodeValidation)

	_, err = svc.Register(ctx, "alice@example.com", "short")
	assertServiceError(t, err, types.CodeValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService("")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice@example.com", "otherpassword")
	assertServiceError(t, err, types.CodeConflict)
}

func TestLoginHidesWhichCredentialFailed(t *testing.T) {
	svc, _ := newAuthService("")
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody@example.com", "hunter2hunter2")
	assertServiceError(t, err, types.CodeUnauthorized)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assertServiceError(t, err, types.CodeUnauthorized)
}

func TestConfiguredAdminGetsAdminRole(t *testing.T) {
	users := newFakeUsers()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour)
	ctx := context.Background()

	svc := NewAuthService(users, issuer, "")
	registered, err := svc.Register(ctx, "ops@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, types.RoleUser, registered.Role)

	// same store, now with the account designated as admin
	svc = NewAuthService(users, issuer, registered.UserID)
	loggedIn, err := svc.Login(ctx, "ops@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, loggedIn.Role)

	claims, err := issuer.Parse(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, types.RoleAdmin, claims.Role)
}

package auth_test

import (
	"testing"
	"time"

	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)
	userID := uuid.New()
	companyID := uuid.New()

	token, err := svc.GenerateToken(userID, companyID, "user@example.com", "administrator")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, companyID, claims.CompanyID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "administrator", claims.Role)
	assert.Equal(t, "fieldflow", claims.Issuer)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestJWTService_RootTokenHasNilCompany(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken(uuid.New(), uuid.Nil, "root@example.com", "root")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, claims.CompanyID)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := auth.NewJWTService("test-secret", -time.Minute)

	token, err := svc.GenerateToken(uuid.New(), uuid.New(), "user@example.com", "technician")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTService_RejectsWrongSecret(t *testing.T) {
	svc := auth.NewJWTService("secret-a", time.Hour)
	other := auth.NewJWTService("secret-b", time.Hour)

	token, err := svc.GenerateToken(uuid.New(), uuid.New(), "user@example.com", "technician")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := auth.NewJWTService("test-secret", time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(tok)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", hash)

	assert.True(t, auth.CheckPassword("hunter2hunter2", hash))
	assert.False(t, auth.CheckPassword("wrong", hash))
}

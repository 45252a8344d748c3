package auth_test

import (
	"testing"

	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := auth.NewService(db, testutil.CreateTestJWTService())
	ctx := testutil.TestContext(t)

	company := testutil.CreateTestCompany(t, db)
	user := testutil.CreateTestUser(t, db, company, models.RoleTechnician)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginInput{
			Email:    user.Email,
			Password: "testpassword123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, user.ID, resp.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    user.Email,
			Password: "wrongpassword",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    "nobody@example.com",
			Password: "testpassword123",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("deactivated user", func(t *testing.T) {
		inactive := testutil.CreateTestUser(t, db, company, models.RoleTechnician)
		require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    inactive.Email,
			Password: "testpassword123",
		})
		assert.ErrorIs(t, err, auth.ErrInactiveUser)
	})

	t.Run("deactivated company locks out its users", func(t *testing.T) {
		frozen := testutil.CreateTestCompany(t, db)
		member := testutil.CreateTestUser(t, db, frozen, models.RoleValidator)
		require.NoError(t, db.Model(frozen).Update("is_active", false).Error)

		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    member.Email,
			Password: "testpassword123",
		})
		assert.ErrorIs(t, err, auth.ErrInactiveUser)
	})

	t.Run("root logs in without a company", func(t *testing.T) {
		root := testutil.CreateTestUser(t, db, nil, models.RoleRoot)

		resp, err := svc.Login(ctx, auth.LoginInput{
			Email:    root.Email,
			Password: "testpassword123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})
}

func TestService_GetUserByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := auth.NewService(db, testutil.CreateTestJWTService())
	ctx := testutil.TestContext(t)

	company := testutil.CreateTestCompany(t, db)
	user := testutil.CreateTestUser(t, db, company, models.RoleTechnician)

	got, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	require.NotNil(t, got.Company)
	assert.Equal(t, company.ID, got.Company.ID)
}

package identity_test

import (
	"testing"

	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/identity"
	"github.com/fieldflow/fieldflow/internal/notify"
	"github.com/fieldflow/fieldflow/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newIdentityService(t *testing.T) (*identity.Service, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	return identity.NewService(db, notify.Nop{}, testutil.DiscardLogger()), db
}

func TestService_Create(t *testing.T) {
	ctx := testutil.TestContext(t)

	t.Run("admin provisions a technician in own company", func(t *testing.T) {
		svc, db := newIdentityService(t)
		company := testutil.CreateTestCompany(t, db)
		admin := testutil.CreateTestUser(t, db, company, models.RoleAdministrator)

		user, err := svc.Create(ctx, admin, identity.CreateUserInput{
			Email: "tech@example.com",
			Name:  "Field Tech",
			Role:  models.RoleTechnician,
		})
		require.NoError(t, err)
		require.NotNil(t, user.CompanyID)
		assert.Equal(t, company.ID, *user.CompanyID)
		assert.True(t, user.IsActive)
		assert.NotEmpty(t, user.PasswordHash)

		// The stored hash is a real bcrypt hash, not the password itself.
		assert.False(t, auth.CheckPassword("tech@example.com", user.PasswordHash))
	})

	t.Run("nil actor is unauthenticated", func(t *testing.T) {
		svc, _ := newIdentityService(t)

		_, err := svc.Create(ctx, nil, identity.CreateUserInput{
			Email: "ghost@example.com",
			Name:  "Ghost",
			Role:  models.RoleTechnician,
		})
		assert.ErrorIs(t, err, authz.ErrUnauthenticated)
	})

	t.Run("technician cannot provision anyone", func(t *testing.T) {
		svc, db := newIdentityService(t)
		company := testutil.CreateTestCompany(t, db)
		tech := testutil.CreateTestUser(t, db, company, models.RoleTechnician)

		_, err := svc.Create(ctx, tech, identity.CreateUserInput{
			Email: "peer@example.com",
			Name:  "Peer",
			Role:  models.RoleTechnician,
		})
		assert.ErrorIs(t, err, authz.ErrRoleForbidden)
	})

	t.Run("admin cannot provision an administrator", func(t *testing.T) {
		svc, db := newIdentityService(t)
		company := testutil.CreateTestCompany(t, db)
		admin := testutil.CreateTestUser(t, db, company, models.RoleAdministrator)

		_, err := svc.Create(ctx, admin, identity.CreateUserInput{
			Email: "peer@example.com",
			Name:  "Peer",
			Role:  models.RoleAdministrator,
		})
		assert.ErrorIs(t, err, authz.ErrRoleForbidden)
	})

	t.Run("root provisions an administrator into any company", func(t *testing.T) {
		svc, db := newIdentityService(t)
		company := testutil.CreateTestCompany(t, db)
		root := testutil.CreateTestUser(t, db, nil, models.RoleRoot)

		user, err := svc.Create(ctx, root, identity.CreateUserInput{
			Email:     "admin@example.com",
			Name:      "Admin",
			Role:      models.RoleAdministrator,
			CompanyID: company.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdministrator, user.Role)
	})

	t.Run("root role cannot be provisioned", func(t *testing.T) {
		svc, db := newIdentityService(t)
		root := testutil.CreateTestUser(t, db, nil, models.RoleRoot)

		_, err := svc.Create(ctx, root, identity.CreateUserInput{
			Email: "root2@example.com",
			Name:  "Root 2",
			Role:  models.RoleRoot,
		})
		assert.ErrorIs(t, err, identity.ErrInvalidRole)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, db := newIdentityService(t)
		company := testutil.CreateTestCompany(t, db)
		admin := testutil.CreateTestUser(t, db, company, models.RoleAdministrator)

		_, err := svc.Create(ctx, admin, identity.CreateUserInput{
			Email: admin.Email,
			Name:  "Clone",
			Role:  models.RoleTechnician,
		})
		assert.ErrorIs(t, err, identity.ErrEmailTaken)
	})

	t.Run("seat limit is enforced", func(t *testing.T) {
		svc, db := newIdentityService(t)
		company := testutil.CreateTestCompany(t, db)
		require.NoError(t, db.Model(company).Update("max_users", 1).Error)
		admin := testutil.CreateTestUser(t, db, company, models.RoleAdministrator)

		_, err := svc.Create(ctx, admin, identity.CreateUserInput{
			Email: "overflow@example.com",
			Name:  "Overflow",
			Role:  models.RoleTechnician,
		})
		assert.ErrorIs(t, err, identity.ErrSeatLimit)
	})

	t.Run("missing company is reported", func(t *testing.T) {
		svc, db := newIdentityService(t)
		root := testutil.CreateTestUser(t, db, nil, models.RoleRoot)

		_, err := svc.Create(ctx, root, identity.CreateUserInput{
			Email:     "lost@example.com",
			Name:      "Lost",
			Role:      models.RoleTechnician,
			CompanyID: uuid.New(),
		})
		assert.Error(t, err)
	})
}

func TestService_ListIsTenantScoped(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, db := newIdentityService(t)

	companyA := testutil.CreateTestCompany(t, db)
	companyB := testutil.CreateTestCompany(t, db)
	adminA := testutil.CreateTestUser(t, db, companyA, models.RoleAdministrator)
	testutil.CreateTestUser(t, db, companyA, models.RoleTechnician)
	testutil.CreateTestUser(t, db, companyB, models.RoleTechnician)

	// Admin sees own company regardless of the requested id.
	users, err := svc.List(ctx, adminA, companyB.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		require.NotNil(t, u.CompanyID)
		assert.Equal(t, companyA.ID, *u.CompanyID)
	}
}

func TestService_DeactivateAndDelete(t *testing.T) {
	ctx := testutil.TestContext(t)
	svc, db := newIdentityService(t)

	company := testutil.CreateTestCompany(t, db)
	admin := testutil.CreateTestUser(t, db, company, models.RoleAdministrator)
	tech := testutil.CreateTestUser(t, db, company, models.RoleTechnician)

	require.NoError(t, svc.Deactivate(ctx, admin, tech.ID))

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, tech.ID).Error)
	assert.False(t, reloaded.IsActive)

	require.NoError(t, svc.Delete(ctx, admin, tech.ID))

	// Soft-deleted: gone from default queries, still present unscoped.
	err := db.First(&reloaded, tech.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, db.Unscoped().First(&reloaded, tech.ID).Error)
}

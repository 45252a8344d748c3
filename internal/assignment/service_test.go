package assignment_test

import (
	"testing"

	"github.com/fieldflow/fieldflow/internal/assignment"
	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type assignmentFixture struct {
	svc       *assignment.Service
	db        *gorm.DB
	company   *models.Company
	admin     *models.User
	tech      *models.User
	validator *models.User
	template  *models.FormTemplate
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	db := testutil.SetupTestDB(t)
	company := testutil.CreateTestCompany(t, db)
	admin := testutil.CreateTestUser(t, db, company, models.RoleAdministrator)
	return &assignmentFixture{
		svc:       assignment.NewService(db, testutil.DiscardLogger()),
		db:        db,
		company:   company,
		admin:     admin,
		tech:      testutil.CreateTestUser(t, db, company, models.RoleTechnician),
		validator: testutil.CreateTestUser(t, db, company, models.RoleValidator),
		template:  testutil.CreateTestTemplate(t, db, company, admin.ID),
	}
}

func TestService_Assign(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := testutil.TestContext(t)

	t.Run("assigns a technician", func(t *testing.T) {
		a, err := f.svc.Assign(ctx, f.admin, assignment.AssignInput{
			FormTemplateID: f.template.ID,
			UserID:         f.tech.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, f.admin.ID, a.AssignedBy)
		assert.False(t, a.IsCompleted)
	})

	t.Run("repeat assignment creates a new record", func(t *testing.T) {
		due := int64(1900000000)
		a, err := f.svc.Assign(ctx, f.admin, assignment.AssignInput{
			FormTemplateID: f.template.ID,
			UserID:         f.tech.ID,
			DueDate:        &due,
		})
		require.NoError(t, err)
		require.NotNil(t, a.DueDate)

		var count int64
		f.db.Model(&models.FormAssignment{}).
			Where("form_template_id = ? AND user_id = ?", f.template.ID, f.tech.ID).
			Count(&count)
		assert.Equal(t, int64(2), count)
	})

	t.Run("administrators cannot be assigned", func(t *testing.T) {
		other := testutil.CreateTestUser(t, f.db, f.company, models.RoleAdministrator)
		_, err := f.svc.Assign(ctx, f.admin, assignment.AssignInput{
			FormTemplateID: f.template.ID,
			UserID:         other.ID,
		})
		assert.ErrorIs(t, err, assignment.ErrNotAssignable)
	})

	t.Run("cross-company assignment is rejected", func(t *testing.T) {
		otherCompany := testutil.CreateTestCompany(t, f.db)
		outsider := testutil.CreateTestUser(t, f.db, otherCompany, models.RoleTechnician)
		_, err := f.svc.Assign(ctx, f.admin, assignment.AssignInput{
			FormTemplateID: f.template.ID,
			UserID:         outsider.ID,
		})
		assert.ErrorIs(t, err, authz.ErrTenantMismatch)
	})

	t.Run("technician cannot assign", func(t *testing.T) {
		_, err := f.svc.Assign(ctx, f.tech, assignment.AssignInput{
			FormTemplateID: f.template.ID,
			UserID:         f.validator.ID,
		})
		assert.ErrorIs(t, err, authz.ErrRoleForbidden)
	})
}

func TestService_PairValidator(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := testutil.TestContext(t)

	t.Run("pairs validator with technician", func(t *testing.T) {
		_, err := f.svc.PairValidator(ctx, f.admin, f.template.ID, f.validator.ID, f.tech.ID)
		require.NoError(t, err)

		paired, err := f.svc.IsPaired(ctx, f.template.ID, f.validator.ID, f.tech.ID)
		require.NoError(t, err)
		assert.True(t, paired)
	})

	t.Run("duplicate pairing is rejected", func(t *testing.T) {
		_, err := f.svc.PairValidator(ctx, f.admin, f.template.ID, f.validator.ID, f.tech.ID)
		assert.ErrorIs(t, err, assignment.ErrDuplicatePairing)
	})

	t.Run("roles must match", func(t *testing.T) {
		// Swapped: technician in the validator seat.
		_, err := f.svc.PairValidator(ctx, f.admin, f.template.ID, f.tech.ID, f.validator.ID)
		assert.ErrorIs(t, err, assignment.ErrInvalidPairing)
	})

	t.Run("pairing is scoped to its template", func(t *testing.T) {
		other := testutil.CreateTestTemplate(t, f.db, f.company, f.admin.ID)
		paired, err := f.svc.IsPaired(ctx, other.ID, f.validator.ID, f.tech.ID)
		require.NoError(t, err)
		assert.False(t, paired)
	})
}

func TestService_ListAndComplete(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := testutil.TestContext(t)

	created := testutil.CreateTestAssignment(t, f.db, f.template, f.tech, f.admin.ID)

	t.Run("user sees own assignments", func(t *testing.T) {
		list, err := f.svc.ListForUser(ctx, f.tech)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	})

	t.Run("other collaborators see nothing", func(t *testing.T) {
		list, err := f.svc.ListForUser(ctx, f.validator)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("admin completes an assignment", func(t *testing.T) {
		require.NoError(t, f.svc.Complete(ctx, f.admin, created.ID))

		var reloaded models.FormAssignment
		require.NoError(t, f.db.First(&reloaded, created.ID).Error)
		assert.True(t, reloaded.IsCompleted)
	})
}

func TestService_HasAssignment(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := testutil.TestContext(t)

	created := testutil.CreateTestAssignment(t, f.db, f.template, f.tech, f.admin.ID)

	has, err := f.svc.HasAssignment(ctx, f.template.ID, f.tech.ID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = f.svc.HasAssignment(ctx, f.template.ID, f.validator.ID)
	require.NoError(t, err)
	assert.False(t, has)

	// Completing the only assignment withdraws the grant.
	require.NoError(t, f.svc.Complete(ctx, f.admin, created.ID))

	has, err = f.svc.HasAssignment(ctx, f.template.ID, f.tech.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

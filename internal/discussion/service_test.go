package discussion_test

import (
	"testing"

	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/discussion"
	"github.com/fieldflow/fieldflow/internal/notify"
	"github.com/fieldflow/fieldflow/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type discussionFixture struct {
	svc     *discussion.Service
	db      *gorm.DB
	company *models.Company
	tech    *models.User
	admin   *models.User
}

func newDiscussionFixture(t *testing.T) *discussionFixture {
	db := testutil.SetupTestDB(t)
	company := testutil.CreateTestCompany(t, db)
	return &discussionFixture{
		svc:     discussion.NewService(db, notify.Nop{}, testutil.DiscardLogger()),
		db:      db,
		company: company,
		tech:    testutil.CreateTestUser(t, db, company, models.RoleTechnician),
		admin:   testutil.CreateTestUser(t, db, company, models.RoleAdministrator),
	}
}

func TestService_Open(t *testing.T) {
	ctx := testutil.TestContext(t)

	t.Run("opens a thread with the first message", func(t *testing.T) {
		f := newDiscussionFixture(t)

		d, err := f.svc.Open(ctx, f.tech, f.admin.ID, "Pump readings", "Values look off on site 4.")
		require.NoError(t, err)
		assert.Equal(t, f.tech.ID, d.SenderID)
		assert.Equal(t, f.admin.ID, d.RecipientID)

		msgs, err := f.svc.Messages(ctx, f.admin, d.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "Values look off on site 4.", msgs[0].Body)
		assert.Equal(t, f.tech.ID, msgs[0].SenderID)
	})

	t.Run("self discussion is rejected", func(t *testing.T) {
		f := newDiscussionFixture(t)
		_, err := f.svc.Open(ctx, f.tech, f.tech.ID, "Note to self", "hi")
		assert.ErrorIs(t, err, discussion.ErrSelfDiscussion)
	})

	t.Run("empty first message is rejected", func(t *testing.T) {
		f := newDiscussionFixture(t)
		_, err := f.svc.Open(ctx, f.tech, f.admin.ID, "Subject", "")
		assert.ErrorIs(t, err, discussion.ErrEmptyBody)
	})

	t.Run("recipient must share the company", func(t *testing.T) {
		f := newDiscussionFixture(t)
		otherCompany := testutil.CreateTestCompany(t, f.db)
		outsider := testutil.CreateTestUser(t, f.db, otherCompany, models.RoleTechnician)

		_, err := f.svc.Open(ctx, f.tech, outsider.ID, "Hello", "hi")
		assert.ErrorIs(t, err, authz.ErrTenantMismatch)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		f := newDiscussionFixture(t)
		_, err := f.svc.Open(ctx, f.tech, uuid.New(), "Hello", "hi")
		assert.Error(t, err)
	})
}

func TestService_PostAndRead(t *testing.T) {
	ctx := testutil.TestContext(t)
	f := newDiscussionFixture(t)

	d, err := f.svc.Open(ctx, f.tech, f.admin.ID, "Pump readings", "first")
	require.NoError(t, err)

	t.Run("both parties can post", func(t *testing.T) {
		_, err := f.svc.Post(ctx, f.admin, d.ID, "second")
		require.NoError(t, err)
		_, err = f.svc.Post(ctx, f.tech, d.ID, "third")
		require.NoError(t, err)

		msgs, err := f.svc.Messages(ctx, f.tech, d.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "first", msgs[0].Body)
		assert.Equal(t, "third", msgs[2].Body)
	})

	t.Run("empty body is rejected", func(t *testing.T) {
		_, err := f.svc.Post(ctx, f.admin, d.ID, "")
		assert.ErrorIs(t, err, discussion.ErrEmptyBody)
	})

	t.Run("third parties are locked out", func(t *testing.T) {
		other := testutil.CreateTestUser(t, f.db, f.company, models.RoleValidator)

		_, err := f.svc.Post(ctx, other, d.ID, "intruding")
		assert.ErrorIs(t, err, discussion.ErrNotParticipant)

		_, err = f.svc.Messages(ctx, other, d.ID)
		assert.ErrorIs(t, err, discussion.ErrNotParticipant)
	})

	t.Run("unknown thread", func(t *testing.T) {
		_, err := f.svc.Post(ctx, f.admin, uuid.New(), "hello?")
		assert.ErrorIs(t, err, discussion.ErrDiscussionNotFound)
	})
}

func TestService_ListForUser(t *testing.T) {
	ctx := testutil.TestContext(t)
	f := newDiscussionFixture(t)
	validator := testutil.CreateTestUser(t, f.db, f.company, models.RoleValidator)

	first, err := f.svc.Open(ctx, f.tech, f.admin.ID, "A", "a")
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, f.admin, validator.ID, "B", "b")
	require.NoError(t, err)

	t.Run("participant sees own threads only", func(t *testing.T) {
		list, err := f.svc.ListForUser(ctx, f.tech)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, first.ID, list[0].ID)
	})

	t.Run("recipient sees the thread too", func(t *testing.T) {
		list, err := f.svc.ListForUser(ctx, f.admin)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})
}

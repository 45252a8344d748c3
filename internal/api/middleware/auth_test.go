package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldflow/fieldflow/internal/api/middleware"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	jwtService := testutil.CreateTestJWTService()
	db := testutil.SetupTestDB(t)
	company := testutil.CreateTestCompany(t, db)
	user := testutil.CreateTestUser(t, db, company, models.RoleTechnician)
	token := testutil.GenerateTestToken(t, jwtService, user)

	handler := middleware.Auth(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, user.ID, middleware.GetUserID(r.Context()))
		assert.Equal(t, company.ID, middleware.GetCompanyID(r.Context()))
		assert.Equal(t, user.Email, middleware.GetUserEmail(r.Context()))
		assert.Equal(t, string(models.RoleTechnician), middleware.GetUserRole(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("bearer token", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/", nil, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("cookie token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/", nil, "not-a-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestLoadActor(t *testing.T) {
	jwtService := testutil.CreateTestJWTService()
	db := testutil.SetupTestDB(t)
	company := testutil.CreateTestCompany(t, db)
	user := testutil.CreateTestUser(t, db, company, models.RoleTechnician)
	token := testutil.GenerateTestToken(t, jwtService, user)

	var seen *models.User
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Auth(jwtService)(middleware.LoadActor(db)(inner))

	t.Run("loads the account fresh from storage", func(t *testing.T) {
		require.NoError(t, db.Model(user).Update("name", "Renamed").Error)

		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/", nil, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
		require.NotNil(t, seen)
		assert.Equal(t, "Renamed", seen.Name)
	})

	t.Run("deleted account yields 401 despite a valid token", func(t *testing.T) {
		ghost := testutil.CreateTestUser(t, db, company, models.RoleTechnician)
		ghostToken := testutil.GenerateTestToken(t, jwtService, ghost)
		require.NoError(t, db.Delete(ghost).Error)

		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/", nil, ghostToken)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})
}

func TestGetActor_Absent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, middleware.GetActor(req.Context()))
	assert.Equal(t, uuid.Nil, middleware.GetUserID(req.Context()))
}

package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldflow/fieldflow/internal/api"
	"github.com/fieldflow/fieldflow/internal/api/dto"
	"github.com/fieldflow/fieldflow/internal/api/handlers"
	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/realtime"
	"github.com/fieldflow/fieldflow/internal/testutil"
	"github.com/fieldflow/fieldflow/pkg/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, ts *testutil.TestSetup) *api.Router {
	t.Helper()

	encryptor, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	return api.NewRouter(api.RouterConfig{
		DB:          ts.DB,
		Logger:      testutil.DiscardLogger(),
		JWTService:  ts.JWTService,
		AuthService: auth.NewService(ts.DB, ts.JWTService),
		Encryptor:   encryptor,
	})
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	ts := testutil.NewTestContext(t)
	defer ts.Cleanup()
	router := newTestRouter(t, ts)

	rr := serve(router, testutil.UnauthenticatedRequest(t, http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp handlers.HealthResponse
	testutil.ParseJSONResponse(t, rr, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Services["database"])
}

func TestRouter_AuthFlow(t *testing.T) {
	ts := testutil.NewTestContext(t)
	defer ts.Cleanup()
	router := newTestRouter(t, ts)

	t.Run("login returns token and user", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
			Email:    ts.Admin.Email,
			Password: "testpassword123",
		})
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, ts.Admin.Email, resp.User.Email)

		// Token cookie is set for browser clients.
		cookies := rr.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "token", cookies[0].Name)
	})

	t.Run("wrong password yields 401", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
			Email:    ts.Admin.Email,
			Password: "wrong",
		})
		testutil.AssertStatus(t, serve(router, req), http.StatusUnauthorized)
	})

	t.Run("me requires a token", func(t *testing.T) {
		rr := serve(router, testutil.UnauthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("me returns the authenticated account", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/me", nil, ts.Token))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var user dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &user)
		assert.Equal(t, ts.Admin.ID.String(), user.ID)
		assert.Equal(t, ts.Company.ID.String(), user.CompanyID)
	})
}

func TestRouter_CompanyManagementIsRootOnly(t *testing.T) {
	ts := testutil.NewTestContext(t)
	defer ts.Cleanup()
	router := newTestRouter(t, ts)

	root := testutil.CreateTestUser(t, ts.DB, nil, models.RoleRoot)
	rootToken := testutil.GenerateTestToken(t, ts.JWTService, root)

	body := handlers.CreateCompanyRequest{Name: "Northwind Field Ops"}

	t.Run("admin gets 403", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/companies", body, ts.Token)
		testutil.AssertStatus(t, serve(router, req), http.StatusForbidden)
	})

	t.Run("root creates a company", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/companies", body, rootToken)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		var company models.Company
		testutil.ParseJSONResponse(t, rr, &company)
		assert.Equal(t, "Northwind Field Ops", company.Name)
		assert.True(t, company.IsActive)
	})
}

func TestRouter_SubmissionLifecycle(t *testing.T) {
	ts := testutil.NewTestContext(t)
	defer ts.Cleanup()
	router := newTestRouter(t, ts)

	tech := testutil.CreateTestUser(t, ts.DB, ts.Company, models.RoleTechnician)
	validator := testutil.CreateTestUser(t, ts.DB, ts.Company, models.RoleValidator)
	techToken := testutil.GenerateTestToken(t, ts.JWTService, tech)
	validatorToken := testutil.GenerateTestToken(t, ts.JWTService, validator)

	template := testutil.CreateTestTemplate(t, ts.DB, ts.Company, ts.Admin.ID)
	testutil.CreateTestAssignment(t, ts.DB, template, tech, ts.Admin.ID)
	testutil.CreateTestPairing(t, ts.DB, template, validator, tech)

	type submissionView struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}

	var created submissionView

	t.Run("technician creates a draft", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/submissions", handlers.CreateSubmissionRequest{
			FormTemplateID: template.ID.String(),
			FormData:       map[string]any{"notes": "pump 4 leaking", "severity": "high"},
		}, techToken)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusCreated)

		testutil.ParseJSONResponse(t, rr, &created)
		assert.Equal(t, string(models.SubmissionStatusDraft), created.Status)
	})

	t.Run("unassigned technician gets 403", func(t *testing.T) {
		other := testutil.CreateTestUser(t, ts.DB, ts.Company, models.RoleTechnician)
		otherToken := testutil.GenerateTestToken(t, ts.JWTService, other)

		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/submissions", handlers.CreateSubmissionRequest{
			FormTemplateID: template.ID.String(),
			FormData:       map[string]any{"notes": "x"},
		}, otherToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusForbidden)
	})

	t.Run("unknown field yields 422", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/submissions", handlers.CreateSubmissionRequest{
			FormTemplateID: template.ID.String(),
			FormData:       map[string]any{"bogus": true},
		}, techToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusUnprocessableEntity)
	})

	t.Run("owner submits the draft", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/submissions/"+created.ID+"/submit", nil, techToken)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var sub submissionView
		testutil.ParseJSONResponse(t, rr, &sub)
		assert.Equal(t, string(models.SubmissionStatusSubmitted), sub.Status)
	})

	t.Run("submitted draft cannot be edited", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPut, "/api/v1/submissions/"+created.ID, handlers.UpdateSubmissionRequest{
			FormData: map[string]any{"notes": "changed my mind"},
		}, techToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusConflict)
	})

	t.Run("paired validator sees it pending", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/submissions/pending", nil, validatorToken))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var pending []submissionView
		testutil.ParseJSONResponse(t, rr, &pending)
		require.Len(t, pending, 1)
		assert.Equal(t, created.ID, pending[0].ID)
	})

	t.Run("paired validator validates", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/submissions/"+created.ID+"/validate", nil, validatorToken)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var sub submissionView
		testutil.ParseJSONResponse(t, rr, &sub)
		assert.Equal(t, string(models.SubmissionStatusValidated), sub.Status)
	})

	t.Run("late refusal yields 409", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/submissions/"+created.ID+"/refuse", nil, validatorToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusConflict)
	})

	t.Run("unpaired validator gets 403", func(t *testing.T) {
		stranger := testutil.CreateTestUser(t, ts.DB, ts.Company, models.RoleValidator)
		strangerToken := testutil.GenerateTestToken(t, ts.JWTService, stranger)

		second := testutil.CreateTestSubmission(t, ts.DB, template, tech, models.SubmissionStatusSubmitted)
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/submissions/"+second.ID.String()+"/validate", nil, strangerToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusForbidden)
	})

	t.Run("unknown submission yields 404", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/submissions/"+uuid.NewString(), nil, techToken)
		testutil.AssertStatus(t, serve(router, req), http.StatusNotFound)
	})
}

func TestRouter_TemplateQuota(t *testing.T) {
	ts := testutil.NewTestContext(t)
	defer ts.Cleanup()
	router := newTestRouter(t, ts)

	body := handlers.CreateTemplateRequest{
		Title: "Daily Checklist",
		Fields: []models.FieldDefinition{
			{ID: "ok", Label: "All good", Type: models.FieldTypeCheckbox},
		},
	}

	req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/templates", body, ts.Token)
	testutil.AssertStatus(t, serve(router, req), http.StatusCreated)

	require.NoError(t, ts.DB.Model(&models.Subscription{}).
		Where("company_id = ?", ts.Company.ID).
		Update("forms_to_create", 0).Error)

	req = testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/templates", body, ts.Token)
	testutil.AssertStatus(t, serve(router, req), http.StatusConflict)
}

func TestRouter_Discussions(t *testing.T) {
	ts := testutil.NewTestContext(t)
	defer ts.Cleanup()
	router := newTestRouter(t, ts)

	tech := testutil.CreateTestUser(t, ts.DB, ts.Company, models.RoleTechnician)
	techToken := testutil.GenerateTestToken(t, ts.JWTService, tech)

	req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/discussions", handlers.OpenDiscussionRequest{
		RecipientID: ts.Admin.ID.String(),
		Subject:     "Schedule",
		Body:        "Can we move Friday's visit?",
	}, techToken)
	rr := serve(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var opened struct {
		ID string `json:"id"`
	}
	testutil.ParseJSONResponse(t, rr, &opened)

	req = testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/discussions/"+opened.ID+"/messages", handlers.PostMessageRequest{
		Body: "Sure, Monday works.",
	}, ts.Token)
	testutil.AssertStatus(t, serve(router, req), http.StatusCreated)

	rr = serve(router, testutil.AuthenticatedRequest(t, http.MethodGet, "/api/v1/discussions/"+opened.ID+"/messages", nil, techToken))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var messages []struct {
		Body string `json:"body"`
	}
	testutil.ParseJSONResponse(t, rr, &messages)
	require.Len(t, messages, 2)
	assert.Equal(t, "Can we move Friday's visit?", messages[0].Body)
}

func TestRouter_RealtimeAuth(t *testing.T) {
	ts := testutil.NewTestContext(t)
	defer ts.Cleanup()
	router := newTestRouter(t, ts)

	t.Run("own user channel is granted", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/realtime/auth", handlers.ChannelAuthRequest{
			Channel: realtime.UserChannel(ts.Admin.ID),
		}, ts.Token)
		rr := serve(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp handlers.ChannelAuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.True(t, resp.Authorized)
	})

	t.Run("someone else's channel is refused", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, http.MethodPost, "/api/v1/realtime/auth", handlers.ChannelAuthRequest{
			Channel: realtime.UserChannel(uuid.New()),
		}, ts.Token)
		testutil.AssertStatus(t, serve(router, req), http.StatusForbidden)
	})
}

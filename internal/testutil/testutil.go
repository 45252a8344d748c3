package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldflow/fieldflow/internal/auth"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Company{},
		&models.Subscription{},
		&models.User{},
		&models.FormTemplate{},
		&models.FormAssignment{},
		&models.ValidatorPairing{},
		&models.FormSubmission{},
		&models.Discussion{},
		&models.DiscussionMessage{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestCompany creates an active company with a subscription window
// spanning the past and next 30 days.
func CreateTestCompany(t *testing.T, db *gorm.DB) *models.Company {
	t.Helper()

	company := &models.Company{
		Base:     models.Base{ID: uuid.New()},
		Name:     "Test Company",
		Slug:     "test-company-" + uuid.New().String()[:8],
		IsActive: true,
		MaxUsers: 25,
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}

	sub := &models.Subscription{
		CompanyID:      company.ID,
		AvailableForms: 10,
		FormsToCreate:  10,
		StartsAt:       time.Now().Add(-30 * 24 * time.Hour),
		EndsAt:         time.Now().Add(30 * 24 * time.Hour),
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test subscription: %v", err)
	}

	return company
}

// CreateTestUser creates an active user with the given role. Pass a nil
// company for root users.
func CreateTestUser(t *testing.T, db *gorm.DB, company *models.Company, role models.Role) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Base:         models.Base{ID: uuid.New()},
		Email:        "test-" + uuid.New().String()[:8] + "@example.com",
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
		IsActive:     true,
	}
	if company != nil {
		user.CompanyID = &company.ID
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	user.Company = company
	return user
}

// CreateTestTemplate creates an active template with a minimal valid schema.
func CreateTestTemplate(t *testing.T, db *gorm.DB, company *models.Company, createdBy uuid.UUID) *models.FormTemplate {
	t.Helper()

	template := &models.FormTemplate{
		Base:      models.Base{ID: uuid.New()},
		CompanyID: company.ID,
		CreatedBy: createdBy,
		Title:     "Test Template",
		IsActive:  true,
		Fields: []models.FieldDefinition{
			{ID: "notes", Label: "Notes", Type: models.FieldTypeText, Required: true},
			{ID: "severity", Label: "Severity", Type: models.FieldTypeSelect, Options: []string{"low", "high"}},
		},
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("failed to create test template: %v", err)
	}

	return template
}

// CreateTestAssignment assigns a user to a template.
func CreateTestAssignment(t *testing.T, db *gorm.DB, template *models.FormTemplate, user *models.User, assignedBy uuid.UUID) *models.FormAssignment {
	t.Helper()

	assignment := &models.FormAssignment{
		Base:           models.Base{ID: uuid.New()},
		FormTemplateID: template.ID,
		UserID:         user.ID,
		AssignedBy:     assignedBy,
	}
	if err := db.Create(assignment).Error; err != nil {
		t.Fatalf("failed to create test assignment: %v", err)
	}

	return assignment
}

// CreateTestPairing authorizes a validator for a technician on a template.
func CreateTestPairing(t *testing.T, db *gorm.DB, template *models.FormTemplate, validator, technician *models.User) *models.ValidatorPairing {
	t.Helper()

	pairing := &models.ValidatorPairing{
		Base:           models.Base{ID: uuid.New()},
		FormTemplateID: template.ID,
		ValidatorID:    validator.ID,
		TechnicianID:   technician.ID,
	}
	if err := db.Create(pairing).Error; err != nil {
		t.Fatalf("failed to create test pairing: %v", err)
	}

	return pairing
}

// CreateTestSubmission creates a submission in the given status.
func CreateTestSubmission(t *testing.T, db *gorm.DB, template *models.FormTemplate, submitter *models.User, status models.SubmissionStatus) *models.FormSubmission {
	t.Helper()

	sub := &models.FormSubmission{
		Base:           models.Base{ID: uuid.New()},
		FormTemplateID: template.ID,
		CompanyID:      template.CompanyID,
		SubmitterID:    submitter.ID,
		Status:         status,
		FormData:       map[string]any{"notes": "test"},
	}
	if status != models.SubmissionStatusDraft {
		sub.SubmittedAt = time.Now().Unix()
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("failed to create test submission: %v", err)
	}

	return sub
}

// DiscardLogger returns a logger that drops everything below error level.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.TenantID(), user.Email, string(user.Role))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestSetup holds the common test dependencies: a company with an active
// subscription, an administrator in it, and a token for the administrator.
type TestSetup struct {
	DB         *gorm.DB
	JWTService *auth.JWTService
	Company    *models.Company
	Admin      *models.User
	Token      string
}

// NewTestContext creates a complete test setup.
func NewTestContext(t *testing.T) *TestSetup {
	t.Helper()

	db := SetupTestDB(t)
	jwtService := CreateTestJWTService()
	company := CreateTestCompany(t, db)
	admin := CreateTestUser(t, db, company, models.RoleAdministrator)
	token := GenerateTestToken(t, jwtService, admin)

	return &TestSetup{
		DB:         db,
		JWTService: jwtService,
		Company:    company,
		Admin:      admin,
		Token:      token,
	}
}

// Cleanup closes the test database
func (ts *TestSetup) Cleanup() {
	if ts.DB != nil {
		sqlDB, err := ts.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldflow/fieldflow/internal/assignment"
	"github.com/fieldflow/fieldflow/internal/authz"
	"github.com/fieldflow/fieldflow/internal/catalog"
	"github.com/fieldflow/fieldflow/internal/database/models"
	"github.com/fieldflow/fieldflow/internal/notify"
	"github.com/fieldflow/fieldflow/internal/realtime"
	"github.com/fieldflow/fieldflow/pkg/crypto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrTemplateInactive   = errors.New("template is not active")
	ErrNotAssigned        = errors.New("no assignment for this template")
	ErrNotOwner           = errors.New("submission belongs to another user")
	ErrDataInvalid        = errors.New("form data does not match template schema")
	ErrImmutableState     = errors.New("submission is no longer editable")
	ErrStateConflict      = errors.New("submission status changed concurrently")
	ErrPairingRequired    = errors.New("validator is not paired with the submitter")
)

// Service drives the submission state machine:
//
//	draft -> submitted -> {validated, refused}
//
// validated and refused are terminal; a refused submission is not returned to
// draft. Every transition is a compare-and-swap on the stored status, so of
// two concurrent decisions on one submission at most one lands.
type Service struct {
	db          *gorm.DB
	assignments *assignment.Service
	notifier    notify.Notifier
	encryptor   *crypto.Encryptor
	logger      *slog.Logger
}

func NewService(db *gorm.DB, assignments *assignment.Service, notifier notify.Notifier, encryptor *crypto.Encryptor, logger *slog.Logger) *Service {
	return &Service{
		db:          db,
		assignments: assignments,
		notifier:    notifier,
		encryptor:   encryptor,
		logger:      logger,
	}
}

type CreateInput struct {
	FormTemplateID uuid.UUID
	FormData       map[string]any
	LocationData   string // plaintext; encrypted before storage
}

// Create opens a draft for an assigned collaborator against an active
// template.
func (s *Service) Create(ctx context.Context, actor *models.User, input CreateInput) (*models.FormSubmission, error) {
	template, err := s.findTemplate(ctx, input.FormTemplateID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpSubmissionCreate, template); err != nil {
		return nil, err
	}
	if !template.IsActive {
		return nil, ErrTemplateInactive
	}

	assigned, err := s.assignments.HasAssignment(ctx, template.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrNotAssigned
	}

	if err := validateData(template, input.FormData); err != nil {
		return nil, err
	}

	location, err := s.sealLocation(input.LocationData)
	if err != nil {
		return nil, err
	}

	sub := models.FormSubmission{
		FormTemplateID: template.ID,
		CompanyID:      template.CompanyID,
		SubmitterID:    actor.ID,
		Status:         models.SubmissionStatusDraft,
		FormData:       input.FormData,
		LocationData:   location,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("creating submission: %w", err)
	}
	return &sub, nil
}

// Update replaces a draft's data. Only the submitter may edit, and only
// while the submission is still a draft.
func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, data map[string]any, locationData string) (*models.FormSubmission, error) {
	sub, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	template, err := s.findTemplate(ctx, sub.FormTemplateID)
	if err != nil {
		return nil, err
	}
	if err := validateData(template, data); err != nil {
		return nil, err
	}

	updates := map[string]any{"form_data": data}
	if locationData != "" {
		location, err := s.sealLocation(locationData)
		if err != nil {
			return nil, err
		}
		updates["location_data"] = location
	}

	// Guarded on the draft status so a concurrent submit cannot lose the
	// edit silently.
	res := s.db.WithContext(ctx).Model(&models.FormSubmission{}).
		Where("id = ? AND status = ?", id, models.SubmissionStatusDraft).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrImmutableState
	}

	return s.findOwned(ctx, actor, id)
}

// Submit moves a draft to submitted.
func (s *Service) Submit(ctx context.Context, actor *models.User, id uuid.UUID) (*models.FormSubmission, error) {
	sub, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	err = s.transition(ctx, sub.ID, models.SubmissionStatusDraft, models.SubmissionStatusSubmitted, map[string]any{
		"submitted_at": time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}
	return s.findOwned(ctx, actor, id)
}

// Validate moves a submitted submission to validated. The validator must be
// explicitly paired with the submitter for this template; there is no
// implicit authority.
func (s *Service) Validate(ctx context.Context, actor *models.User, id uuid.UUID) (*models.FormSubmission, error) {
	return s.decide(ctx, actor, id, models.SubmissionStatusValidated, realtime.EventSubmissionValidated)
}

// Refuse moves a submitted submission to refused, recording who refused and
// when in the same fields a validation would use.
func (s *Service) Refuse(ctx context.Context, actor *models.User, id uuid.UUID) (*models.FormSubmission, error) {
	return s.decide(ctx, actor, id, models.SubmissionStatusRefused, realtime.EventSubmissionRefused)
}

func (s *Service) decide(ctx context.Context, actor *models.User, id uuid.UUID, to models.SubmissionStatus, event string) (*models.FormSubmission, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpSubmissionValidate, sub); err != nil {
		return nil, err
	}

	paired, err := s.assignments.IsPaired(ctx, sub.FormTemplateID, actor.ID, sub.SubmitterID)
	if err != nil {
		return nil, err
	}
	if !paired {
		return nil, ErrPairingRequired
	}

	err = s.transition(ctx, sub.ID, models.SubmissionStatusSubmitted, to, map[string]any{
		"validated_by": actor.ID,
		"validated_at": time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}

	decided, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	// Broadcast is best-effort and outside the transition's atomicity.
	s.notifier.SubmissionDecided(ctx, decided, actor, event)

	return decided, nil
}

// transition performs the compare-and-swap at the heart of the lifecycle:
// the row is only touched if its stored status still matches the expected
// prior state. Zero rows affected means someone else won the race.
func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to models.SubmissionStatus, extra map[string]any) error {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	res := s.db.WithContext(ctx).Model(&models.FormSubmission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateConflict
	}
	return nil
}

func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.FormSubmission, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpSubmissionRead, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Location decrypts a submission's location trace for an authorized reader.
func (s *Service) Location(ctx context.Context, actor *models.User, id uuid.UUID) (string, error) {
	sub, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if sub.LocationData == "" {
		return "", nil
	}
	return s.encryptor.DecryptString(sub.LocationData)
}

// ListForUser returns the actor's own submissions.
func (s *Service) ListForUser(ctx context.Context, actor *models.User) ([]models.FormSubmission, error) {
	if err := authz.Check(actor, authz.OpSubmissionRead, nil); err != nil {
		return nil, err
	}

	var subs []models.FormSubmission
	err := s.db.WithContext(ctx).
		Where("submitter_id = ?", actor.ID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListPending returns the company's submissions awaiting a decision.
func (s *Service) ListPending(ctx context.Context, actor *models.User, companyID uuid.UUID) ([]models.FormSubmission, error) {
	if actor != nil && actor.Role != models.RoleRoot {
		companyID = actor.TenantID()
	}
	company := models.Company{Base: models.Base{ID: companyID}}
	if err := authz.Check(actor, authz.OpSubmissionPending, &company); err != nil {
		return nil, err
	}

	var subs []models.FormSubmission
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND status = ?", companyID, models.SubmissionStatusSubmitted).
		Order("submitted_at ASC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// validateData rejects values keyed by field ids the template does not
// define. Field-level value validation is a UI concern and stays out of the
// core.
func validateData(template *models.FormTemplate, data map[string]any) error {
	for id := range data {
		if template.Field(id) == nil {
			return fmt.Errorf("%w: unknown field %q", ErrDataInvalid, id)
		}
	}
	return nil
}

func (s *Service) sealLocation(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	sealed, err := s.encryptor.EncryptString(plaintext)
	if err != nil {
		return "", fmt.Errorf("encrypting location data: %w", err)
	}
	return sealed, nil
}

func (s *Service) findOwned(ctx context.Context, actor *models.User, id uuid.UUID) (*models.FormSubmission, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.OpSubmissionRead, sub); err != nil {
		return nil, err
	}
	if sub.SubmitterID != actor.ID {
		return nil, ErrNotOwner
	}
	return sub, nil
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*models.FormSubmission, error) {
	var sub models.FormSubmission
	if err := s.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Service) findTemplate(ctx context.Context, id uuid.UUID) (*models.FormTemplate, error) {
	var template models.FormTemplate
	if err := s.db.WithContext(ctx).First(&template, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}
